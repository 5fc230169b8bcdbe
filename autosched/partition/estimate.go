// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package partition implements §4.7, the auto-scheduler's Partitioner:
// a two-phase agglomerative clustering of the function DAG into fusion
// groups, scored by a two-level memory cost model. It produces a Plan
// the schedule emitter (autosched/emit) turns into concrete Schedule
// directives; the partitioner itself never mutates a Schedule.
package partition

// Estimate is the per-function sizing and cost input the partitioner
// needs but neither the IR nor the schedule package carries on its
// own: an estimated extent per axis (func_value_bounds, §6's auto-
// scheduler entry parameter, concretised to a single representative
// number per axis), an element size for the footprint model, and a
// relative per-element operation cost for the work model.
type Estimate struct {
	// DimEstimate maps an axis name (one of the function's own Args) to
	// its estimated domain extent.
	DimEstimate map[string]int64
	// BytesPerElement is the footprint model's byte factor (§4.7's
	// inter_s = sum of bytes × box-area).
	BytesPerElement int64
	// OpCost is the relative cost of producing one output element,
	// used by both the redundant-work and original-work terms.
	OpCost float64
}

func (e Estimate) dim(axis string) int64 {
	if e.DimEstimate == nil {
		return 0
	}
	return e.DimEstimate[axis]
}
