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

// Package autosched is §6's second exported entry point: it wires the
// Partitioner (autosched/partition) and the Schedule Emitter
// (autosched/emit) into the single call a driver needs to turn a
// function environment with no schedule decisions yet into one with
// every store_at/compute_at, split and parallel/vectorized marking
// filled in.
package autosched

import (
	"github.com/gx-org/loopsched/autosched/emit"
	"github.com/gx-org/loopsched/autosched/partition"
	"github.com/gx-org/loopsched/config"
	"github.com/gx-org/loopsched/diag"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// defaultBytesPerElement and defaultOpCost seed every Estimate's
// footprint/work model when the caller has no per-function measurement
// of its own; func_value_bounds (§6) only ever supplies an extent box,
// never a byte width or an operation cost, so both constants are a
// documented simplification (see DESIGN.md) rather than a value read
// from anywhere in the pipeline's IR.
const (
	defaultBytesPerElement = 4
	defaultOpCost          = 1.0
)

// Run partitions and emits a schedule for every function transitively
// reachable from outputs. order must be a realisation order over the
// same call graph (leaves first, as returned by ir.RealizationOrder);
// callers that already computed one for another purpose (diagnostics,
// validation) pass it through here rather than have it recomputed.
// funcValueBounds gives each function's conservative pure-stage domain
// estimate (§3's FuncValueBounds); a function absent from the map gets
// a zero-extent Estimate, which the partitioner's footprint test always
// treats as infeasible to merge — a function an auto-schedule caller
// forgot to bound simply stays unfused rather than wrongly fused.
//
// Run mutates every bounded function's schedule.Schedule in place and
// returns the plan that produced those mutations alongside env filtered
// down to the group-output (root-realised) functions.
func Run(outputs, order []string, env schedule.Environment, funcValueBounds map[string]ir.Box, params config.MachineParams) (*partition.Plan, schedule.Environment, error) {
	for _, name := range outputs {
		f, ok := env[name]
		if !ok {
			return nil, nil, diag.InternalErrorf(diag.At{Func: name, Stage: -1},
				"autosched: output %s is not present in env", name)
		}
		if !f.IsOutput {
			return nil, nil, diag.InternalErrorf(diag.At{Func: name, Stage: -1},
				"autosched: %s was named as an output but its schedule disagrees", name)
		}
	}

	estimates := buildEstimates(order, env, funcValueBounds)
	plan := partition.Run(order, env, estimates, params)
	roots := emit.Apply(plan, env, params)
	return plan, roots, nil
}

// buildEstimates projects each function's funcValueBounds box onto its
// own argument list (axis i of the box is the estimated extent of Args[i],
// the box's declared ordering convention) to build the partitioner's
// per-axis Estimate.DimEstimate.
func buildEstimates(order []string, env schedule.Environment, funcValueBounds map[string]ir.Box) map[string]partition.Estimate {
	out := make(map[string]partition.Estimate, len(order))
	for _, name := range order {
		f := env[name]
		if f == nil {
			continue
		}
		out[name] = partition.Estimate{
			DimEstimate:     dimEstimateFor(f, funcValueBounds[name]),
			BytesPerElement: defaultBytesPerElement,
			OpCost:          defaultOpCost,
		}
	}
	return out
}

func dimEstimateFor(f *schedule.Function, box ir.Box) map[string]int64 {
	dims := make(map[string]int64, len(f.Args))
	for i, axis := range f.Args {
		if i >= len(box) {
			dims[axis] = 0
			continue
		}
		lo, hi, ok := ir.ConstInterval(box[i])
		if !ok || hi < lo {
			dims[axis] = 0
			continue
		}
		dims[axis] = hi - lo + 1
	}
	return dims
}
