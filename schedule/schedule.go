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

package schedule

import "github.com/gx-org/loopsched/ir"

// Dim is one entry in a schedule's ordered dim list.
type Dim struct {
	Var    string
	Type   ir.ForType
	Pure   bool
	Device ir.DeviceAPI
}

// Bound is an explicit (var, min, extent) bound, also used to represent
// one axis of a reduction domain.
type Bound struct {
	Var         string
	Min, Extent ir.Expr
}

// Schedule is the per-stage schedule record of §3.
type Schedule struct {
	// Dims lists loop variables innermost-first in source order (§4.2
	// step 4: "innermost first in source order becomes innermost in the
	// nest").
	Dims []Dim
	// Splits is the unordered (pre-normalisation) list of split/fuse/rename
	// transforms.
	Splits []Split
	// Bounds are explicit (var,min,extent) bounds supplied by the user.
	Bounds []Bound
	// ReductionDomain constrains an update stage's reduction variables.
	ReductionDomain []Bound
	StoreAt         LoopLevel
	ComputeAt       LoopLevel
	Specialisations []Specialisation
	// Memoized marks this stage for memoization; ORed across every
	// function's stages into schedule_functions' any_memoized return
	// value (§6, SPEC_FULL §9 add 1).
	Memoized bool
	// Touched records whether the user explicitly edited this schedule,
	// used by the validator's "forgotten update" warning (§4.5).
	Touched bool
	// Async marks this stage's production for asynchronous execution;
	// pure IR metadata propagated to ir.ProducerConsumer.Async (§9 add 2).
	Async bool
}

// New returns an empty, untouched, inline-by-default schedule.
func New() *Schedule {
	return &Schedule{StoreAt: Inline(), ComputeAt: Inline()}
}

// IsInline reports whether the stage is fully inlined (both levels inline).
func (s *Schedule) IsInline() bool {
	return s.StoreAt.IsInline() && s.ComputeAt.IsInline()
}

// DimIndex returns the index of var in Dims, or -1.
func (s *Schedule) DimIndex(v string) int {
	for i, d := range s.Dims {
		if d.Var == v {
			return i
		}
	}
	return -1
}

// InnermostNonTrivial returns the first dim (innermost-first order) that
// is Serial or Parallel, used by the SplitVar halo-clamp/likely-wrap
// decision in §4.2.
func (s *Schedule) InnermostNonTrivial() (Dim, bool) {
	for _, d := range s.Dims {
		if d.Type == ir.Serial || d.Type == ir.Parallel {
			return d, true
		}
	}
	return Dim{}, false
}
