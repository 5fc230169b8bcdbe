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

// Package loopnest implements §4.2, the Loop-Nest Builder: it produces
// a statement realising one stage (pure or a single update) given a
// (site, values, schedule) tuple.
//
// Every variable name this package touches — the schedule's own dim,
// split and bound names, and the site/value expressions built from
// them — is assumed already qualified with the stage's namespace prefix
// (e.g. "blur.s0."); qualification is the Production Builder's job
// (§4.3), so that a plain loop variable name like "x" and the symbols
// derived from it ("x.loop_min", "x.base", ...) are unique across the
// whole emitted nest.
package loopnest

import (
	"github.com/gx-org/loopsched/diag"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// Site is the (already-qualified) Provide target and argument
// expressions the built statement writes to.
type Site struct {
	Target string
	Args   []ir.Expr
}

// Input bundles everything Build needs for one stage.
type Input struct {
	Site   Site
	Values []ir.Expr
	Sched  *schedule.Schedule
	// Prefix is the stage's symbol namespace, e.g. "blur.s0.".
	Prefix string
	// ArgNames are the (qualified) original argument names whose bounds
	// step 9 seeds from the external `.min`/`.max` symbols.
	ArgNames []string
	// StagePure is true for the pure definition, false for updates; it
	// gates the halo-clamp behaviour of the SplitVar base computation
	// (§4.2 step 3).
	StagePure bool
	At        diag.At
}

// knownSizes tracks the "var -> extent" map threaded through step 3,
// seeded from explicit bounds and the reduction domain, and refined as
// splits are processed.
type knownSizes map[string]ir.Expr

func newKnownSizes(sched *schedule.Schedule) knownSizes {
	ks := knownSizes{}
	for _, b := range sched.Bounds {
		ks[b.Var] = b.Extent
	}
	for _, b := range sched.ReductionDomain {
		ks[b.Var] = b.Extent
	}
	return ks
}

func constExtent(ks knownSizes, v string) (int64, bool) {
	e, ok := ks[v]
	if !ok {
		return 0, false
	}
	return constInt(e)
}

// constInt evaluates e to a compile-time int64, if possible.
func constInt(e ir.Expr) (int64, bool) {
	imm, ok := ir.Simplify(e).(*ir.IntImm)
	if !ok {
		return 0, false
	}
	return imm.Value, true
}
