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

package loopnest

import (
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/lower/splitnorm"
)

// Build runs the full §4.2 algorithm, including step 10's
// specialisations: a Provide at Input.Site/Values, wrapped in the loop
// nest and bounds lets Input.Sched describes.
func Build(in Input) (ir.Stmt, error) {
	base, err := buildBase(in)
	if err != nil {
		return nil, err
	}
	return applySpecialisations(base, in)
}

// buildBase runs steps 1-9 using in.Sched's own Dims/Splits/Bounds,
// ignoring its Specialisations (step 10 is layered on by Build).
func buildBase(in Input) (ir.Stmt, error) {
	// Step 1: the innermost statement is the Provide for this stage.
	var body ir.Stmt = &ir.Provide{Target: in.Site.Target, Args: in.Site.Args, Values: in.Values}

	// Step 2: seed the known-size map from explicit bounds and the
	// reduction domain.
	ks := newKnownSizes(in.Sched)

	// Step 3: normalise the split list, then rewrite/peel lets for each
	// split in forward order.
	splits := splitnorm.Normalize(in.Sched.Splits)
	innermost, hasInnermost := in.Sched.InnermostNonTrivial()
	var err error
	for _, s := range splits {
		body, err = applySplit(body, s, ks, in.StagePure, innermost, hasInnermost, in.At)
		if err != nil {
			return nil, err
		}
	}

	// Step 4: container list: dims outermost-first, then the lets just
	// peeled off body.
	containers := make([]container, 0, len(in.Sched.Dims))
	for i := len(in.Sched.Dims) - 1; i >= 0; i-- {
		containers = append(containers, forContainer(in.Sched.Dims[i]))
	}
	nextID := 0
	gen := func() int { nextID++; return nextID }
	lets, inner := peelLets(body, gen)
	containers = append(containers, lets...)

	// Step 5: rebalance lets outward past independent Fors.
	containers = rebalance(containers)

	// Step 6: re-wrap outermost-first.
	nested := wrapAll(containers, inner)

	// Step 7: reverse-order bounds lets, one per split, innermost
	// (last-defined-in-forward-order) first so a mid-chain synthetic
	// name's definition encloses its use.
	for i := len(splits) - 1; i >= 0; i-- {
		nested = emitSplitBounds(nested, splits[i])
	}

	// Seed bounds for every var with an explicit (min, extent) record —
	// these enclose the per-split lets above, since a split's Old may
	// name one of them directly.
	nested = emitRecordBounds(nested, in.Sched.Bounds)
	nested = emitRecordBounds(nested, in.Sched.ReductionDomain)

	// Step 8: the outermost dummy loop's own bounds lets.
	nested = emitOutermostDummy(nested, in.Prefix)

	// Step 9: seed the original arguments' bounds from their externally
	// supplied .min/.max symbols.
	nested = EmitArgBounds(nested, in.ArgNames)

	return nested, nil
}
