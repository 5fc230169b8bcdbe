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

package depanalysis

import (
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// RedundantRegions computes, for one consumer/producer pair, the
// per-axis redundant box: shift the consumer's own interval on that
// axis by its own extent, re-evaluate the required box under the
// shifted scope, and intersect with the unshifted box (§4.6). The
// result is keyed by the consumer's axis name.
//
// scope is the consumer's own per-axis interval (argScope for a
// symbolic query, or a concrete per-tile interval once a tile size is
// known — the partitioner's Option evaluation builds the latter with
// its own tileScope).
func RedundantRegions(consumer *schedule.Function, producer string, scope map[string]ir.Interval) map[string]ir.Box {
	exprs := definitionExprs(consumer)
	base := collectCalls(exprs, consumer.Name, scope)[producer]
	if base == nil {
		return nil
	}

	out := map[string]ir.Box{}
	for _, axis := range consumer.Args {
		iv, ok := scope[axis]
		if !ok {
			continue
		}
		extent := ir.Simplify(&ir.BinOp{Op: ir.Add, Left: &ir.BinOp{Op: ir.Sub, Left: iv.Max, Right: iv.Min}, Right: &ir.IntImm{Value: 1}})
		shifted := make(map[string]ir.Interval, len(scope))
		for k, v := range scope {
			shifted[k] = v
		}
		shifted[axis] = ir.ShiftInterval(iv, extent)

		shiftedCalls := collectCalls(exprs, consumer.Name, shifted)
		shiftedBox, ok := shiftedCalls[producer]
		if !ok {
			// The producer call disappears under the shifted scope — can
			// only happen if a branch depending on the axis was folded
			// away by Simplify. The missing entry is not evidence the
			// overlap vanished, so assume the worst case: fully redundant.
			shiftedBox = base
		}
		out[axis] = ir.BoxIntersect(base, shiftedBox)
	}
	return out
}
