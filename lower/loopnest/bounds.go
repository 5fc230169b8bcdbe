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
	"github.com/gx-org/loopsched/schedule"
)

// emitLoopBounds wraps body in the three lets "<v>.loop_min",
// "<v>.loop_extent" and "<v>.loop_max" a For over v consumes, deriving
// loop_max from the other two (extent - 1 + min).
func emitLoopBounds(body ir.Stmt, v string, min, extent ir.Expr) ir.Stmt {
	minVar, extentVar := &ir.Variable{Name: v + ".loop_min"}, &ir.Variable{Name: v + ".loop_extent"}
	max := &ir.BinOp{Op: ir.Sub, Left: &ir.BinOp{Op: ir.Add, Left: minVar, Right: extentVar}, Right: &ir.IntImm{Value: 1}}
	body = &ir.LetStmt{Name: v + ".loop_max", Value: max, Body: body}
	body = &ir.LetStmt{Name: v + ".loop_extent", Value: extent, Body: body}
	body = &ir.LetStmt{Name: v + ".loop_min", Value: min, Body: body}
	return body
}

// emitSplitBounds implements §4.2 step 7: for one normalised split
// (processed in reverse order so a mid-chain synthetic variable's
// definition ends up enclosing its uses), wrap body in the loop_min/
// loop_max/loop_extent lets for the variable(s) the split produces.
func emitSplitBounds(body ir.Stmt, s schedule.Split) ir.Stmt {
	switch n := s.(type) {
	case schedule.SplitVar:
		oldMin := &ir.Variable{Name: n.Old + ".loop_min"}
		oldMax := &ir.Variable{Name: n.Old + ".loop_max"}
		innerExtent := ir.Expr(n.Factor)
		if n.Partial {
			innerExtent = &ir.BinOp{Op: ir.Min,
				Left:  &ir.Likely{X: n.Factor},
				Right: &ir.BinOp{Op: ir.Add, Left: oldMax, Right: &ir.IntImm{Value: 1}},
			}
		}
		outerExtent := &ir.BinOp{Op: ir.Div,
			Left:  &ir.BinOp{Op: ir.Add, Left: &ir.BinOp{Op: ir.Sub, Left: oldMax, Right: oldMin}, Right: n.Factor},
			Right: n.Factor,
		}
		body = emitLoopBounds(body, n.Outer, &ir.IntImm{Value: 0}, outerExtent)
		body = emitLoopBounds(body, n.Inner, &ir.IntImm{Value: 0}, innerExtent)
	case schedule.FuseVars:
		fusedExtent := &ir.BinOp{Op: ir.Mul,
			Left:  &ir.Variable{Name: n.Inner + ".loop_extent"},
			Right: &ir.Variable{Name: n.Outer + ".loop_extent"},
		}
		body = emitLoopBounds(body, n.Old, &ir.IntImm{Value: 0}, fusedExtent)
	case schedule.Rename:
		body = emitLoopBounds(body, n.Outer, &ir.IntImm{Value: 0}, &ir.Variable{Name: n.Old + ".loop_extent"})
	}
	return body
}

// emitRecordBounds wraps body in the loop_min/loop_max/loop_extent lets
// for every explicit (var, min, extent) bound on the schedule, so that
// a split consuming one of these vars as its Old (§4.2 step 3/7) finds
// "<var>.loop_min"/"<var>.loop_max" already defined. Must be wrapped
// outside (enclosing) the per-split bounds lets of step 7.
func emitRecordBounds(body ir.Stmt, bounds []schedule.Bound) ir.Stmt {
	for i := len(bounds) - 1; i >= 0; i-- {
		b := bounds[i]
		body = emitLoopBounds(body, b.Var, b.Min, b.Extent)
	}
	return body
}

// emitOutermostDummy implements §4.2 step 8: the synthetic
// "<prefix>__outermost" loop-min=0, loop-max=1, loop-extent=1 lets,
// transcribed literally (the max does not follow the usual
// min+extent-1 identity here; it marks the dummy loop as always
// needing at least one iteration check rather than bounding a real
// index range).
func emitOutermostDummy(body ir.Stmt, prefix string) ir.Stmt {
	name := prefix + "__outermost"
	body = &ir.LetStmt{Name: name + ".loop_max", Value: &ir.IntImm{Value: 1}, Body: body}
	body = &ir.LetStmt{Name: name + ".loop_extent", Value: &ir.IntImm{Value: 1}, Body: body}
	body = &ir.LetStmt{Name: name + ".loop_min", Value: &ir.IntImm{Value: 0}, Body: body}
	return body
}

// EmitArgBounds implements §4.2 step 9: seed each name's loop_min/
// loop_max/loop_extent from the externally-supplied ".min"/".max"
// symbols an out-of-scope bounds-inference pass resolves. Exported for
// reuse by the Production Builder (§4.3), which applies the identical
// construction to an update stage's reduction variables.
func EmitArgBounds(body ir.Stmt, argNames []string) ir.Stmt {
	for i := len(argNames) - 1; i >= 0; i-- {
		v := argNames[i]
		minVar, maxVar := &ir.Variable{Name: v + ".min"}, &ir.Variable{Name: v + ".max"}
		extent := &ir.BinOp{Op: ir.Add, Left: &ir.BinOp{Op: ir.Sub, Left: maxVar, Right: minVar}, Right: &ir.IntImm{Value: 1}}
		body = &ir.LetStmt{Name: v + ".loop_max", Value: maxVar, Body: body}
		body = &ir.LetStmt{Name: v + ".loop_extent", Value: extent, Body: body}
		body = &ir.LetStmt{Name: v + ".loop_min", Value: minVar, Body: body}
	}
	return body
}
