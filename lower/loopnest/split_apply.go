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
	"github.com/gx-org/loopsched/diag"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// applySplit implements §4.2 step 3 for one normalised split: it
// rewrites body to replace every use of the split's consumed
// variable(s) with an expression in terms of the produced ones, wraps
// body in the lets needed to make that substitution work, and updates
// ks with whatever extent the split makes knowable.
//
// stagePure and innermost gate the SplitVar halo clamp: a pure stage's
// non-partial split clamps its base so the tile never reads past the
// producer's declared max, wrapped in Likely when the outer variable
// is the nest's innermost non-trivial loop and that loop is Serial (the
// common case, where the
// branch predicts well).
func applySplit(body ir.Stmt, s schedule.Split, ks knownSizes, stagePure bool, innermost schedule.Dim, hasInnermost bool, at diag.At) (ir.Stmt, error) {
	switch n := s.(type) {
	case schedule.SplitVar:
		return applySplitVar(body, n, ks, stagePure, innermost, hasInnermost, at)
	case schedule.FuseVars:
		return applyFuseVars(body, n, ks), nil
	case schedule.Rename:
		return applyRename(body, n, ks), nil
	}
	return body, nil
}

func applySplitVar(body ir.Stmt, s schedule.SplitVar, ks knownSizes, stagePure bool, innermost schedule.Dim, hasInnermost bool, at diag.At) (ir.Stmt, error) {
	if oldExtent, ok := constExtent(ks, s.Old); ok {
		if factor, ok := constInt(s.Factor); ok && factor != 0 {
			if oldExtent%factor == 0 {
				ks[s.Outer] = &ir.IntImm{Value: oldExtent / factor}
			} else if s.Exact {
				return nil, diag.UserErrorf(at, "split of %s by %d is not exact: extent %d is not a multiple of the split factor", s.Old, factor, oldExtent)
			}
		}
	}
	ks[s.Inner] = s.Factor

	oldMin := &ir.Variable{Name: s.Old + ".loop_min"}
	base := ir.Expr(&ir.BinOp{Op: ir.Add,
		Left:  &ir.BinOp{Op: ir.Mul, Left: &ir.Variable{Name: s.Outer}, Right: s.Factor},
		Right: oldMin,
	})
	if stagePure && !s.Partial {
		oldMax := &ir.Variable{Name: s.Old + ".loop_max"}
		clamp := &ir.BinOp{Op: ir.Add,
			Left:  &ir.BinOp{Op: ir.Sub, Left: oldMax, Right: s.Factor},
			Right: &ir.IntImm{Value: 1},
		}
		base = &ir.BinOp{Op: ir.Min, Left: base, Right: clamp}
		if hasInnermost && innermost.Var == s.Outer && innermost.Type == ir.Serial {
			base = &ir.Likely{X: base}
		}
	}

	baseVar := s.Old + ".base"
	sum := &ir.BinOp{Op: ir.Add, Left: &ir.Variable{Name: baseVar}, Right: &ir.Variable{Name: s.Inner}}
	body = ir.SubstituteStmt(body, map[string]ir.Expr{s.Old: sum})
	body = &ir.LetStmt{Name: s.Old, Value: sum, Body: body}
	body = &ir.LetStmt{Name: baseVar, Value: base, Body: body}
	return body, nil
}

func applyFuseVars(body ir.Stmt, s schedule.FuseVars, ks knownSizes) ir.Stmt {
	var innerExtent ir.Expr
	if e, ok := ks[s.Inner]; ok {
		innerExtent = e
	} else {
		innerExtent = &ir.Variable{Name: s.Inner + ".loop_extent"}
	}
	factor := &ir.BinOp{Op: ir.Max, Left: innerExtent, Right: &ir.IntImm{Value: 1}}

	innerExpr := &ir.BinOp{Op: ir.Add,
		Left:  &ir.BinOp{Op: ir.Mod, Left: &ir.Variable{Name: s.Old}, Right: factor},
		Right: &ir.Variable{Name: s.Inner + ".loop_min"},
	}
	outerExpr := &ir.BinOp{Op: ir.Add,
		Left:  &ir.BinOp{Op: ir.Div, Left: &ir.Variable{Name: s.Old}, Right: factor},
		Right: &ir.Variable{Name: s.Outer + ".loop_min"},
	}
	body = ir.SubstituteStmt(body, map[string]ir.Expr{s.Inner: innerExpr, s.Outer: outerExpr})
	body = &ir.LetStmt{Name: s.Outer, Value: outerExpr, Body: body}
	body = &ir.LetStmt{Name: s.Inner, Value: innerExpr, Body: body}

	if innerC, ok := constExtent(ks, s.Inner); ok {
		if outerC, ok := constExtent(ks, s.Outer); ok {
			ks[s.Old] = &ir.IntImm{Value: innerC * outerC}
		}
	}
	return body
}

func applyRename(body ir.Stmt, s schedule.Rename, ks knownSizes) ir.Stmt {
	body = ir.SubstituteStmt(body, map[string]ir.Expr{s.Old: &ir.Variable{Name: s.Outer}})
	body = &ir.LetStmt{Name: s.Old, Value: &ir.Variable{Name: s.Outer}, Body: body}
	if e, ok := ks[s.Old]; ok {
		ks[s.Outer] = e
	}
	return body
}
