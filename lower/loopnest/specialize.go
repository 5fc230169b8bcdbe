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

// applySpecialisations implements §4.2 step 10: wraps base (the nest
// built from the stage's unspecialised schedule) in an if/else chain,
// one IfThenElse per entry in in.Sched.Specialisations, processed from
// last to first so that the first-listed specialisation ends up
// checked first (it becomes the outermost condition).
func applySpecialisations(base ir.Stmt, in Input) (ir.Stmt, error) {
	specs := in.Sched.Specialisations
	accumulated := base
	for i := len(specs) - 1; i >= 0; i-- {
		spec := specs[i]
		thenIn := in
		thenIn.Sched = spec.Then
		thenCase, err := Build(thenIn)
		if err != nil {
			return nil, err
		}
		thenCase, elseCase := specializeBranches(spec.Predicate, thenCase, accumulated)
		accumulated = &ir.IfThenElse{Cond: spec.Predicate.AsExpr(), Then: thenCase, Else: elseCase}
	}
	return accumulated, nil
}

// specializeBranches substitutes the predicate's known scrutinee value
// into the then-branch, and its negation into the else-branch, when the
// predicate is a boolean-variable test (PredVar is treated as the
// var==true case). An arbitrary expression predicate (PredExpr) carries
// no known value to substitute, so both branches are left as-is.
func specializeBranches(p schedule.Predicate, thenCase, elseCase ir.Stmt) (ir.Stmt, ir.Stmt) {
	var v string
	var value bool
	switch p.Kind {
	case schedule.PredVar:
		v, value = p.Var, true
	case schedule.PredVarEqBool:
		v, value = p.Var, p.Value
	default:
		return thenCase, elseCase
	}
	thenCase = ir.SubstituteStmt(thenCase, map[string]ir.Expr{v: &ir.BoolImm{Value: value}})
	elseCase = ir.SubstituteStmt(elseCase, map[string]ir.Expr{v: &ir.BoolImm{Value: !value}})
	return thenCase, elseCase
}
