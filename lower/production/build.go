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

// Package production implements §4.3, the Production Builder: for one
// function it builds the (produce, update) statement pair the
// Realisation Injector (lower/inject) splices into the enclosing nest.
package production

import (
	"fmt"

	"github.com/gx-org/loopsched/diag"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/lower/loopnest"
	"github.com/gx-org/loopsched/schedule"
)

// Build returns f's produce statement and, if f has update stages,
// their combined statement (nil otherwise).
func Build(f *schedule.Function) (produce, update ir.Stmt, err error) {
	if f.IsExtern() {
		produce = buildExternProduce(f)
	} else {
		produce, err = buildInternalProduce(f)
		if err != nil {
			return nil, nil, err
		}
	}
	update, err = buildUpdates(f)
	if err != nil {
		return nil, nil, err
	}
	return produce, update, nil
}

func buildInternalProduce(f *schedule.Function) (ir.Stmt, error) {
	prefix := f.Name + ".s0."
	args := make([]ir.Expr, len(f.Args))
	for i, a := range f.Args {
		args[i] = &ir.Variable{Name: prefix + a}
	}
	return loopnest.Build(loopnest.Input{
		Site:      loopnest.Site{Target: f.Name, Args: args},
		Values:    ir.QualifyAll(f.Values, prefix),
		Sched:     qualifySchedule(f.Sched, prefix),
		Prefix:    prefix,
		ArgNames:  qualifyNames(f.Args, prefix),
		StagePure: true,
		At:        diag.At{Func: f.Name, Stage: -1},
	})
}

// buildUpdates builds every update stage and combines them into a
// single sequential block with update 0 outermost (first).
func buildUpdates(f *schedule.Function) (ir.Stmt, error) {
	if len(f.Updates) == 0 {
		return nil, nil
	}
	stmts := make([]ir.Stmt, len(f.Updates))
	for i, u := range f.Updates {
		stmt, err := buildUpdate(f, i, u)
		if err != nil {
			return nil, err
		}
		stmts[i] = stmt
	}
	if len(stmts) == 1 {
		return stmts[0], nil
	}
	return &ir.Block{Stmts: stmts}, nil
}

func buildUpdate(f *schedule.Function, i int, u *schedule.UpdateDefinition) (ir.Stmt, error) {
	prefix := fmt.Sprintf("%s.s%d.", f.Name, i+1)
	stmt, err := loopnest.Build(loopnest.Input{
		Site:      loopnest.Site{Target: f.Name, Args: ir.QualifyAll(u.Args, prefix)},
		Values:    ir.QualifyAll(u.Values, prefix),
		Sched:     qualifySchedule(u.Sched, prefix),
		Prefix:    prefix,
		StagePure: false,
		At:        diag.At{Func: f.Name, Stage: i},
	})
	if err != nil {
		return nil, err
	}
	var reductionVars []string
	for _, b := range u.ReductionDomain {
		reductionVars = append(reductionVars, prefix+b.Var)
	}
	return loopnest.EmitArgBounds(stmt, reductionVars), nil
}
