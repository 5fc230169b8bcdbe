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
	"strings"
	"testing"

	"github.com/gx-org/loopsched/diag"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

func imm(n int64) ir.Expr { return &ir.IntImm{Value: n} }

// skipLets descends through the LetStmt wrappers Build places around a
// loop nest (bounds and outermost-dummy lets) to the first other node.
func skipLets(s ir.Stmt) ir.Stmt {
	for {
		let, ok := s.(*ir.LetStmt)
		if !ok {
			return s
		}
		s = let.Body
	}
}

func baseInput() Input {
	sched := schedule.New()
	sched.Dims = []schedule.Dim{{Var: "x", Type: ir.Serial}}
	sched.Bounds = []schedule.Bound{{Var: "x", Min: imm(0), Extent: imm(8)}}
	return Input{
		Site:      Site{Target: "f", Args: []ir.Expr{&ir.Variable{Name: "x"}}},
		Values:    []ir.Expr{&ir.Variable{Name: "x"}},
		Sched:     sched,
		Prefix:    "f.",
		ArgNames:  nil,
		StagePure: true,
		At:        diag.At{Func: "f", Stage: -1},
	}
}

func TestBuildExactSplitDivides(t *testing.T) {
	in := baseInput()
	in.Sched.Splits = []schedule.Split{
		schedule.SplitVar{Old: "x", Outer: "xo", Inner: "xi", Factor: imm(4), Exact: true},
	}
	stmt, err := Build(in)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if stmt == nil {
		t.Fatal("Build() returned nil statement")
	}
}

func TestBuildExactSplitFailsOnIndivisibleExtent(t *testing.T) {
	in := baseInput()
	in.Sched.Bounds = []schedule.Bound{{Var: "x", Min: imm(0), Extent: imm(7)}}
	in.Sched.Splits = []schedule.Split{
		schedule.SplitVar{Old: "x", Outer: "xo", Inner: "xi", Factor: imm(4), Exact: true},
	}
	_, err := Build(in)
	if err == nil {
		t.Fatal("Build() = nil error, want exact-split failure")
	}
	if !diag.IsUserError(err) {
		t.Errorf("Build() error is not a user error: %v", err)
	}
	if !strings.Contains(err.Error(), "x") || !strings.Contains(err.Error(), "4") {
		t.Errorf("Build() error = %v, want it to name the variable and factor", err)
	}
}

func TestBuildFuseVarsRecombinesSplitDims(t *testing.T) {
	in := baseInput()
	in.Sched.Dims = []schedule.Dim{{Var: "xy", Type: ir.Serial}}
	in.Sched.Bounds = []schedule.Bound{
		{Var: "x", Min: imm(0), Extent: imm(4)},
		{Var: "y", Min: imm(0), Extent: imm(4)},
	}
	in.Sched.Splits = []schedule.Split{
		schedule.FuseVars{Old: "xy", Inner: "x", Outer: "y"},
	}
	in.Site = Site{Target: "f", Args: []ir.Expr{&ir.Variable{Name: "x"}, &ir.Variable{Name: "y"}}}
	in.Values = []ir.Expr{&ir.Variable{Name: "x"}}
	stmt, err := Build(in)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	forLoop, ok := skipLets(stmt).(*ir.For)
	if !ok {
		t.Fatalf("Build() top node = %T, want *ir.For", stmt)
	}
	if forLoop.Var != "xy" {
		t.Errorf("Build() outer loop var = %s, want xy", forLoop.Var)
	}
}

func TestBuildRenameIsTransparent(t *testing.T) {
	in := baseInput()
	in.Sched.Dims = []schedule.Dim{{Var: "xr", Type: ir.Serial}}
	in.Sched.Splits = []schedule.Split{schedule.Rename{Old: "x", Outer: "xr"}}
	stmt, err := Build(in)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, ok := skipLets(stmt).(*ir.For); !ok {
		t.Fatalf("Build() top node = %T, want *ir.For", stmt)
	}
}

func TestBuildSpecialisationSubstitutesBooleanPredicate(t *testing.T) {
	in := baseInput()
	altSched := schedule.New()
	altSched.Dims = []schedule.Dim{{Var: "x", Type: ir.Parallel}}
	altSched.Bounds = in.Sched.Bounds
	in.Sched.Specialisations = []schedule.Specialisation{
		{Predicate: schedule.Predicate{Kind: schedule.PredVarEqBool, Var: "fast", Value: true}, Then: altSched},
	}
	stmt, err := Build(in)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	ite, ok := stmt.(*ir.IfThenElse)
	if !ok {
		t.Fatalf("Build() top node = %T, want *ir.IfThenElse", stmt)
	}
	thenFor, ok := skipLets(ite.Then).(*ir.For)
	if !ok || thenFor.Type != ir.Parallel {
		t.Errorf("Build() specialised branch = %#v, want a Parallel For", ite.Then)
	}
	usesFast := false
	ir.WalkStmtExprs(ite.Then, func(e ir.Expr) {
		if ir.ExprUsesVar(e, "fast") {
			usesFast = true
		}
	})
	if usesFast {
		t.Errorf("Build() then-branch still references the predicate variable after substitution")
	}
}

func TestBuildArgBoundsSeedFromExternalMinMax(t *testing.T) {
	in := baseInput()
	in.ArgNames = []string{"x"}
	in.Sched.Bounds = nil
	stmt, err := Build(in)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(ir.SprintStmt(stmt, 50), "x.min") {
		t.Errorf("Build() output does not reference x.min:\n%s", ir.SprintStmt(stmt, 50))
	}
}
