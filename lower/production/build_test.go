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

package production

import (
	"strings"
	"testing"

	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

func imm(n int64) ir.Expr { return &ir.IntImm{Value: n} }

// skipLets descends through the LetStmt wrappers the loop-nest builder
// places around a produce nest to the first other node.
func skipLets(s ir.Stmt) ir.Stmt {
	for {
		let, ok := s.(*ir.LetStmt)
		if !ok {
			return s
		}
		s = let.Body
	}
}

func TestBuildInternalProduceQualifiesStageZero(t *testing.T) {
	sched := schedule.New()
	sched.Dims = []schedule.Dim{{Var: "x", Type: ir.Serial}}
	sched.Bounds = []schedule.Bound{{Var: "x", Min: imm(0), Extent: imm(8)}}
	f := &schedule.Function{
		Name:   "blur",
		Args:   []string{"x"},
		Values: []ir.Expr{&ir.Variable{Name: "x"}},
		Sched:  sched,
	}
	produce, update, err := Build(f)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if update != nil {
		t.Errorf("Build() update = %v, want nil (no update stages)", update)
	}
	forLoop, ok := skipLets(produce).(*ir.For)
	if !ok {
		t.Fatalf("Build() produce top node = %T, want *ir.For", produce)
	}
	if forLoop.Var != "blur.s0.x" {
		t.Errorf("Build() produce loop var = %s, want blur.s0.x", forLoop.Var)
	}
}

func TestBuildExternProduceAssertsZeroResult(t *testing.T) {
	f := &schedule.Function{
		Name:  "resize",
		Sched: schedule.New(),
		Extern: &schedule.ExternDefinition{
			Name:     "halide_resize",
			Channels: 1,
			Args: []schedule.ExternArg{
				{Kind: schedule.ExternArgFuncRef, FuncName: "src", Channels: 1},
				{Kind: schedule.ExternArgExpr, Expr: imm(2)},
			},
		},
	}
	produce, _, err := Build(f)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	dump := ir.SprintStmt(produce, 20)
	if !strings.Contains(dump, "halide_resize") {
		t.Errorf("Build() produce does not call the extern routine:\n%s", dump)
	}
	if !strings.Contains(dump, "halide_error_extern_stage_failed") {
		t.Errorf("Build() produce does not assert the extern result:\n%s", dump)
	}
	if !strings.Contains(dump, "src.buffer") {
		t.Errorf("Build() produce does not pass the func-ref buffer handle:\n%s", dump)
	}
}

func TestBuildUpdatesCombineWithUpdateZeroFirst(t *testing.T) {
	sched0 := schedule.New()
	sched0.Dims = []schedule.Dim{{Var: "r", Type: ir.Serial}}
	sched0.Bounds = []schedule.Bound{{Var: "r", Min: imm(0), Extent: imm(3)}}
	sched1 := schedule.New()
	sched1.Dims = []schedule.Dim{{Var: "r", Type: ir.Serial}}
	sched1.Bounds = []schedule.Bound{{Var: "r", Min: imm(0), Extent: imm(3)}}
	f := &schedule.Function{
		Name:   "hist",
		Args:   []string{"x"},
		Values: []ir.Expr{imm(0)},
		Sched:  schedule.New(),
		Updates: []*schedule.UpdateDefinition{
			{Args: []ir.Expr{&ir.Variable{Name: "r"}}, Values: []ir.Expr{imm(1)}, Sched: sched0,
				ReductionDomain: []schedule.Bound{{Var: "r", Min: imm(0), Extent: imm(3)}}},
			{Args: []ir.Expr{&ir.Variable{Name: "r"}}, Values: []ir.Expr{imm(2)}, Sched: sched1,
				ReductionDomain: []schedule.Bound{{Var: "r", Min: imm(0), Extent: imm(3)}}},
		},
	}
	_, update, err := Build(f)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	block, ok := update.(*ir.Block)
	if !ok || len(block.Stmts) != 2 {
		t.Fatalf("Build() update = %#v, want a 2-statement Block", update)
	}
	dump := ir.SprintStmt(block.Stmts[0], 30)
	if !strings.Contains(dump, "hist.s1.") {
		t.Errorf("Build() update[0] not qualified with stage 1 prefix:\n%s", dump)
	}
	if !strings.Contains(dump, "hist.s1.r.min") {
		t.Errorf("Build() update[0] missing reduction-variable bounds let:\n%s", dump)
	}
}
