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

package schedfn

import (
	"strings"
	"testing"

	"github.com/gx-org/loopsched/diag"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

func imm(n int64) ir.Expr { return &ir.IntImm{Value: n} }

// inlinedBlurFixture builds blur(bx) = bx*2, inlined by default, called
// as out(x) = blur(x) + 1, a pipeline output scheduled compute_root.
func inlinedBlurFixture() (blur, out *schedule.Function) {
	blur = &schedule.Function{
		Name:   "blur",
		Args:   []string{"bx"},
		Values: []ir.Expr{&ir.BinOp{Op: ir.Mul, Left: &ir.Variable{Name: "bx"}, Right: imm(2)}},
		Sched:  schedule.New(),
	}
	out = &schedule.Function{
		Name: "out",
		Args: []string{"x"},
		Values: []ir.Expr{&ir.BinOp{Op: ir.Add,
			Left:  &ir.Call{Kind: ir.CallFunc, Name: "blur", Args: []ir.Expr{&ir.Variable{Name: "x"}}},
			Right: imm(1),
		}},
		Sched:    schedule.New(),
		IsOutput: true,
	}
	out.Sched.Bounds = []schedule.Bound{{Var: "x", Min: imm(0), Extent: imm(8)}}
	out.Sched.StoreAt = schedule.Root("out")
	out.Sched.ComputeAt = schedule.Root("out")
	return blur, out
}

func TestScheduleInlinesDefaultCalleeAwayEntirely(t *testing.T) {
	blur, out := inlinedBlurFixture()
	env := schedule.Environment{"blur": blur, "out": out}

	result, err := Schedule([]string{"out"}, env, false)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if ir.UsesFunc(result.Root, "blur") {
		t.Error("result tree still references blur; inlining should have substituted its value expression")
	}
	if !ir.UsesFunc(result.Root, "out") && !strings.Contains(ir.SprintStmt(result.Root, 0), "out") {
		t.Error("result tree has no trace of out at all")
	}
	realize, ok := result.Root.(*ir.Realize)
	if !ok {
		t.Fatalf("Schedule() root = %T, want *ir.Realize (out is compute_root)", result.Root)
	}
	if realize.Name != "out" {
		t.Errorf("Realize.Name = %q, want %q", realize.Name, "out")
	}
}

func TestScheduleAnyMemoizedReflectsEveryStage(t *testing.T) {
	blur, out := inlinedBlurFixture()
	out.Sched.Memoized = true
	env := schedule.Environment{"blur": blur, "out": out}

	result, err := Schedule([]string{"out"}, env, false)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if !result.AnyMemoized {
		t.Error("AnyMemoized = false, want true: out.Sched.Memoized is set")
	}
}

func TestScheduleRejectsNonRootOutput(t *testing.T) {
	blur, out := inlinedBlurFixture()
	out.Sched.StoreAt = schedule.At("out", "x")
	out.Sched.ComputeAt = schedule.At("out", "x")
	env := schedule.Environment{"blur": blur, "out": out}

	_, err := Schedule([]string{"out"}, env, false)
	if err == nil || !diag.IsUserError(err) {
		t.Fatalf("Schedule() error = %v, want a user error (output must be compute_root)", err)
	}
}

func TestScheduleReportsWarningsWithoutFailing(t *testing.T) {
	blur, out := inlinedBlurFixture()
	// A function with update stages needs a materialized buffer to
	// scatter into, so it cannot stay inline once it has updates.
	blur.Sched.StoreAt = schedule.Root("blur")
	blur.Sched.ComputeAt = schedule.Root("blur")
	blur.Updates = []*schedule.UpdateDefinition{{
		Args:   []ir.Expr{&ir.Variable{Name: "bx"}},
		Values: []ir.Expr{imm(0)},
		Sched:  &schedule.Schedule{Touched: true},
	}, {
		Args:   []ir.Expr{&ir.Variable{Name: "bx"}},
		Values: []ir.Expr{imm(1)},
		Sched:  &schedule.Schedule{Touched: false},
	}}
	env := schedule.Environment{"blur": blur, "out": out}

	result, err := Schedule([]string{"out"}, env, false)
	if err != nil {
		t.Fatalf("Schedule() error = %v, want nil (a touched/untouched mismatch is only a warning)", err)
	}
	if result.Root == nil {
		t.Error("Root is nil despite a successful Schedule() call")
	}
	if result.Warnings == nil || !diag.IsWarning(result.Warnings) {
		t.Errorf("Warnings = %v, want a non-nil warning (blur's touched/untouched update mismatch)", result.Warnings)
	}
}
