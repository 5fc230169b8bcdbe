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

package emit

import (
	"testing"

	"github.com/gx-org/loopsched/autosched/partition"
	"github.com/gx-org/loopsched/config"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

func boxBlur() (blur, out *schedule.Function) {
	blur = &schedule.Function{
		Name:   "blur",
		Args:   []string{"x", "y"},
		Values: []ir.Expr{&ir.BinOp{Op: ir.Add, Left: &ir.Variable{Name: "x"}, Right: &ir.Variable{Name: "y"}}},
		Sched:  schedule.New(),
	}
	out = &schedule.Function{
		Name: "out",
		Args: []string{"x", "y"},
		Values: []ir.Expr{&ir.BinOp{Op: ir.Add,
			Left:  &ir.Call{Kind: ir.CallFunc, Name: "blur", Args: []ir.Expr{&ir.Variable{Name: "x"}, &ir.Variable{Name: "y"}}},
			Right: &ir.IntImm{Value: 1},
		}},
		Sched:    schedule.New(),
		IsOutput: true,
	}
	out.Sched.StoreAt = schedule.Root("out")
	out.Sched.ComputeAt = schedule.Root("out")
	return blur, out
}

// planWithTile builds a Plan by hand (bypassing Run) so the emitter can
// be tested against a fixed, known merge decision rather than whatever
// the partitioner happens to pick.
func planWithTile(tiles map[string]int64) *partition.Plan {
	g := &partition.Group{Output: "out", Members: map[string]bool{"blur": true, "out": true}, Tiles: tiles}
	return &partition.Plan{Groups: map[string]*partition.Group{"out": g}, Inline: map[string]string{}}
}

func TestApplySplitsTiledAxesOnGroupOutput(t *testing.T) {
	blur, out := boxBlur()
	env := schedule.Environment{"blur": blur, "out": out}
	plan := planWithTile(map[string]int64{"x": 64, "y": 64})
	params := config.MachineParams{Parallelism: 4}

	Apply(plan, env, params)

	if len(out.Sched.Splits) != 2 {
		t.Fatalf("Splits = %v, want 2 SplitVar entries", out.Sched.Splits)
	}
	for _, s := range out.Sched.Splits {
		sv, ok := s.(schedule.SplitVar)
		if !ok {
			t.Fatalf("split %#v is not a SplitVar", s)
		}
		if sv.Old != "x" && sv.Old != "y" {
			t.Errorf("unexpected split axis %q", sv.Old)
		}
		if c, ok := constOf(sv.Factor); !ok || c != 64 {
			t.Errorf("split factor = %v, want 64", sv.Factor)
		}
	}
	if !out.Sched.Touched {
		t.Error("Touched = false after tiling, want true")
	}
}

func TestApplyMovesNonOutputMemberStoreComputeAtIntoOutput(t *testing.T) {
	blur, out := boxBlur()
	env := schedule.Environment{"blur": blur, "out": out}
	plan := planWithTile(map[string]int64{"x": 64, "y": 64})
	params := config.MachineParams{Parallelism: 4}

	Apply(plan, env, params)

	if blur.Sched.StoreAt.IsInline() {
		t.Error("blur.StoreAt is inline, want a level inside out's nest")
	}
	if blur.Sched.StoreAt.Func != "out" {
		t.Errorf("blur.StoreAt.Func = %q, want %q", blur.Sched.StoreAt.Func, "out")
	}
}

func TestApplyLeavesInlinedProducerInline(t *testing.T) {
	blur, out := boxBlur()
	env := schedule.Environment{"blur": blur, "out": out}
	plan := &partition.Plan{
		Groups: map[string]*partition.Group{"out": {Output: "out", Members: map[string]bool{"out": true}}},
		Inline: map[string]string{"blur": "out"},
	}
	params := config.MachineParams{Parallelism: 1}

	Apply(plan, env, params)

	if !blur.Sched.IsInline() {
		t.Error("inlined producer's schedule is not fully inline")
	}
}

func TestVectorizeInnermostMarksConstantStrideAxis(t *testing.T) {
	blur, _ := boxBlur()
	blur.Sched.Dims = []schedule.Dim{{Var: "x", Type: ir.Serial, Pure: true}, {Var: "y", Type: ir.Serial, Pure: true}}

	vectorizeInnermost(blur)

	if blur.Sched.Dims[0].Type != ir.Vectorized {
		t.Errorf("innermost dim type = %v, want Vectorized", blur.Sched.Dims[0].Type)
	}
}

func TestParallelizeReductionsMarksRaceFreeAxis(t *testing.T) {
	hist := &schedule.Function{
		Name: "hist",
		Args: []string{"i"},
		Updates: []*schedule.UpdateDefinition{{
			Args:            []ir.Expr{&ir.Variable{Name: "r"}},
			Values:          []ir.Expr{&ir.IntImm{Value: 1}},
			ReductionDomain: []schedule.Bound{{Var: "r", Min: &ir.IntImm{Value: 0}, Extent: &ir.IntImm{Value: 256}}},
			Sched:           &schedule.Schedule{Dims: []schedule.Dim{{Var: "r", Type: ir.Serial}}},
		}},
		Sched: schedule.New(),
	}

	parallelizeReductions(hist)

	if hist.Updates[0].Sched.Dims[0].Type != ir.Parallel {
		t.Errorf("reduction axis type = %v, want Parallel (single one-to-one write location)", hist.Updates[0].Sched.Dims[0].Type)
	}
}
