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
	"testing"

	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

func imm(n int64) ir.Expr { return &ir.IntImm{Value: n} }

// haloFixture builds the S2-shaped pipeline: out(x,y) = blur(x,y) +
// blur(x+1,y), blur pure with no dependency of its own.
func haloFixture() (blur, out *schedule.Function) {
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
			Right: &ir.Call{Kind: ir.CallFunc, Name: "blur", Args: []ir.Expr{&ir.BinOp{Op: ir.Add, Left: &ir.Variable{Name: "x"}, Right: imm(1)}, &ir.Variable{Name: "y"}}},
		}},
		Sched: schedule.New(),
	}
	return blur, out
}

func TestRequiredRegionsMergesCallSitesByUnion(t *testing.T) {
	blur, out := haloFixture()
	env := schedule.Environment{"blur": blur, "out": out}

	region, err := RequiredRegions([]string{"out"}, env)
	if err != nil {
		t.Fatalf("RequiredRegions() error = %v", err)
	}
	box, ok := region["out"]["blur"]
	if !ok {
		t.Fatal("RequiredRegions() has no entry for out -> blur")
	}
	if len(box) != 2 {
		t.Fatalf("box has %d axes, want 2", len(box))
	}
	// Axis x's upper bound must mention the +1 call site, not just the
	// unshifted one.
	if got := ir.SprintExpr(box[0].Max); got == "out.x.arg_u" {
		t.Errorf("box[0].Max = %q, want it to reflect the x+1 call site too", got)
	}
}

func TestRequiredRegionsErrorsOnUnknownFunction(t *testing.T) {
	_, out := haloFixture()
	env := schedule.Environment{"out": out} // blur missing
	if _, err := RequiredRegions([]string{"out"}, env); err == nil {
		t.Fatal("RequiredRegions() = nil error, want an internal error for the missing callee")
	}
}

func TestRedundantRegionsReportsOverlapPerAxis(t *testing.T) {
	blur, out := haloFixture()
	scope := argScope(out)
	redundant := RedundantRegions(out, "blur", scope)
	if _, ok := redundant["x"]; !ok {
		t.Error("RedundantRegions() missing axis x")
	}
	if _, ok := redundant["y"]; !ok {
		t.Error("RedundantRegions() missing axis y")
	}
	_ = blur
}

func TestConcreteBoxResolvesHaloToConstants(t *testing.T) {
	blur, out := haloFixture()
	region, err := RequiredRegions([]string{"out"}, schedule.Environment{"blur": blur, "out": out})
	if err != nil {
		t.Fatalf("RequiredRegions() error = %v", err)
	}
	box := region["out"]["blur"]

	axisBounds := map[string]ir.Interval{
		"x": {Min: imm(0), Max: imm(63)},
		"y": {Min: imm(0), Max: imm(63)},
	}
	lo, hi, ok := ConcreteBox(blur, out, box, axisBounds)
	for i, o := range ok {
		if !o {
			t.Fatalf("ConcreteBox() axis %d not resolved to a constant", i)
		}
	}
	if lo[0] != 0 || hi[0] != 64 {
		t.Errorf("ConcreteBox() x axis = [%d, %d], want [0, 64] (halo of +1)", lo[0], hi[0])
	}
	if lo[1] != 0 || hi[1] != 63 {
		t.Errorf("ConcreteBox() y axis = [%d, %d], want [0, 63]", lo[1], hi[1])
	}
}

func TestConcreteBoxFallsBackToExplicitBound(t *testing.T) {
	blur, out := haloFixture()
	blur.Sched.Bounds = []schedule.Bound{{Var: "x", Min: imm(-10), Extent: imm(100)}}
	region, err := RequiredRegions([]string{"out"}, schedule.Environment{"blur": blur, "out": out})
	if err != nil {
		t.Fatalf("RequiredRegions() error = %v", err)
	}
	box := region["out"]["blur"]

	// No axisBounds supplied at all: the symbolic substitution resolves
	// nothing, forcing every axis onto its fallback (declared only for x).
	lo, hi, ok := ConcreteBox(blur, out, box, nil)
	if !ok[0] {
		t.Fatal("ConcreteBox() x axis should fall back to blur's explicit bound")
	}
	if lo[0] != -10 || hi[0] != 89 {
		t.Errorf("ConcreteBox() x axis = [%d, %d], want [-10, 89] from the explicit bound", lo[0], hi[0])
	}
	if ok[1] {
		t.Error("ConcreteBox() y axis should remain unknown: no binding and no explicit bound")
	}
}
