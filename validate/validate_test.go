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

package validate

import (
	"testing"

	"github.com/gx-org/loopsched/diag"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

func callF(v string) *ir.Provide {
	return &ir.Provide{Target: "g", Args: []ir.Expr{&ir.Variable{Name: v}},
		Values: []ir.Expr{&ir.Call{Kind: ir.CallFunc, Name: "f", Args: []ir.Expr{&ir.Variable{Name: v}}}}}
}

func nestedLoops(types []ir.ForType, vars []string, body ir.Stmt) ir.Stmt {
	out := body
	for i := len(vars) - 1; i >= 0; i-- {
		out = &ir.For{Var: vars[i], Min: &ir.IntImm{Value: 0}, Extent: &ir.IntImm{Value: 8}, Type: types[i], Body: out}
	}
	return out
}

func TestValidateLegalStoreAndComputeSite(t *testing.T) {
	sched := schedule.New()
	sched.StoreAt = schedule.At("g", "y")
	sched.ComputeAt = schedule.At("g", "x")
	f := &schedule.Function{Name: "f", Sched: sched}

	root := nestedLoops([]ir.ForType{ir.Serial, ir.Serial}, []string{"g.s0.y", "g.s0.x"}, callF("g.s0.x"))
	_, err := Validate(f, root, nil, diag.At{Func: "f", Stage: -1})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejectsParallelBetweenStoreAndCompute(t *testing.T) {
	sched := schedule.New()
	sched.StoreAt = schedule.At("g", "y")
	sched.ComputeAt = schedule.At("g", "x")
	f := &schedule.Function{Name: "f", Sched: sched}

	root := nestedLoops([]ir.ForType{ir.Serial, ir.Parallel, ir.Serial}, []string{"g.s0.y", "g.s0.mid", "g.s0.x"}, callF("g.s0.x"))
	_, err := Validate(f, root, nil, diag.At{Func: "f", Stage: -1})
	if err == nil {
		t.Fatal("Validate() = nil error, want a parallel-boundary race error")
	}
	if !diag.IsUserError(err) {
		t.Errorf("Validate() error is not a user error: %v", err)
	}
}

func TestValidateRejectsIllegalStoreSite(t *testing.T) {
	sched := schedule.New()
	sched.StoreAt = schedule.At("g", "never_used_here")
	sched.ComputeAt = schedule.At("g", "never_used_here")
	f := &schedule.Function{Name: "f", Sched: sched}

	root := nestedLoops([]ir.ForType{ir.Serial}, []string{"g.s0.y"}, callF("g.s0.y"))
	_, err := Validate(f, root, nil, diag.At{Func: "f", Stage: -1})
	if err == nil {
		t.Fatal("Validate() = nil error, want an illegal store_at site error")
	}
}

func TestValidateInlineAlwaysLegal(t *testing.T) {
	f := &schedule.Function{Name: "f", Sched: schedule.New()}
	root := nestedLoops([]ir.ForType{ir.Serial}, []string{"g.s0.y"}, callF("g.s0.y"))
	_, err := Validate(f, root, nil, diag.At{Func: "f", Stage: -1})
	if err != nil {
		t.Fatalf("Validate() error = %v, want nil for a fully-inlined schedule", err)
	}
}

func TestValidateOutputMustBeComputeRoot(t *testing.T) {
	sched := schedule.New()
	sched.StoreAt = schedule.At("g", "y")
	sched.ComputeAt = schedule.At("g", "y")
	f := &schedule.Function{Name: "f", Sched: sched, IsOutput: true}
	root := nestedLoops([]ir.ForType{ir.Serial}, []string{"g.s0.y"}, callF("g.s0.y"))
	_, err := Validate(f, root, nil, diag.At{Func: "f", Stage: -1})
	if err == nil {
		t.Fatal("Validate() = nil error, want an output-not-root error")
	}
}

func TestValidateExternArgMustNotBeInlined(t *testing.T) {
	inlined := &schedule.Function{Name: "src", Sched: schedule.New()}
	f := &schedule.Function{
		Name:  "resize",
		Sched: &schedule.Schedule{StoreAt: schedule.Root("resize"), ComputeAt: schedule.Root("resize")},
		Extern: &schedule.ExternDefinition{Name: "halide_resize", Args: []schedule.ExternArg{
			{Kind: schedule.ExternArgFuncRef, FuncName: "src", Channels: 1},
		}},
	}
	env := schedule.Environment{"src": inlined}
	_, err := Validate(f, &ir.Evaluate{Value: &ir.IntImm{Value: 0}}, env, diag.At{Func: "resize", Stage: -1})
	if err == nil {
		t.Fatal("Validate() = nil error, want an inlined-extern-argument error")
	}
}
