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

package inject

import (
	"strings"
	"testing"

	"github.com/gx-org/loopsched/diag"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

func usesF() *ir.Provide {
	return &ir.Provide{Target: "g", Args: []ir.Expr{&ir.Variable{Name: "g.s0.y"}},
		Values: []ir.Expr{&ir.Call{Kind: ir.CallFunc, Name: "f", Args: []ir.Expr{&ir.Variable{Name: "g.s0.y"}}}}}
}

func trivialRoot(body ir.Stmt) ir.Stmt {
	return &ir.For{Var: "g.s0.y", Min: &ir.IntImm{Value: 0}, Extent: &ir.IntImm{Value: 4}, Type: ir.Serial, Body: body}
}

func TestInjectComputeAtEqualsStoreAt(t *testing.T) {
	sched := schedule.New()
	sched.ComputeAt = schedule.At("g", "y")
	sched.StoreAt = schedule.At("g", "y")
	f := &schedule.Function{Name: "f", Args: []string{"x"}, Values: []ir.Expr{&ir.Variable{Name: "x"}}, Sched: sched}

	root := trivialRoot(usesF())
	out, err := Inject(root, f, false, false, &ir.Evaluate{Value: &ir.IntImm{Value: 0}}, nil)
	if err != nil {
		t.Fatalf("Inject() error = %v", err)
	}
	forLoop, ok := out.(*ir.For)
	if !ok {
		t.Fatalf("Inject() = %T, want *ir.For", out)
	}
	realize, ok := forLoop.Body.(*ir.Realize)
	if !ok {
		t.Fatalf("Inject() loop body = %T, want *ir.Realize", forLoop.Body)
	}
	if _, ok := realize.Body.(*ir.ProducerConsumer); !ok {
		t.Fatalf("Inject() realize body = %T, want *ir.ProducerConsumer", realize.Body)
	}
}

func TestInjectRootLevelWrapsEntireTree(t *testing.T) {
	sched := schedule.New()
	sched.ComputeAt = schedule.Root("f")
	sched.StoreAt = schedule.Root("f")
	f := &schedule.Function{Name: "f", Args: []string{"x"}, Values: []ir.Expr{&ir.Variable{Name: "x"}}, Sched: sched, IsOutput: true}

	root := trivialRoot(usesF())
	out, err := Inject(root, f, true, false, &ir.Evaluate{Value: &ir.IntImm{Value: 0}}, nil)
	if err != nil {
		t.Fatalf("Inject() error = %v", err)
	}
	realize, ok := out.(*ir.Realize)
	if !ok {
		t.Fatalf("Inject() = %T, want *ir.Realize", out)
	}
	pc, ok := realize.Body.(*ir.ProducerConsumer)
	if !ok {
		t.Fatalf("Inject() realize body = %T, want *ir.ProducerConsumer", realize.Body)
	}
	if _, ok := pc.Body.(*ir.For); !ok {
		t.Fatalf("Inject() producer-consumer body = %T, want the original *ir.For", pc.Body)
	}
}

func TestInjectMissingSiteIsInternalError(t *testing.T) {
	sched := schedule.New()
	sched.ComputeAt = schedule.At("g", "never_a_real_loop")
	sched.StoreAt = schedule.At("g", "never_a_real_loop")
	f := &schedule.Function{Name: "f", Args: []string{"x"}, Values: []ir.Expr{&ir.Variable{Name: "x"}}, Sched: sched}

	root := trivialRoot(usesF())
	_, err := Inject(root, f, false, false, &ir.Evaluate{Value: &ir.IntImm{Value: 0}}, nil)
	if err == nil {
		t.Fatal("Inject() = nil error, want a missing-site internal error")
	}
	if !diag.IsInternalError(err) {
		t.Errorf("Inject() error is not internal: %v", err)
	}
}

func TestInjectSkipsDeadFunction(t *testing.T) {
	sched := schedule.New()
	sched.ComputeAt = schedule.At("g", "y")
	sched.StoreAt = schedule.At("g", "y")
	f := &schedule.Function{Name: "unused", Args: []string{"x"}, Values: []ir.Expr{&ir.Variable{Name: "x"}}, Sched: sched}

	root := trivialRoot(&ir.Provide{Target: "g", Args: []ir.Expr{&ir.Variable{Name: "g.s0.y"}}, Values: []ir.Expr{&ir.IntImm{Value: 0}}})
	out, err := Inject(root, f, false, false, &ir.Evaluate{Value: &ir.IntImm{Value: 0}}, nil)
	if err != nil {
		t.Fatalf("Inject() error = %v", err)
	}
	if strings.Contains(ir.SprintStmt(out, 20), "realize unused") {
		t.Errorf("Inject() injected a dead, non-output function:\n%s", ir.SprintStmt(out, 20))
	}
}

func TestInjectVectorizedExceptionRealisesInlinedExternAroundLoop(t *testing.T) {
	sched := schedule.New() // inline by default
	f := &schedule.Function{
		Name: "lut", Sched: sched,
		Extern: &schedule.ExternDefinition{Name: "halide_lut", Channels: 1},
	}
	body := &ir.Provide{Target: "g", Args: []ir.Expr{&ir.Variable{Name: "g.s0.x"}},
		Values: []ir.Expr{&ir.Call{Kind: ir.CallFunc, Name: "lut", Args: []ir.Expr{&ir.Variable{Name: "g.s0.x"}}}}}
	root := &ir.For{Var: "g.s0.x", Min: &ir.IntImm{Value: 0}, Extent: &ir.IntImm{Value: 8}, Type: ir.Vectorized, Body: body}

	out, err := Inject(root, f, false, false, &ir.Evaluate{Value: &ir.IntImm{Value: 0}}, nil)
	if err != nil {
		t.Fatalf("Inject() error = %v", err)
	}
	forLoop, ok := out.(*ir.For)
	if !ok {
		t.Fatalf("Inject() = %T, want the original *ir.For preserved around the realisation", out)
	}
	if _, ok := forLoop.Body.(*ir.Realize); !ok {
		t.Fatalf("Inject() vectorized loop body = %T, want *ir.Realize", forLoop.Body)
	}
}
