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

package main

import (
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// realizationOrder builds the leaves-first realisation order over env's
// call graph, the shape autosched.Run expects.
func realizationOrder(outputs []string, env schedule.Environment) ([]string, error) {
	calls := make(map[string][]string, len(env))
	for name, f := range env {
		calls[name] = f.Calls()
	}
	return ir.RealizationOrder(outputs, calls)
}

// demoBoxBlur builds a three-stage separable box blur pipeline: input
// (an extern, standing in for a loaded image buffer), blur_x (a
// horizontal 3-tap average), and blur_y (the pipeline's one output, a
// vertical 3-tap average of blur_x). Expression IR construction is an
// external collaborator's job (§6); this stands in for that collaborator
// so the CLI has something concrete to schedule.
func demoBoxBlur() (schedule.Environment, []string) {
	x, y := &ir.Variable{Name: "x"}, &ir.Variable{Name: "y"}
	input := &schedule.Function{
		Name:   "input",
		Args:   []string{"x", "y"},
		Extern: &schedule.ExternDefinition{Name: "load_image", Channels: 1},
		Sched:  schedule.New(),
	}
	blurX := &schedule.Function{
		Name: "blur_x",
		Args: []string{"x", "y"},
		Values: []ir.Expr{&ir.BinOp{Op: ir.Div,
			Left: &ir.BinOp{Op: ir.Add,
				Left: &ir.BinOp{Op: ir.Add,
					Left:  &ir.Call{Kind: ir.CallFunc, Name: "input", Args: []ir.Expr{offset(x, -1), y}},
					Right: &ir.Call{Kind: ir.CallFunc, Name: "input", Args: []ir.Expr{x, y}},
				},
				Right: &ir.Call{Kind: ir.CallFunc, Name: "input", Args: []ir.Expr{offset(x, 1), y}},
			},
			Right: &ir.IntImm{Value: 3},
		}},
		Sched: schedule.New(),
	}
	blurY := &schedule.Function{
		Name: "blur_y",
		Args: []string{"x", "y"},
		Values: []ir.Expr{&ir.BinOp{Op: ir.Div,
			Left: &ir.BinOp{Op: ir.Add,
				Left: &ir.BinOp{Op: ir.Add,
					Left:  &ir.Call{Kind: ir.CallFunc, Name: "blur_x", Args: []ir.Expr{x, offset(y, -1)}},
					Right: &ir.Call{Kind: ir.CallFunc, Name: "blur_x", Args: []ir.Expr{x, y}},
				},
				Right: &ir.Call{Kind: ir.CallFunc, Name: "blur_x", Args: []ir.Expr{x, offset(y, 1)}},
			},
			Right: &ir.IntImm{Value: 3},
		}},
		Sched:    schedule.New(),
		IsOutput: true,
	}
	blurY.Sched.Bounds = []schedule.Bound{
		{Var: "x", Min: &ir.IntImm{Value: 0}, Extent: &ir.IntImm{Value: 1024}},
		{Var: "y", Min: &ir.IntImm{Value: 0}, Extent: &ir.IntImm{Value: 768}},
	}
	blurY.Sched.StoreAt = schedule.Root("blur_y")
	blurY.Sched.ComputeAt = schedule.Root("blur_y")

	env := schedule.Environment{"input": input, "blur_x": blurX, "blur_y": blurY}
	return env, []string{"blur_y"}
}

func offset(v *ir.Variable, delta int64) ir.Expr {
	if delta == 0 {
		return v
	}
	return &ir.BinOp{Op: ir.Add, Left: v, Right: &ir.IntImm{Value: delta}}
}

// demoFuncValueBounds returns a conservative size estimate for every
// function in demoBoxBlur's environment, the func_value_bounds a real
// auto-scheduler driver would get from bounds inference; here it's
// simply the output's declared Bounds propagated to every stage, since
// all three stages share the same x/y domain shape.
func demoFuncValueBounds() map[string]ir.Box {
	box := ir.Box{
		{Min: &ir.IntImm{Value: 0}, Max: &ir.IntImm{Value: 1023}},
		{Min: &ir.IntImm{Value: 0}, Max: &ir.IntImm{Value: 767}},
	}
	return map[string]ir.Box{"input": box, "blur_x": box, "blur_y": box}
}
