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
	"testing"

	"github.com/gx-org/loopsched/ir"
)

func TestDemoBoxBlurBuildsAThreeStagePipelineWithOneOutput(t *testing.T) {
	env, outputs := demoBoxBlur()
	if len(env) != 3 {
		t.Fatalf("len(env) = %d, want 3 (input, blur_x, blur_y)", len(env))
	}
	if len(outputs) != 1 || outputs[0] != "blur_y" {
		t.Fatalf("outputs = %v, want [blur_y]", outputs)
	}
	if !env["blur_y"].IsOutput {
		t.Error("blur_y.IsOutput = false, want true")
	}
	if env["input"].Extern == nil {
		t.Error("input has no extern definition, want one (it stands in for a loaded buffer)")
	}
}

func TestRealizationOrderPlacesInputBeforeItsConsumers(t *testing.T) {
	env, outputs := demoBoxBlur()
	order, err := realizationOrder(outputs, env)
	if err != nil {
		t.Fatalf("realizationOrder() error = %v", err)
	}
	pos := map[string]int{}
	for i, name := range order {
		pos[name] = i
	}
	if pos["input"] > pos["blur_x"] || pos["blur_x"] > pos["blur_y"] {
		t.Errorf("order = %v, want input before blur_x before blur_y (leaves first)", order)
	}
}

func TestRootCmdExposesBothSubcommands(t *testing.T) {
	root := rootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	if !names["schedule"] || !names["autoschedule"] {
		t.Errorf("subcommands = %v, want schedule and autoschedule", names)
	}
}

func TestDemoFuncValueBoundsCoversEveryPipelineFunction(t *testing.T) {
	env, _ := demoBoxBlur()
	bounds := demoFuncValueBounds()
	for name := range env {
		box, ok := bounds[name]
		if !ok {
			t.Errorf("demoFuncValueBounds() has no entry for %s", name)
			continue
		}
		if area, ok := ir.Area(box); !ok || area <= 0 {
			t.Errorf("bounds[%s] area = %v, ok=%v, want a positive constant area", name, area, ok)
		}
	}
}
