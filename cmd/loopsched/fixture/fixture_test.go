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

package fixture

import (
	"strings"
	"testing"

	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

const sample = `
outputs: [out]
params:
  parallelism: 4
  fast_mem_size: 1048576
schedules:
  blur:
    store_at: {func: out, root: true}
    compute_at: {func: out, root: true}
    dims:
      - {var: x, type: serial, pure: true}
      - {var: y, type: vectorized, pure: true}
  out:
    store_at: {root: true, func: out}
    compute_at: {root: true, func: out}
    splits:
      - {kind: split, old: x, outer: x.o, inner: x.i, factor: 64}
    bounds:
      - {var: x, min: 0, extent: 256}
`

func TestDecodeParsesOutputsParamsAndSchedules(t *testing.T) {
	p, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(p.Outputs) != 1 || p.Outputs[0] != "out" {
		t.Fatalf("Outputs = %v, want [out]", p.Outputs)
	}
	if p.Params == nil || p.Params.Parallelism != 4 {
		t.Fatalf("Params = %+v, want Parallelism=4", p.Params)
	}
	if len(p.Schedules) != 2 {
		t.Fatalf("Schedules = %v, want 2 entries", p.Schedules)
	}
}

func TestApplyOverwritesOnlyNamedFunctions(t *testing.T) {
	blur := &schedule.Function{Name: "blur", Args: []string{"x", "y"}, Sched: schedule.New()}
	out := &schedule.Function{Name: "out", Args: []string{"x"}, Sched: schedule.New(), IsOutput: true}
	untouched := &schedule.Function{Name: "extra", Args: []string{"z"}, Sched: schedule.New()}
	env := schedule.Environment{"blur": blur, "out": out, "extra": untouched}

	p, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := p.Apply(env); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if blur.Sched.StoreAt.Func != "out" || !blur.Sched.StoreAt.IsRoot() {
		t.Errorf("blur.StoreAt = %v, want out.root", blur.Sched.StoreAt)
	}
	if len(blur.Sched.Dims) != 2 || blur.Sched.Dims[1].Type != ir.Vectorized {
		t.Errorf("blur.Dims = %v, want y vectorized", blur.Sched.Dims)
	}
	if len(out.Sched.Splits) != 1 {
		t.Errorf("out.Splits = %v, want 1 entry", out.Sched.Splits)
	}
	if !untouched.Sched.IsInline() {
		t.Error("extra's schedule was mutated despite not being named in the fixture")
	}
}

func TestApplyRejectsAnUnknownFunctionName(t *testing.T) {
	env := schedule.Environment{"out": &schedule.Function{Name: "out", Sched: schedule.New()}}
	p, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := p.Apply(env); err == nil {
		t.Fatal("Apply() = nil, want an error (fixture names blur, which is not in env)")
	}
}

func TestMachineParamsFallsBackToDefaultsForUnsetFields(t *testing.T) {
	p, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	params := p.MachineParams()
	if params.Parallelism != 4 {
		t.Errorf("Parallelism = %d, want 4 (fixture override)", params.Parallelism)
	}
	if params.VecLen == 0 {
		t.Error("VecLen = 0, want config.Defaults' value since the fixture didn't set it")
	}
}

func TestToSplitRejectsUnrecognisedKind(t *testing.T) {
	_, err := Split{Kind: "bogus"}.toSplit()
	if err == nil {
		t.Fatal("toSplit() = nil error, want a rejection of an unrecognised kind")
	}
}
