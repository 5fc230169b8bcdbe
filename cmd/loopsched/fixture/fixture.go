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

// Package fixture decodes the on-disk schedule fixture format the
// cmd/loopsched CLI reads: a YAML
// document naming a pipeline's outputs, a machine-parameter override
// block, and a per-function schedule, structurally identical to
// schedule.Schedule but with every ir.Expr field narrowed to a plain
// integer constant (fixtures only ever pin literal bounds and split
// factors, never symbolic expressions).
package fixture

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gx-org/loopsched/config"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// Dim mirrors schedule.Dim with Type spelled out as a fixture-friendly
// string instead of the ir.ForType enum.
type Dim struct {
	Var  string `yaml:"var"`
	Type string `yaml:"type"`
	Pure bool   `yaml:"pure"`
}

// Bound mirrors schedule.Bound with both ends as literal constants.
type Bound struct {
	Var    string `yaml:"var"`
	Min    int64  `yaml:"min"`
	Extent int64  `yaml:"extent"`
}

// Split mirrors one of schedule.SplitVar/FuseVars/Rename, tagged by Kind.
type Split struct {
	Kind    string `yaml:"kind"`
	Old     string `yaml:"old"`
	Outer   string `yaml:"outer"`
	Inner   string `yaml:"inner,omitempty"`
	Factor  int64  `yaml:"factor,omitempty"`
	Exact   bool   `yaml:"exact,omitempty"`
	Partial bool   `yaml:"partial,omitempty"`
}

// LoopLevel mirrors schedule.LoopLevel. Exactly one of Inline, Root or
// Var should be set; Inline wins if more than one is, then Root.
type LoopLevel struct {
	Func   string `yaml:"func,omitempty"`
	Var    string `yaml:"var,omitempty"`
	Root   bool   `yaml:"root,omitempty"`
	Inline bool   `yaml:"inline,omitempty"`
}

// Schedule mirrors schedule.Schedule field-for-field.
type Schedule struct {
	Dims            []Dim     `yaml:"dims,omitempty"`
	Splits          []Split   `yaml:"splits,omitempty"`
	Bounds          []Bound   `yaml:"bounds,omitempty"`
	ReductionDomain []Bound   `yaml:"reduction_domain,omitempty"`
	StoreAt         LoopLevel `yaml:"store_at,omitempty"`
	ComputeAt       LoopLevel `yaml:"compute_at,omitempty"`
	Memoized        bool      `yaml:"memoized,omitempty"`
	Async           bool      `yaml:"async,omitempty"`
}

// Params mirrors config.MachineParams; a zero field means "use
// config.Defaults' value for this field", not "use zero" (MachineParams
// only overrides fields the fixture actually sets).
type Params struct {
	Parallelism    int     `yaml:"parallelism,omitempty"`
	VecLen         int     `yaml:"vec_len,omitempty"`
	FastMemSize    int64   `yaml:"fast_mem_size,omitempty"`
	InlineSize     int64   `yaml:"inline_size,omitempty"`
	BalanceFastMem float64 `yaml:"balance_fast_mem,omitempty"`
	BalanceInline  float64 `yaml:"balance_inline,omitempty"`
}

// Pipeline is the fixture's top-level document.
type Pipeline struct {
	Outputs   []string            `yaml:"outputs"`
	Params    *Params             `yaml:"params,omitempty"`
	Schedules map[string]Schedule `yaml:"schedules,omitempty"`
}

// Load reads and decodes a Pipeline from path.
func Load(path string) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening fixture %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads and decodes a Pipeline from r.
func Decode(r io.Reader) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.NewDecoder(r).Decode(&p); err != nil {
		return nil, errors.Wrap(err, "decoding schedule fixture")
	}
	return &p, nil
}

// Apply overwrites the schedule of every function named in p.Schedules
// that is also present in env, leaving any function env carries but the
// fixture doesn't mention entirely untouched. It reports an error if
// the fixture names a function, split kind or dim type env/the fixture
// doesn't recognise, rather than silently dropping the mismatch.
func (p *Pipeline) Apply(env schedule.Environment) error {
	for name, fs := range p.Schedules {
		f, ok := env[name]
		if !ok {
			return errors.Errorf("fixture schedules %q, which is not in the pipeline", name)
		}
		sched, err := fs.toSchedule()
		if err != nil {
			return errors.Wrapf(err, "function %s", name)
		}
		f.Sched = sched
	}
	return nil
}

// MachineParams returns config.Defaults with every field p.Params sets
// overridden, or config.Defaults unchanged if p.Params is nil.
func (p *Pipeline) MachineParams() config.MachineParams {
	params := config.Defaults()
	if p.Params == nil {
		return params
	}
	if p.Params.Parallelism != 0 {
		params.Parallelism = p.Params.Parallelism
	}
	if p.Params.VecLen != 0 {
		params.VecLen = p.Params.VecLen
	}
	if p.Params.FastMemSize != 0 {
		params.FastMemSize = p.Params.FastMemSize
	}
	if p.Params.InlineSize != 0 {
		params.InlineSize = p.Params.InlineSize
	}
	if p.Params.BalanceFastMem != 0 {
		params.BalanceFastMem = p.Params.BalanceFastMem
	}
	if p.Params.BalanceInline != 0 {
		params.BalanceInline = p.Params.BalanceInline
	}
	return params
}

func (s Schedule) toSchedule() (*schedule.Schedule, error) {
	out := schedule.New()
	for _, d := range s.Dims {
		t, err := toForType(d.Type)
		if err != nil {
			return nil, err
		}
		out.Dims = append(out.Dims, schedule.Dim{Var: d.Var, Type: t, Pure: d.Pure})
	}
	for _, sp := range s.Splits {
		split, err := sp.toSplit()
		if err != nil {
			return nil, err
		}
		out.Splits = append(out.Splits, split)
	}
	for _, b := range s.Bounds {
		out.Bounds = append(out.Bounds, b.toBound())
	}
	for _, b := range s.ReductionDomain {
		out.ReductionDomain = append(out.ReductionDomain, b.toBound())
	}
	out.StoreAt = s.StoreAt.toLoopLevel()
	out.ComputeAt = s.ComputeAt.toLoopLevel()
	out.Memoized = s.Memoized
	out.Async = s.Async
	out.Touched = true
	return out, nil
}

func (b Bound) toBound() schedule.Bound {
	return schedule.Bound{Var: b.Var, Min: &ir.IntImm{Value: b.Min}, Extent: &ir.IntImm{Value: b.Extent}}
}

func (l LoopLevel) toLoopLevel() schedule.LoopLevel {
	switch {
	case l.Inline:
		return schedule.Inline()
	case l.Root:
		return schedule.Root(l.Func)
	default:
		return schedule.At(l.Func, l.Var)
	}
}

func toForType(s string) (ir.ForType, error) {
	switch s {
	case "", "serial":
		return ir.Serial, nil
	case "parallel":
		return ir.Parallel, nil
	case "vectorized":
		return ir.Vectorized, nil
	case "unrolled":
		return ir.Unrolled, nil
	default:
		return 0, errors.Errorf("unrecognised dim type %q", s)
	}
}

func (sp Split) toSplit() (schedule.Split, error) {
	switch sp.Kind {
	case "split":
		return schedule.SplitVar{
			Old: sp.Old, Outer: sp.Outer, Inner: sp.Inner,
			Factor: &ir.IntImm{Value: sp.Factor}, Exact: sp.Exact, Partial: sp.Partial,
		}, nil
	case "fuse":
		return schedule.FuseVars{Old: sp.Old, Inner: sp.Inner, Outer: sp.Outer}, nil
	case "rename":
		return schedule.Rename{Old: sp.Old, Outer: sp.Outer}, nil
	default:
		return nil, errors.Errorf("unrecognised split kind %q", sp.Kind)
	}
}
