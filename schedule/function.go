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

package schedule

import "github.com/gx-org/loopsched/ir"

// UpdateDefinition is one update stage of a function (§3): its own
// per-axis argument expressions (general expressions, not necessarily
// bare variable names), its own value expressions, an optional
// reduction domain, and its own schedule.
type UpdateDefinition struct {
	Args            []ir.Expr
	Values          []ir.Expr
	ReductionDomain []Bound
	Sched           *Schedule
}

// ExternArgKind is the closed set of extern-argument shapes (§4.3).
type ExternArgKind int

const (
	ExternArgExpr ExternArgKind = iota
	ExternArgFuncRef
	ExternArgBuffer
	ExternArgImageParam
)

// ExternArg is one argument of an extern call.
type ExternArg struct {
	Kind ExternArgKind
	// Expr is set when Kind == ExternArgExpr.
	Expr ir.Expr
	// FuncName is set when Kind == ExternArgFuncRef: the referenced
	// function supplies one buffer handle per output channel.
	FuncName string
	// BufferName/ImageName identify a materialised buffer or image
	// parameter respectively.
	BufferName string
	ImageName  string
	// Channels is the number of output channels/value expressions the
	// referenced function or buffer exposes.
	Channels int
}

// ExternDefinition is a function's extern (out-of-IR) definition: a
// symbolic routine name plus its argument list (§3). Extern functions
// have no internal (pure) definition.
type ExternDefinition struct {
	Name string
	Args []ExternArg
	// Channels is the number of output buffers the extern call produces.
	Channels int
}

// Function is one pipeline function (§3): name, pure argument names,
// one or more pure value expressions, optional update stages, an
// optional extern definition, and a schedule.
//
// Invariants: Args names are unique; len(Values) equals len(Values) of
// every update; an extern function has Values == nil.
type Function struct {
	Name     string
	Args     []string
	Values   []ir.Expr
	Updates  []*UpdateDefinition
	Extern   *ExternDefinition
	Sched    *Schedule
	IsOutput bool
}

// IsExtern reports whether f is backed by an extern definition rather
// than an internal pure definition.
func (f *Function) IsExtern() bool { return f.Extern != nil }

// Channels returns the number of value expressions (output channels)
// the function's pure (or extern) definition produces.
func (f *Function) Channels() int {
	if f.IsExtern() {
		return f.Extern.Channels
	}
	return len(f.Values)
}

// Environment maps function name to its Function, letting a pass
// resolve a callee by name (§6's `env` parameter).
type Environment map[string]*Function

// Calls returns the set of function names f's pure and update
// definitions directly reference, for use by ir.RealizationOrder and
// the dependency analyser's reverse call graph.
func (f *Function) Calls() []string {
	seen := map[string]bool{}
	var out []string
	add := func(e ir.Expr) {
		ir.WalkExprCalls(e, func(name string) {
			if name != f.Name && !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		})
	}
	for _, v := range f.Values {
		add(v)
	}
	for _, u := range f.Updates {
		for _, a := range u.Args {
			add(a)
		}
		for _, v := range u.Values {
			add(v)
		}
	}
	return out
}
