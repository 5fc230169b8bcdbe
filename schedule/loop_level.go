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

// Package schedule holds the data model of §3: Function, Schedule,
// Split, LoopLevel, Bound. Schedules are mutated only before lowering
// runs (by the user or by the auto-scheduler's emitter, §9); the
// lowering passes in lower/ observe a frozen schedule.
package schedule

import "fmt"

// LoopLevel is a (func, var) pair with two distinguished values: Inline
// (empty var, empty func) and Root (outermost, empty var, func set).
// Equality is structural.
type LoopLevel struct {
	Func string
	Var  string
	root bool
}

// Inline is the distinguished "don't realize, substitute into callers" level.
func Inline() LoopLevel { return LoopLevel{} }

// Root is the distinguished outermost level for function fn.
func Root(fn string) LoopLevel { return LoopLevel{Func: fn, root: true} }

// At builds an ordinary per-stage loop level.
func At(fn, v string) LoopLevel { return LoopLevel{Func: fn, Var: v} }

// IsInline reports whether l is the inline level.
func (l LoopLevel) IsInline() bool { return l.Func == "" && !l.root }

// IsRoot reports whether l is a root level.
func (l LoopLevel) IsRoot() bool { return l.root }

// Equal reports structural equality.
func (l LoopLevel) Equal(o LoopLevel) bool {
	return l.Func == o.Func && l.Var == o.Var && l.root == o.root
}

// QualifiedVar returns the fully-qualified For.Var name this level
// refers to (the owning function's pure-stage dim), for ordinary
// per-loop levels only; callers must check IsInline/IsRoot first.
func (l LoopLevel) QualifiedVar() string { return l.Func + ".s0." + l.Var }

// String renders the level the way a schedule would be written back:
// "inline", "f.root" or "f.var".
func (l LoopLevel) String() string {
	switch {
	case l.IsInline():
		return "inline"
	case l.IsRoot():
		return fmt.Sprintf("%s.root", l.Func)
	default:
		return fmt.Sprintf("%s.%s", l.Func, l.Var)
	}
}
