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

package diag

import "go.uber.org/multierr"

// Appender accumulates diagnostics reported while walking the pipeline,
// grouped by a stack of contexts. Entering a function or stage pushes a
// context; leaving it pops, flushing anything accumulated in that scope
// through the context's own wrapping function. This mirrors §5's
// requirement that the "producing"/"for_device" contexts held during a
// rewrite are scoped stacks, restored on exit from each node: the error
// accumulator follows the same discipline so a diagnostic is always
// attributed to the innermost scope active when it was reported.
type Appender struct {
	stack []frame
	all   []error
}

type frame struct {
	wrap   func([]error) error
	errors []error
}

// Push opens a new context. wrap, if non-nil, transforms the errors
// collected in this context before they are appended to the parent
// scope (e.g. to prefix them with the function/stage name); nil means
// pass them through unchanged.
func (a *Appender) Push(wrap func([]error) error) {
	a.stack = append(a.stack, frame{wrap: wrap})
}

// Pop closes the innermost context, propagating its errors outward.
func (a *Appender) Pop() {
	last := a.stack[len(a.stack)-1]
	a.stack = a.stack[:len(a.stack)-1]
	if len(last.errors) == 0 {
		return
	}
	var err error
	if last.wrap != nil {
		err = last.wrap(last.errors)
	} else {
		err = multierr.Combine(last.errors...)
	}
	if err != nil {
		a.Append(err)
	}
}

// Append records a diagnostic in the innermost open context, or at the
// top level if no context is open.
func (a *Appender) Append(err error) {
	if err == nil {
		return
	}
	if len(a.stack) == 0 {
		a.all = append(a.all, err)
		return
	}
	top := &a.stack[len(a.stack)-1]
	top.errors = append(top.errors, err)
}

// Empty reports whether nothing has been recorded anywhere in the stack.
func (a *Appender) Empty() bool {
	if len(a.all) > 0 {
		return false
	}
	for _, f := range a.stack {
		if len(f.errors) > 0 {
			return false
		}
	}
	return true
}

// Err combines everything recorded at the top level, plus the errors of
// every still-open context, into a single error, or nil if nothing was
// recorded; the appender is not mutated. Each open context's errors go
// through that context's own wrap only, not through the wraps of the
// contexts enclosing it as a chain of Pop calls would.
func (a *Appender) Err() error {
	all := append([]error{}, a.all...)
	for i := len(a.stack) - 1; i >= 0; i-- {
		f := a.stack[i]
		if len(f.errors) == 0 {
			continue
		}
		if f.wrap != nil {
			all = append(all, f.wrap(f.errors))
		} else {
			all = append(all, f.errors...)
		}
	}
	return multierr.Combine(all...)
}

// Warnings filters the accumulated errors down to warning-severity
// diagnostics, used by callers that want to print warnings separately
// from the fatal error they return.
func (a *Appender) Warnings() []error {
	var warnings []error
	var collect func(errs []error)
	collect = func(errs []error) {
		for _, e := range errs {
			if IsWarning(e) {
				warnings = append(warnings, e)
			}
		}
	}
	collect(a.all)
	for _, f := range a.stack {
		collect(f.errors)
	}
	return warnings
}
