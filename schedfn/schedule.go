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

// Package schedfn is the §6 top-level entry point: it drives the
// Production Builder, Schedule Validator and Realisation Injector over
// a whole pipeline's functions, in the order their schedules require,
// and assembles the final statement tree.
package schedfn

import (
	"go.uber.org/multierr"

	"github.com/gx-org/loopsched/diag"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/lower/inject"
	"github.com/gx-org/loopsched/lower/production"
	"github.com/gx-org/loopsched/schedule"
	"github.com/gx-org/loopsched/validate"
)

// Result is schedfn.Schedule's output: the assembled statement tree,
// the any_memoized flag §9 add 1 folds into the legacy return
// signature (true if any stage in the pipeline requested memoization),
// and every non-fatal diagnostic collected along the way. Warnings is
// nil when there were none; it is never the reason Schedule itself
// returns a non-nil error.
type Result struct {
	Root        ir.Stmt
	AnyMemoized bool
	Warnings    error
}

// Schedule builds the lowered statement tree for outputs' whole
// transitive closure of dependencies in env. Functions are realised in
// reverse topological order (outputs first, leaves last): by the time a
// producer is injected, every one of its consumers' own produce
// statements is already present in the tree for the injector to find a
// splice site in. Warnings collected across every function's validation
// pass are combined with multierr into Result.Warnings; only the first
// hard error encountered aborts and is returned as err.
func Schedule(outputs []string, env schedule.Environment, injectAsserts bool) (Result, error) {
	calls := make(map[string][]string, len(env))
	for name, f := range env {
		calls[name] = f.Calls()
	}
	order, err := ir.RealizationOrder(outputs, calls)
	if err != nil {
		return Result{}, err
	}

	var root ir.Stmt
	var anyMemoized bool
	var warnings error
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		f := env[name]
		if f == nil {
			return Result{}, diag.InternalErrorf(diag.At{Func: name, Stage: -1},
				"schedule: %s is in the realisation order but missing from the environment", name)
		}
		at := diag.At{Func: name, Stage: -1}

		fnWarnings, err := validate.Validate(f, root, env, at)
		warnings = multierr.Append(warnings, multierr.Combine(fnWarnings...))
		if err != nil {
			return Result{}, err
		}

		if !f.Sched.IsInline() || f.IsOutput {
			produce, update, err := production.Build(inlined(f, env))
			if err != nil {
				return Result{}, err
			}
			root, err = inject.Inject(root, f, f.IsOutput, injectAsserts, produce, update)
			if err != nil {
				return Result{}, err
			}
		}

		anyMemoized = anyMemoized || f.Sched.Memoized || updatesMemoized(f)
	}
	return Result{Root: root, AnyMemoized: anyMemoized, Warnings: warnings}, nil
}

func updatesMemoized(f *schedule.Function) bool {
	for _, u := range f.Updates {
		if u.Sched != nil && u.Sched.Memoized {
			return true
		}
	}
	return false
}
