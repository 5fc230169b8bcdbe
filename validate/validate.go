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

// Package validate implements §4.5, the Schedule Validator: it checks
// one function's schedule against the evolving statement tree and
// reports a user error, with a source-level rendering of the offending
// schedule, if the schedule is not realisable where it claims to be.
package validate

import (
	"fmt"
	"strings"

	"github.com/gx-org/loopsched/diag"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// Validate checks f's schedule against root, the statement tree
// assembled so far, returning a user error describing the violation
// (§4.5's failure-reporting format) and any warnings collected along
// the way.
func Validate(f *schedule.Function, root ir.Stmt, env schedule.Environment, at diag.At) ([]error, error) {
	var warnings []error

	if f.IsExtern() {
		for _, a := range f.Extern.Args {
			if a.Kind != schedule.ExternArgFuncRef {
				continue
			}
			callee := env[a.FuncName]
			if callee != nil && callee.Sched.IsInline() {
				return warnings, diag.UserErrorf(at,
					"%s's extern argument %s is inlined, but an inlined function cannot be passed across an extern boundary", f.Name, a.FuncName)
			}
		}
	}

	if touched, untouched := touchedMismatch(f); touched && untouched {
		warnings = append(warnings, diag.Warningf(at, "%s has some update stages with an explicit schedule and others left at the default; this often means an update was forgotten", f.Name))
	}

	if f.IsOutput && (!f.Sched.StoreAt.IsRoot() || !f.Sched.ComputeAt.IsRoot()) {
		return warnings, diag.UserErrorf(at, "%s is a pipeline output and must be scheduled compute_root, got %s", f.Name, scheduleSyntax(f.Sched))
	}

	if f.Sched.IsInline() {
		return warnings, nil
	}

	if f.Sched.StoreAt.IsRoot() {
		return warnings, nil // root is always a legal store site; nothing to check further here.
	}
	legalSet, uses := legalSites(root, f.Name)
	storeVar := f.Sched.StoreAt.QualifiedVar()
	storeIdx := indexOf(legalSet, storeVar)
	if storeIdx < 0 {
		return warnings, diag.UserErrorf(at, "%s's store_at site is not legal:\n%s", f.Name, failureReport(f, legalSet, uses))
	}

	if f.Sched.ComputeAt.IsRoot() {
		return warnings, diag.UserErrorf(at, "%s: compute_at(root) is incompatible with a non-root store_at", f.Name)
	}
	computeVar := f.Sched.ComputeAt.QualifiedVar()
	var computeIdx int
	if computeVar == storeVar {
		computeIdx = storeIdx
	} else if len(uses) == 0 {
		computeIdx = -1
	} else {
		computeIdx = indexOf(uses[0][storeIdx:], computeVar)
		if computeIdx >= 0 {
			computeIdx += storeIdx
		}
	}
	if computeIdx < storeIdx {
		return warnings, diag.UserErrorf(at, "%s's compute_at site is not at or inside its store_at site:\n%s", f.Name, failureReport(f, legalSet, uses))
	}
	if len(uses) > 0 && hasParallelBetween(uses[0], storeIdx, computeIdx) {
		return warnings, diag.UserErrorf(at, "%s stores across a parallel loop boundary between store_at and compute_at:\n%s", f.Name, failureReport(f, legalSet, uses))
	}
	return warnings, nil
}

func touchedMismatch(f *schedule.Function) (touched, untouched bool) {
	for _, u := range f.Updates {
		if u.Sched.Touched {
			touched = true
		} else {
			untouched = true
		}
	}
	return touched, untouched
}

func scheduleSyntax(s *schedule.Schedule) string {
	switch {
	case s.IsInline():
		return ".compute_inline()"
	case s.StoreAt.IsRoot() && s.ComputeAt.IsRoot():
		return ".compute_root()"
	default:
		return fmt.Sprintf(".store_at(%s).compute_at(%s)", s.StoreAt, s.ComputeAt)
	}
}

func failureReport(f *schedule.Function, legalSet []frame, uses [][]frame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "schedule: %s%s\n", f.Name, scheduleSyntax(f.Sched))
	b.WriteString("legal sites: ")
	names := make([]string, len(legalSet))
	for i, fr := range legalSet {
		names[i] = fr.v
	}
	b.WriteString(strings.Join(names, " > "))
	b.WriteString("\n")
	for i, stack := range uses {
		names := make([]string, len(stack))
		for j, fr := range stack {
			names[j] = fr.v
		}
		fmt.Fprintf(&b, "use %d: %s\n", i, strings.Join(names, " > "))
	}
	return b.String()
}
