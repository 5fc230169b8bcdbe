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

package production

import (
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// qualifySchedule renames every variable a schedule names itself (dim
// vars, split old/outer/inner, bound vars, specialisation predicate
// vars) by prefixing it, so that the schedule's own symbols line up
// with the already-qualified site/value expressions §4.3 builds
// alongside it. A nil schedule qualifies to an empty, inline one.
func qualifySchedule(s *schedule.Schedule, prefix string) *schedule.Schedule {
	if s == nil {
		return schedule.New()
	}
	out := &schedule.Schedule{
		StoreAt:   s.StoreAt,
		ComputeAt: s.ComputeAt,
		Memoized:  s.Memoized,
		Touched:   s.Touched,
		Async:     s.Async,
	}
	for _, d := range s.Dims {
		out.Dims = append(out.Dims, schedule.Dim{Var: prefix + d.Var, Type: d.Type, Pure: d.Pure, Device: d.Device})
	}
	for _, sp := range s.Splits {
		out.Splits = append(out.Splits, qualifySplit(sp, prefix))
	}
	for _, b := range s.Bounds {
		out.Bounds = append(out.Bounds, qualifyBound(b, prefix))
	}
	for _, b := range s.ReductionDomain {
		out.ReductionDomain = append(out.ReductionDomain, qualifyBound(b, prefix))
	}
	for _, sp := range s.Specialisations {
		out.Specialisations = append(out.Specialisations, schedule.Specialisation{
			Predicate: qualifyPredicate(sp.Predicate, prefix),
			Then:      qualifySchedule(sp.Then, prefix),
		})
	}
	return out
}

func qualifyBound(b schedule.Bound, prefix string) schedule.Bound {
	return schedule.Bound{Var: prefix + b.Var, Min: ir.Qualify(b.Min, prefix), Extent: ir.Qualify(b.Extent, prefix)}
}

func qualifySplit(s schedule.Split, prefix string) schedule.Split {
	switch n := s.(type) {
	case schedule.SplitVar:
		return schedule.SplitVar{
			Old: prefix + n.Old, Outer: prefix + n.Outer, Inner: prefix + n.Inner,
			Factor: ir.Qualify(n.Factor, prefix), Exact: n.Exact, Partial: n.Partial,
		}
	case schedule.FuseVars:
		return schedule.FuseVars{Old: prefix + n.Old, Inner: prefix + n.Inner, Outer: prefix + n.Outer}
	case schedule.Rename:
		return schedule.Rename{Old: prefix + n.Old, Outer: prefix + n.Outer}
	}
	return s
}

func qualifyPredicate(p schedule.Predicate, prefix string) schedule.Predicate {
	switch p.Kind {
	case schedule.PredVar, schedule.PredVarEqBool:
		p.Var = prefix + p.Var
	default:
		p.Expr = ir.Qualify(p.Expr, prefix)
	}
	return p
}

func qualifyNames(names []string, prefix string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = prefix + n
	}
	return out
}
