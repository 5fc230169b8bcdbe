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

package depanalysis

import (
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// ConcreteBox substitutes a concrete interval for each of consumer's
// own axes into box (producer's required region, expressed in
// consumer's arg_l/arg_u symbols) and evaluates every axis to a
// constant [lo, hi] pair.
//
// Where an axis doesn't resolve to a compile-time constant — the
// consumer's own interval is itself symbolic, or the expression
// involves more than affine arithmetic — this falls back to producer's
// own explicitly declared schedule.Bound on that axis, if any. An axis
// that still doesn't resolve reports ok[i]=false, the §7 convention a
// caller (typically the partitioner's benefit computation) propagates
// as an "unknown", rejecting the option rather than guessing.
func ConcreteBox(producer *schedule.Function, consumer *schedule.Function, box ir.Box, axisBounds map[string]ir.Interval) (lo, hi []int64, ok []bool) {
	env := map[string]ir.Expr{}
	for _, a := range consumer.Args {
		iv, have := axisBounds[a]
		if !have {
			continue
		}
		env[consumer.Name+"."+a+".arg_l"] = iv.Min
		env[consumer.Name+"."+a+".arg_u"] = iv.Max
	}

	lo = make([]int64, len(box))
	hi = make([]int64, len(box))
	ok = make([]bool, len(box))
	for i, iv := range box {
		sub := ir.Interval{
			Min: ir.Simplify(ir.SubstituteExpr(iv.Min, env)),
			Max: ir.Simplify(ir.SubstituteExpr(iv.Max, env)),
		}
		if l, h, c := ir.ConstInterval(sub); c {
			lo[i], hi[i], ok[i] = l, h, true
			continue
		}
		if i < len(producer.Args) {
			if l, h, c := fallbackBound(producer, producer.Args[i]); c {
				lo[i], hi[i], ok[i] = l, h, true
			}
		}
	}
	return lo, hi, ok
}

func fallbackBound(f *schedule.Function, axis string) (lo, hi int64, ok bool) {
	for _, b := range f.Sched.Bounds {
		if b.Var != axis {
			continue
		}
		min, ok1 := constOf(b.Min)
		extent, ok2 := constOf(b.Extent)
		if !ok1 || !ok2 {
			return 0, 0, false
		}
		return min, min + extent - 1, true
	}
	return 0, 0, false
}

func constOf(e ir.Expr) (int64, bool) {
	switch v := ir.Simplify(e).(type) {
	case *ir.IntImm:
		return v.Value, true
	default:
		return 0, false
	}
}
