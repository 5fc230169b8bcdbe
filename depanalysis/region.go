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

// Package depanalysis implements §4.6, the Dependency Analyser: for
// every function reachable from a pipeline's outputs, the symbolic
// region of each producer a consumer requires, and the per-axis
// redundant region two adjacent tiles of that consumer recompute. The
// partitioner (autosched/partition) scores candidate fusions against
// these regions; nothing here mutates a Schedule.
package depanalysis

import (
	"github.com/gx-org/loopsched/diag"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// Region is consumer → producer → the box of producer's own argument
// space the consumer requires, expressed in terms of the consumer's own
// symbolic per-axis bounds (see argScope).
type Region map[string]map[string]ir.Box

// arg_l/arg_u is the symbolic pair a function's own axis is bound to
// before any concrete realised extent is known; same naming as used by
// the §6 interface list.
func argSymbol(funcName, arg, suffix string) ir.Expr {
	return &ir.Variable{Name: funcName + "." + arg + ".arg_" + suffix}
}

func argScope(f *schedule.Function) map[string]ir.Interval {
	scope := make(map[string]ir.Interval, len(f.Args))
	for _, a := range f.Args {
		scope[a] = ir.Interval{Min: argSymbol(f.Name, a, "l"), Max: argSymbol(f.Name, a, "u")}
	}
	return scope
}

// boxToScope binds f's own arg names to the per-axis intervals of box,
// one axis per arg in declaration order.
func boxToScope(f *schedule.Function, box ir.Box) map[string]ir.Interval {
	scope := make(map[string]ir.Interval, len(f.Args))
	for i, a := range f.Args {
		if i < len(box) {
			scope[a] = box[i]
		}
	}
	return scope
}

// definitionExprs returns every expression a function's pure and update
// definitions evaluate: argument expressions (which can themselves
// reference other functions, e.g. a scatter target built from a helper)
// and value expressions.
func definitionExprs(f *schedule.Function) []ir.Expr {
	exprs := append([]ir.Expr{}, f.Values...)
	for _, u := range f.Updates {
		exprs = append(exprs, u.Args...)
		exprs = append(exprs, u.Values...)
	}
	return exprs
}

// collectCalls evaluates every call in exprs under scope, merging
// multiple call sites into the same producer by per-axis union (§4.6:
// "merge boxes by per-axis union on revisit").
func collectCalls(exprs []ir.Expr, self string, scope map[string]ir.Interval) map[string]ir.Box {
	out := map[string]ir.Box{}
	for _, e := range exprs {
		ir.WalkCalls(e, func(c *ir.Call) {
			if c.Name == self {
				return
			}
			box := make(ir.Box, len(c.Args))
			for i, a := range c.Args {
				box[i] = ir.EvalInterval(a, scope)
			}
			out[c.Name] = ir.BoxUnion(out[c.Name], box)
		})
	}
	return out
}

// boxEqual compares two boxes structurally via their printed form,
// sufficient here since every box entry passes through ir.Simplify
// before being stored.
func boxEqual(a, b ir.Box) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if ir.SprintExpr(a[i].Min) != ir.SprintExpr(b[i].Min) || ir.SprintExpr(a[i].Max) != ir.SprintExpr(b[i].Max) {
			return false
		}
	}
	return true
}

// RequiredRegions computes the required region (§4.6) reachable from
// outputs: a breadth-first, fixed-point propagation over the reverse
// call graph seeded at each output's own symbolic domain (argScope).
// Revisiting a producer through a second caller unions its accumulated
// box and re-queues it so the union also reaches its own producers.
func RequiredRegions(outputs []string, env schedule.Environment) (Region, error) {
	seeds := map[string]map[string]ir.Interval{}
	for _, o := range outputs {
		if f := env[o]; f != nil {
			seeds[o] = argScope(f)
		}
	}
	return requiredRegionsFrom(seeds, env)
}

// RequiredRegionsFrom is RequiredRegions generalised to a caller-
// supplied starting scope for a single root, rather than root's own
// symbolic argScope. The partitioner uses this to ask "what does
// member M cost under this concrete candidate tile", composing the
// same propagation through intermediate group members as the symbolic
// analysis does through a whole pipeline.
func RequiredRegionsFrom(root string, scope map[string]ir.Interval, env schedule.Environment) (Region, error) {
	return requiredRegionsFrom(map[string]map[string]ir.Interval{root: scope}, env)
}

func requiredRegionsFrom(seeds map[string]map[string]ir.Interval, env schedule.Environment) (Region, error) {
	region := Region{}
	producerBox := map[string]ir.Box{}
	seedScope := map[string]map[string]ir.Interval{}
	queued := map[string]bool{}
	var queue []string
	for name, scope := range seeds {
		seedScope[name] = scope
		if !queued[name] {
			queue = append(queue, name)
			queued[name] = true
		}
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		queued[name] = false

		f := env[name]
		if f == nil {
			return nil, diag.InternalErrorf(diag.At{Func: name, Stage: -1},
				"dependency analysis: %s is not present in the environment", name)
		}
		var scope map[string]ir.Interval
		if box, ok := producerBox[name]; ok {
			scope = boxToScope(f, box)
		} else if s, ok := seedScope[name]; ok {
			scope = s
		} else {
			scope = argScope(f)
		}

		calls := collectCalls(definitionExprs(f), name, scope)
		if len(calls) == 0 {
			continue
		}
		if region[name] == nil {
			region[name] = map[string]ir.Box{}
		}
		for producer, box := range calls {
			region[name][producer] = ir.BoxUnion(region[name][producer], box)

			prev, had := producerBox[producer]
			next := ir.BoxUnion(prev, box)
			if had && boxEqual(prev, next) {
				continue
			}
			producerBox[producer] = next
			if !queued[producer] {
				queue = append(queue, producer)
				queued[producer] = true
			}
		}
	}
	return region, nil
}
