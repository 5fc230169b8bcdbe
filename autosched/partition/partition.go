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

package partition

import (
	"github.com/gx-org/loopsched/config"
	"github.com/gx-org/loopsched/schedule"
)

// Run executes both clustering phases over order (a realisation order,
// leaves first) and returns the resulting Plan. estimates supplies the
// per-function sizing/cost input (§6's func_value_bounds, concretised).
func Run(order []string, env schedule.Environment, estimates map[string]Estimate, params config.MachineParams) *Plan {
	groups := map[string]*Group{}
	for _, name := range order {
		groups[name] = newSingleton(name)
	}
	plan := &Plan{Groups: groups, Inline: map[string]string{}}
	inlined := map[string]bool{}

	runPhase(plan, env, estimates, params, PhaseInline, inlined)
	runPhase(plan, env, estimates, params, PhaseFastMem, inlined)
	return plan
}

// runPhase repeats candidate-enumeration/score/apply until no
// beneficial merge exists (§4.7's Loop), which terminates because
// every accepted merge strictly shrinks the group count (FAST_MEM) or
// strictly shrinks the set of un-inlined producers (INLINE); neither
// can shrink forever.
func runPhase(plan *Plan, env schedule.Environment, estimates map[string]Estimate, params config.MachineParams, phase Phase, inlined map[string]bool) {
	cache := map[[2]string]*Option{}
	for {
		var best *Option
		for _, c := range candidatePairs(plan, env, phase) {
			key := [2]string{c[0], c[1]}
			opt, cached := cache[key]
			if !cached {
				opt = evaluate(plan.Groups[c[0]], plan.Groups[c[1]], env, estimates, inlined, phase, params)
				cache[key] = opt
			}
			if opt == nil {
				continue
			}
			if best == nil || opt.Benefit > best.Benefit {
				best = opt
			}
		}
		if best == nil || best.Benefit <= 0 {
			return
		}
		apply(plan, *best, phase, inlined)
		cache = map[[2]string]*Option{} // every cached key touching either group is now stale
	}
}

// candidatePairs enumerates (producer, consumer) group-output pairs
// where the producer group currently has exactly one consumer group
// (§4.7 step 1), in deterministic order. During the INLINE phase, a
// producer already folded into the inline map is not reconsidered.
func candidatePairs(plan *Plan, env schedule.Environment, phase Phase) [][2]string {
	var out [][2]string
	for _, prodOut := range sortedGroupOutputs(plan.Groups) {
		if f := env[prodOut]; f == nil || f.IsOutput {
			continue // a pipeline output is never merged up into a consumer
		}
		if phase == PhaseInline {
			if _, already := plan.Inline[prodOut]; already {
				continue
			}
		}
		cons := consumerGroups(plan, env, prodOut)
		if len(cons) != 1 {
			continue
		}
		for c := range cons {
			out = append(out, [2]string{prodOut, c})
		}
	}
	return out
}

// consumerGroups returns the set of other group-output names with a
// member directly calling a member of the group rooted at prodOut.
func consumerGroups(plan *Plan, env schedule.Environment, prodOut string) map[string]bool {
	prod := plan.Groups[prodOut]
	cons := map[string]bool{}
	for _, callerName := range sortedGroupOutputs(plan.Groups) {
		callerGroup := plan.Groups[callerName]
		if callerGroup == prod {
			continue
		}
		for _, memberName := range callerGroup.sortedMembers() {
			f := env[memberName]
			if f == nil {
				continue
			}
			for _, callee := range f.Calls() {
				if prod.Members[callee] {
					cons[callerName] = true
				}
			}
		}
	}
	return cons
}

func apply(plan *Plan, opt Option, phase Phase, inlined map[string]bool) {
	if phase == PhaseInline {
		plan.Inline[opt.Producer] = opt.Consumer
		inlined[opt.Producer] = true
		if prod := plan.Groups[opt.Producer]; prod != nil {
			prod.Tiles = nil
		}
		return
	}
	prod, cons := plan.Groups[opt.Producer], plan.Groups[opt.Consumer]
	if prod == nil || cons == nil || prod == cons {
		return
	}
	for m := range prod.Members {
		cons.Members[m] = true
	}
	cons.Tiles = opt.TileSizes
	delete(plan.Groups, opt.Producer)
}
