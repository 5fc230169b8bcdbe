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
	"sort"

	"golang.org/x/exp/maps"
)

// Group is a set of functions that will be fused into the loop nest of
// one group-output function (§4.7). Groups start as singletons, one
// per function, and only ever grow via a FAST_MEM-phase merge.
type Group struct {
	// Output names the function whose loop nest the rest of Members are
	// fused into.
	Output  string
	Members map[string]bool
	// Tiles holds the chosen per-axis tile size on Output once a
	// FAST_MEM merge sets it; nil before any merge lands on this group.
	Tiles map[string]int64
}

func newSingleton(name string) *Group {
	return &Group{Output: name, Members: map[string]bool{name: true}}
}

// sortedMembers returns Members in deterministic order.
func (g *Group) sortedMembers() []string {
	out := maps.Keys(g.Members)
	sort.Strings(out)
	return out
}

// Plan is the partitioner's output: the final set of groups plus the
// INLINE-phase producer→consumer map, for the schedule emitter to
// materialise into concrete Schedule directives.
type Plan struct {
	// Groups is keyed by group-output function name.
	Groups map[string]*Group
	// Inline maps a producer to the consumer it was folded into; an
	// inlined producer is never a group output and carries no tiles.
	Inline map[string]string
}

// SortedMembers exports sortedMembers for callers outside the package
// (the schedule emitter walks a group's membership deterministically).
func (g *Group) SortedMembers() []string { return g.sortedMembers() }

// GroupOf returns the group a function currently belongs to.
func (p *Plan) GroupOf(name string) *Group {
	for _, g := range p.Groups {
		if g.Members[name] {
			return g
		}
	}
	return nil
}

// sortedGroupOutputs returns the current group-output names in
// deterministic order (§4.7: "the caller order is deterministic").
func sortedGroupOutputs(groups map[string]*Group) []string {
	out := maps.Keys(groups)
	sort.Strings(out)
	return out
}

// SortedGroupOutputs exports sortedGroupOutputs for callers outside the
// package (the schedule emitter applies group decisions in
// deterministic order).
func (p *Plan) SortedGroupOutputs() []string { return sortedGroupOutputs(p.Groups) }
