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
	"github.com/gx-org/loopsched/depanalysis"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// Phase distinguishes the partitioner's two clustering passes (§4.7).
type Phase int

const (
	PhaseInline Phase = iota
	PhaseFastMem
)

// Option is one scored (producer group, consumer group, tile sizes)
// candidate.
type Option struct {
	Producer  string // producer group's Output
	Consumer  string // consumer group's Output
	TileSizes map[string]int64
	Benefit   float64
	// TotalWork/OriginalWork are computed per §4.7 alongside Benefit but
	// do not themselves feed the benefit formula, and no code in this
	// module reads them.
	TotalWork, OriginalWork float64
}

func tileSearchSet(phase Phase) []int64 {
	if phase == PhaseInline {
		return []int64{1}
	}
	return []int64{256, 128, 64, 32, 16, 8}
}

func capAndBalance(phase Phase, params config.MachineParams) (cap float64, balance float64) {
	if phase == PhaseInline {
		return float64(params.InlineSize), params.BalanceInline
	}
	return float64(params.FastMemSize), params.BalanceFastMem
}

// dimsOf returns the axes of f's own domain, innermost-first: its
// schedule's Dims if it has been given one, else its bare Args in
// declaration order (the pure-stage default before any scheduling).
func dimsOf(f *schedule.Function) []string {
	if f.Sched != nil && len(f.Sched.Dims) > 0 {
		out := make([]string, len(f.Sched.Dims))
		for i, d := range f.Sched.Dims {
			out[i] = d.Var
		}
		return out
	}
	return f.Args
}

func ceilDiv(a, b int64) int64 {
	if b <= 0 {
		return 1
	}
	return (a + b - 1) / b
}

// tileScope builds the symbolic-interval scope for one tile: tiled
// axes get [0, tile-1], untiled axes get their full estimated domain
// (or the symbolic arg_l/arg_u pair if no estimate is on record,
// degrading gracefully rather than fabricating a number).
func tileScope(f *schedule.Function, est Estimate, tiles map[string]int64) map[string]ir.Interval {
	scope := make(map[string]ir.Interval, len(f.Args))
	for _, a := range f.Args {
		if t, ok := tiles[a]; ok {
			scope[a] = ir.Interval{Min: &ir.IntImm{Value: 0}, Max: &ir.IntImm{Value: t - 1}}
			continue
		}
		if d := est.dim(a); d > 0 {
			scope[a] = ir.Interval{Min: &ir.IntImm{Value: 0}, Max: &ir.IntImm{Value: d - 1}}
			continue
		}
		scope[a] = ir.Interval{Min: &ir.Variable{Name: f.Name + "." + a + ".arg_l"}, Max: &ir.Variable{Name: f.Name + "." + a + ".arg_u"}}
	}
	return scope
}

// footprintAreas computes, under scope, the box every member's own
// producers require of it — the §4.6 machinery composed through the
// candidate's fused subtree rather than the whole pipeline, restricted
// to exactly prod ∪ cons so unrelated callers outside the candidate
// don't leak in.
func footprintAreas(env schedule.Environment, consFn *schedule.Function, members []string, scope map[string]ir.Interval) (map[string]float64, error) {
	sub := schedule.Environment{consFn.Name: consFn}
	for _, m := range members {
		if f, ok := env[m]; ok {
			sub[m] = f
		}
	}
	region, err := depanalysis.RequiredRegionsFrom(consFn.Name, scope, sub)
	if err != nil {
		return nil, err
	}
	boxes := map[string]ir.Box{}
	for _, producers := range region {
		for name, box := range producers {
			boxes[name] = ir.BoxUnion(boxes[name], box)
		}
	}
	areas := map[string]float64{}
	for name, box := range boxes {
		if area, ok := ir.Area(box); ok {
			areas[name] = float64(area)
		}
	}
	return areas, nil
}

// evaluate scores every (outer-suffix, tile-extent) combination in the
// search set for this phase and returns the best feasible Option, or
// nil if none is feasible.
func evaluate(prod, cons *Group, env schedule.Environment, estimates map[string]Estimate, inlined map[string]bool, phase Phase, params config.MachineParams) *Option {
	consFn := env[cons.Output]
	if consFn == nil {
		return nil
	}
	dims := dimsOf(consFn)
	var best *Option
	for suffix := 1; suffix <= len(dims); suffix++ {
		axes := dims[len(dims)-suffix:]
		for _, extent := range tileSearchSet(phase) {
			tiles := map[string]int64{}
			for _, a := range axes {
				tiles[a] = extent
			}
			opt := scoreOption(prod, cons, consFn, tiles, env, estimates, inlined, phase, params)
			if opt == nil {
				continue
			}
			if best == nil || opt.Benefit > best.Benefit {
				best = opt
			}
		}
	}
	return best
}

func scoreOption(prod, cons *Group, consFn *schedule.Function, tiles map[string]int64, env schedule.Environment, estimates map[string]Estimate, inlined map[string]bool, phase Phase, params config.MachineParams) *Option {
	estCons := estimates[consFn.Name]
	effective := map[string]int64{}
	for axis, t := range tiles {
		if d := estCons.dim(axis); d > 0 && d < t {
			continue // estimate smaller than proposed tile: don't tile this axis
		}
		effective[axis] = t
	}
	if len(effective) == 0 {
		return nil
	}

	estimateTiles := int64(1)
	for axis, t := range effective {
		d := estCons.dim(axis)
		if d <= 0 {
			d = t
		}
		estimateTiles *= ceilDiv(d, t)
	}
	if int64(params.Parallelism) > estimateTiles {
		return nil // parallelism floor
	}

	scope := tileScope(consFn, estCons, effective)
	members := append(prod.sortedMembers(), cons.sortedMembers()...)
	for _, name := range members {
		for _, d := range estimates[name].DimEstimate {
			if d <= 0 {
				return nil // unbounded member: no estimate to size a fused tile against
			}
		}
	}
	areas, err := footprintAreas(env, consFn, members, scope)
	if err != nil {
		return nil
	}

	var interS, totalWork, originalWork float64
	for _, name := range members {
		est := estimates[name]
		area := areas[name]
		if name != cons.Output && !(phase == PhaseFastMem && inlined[name]) {
			interS += float64(est.BytesPerElement) * area
		}
		totalWork += area * est.OpCost * float64(estimateTiles)
		originalWork += fullArea(est) * est.OpCost
	}

	var redundant float64
	for axis := range effective {
		for _, name := range prod.sortedMembers() {
			boxes := depanalysis.RedundantRegions(consFn, name, scope)
			box, ok := boxes[axis]
			if !ok {
				continue
			}
			area, ok := ir.Area(box)
			if !ok {
				continue
			}
			redundant += float64(area) * estimates[name].OpCost
		}
	}

	cap, balance := capAndBalance(phase, params)
	var benefit float64
	switch {
	case interS <= cap:
		benefit = interS*balance - redundant
	case interS <= 2*cap:
		hit := (2*cap - interS) / interS
		if hit < 0 {
			hit = 0
		}
		benefit = hit*interS*balance - redundant
	default:
		return nil // infeasible: footprint exceeds even the two-tile headroom
	}

	return &Option{
		Producer: prod.Output, Consumer: cons.Output, TileSizes: effective,
		Benefit: benefit, TotalWork: totalWork, OriginalWork: originalWork,
	}
}

func fullArea(est Estimate) float64 {
	area := int64(1)
	for _, d := range est.DimEstimate {
		if d > 0 {
			area *= d
		}
	}
	return float64(area)
}
