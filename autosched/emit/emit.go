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

// Package emit implements §4.8, the Schedule Emitter: it turns a
// partition.Plan into concrete mutations of every function's
// schedule.Schedule (split directives, store_at/compute_at levels,
// parallel and vectorized loop markings). Nothing here re-derives the
// clustering decision; the plan is taken as given.
package emit

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/gx-org/loopsched/autosched/partition"
	"github.com/gx-org/loopsched/config"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// outerSuffix and innerSuffix are appended to a tiled axis's name to
// build its outer and inner variable names, mirroring the convention lower/loopnest expects
// a SplitVar's Old/Outer/Inner triple to follow.
const (
	outerSuffix = ".o"
	innerSuffix = ".i"
)

// Apply mutates every function's Schedule in env according to plan:
// group members other than a group's own output get store_at/compute_at
// set to a level inside that output's loop nest (or left inline, for an
// INLINE-phase producer); a group output whose group carries tile sizes
// gets one SplitVar per tiled axis, a parallel dim chosen from the
// resulting outer tile loops, and its innermost dim probed for
// vectorization. env is mutated in place; the return value is env
// filtered to just the group-output (root-realized) functions, for
// convenience at call sites that only care about the final loop nests.
func Apply(plan *partition.Plan, env schedule.Environment, params config.MachineParams) schedule.Environment {
	roots := schedule.Environment{}
	for _, out := range plan.SortedGroupOutputs() {
		g := plan.Groups[out]
		f := env[out]
		if f == nil {
			continue
		}
		roots[out] = f
		applyTiles(f, g, params)
		assignStoreComputeAt(plan, env, g, f)
		vectorizeInnermost(f)
		parallelizeReductions(f)
	}
	for producer, consumer := range plan.Inline {
		if f := env[producer]; f != nil {
			f.Sched.StoreAt = schedule.Inline()
			f.Sched.ComputeAt = schedule.Inline()
			f.Sched.Touched = true
		}
		_ = consumer // the inline target is implicit: callers substitute at use
	}
	return roots
}

// applyTiles records one SplitVar per tiled axis of the group's output
// function, in sorted axis order, and rewrites Dims so each tiled axis
// is replaced in place by its inner variable while its outer variable
// is appended as the new outermost dim; untouched axes keep their
// relative order. Tiling x and y of [x, y] gives [x.i, y.i, x.o, y.o].
func applyTiles(f *schedule.Function, g *partition.Group, params config.MachineParams) {
	if len(g.Tiles) == 0 {
		return
	}
	sched := f.Sched
	if len(sched.Dims) == 0 {
		sched.Dims = defaultDims(f)
	}
	for _, axis := range sortedKeys(g.Tiles) {
		factor := g.Tiles[axis]
		idx := sched.DimIndex(axis)
		if idx < 0 {
			continue
		}
		outer, inner := axis+outerSuffix, axis+innerSuffix
		sched.Splits = append(sched.Splits, schedule.SplitVar{
			Old: axis, Outer: outer, Inner: inner,
			Factor: &ir.IntImm{Value: factor},
		})
		dim := sched.Dims[idx]
		newDims := make([]schedule.Dim, 0, len(sched.Dims)+1)
		newDims = append(newDims, sched.Dims[:idx]...)
		newDims = append(newDims, schedule.Dim{Var: inner, Type: dim.Type, Pure: dim.Pure, Device: dim.Device})
		newDims = append(newDims, sched.Dims[idx+1:]...)
		newDims = append(newDims, schedule.Dim{Var: outer, Type: dim.Type, Pure: dim.Pure, Device: dim.Device})
		sched.Dims = newDims
	}
	sched.Touched = true
	assignParallelDim(sched, params)
}

// defaultDims seeds an untouched schedule's Dims from the function's
// bare argument list, innermost-first in source order, matching what
// the split normaliser assumes a never-scheduled stage already has.
func defaultDims(f *schedule.Function) []schedule.Dim {
	dims := make([]schedule.Dim, len(f.Args))
	for i, a := range f.Args {
		dims[i] = schedule.Dim{Var: a, Type: ir.Serial, Pure: true}
	}
	return dims
}

// assignParallelDim does nothing when params.Parallelism is at most 1.
// Otherwise it scans Dims from the outermost inward and marks Parallel
// the first Serial dim that either is not a split outer or whose split
// factor is at least params.Parallelism. The test compares the split
// factor, not the number of iterations the dim runs; dims that are not
// Serial are skipped, the tile's outer dims are never fused, and at
// most one dim is promoted per call.
func assignParallelDim(sched *schedule.Schedule, params config.MachineParams) {
	if params.Parallelism <= 1 {
		return
	}
	for i := len(sched.Dims) - 1; i >= 0; i-- {
		d := sched.Dims[i]
		if d.Type != ir.Serial {
			continue
		}
		factor := splitFactorFor(sched, d.Var)
		if factor <= 0 || factor >= int64(params.Parallelism) {
			sched.Dims[i].Type = ir.Parallel
			return
		}
	}
}

// splitFactorFor returns the constant factor of the SplitVar that
// produced outerVar, or -1 if outerVar was never a split outer (its
// extent is unbounded/unknown from this schedule alone).
func splitFactorFor(sched *schedule.Schedule, outerVar string) int64 {
	for _, s := range sched.Splits {
		sv, ok := s.(schedule.SplitVar)
		if !ok || sv.Outer != outerVar {
			continue
		}
		if c, ok := constOf(sv.Factor); ok {
			return c
		}
	}
	return -1
}

func constOf(e ir.Expr) (int64, bool) {
	if imm, ok := ir.Simplify(e).(*ir.IntImm); ok {
		return imm.Value, true
	}
	return 0, false
}

// vectorizeInnermost runs the §4.8 vectorisation probe on the
// innermost non-trivial dim of f's pure stage: IsOneToOne as a cheap
// pre-check, then FiniteDifference to confirm a compile-time-constant
// stride across every value expression before marking the dim
// Vectorized. Values are expressed in terms of the pre-split pure
// variable (a SplitVar's Inner is a sub-range of Old, not a fresh
// axis), so the probe runs against originOf(dim.Var), not the dim's
// own (possibly split-generated) name.
func vectorizeInnermost(f *schedule.Function) {
	sched := f.Sched
	dim, ok := sched.InnermostNonTrivial()
	if !ok || dim.Type != ir.Serial {
		return
	}
	probeVar := originOf(sched, dim.Var)
	for _, v := range f.Values {
		if !ir.IsOneToOne(v, probeVar) {
			return
		}
		if _, ok := ir.FiniteDifference(v, probeVar); !ok {
			return
		}
	}
	idx := sched.DimIndex(dim.Var)
	if idx < 0 {
		return
	}
	sched.Dims[idx].Type = ir.Vectorized
	sched.Touched = true
}

// originOf walks sched.Splits to find the pure variable a (possibly
// split-generated) loop var ultimately derives from, returning v itself
// if no split produced it.
func originOf(sched *schedule.Schedule, v string) string {
	for _, s := range sched.Splits {
		sv, ok := s.(schedule.SplitVar)
		if ok && sv.Inner == v {
			return sv.Old
		}
	}
	return v
}

// parallelizeReductions marks each update stage's reduction axis
// Parallel when ir.DefaultParallelOracle judges the axis race-free, one
// axis at a time so a later axis's oracle call sees only its own
// Provide, matching the oracle's per-axis contract.
func parallelizeReductions(f *schedule.Function) {
	for _, u := range f.Updates {
		if u.Sched == nil || len(u.ReductionDomain) == 0 {
			continue
		}
		provide := &ir.Provide{Target: f.Name, Args: u.Args, Values: u.Values}
		for _, bound := range u.ReductionDomain {
			idx := u.Sched.DimIndex(bound.Var)
			if idx < 0 {
				continue
			}
			if ir.DefaultParallelOracle(provide, bound.Var) {
				u.Sched.Dims[idx].Type = ir.Parallel
				u.Sched.Touched = true
			}
		}
	}
}

// assignStoreComputeAt places every non-output group member at the
// innermost surviving loop level of the group's output function
// (§4.7's premise: fusion means "compute alongside, at the finest tile
// granularity the merge decided on"). The group's own output keeps
// whatever store/compute level it already had (Root by default for a
// pipeline output, set by the caller before Apply runs for anything
// else).
func assignStoreComputeAt(plan *partition.Plan, env schedule.Environment, g *partition.Group, out *schedule.Function) {
	level := innermostLevel(out)
	for _, name := range g.SortedMembers() {
		if name == g.Output {
			continue
		}
		if _, inlined := plan.Inline[name]; inlined {
			continue
		}
		if f := env[name]; f != nil {
			f.Sched.StoreAt = level
			f.Sched.ComputeAt = level
			f.Sched.Touched = true
		}
	}
}

// innermostLevel returns the LoopLevel at f's innermost dim, or Root(f)
// if f has no dims recorded yet (an unscheduled leaf whose loop nest
// the lowering passes will still synthesize from its bare Args).
func innermostLevel(f *schedule.Function) schedule.LoopLevel {
	if len(f.Sched.Dims) == 0 {
		return schedule.Root(f.Name)
	}
	return schedule.At(f.Name, f.Sched.Dims[0].Var)
}

func sortedKeys(m map[string]int64) []string {
	out := maps.Keys(m)
	sort.Strings(out)
	return out
}
