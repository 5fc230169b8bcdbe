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

// Package inject implements §4.4, the Realisation Injector: splicing
// one function's production into the statement tree being assembled
// for the whole pipeline, at the loop levels its schedule names.
package inject

import (
	"fmt"

	"github.com/gx-org/loopsched/diag"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// Inject rewrites root to splice in f's realisation. produce/update are
// the statements lower/production.Build returned for f. isOutput marks
// a pipeline output, which realises even if nothing downstream of root
// appears to use it yet (root is itself the output's consumer).
//
// If f is used nowhere in root and is not an output, root is returned
// unchanged (a dead stage elision a complete pipeline compiler needs:
// a function nobody calls and that isn't requested as output produces
// nothing).
func Inject(root ir.Stmt, f *schedule.Function, isOutput, injectAsserts bool, produce, update ir.Stmt) (ir.Stmt, error) {
	if !isOutput && !ir.UsesFunc(root, f.Name) {
		return root, nil
	}
	inj := &injector{f: f, isOutput: isOutput, injectAsserts: injectAsserts, produce: produce, update: update}

	if f.Sched.ComputeAt.IsRoot() {
		root = &ir.ProducerConsumer{Name: f.Name, Produce: produce, Update: update, Body: root,
			Memoized: f.Sched.Memoized, Async: f.Sched.Async}
		inj.foundCompute = true
	}
	if f.Sched.StoreAt.IsRoot() {
		root = &ir.Realize{Name: f.Name, Types: inj.bufferTypes(), Bounds: inj.realizeBounds(), Body: root}
		if injectAsserts {
			root = injectExplicitBoundsAsserts(f, root)
		}
		inj.foundStore = true
	}

	out, err := inj.walk(root)
	if err != nil {
		return nil, err
	}
	if !f.Sched.IsInline() && (!inj.foundCompute || !inj.foundStore) {
		return nil, diag.InternalErrorf(diag.At{Func: f.Name, Stage: -1},
			"realisation injector did not find both a compute_at and a store_at site for %s", f.Name)
	}
	return out, nil
}

type injector struct {
	f             *schedule.Function
	isOutput      bool
	injectAsserts bool
	produce       ir.Stmt
	update        ir.Stmt
	foundCompute  bool
	foundStore    bool
}

// walk recurses first, then lets maybeSpliceFor/maybeSpliceProvide
// decide whether the just-rebuilt node is a splice site. Lets
// immediately inside a For are transparent to recursion (peeling and
// re-wrapping happens implicitly, since LetStmt.Body is walked and
// rewrapped in place), keeping the rewrite order stable as §4.4
// requires.
func (inj *injector) walk(s ir.Stmt) (ir.Stmt, error) {
	switch n := s.(type) {
	case *ir.For:
		body, err := inj.walk(n.Body)
		if err != nil {
			return nil, err
		}
		body, err = inj.maybeSpliceFor(n, body)
		if err != nil {
			return nil, err
		}
		return &ir.For{Var: n.Var, Min: n.Min, Extent: n.Extent, Type: n.Type, Device: n.Device, Body: body}, nil
	case *ir.LetStmt:
		body, err := inj.walk(n.Body)
		if err != nil {
			return nil, err
		}
		return &ir.LetStmt{Name: n.Name, Value: n.Value, Body: body}, nil
	case *ir.Block:
		stmts := make([]ir.Stmt, len(n.Stmts))
		for i, c := range n.Stmts {
			ns, err := inj.walk(c)
			if err != nil {
				return nil, err
			}
			stmts[i] = ns
		}
		return &ir.Block{Stmts: stmts}, nil
	case *ir.Provide:
		return inj.maybeSpliceProvide(n)
	case *ir.IfThenElse:
		then, err := inj.walk(n.Then)
		if err != nil {
			return nil, err
		}
		var els ir.Stmt
		if n.Else != nil {
			els, err = inj.walk(n.Else)
			if err != nil {
				return nil, err
			}
		}
		return &ir.IfThenElse{Cond: n.Cond, Then: then, Else: els}, nil
	case *ir.Realize:
		body, err := inj.walk(n.Body)
		if err != nil {
			return nil, err
		}
		return &ir.Realize{Name: n.Name, Types: n.Types, Bounds: n.Bounds, Body: body}, nil
	case *ir.ProducerConsumer:
		body, err := inj.walk(n.Body)
		if err != nil {
			return nil, err
		}
		return &ir.ProducerConsumer{Name: n.Name, Produce: n.Produce, Update: n.Update, Body: body,
			Memoized: n.Memoized, Async: n.Async}, nil
	default:
		return s, nil
	}
}

func (inj *injector) maybeSpliceFor(n *ir.For, body ir.Stmt) (ir.Stmt, error) {
	// Special case: an inlined extern function can't be expression-
	// inlined inside a Vectorized loop; realise it around the loop
	// instead, resolving both levels at once.
	if inj.f.Sched.IsInline() && inj.f.IsExtern() && n.Type == ir.Vectorized && ir.UsesFunc(body, inj.f.Name) {
		inj.foundCompute, inj.foundStore = true, true
		return inj.wrapRealizeAndProduce(body), nil
	}

	if !inj.foundCompute && n.Var == inj.computeTargetVar() {
		if ir.UsesFunc(body, inj.f.Name) || inj.isOutput {
			body = &ir.ProducerConsumer{Name: inj.f.Name, Produce: inj.produce, Update: inj.update, Body: body,
				Memoized: inj.f.Sched.Memoized, Async: inj.f.Sched.Async}
			inj.foundCompute = true
		}
	}
	if !inj.foundStore && n.Var == inj.storeTargetVar() {
		if ir.UsesFunc(body, inj.f.Name) || inj.isOutput {
			if !inj.foundCompute {
				return nil, diag.InternalErrorf(diag.At{Func: inj.f.Name, Stage: -1},
					"store_at site for %s reached before its compute_at site (compute must be interior to store)", inj.f.Name)
			}
			body = &ir.Realize{Name: inj.f.Name, Types: inj.bufferTypes(), Bounds: inj.realizeBounds(), Body: body}
			if inj.injectAsserts {
				body = injectExplicitBoundsAsserts(inj.f, body)
			}
			inj.foundStore = true
		}
	}
	return body, nil
}

// maybeSpliceProvide implements the impure-inlined-into-Provide
// special case: an impure function (one with update stages) can't be
// expression-inlined into a sibling's Provide, since the update
// defines later writes the inlining caller's single value expression
// can't represent.
func (inj *injector) maybeSpliceProvide(n *ir.Provide) (ir.Stmt, error) {
	if n.Target != inj.f.Name && inj.f.Sched.IsInline() && len(inj.f.Updates) > 0 && ir.UsesFunc(n, inj.f.Name) {
		inj.foundCompute, inj.foundStore = true, true
		return inj.wrapRealizeAndProduce(n), nil
	}
	return n, nil
}

func (inj *injector) wrapRealizeAndProduce(body ir.Stmt) ir.Stmt {
	pc := &ir.ProducerConsumer{Name: inj.f.Name, Produce: inj.produce, Update: inj.update, Body: body,
		Memoized: inj.f.Sched.Memoized, Async: inj.f.Sched.Async}
	out := ir.Stmt(&ir.Realize{Name: inj.f.Name, Types: inj.bufferTypes(), Bounds: inj.realizeBounds(), Body: pc})
	if inj.injectAsserts {
		out = injectExplicitBoundsAsserts(inj.f, out)
	}
	return out
}

// computeTargetVar/storeTargetVar resolve a non-inline, non-root
// LoopLevel to the qualified For.Var it names. A level is assumed to
// refer to the owning function's pure (s0) stage dims, the common case
// for compute_at/store_at targets.
func (inj *injector) computeTargetVar() string { return targetVar(inj.f.Sched.ComputeAt) }
func (inj *injector) storeTargetVar() string   { return targetVar(inj.f.Sched.StoreAt) }

func targetVar(level schedule.LoopLevel) string {
	if level.IsInline() || level.IsRoot() {
		return ""
	}
	return level.QualifiedVar()
}

func (inj *injector) bufferTypes() []ir.BufferType {
	n := inj.f.Channels()
	if n < 1 {
		n = 1
	}
	if n == 1 {
		return []ir.BufferType{{Name: inj.f.Name}}
	}
	out := make([]ir.BufferType, n)
	for k := 0; k < n; k++ {
		out[k] = ir.BufferType{Name: fmt.Sprintf("%s.%d", inj.f.Name, k)}
	}
	return out
}

func (inj *injector) realizeBounds() []ir.Range {
	out := make([]ir.Range, len(inj.f.Args))
	for i, a := range inj.f.Args {
		out[i] = ir.Range{
			Min:    &ir.Variable{Name: inj.f.Name + "." + a + ".min_realized"},
			Extent: &ir.Variable{Name: inj.f.Name + "." + a + ".extent_realized"},
		}
	}
	return out
}

// injectExplicitBoundsAsserts implements §6's explicit-bounds
// assertion injection: for every explicit bound the user declared on
// f, assert the realised region is not smaller than it.
func injectExplicitBoundsAsserts(f *schedule.Function, body ir.Stmt) ir.Stmt {
	for i := len(f.Sched.Bounds) - 1; i >= 0; i-- {
		b := f.Sched.Bounds[i]
		cond := &ir.BinOp{Op: ir.LE, Left: b.Extent, Right: &ir.Variable{Name: f.Name + "." + b.Var + ".extent_realized"}}
		msg := &ir.Call{Kind: ir.CallIntrinsic, Name: "halide_error_explicit_bounds_too_small",
			Args: []ir.Expr{&ir.Variable{Name: f.Name}, &ir.Variable{Name: b.Var}}}
		body = &ir.Block{Stmts: []ir.Stmt{&ir.AssertStmt{Cond: cond, Message: msg}, body}}
	}
	return body
}
