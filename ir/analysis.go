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

package ir

import "github.com/pkg/errors"

// EvalInterval propagates variable intervals through an expression tree,
// producing a conservative interval for the whole expression. This is
// the box-arithmetic primitive that the dependency analyser (§4.6)
// builds required/redundant regions on top of.
func EvalInterval(e Expr, scope map[string]Interval) Interval {
	switch n := e.(type) {
	case *IntImm:
		return Interval{Min: n, Max: n}
	case *Variable:
		if iv, ok := scope[n.Name]; ok {
			return iv
		}
		return Interval{Min: n, Max: n}
	case *Likely:
		return EvalInterval(n.X, scope)
	case *Select:
		t := EvalInterval(n.T, scope)
		f := EvalInterval(n.F, scope)
		return IntervalUnion(t, f)
	case *BinOp:
		l := EvalInterval(n.Left, scope)
		r := EvalInterval(n.Right, scope)
		return evalBinOpInterval(n.Op, l, r)
	case *Call:
		// An opaque call's result interval is unknown; approximate with
		// the call itself as both endpoints (exact when used only for
		// substitution bookkeeping, not for numeric bound extraction).
		return Interval{Min: n, Max: n}
	}
	return Interval{Min: e, Max: e}
}

func evalBinOpInterval(op BinOpKind, l, r Interval) Interval {
	switch op {
	case Add:
		return Interval{Min: Simplify(&BinOp{Op: Add, Left: l.Min, Right: r.Min}), Max: Simplify(&BinOp{Op: Add, Left: l.Max, Right: r.Max})}
	case Sub:
		return Interval{Min: Simplify(&BinOp{Op: Sub, Left: l.Min, Right: r.Max}), Max: Simplify(&BinOp{Op: Sub, Left: l.Max, Right: r.Min})}
	case Mul:
		// Conservative: only exact when r is a non-negative constant,
		// which covers every use in this codebase (scaling by a tile
		// factor or a stage's known extent).
		if c, ok := asInt(r.Min); ok && c >= 0 {
			if c2, ok2 := asInt(r.Max); ok2 && c2 == c {
				return Interval{Min: Simplify(&BinOp{Op: Mul, Left: l.Min, Right: r.Min}), Max: Simplify(&BinOp{Op: Mul, Left: l.Max, Right: r.Max})}
			}
		}
		if c, ok := asInt(l.Min); ok && c >= 0 {
			if c2, ok2 := asInt(l.Max); ok2 && c2 == c {
				return Interval{Min: Simplify(&BinOp{Op: Mul, Left: l.Min, Right: r.Min}), Max: Simplify(&BinOp{Op: Mul, Left: l.Max, Right: r.Max})}
			}
		}
		return Interval{Min: &BinOp{Op: Mul, Left: l.Min, Right: r.Min}, Max: &BinOp{Op: Mul, Left: l.Max, Right: r.Max}}
	case Min:
		return Interval{Min: Simplify(&BinOp{Op: Min, Left: l.Min, Right: r.Min}), Max: Simplify(&BinOp{Op: Min, Left: l.Max, Right: r.Max})}
	case Max:
		return Interval{Min: Simplify(&BinOp{Op: Max, Left: l.Min, Right: r.Min}), Max: Simplify(&BinOp{Op: Max, Left: l.Max, Right: r.Max})}
	}
	return Interval{Min: &BinOp{Op: op, Left: l.Min, Right: r.Min}, Max: &BinOp{Op: op, Left: l.Max, Right: r.Max}}
}

// IsOneToOne reports whether e is known to be a one-to-one (injective)
// function of var: the identity, or an affine expression var*c+k / c+var
// with c != 0. This is the cheap structural pre-check the schedule
// emitter runs before attempting the more expensive FiniteDifference
// probe when deciding whether an axis is vectorizable.
func IsOneToOne(e Expr, varName string) bool {
	switch n := e.(type) {
	case *Variable:
		return n.Name == varName
	case *BinOp:
		switch n.Op {
		case Add, Sub:
			lUses, rUses := ExprUsesVar(n.Left, varName), ExprUsesVar(n.Right, varName)
			if lUses && !rUses {
				return IsOneToOne(n.Left, varName)
			}
			if rUses && !lUses {
				return IsOneToOne(n.Right, varName)
			}
			return false
		case Mul:
			if c, ok := asInt(n.Right); ok && c != 0 {
				return IsOneToOne(n.Left, varName)
			}
			if c, ok := asInt(n.Left); ok && c != 0 {
				return IsOneToOne(n.Right, varName)
			}
			return false
		}
	}
	return false
}

// FiniteDifference computes e(var+1) - e(var), simplified. ok is true
// when the result does not depend on var, i.e. the access has a
// compile-time-constant stride along that axis (§4.8's vectorisation
// probe, scenario S6).
func FiniteDifference(e Expr, varName string) (stride Expr, ok bool) {
	shifted := SubstituteOne(e, varName, &BinOp{Op: Add, Left: &Variable{Name: varName}, Right: &IntImm{Value: 1}})
	diff := Simplify(&BinOp{Op: Sub, Left: shifted, Right: e})
	return diff, !ExprUsesVar(diff, varName)
}

// ParallelOracle decides whether a reduction-update stage's update to
// reductionVar is safe to run in parallel (distinct loop iterations do
// not race on the same output location). §4.8 calls this an external
// oracle; DefaultParallelOracle is a conservative, syntactic
// implementation sufficient for this repository's tests: an update is
// parallel-safe along an axis only if that axis does not appear in the
// Provide's own argument list in a way that lets two distinct values of
// the axis address the same output location, which for the affine
// argument expressions this IR supports reduces to "the axis is
// one-to-one in every argument position it appears in".
type ParallelOracle func(update *Provide, axis string) bool

// DefaultParallelOracle is the conservative default: an axis is
// parallelisable if it is one-to-one in every Provide argument that
// mentions it, and does not appear in more than one argument position
// (which would imply an aliasing write pattern this analysis cannot
// rule out).
func DefaultParallelOracle(update *Provide, axis string) bool {
	mentions := 0
	for _, a := range update.Args {
		if ExprUsesVar(a, axis) {
			mentions++
			if !IsOneToOne(a, axis) {
				return false
			}
		}
	}
	return mentions <= 1
}

// RealizationOrder topologically sorts functions by their call graph so
// that every callee precedes its callers (leaves first, outputs last),
// as required by §2/§6. calls maps a function name to the names of the
// other functions its definition (pure + updates) directly calls.
func RealizationOrder(outputs []string, calls map[string][]string) ([]string, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var order []string
	var visit func(name string, stack []string) error
	visit = func(name string, stack []string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			return errors.Errorf("cycle detected in call graph at %s (path: %v)", name, append(stack, name))
		}
		color[name] = gray
		for _, callee := range calls[name] {
			if err := visit(callee, append(stack, name)); err != nil {
				return err
			}
		}
		color[name] = black
		order = append(order, name)
		return nil
	}
	for _, o := range outputs {
		if err := visit(o, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// InlineFunction substitutes every CallFunc reference to callee inside
// e with the callee's (already-qualified) value expression, evaluated
// at the call's argument list. valueAt receives the call's argument
// expressions and returns the substituted value; it is the caller's
// responsibility to bind the callee's own pure-arg names to those
// expressions (the production builder's qualify step does this).
func InlineFunction(e Expr, callee string, valueAt func(args []Expr) Expr) Expr {
	switch n := e.(type) {
	case *Call:
		if n.Kind == CallFunc && n.Name == callee {
			return valueAt(n.Args)
		}
		args := make([]Expr, len(n.Args))
		changed := false
		for i, a := range n.Args {
			args[i] = InlineFunction(a, callee, valueAt)
			if args[i] != a {
				changed = true
			}
		}
		if !changed {
			return n
		}
		return &Call{Kind: n.Kind, Name: n.Name, Args: args}
	case *BinOp:
		l := InlineFunction(n.Left, callee, valueAt)
		r := InlineFunction(n.Right, callee, valueAt)
		if l == n.Left && r == n.Right {
			return n
		}
		return &BinOp{Op: n.Op, Left: l, Right: r}
	case *Not:
		x := InlineFunction(n.X, callee, valueAt)
		if x == n.X {
			return n
		}
		return &Not{X: x}
	case *Select:
		return &Select{Cond: InlineFunction(n.Cond, callee, valueAt), T: InlineFunction(n.T, callee, valueAt), F: InlineFunction(n.F, callee, valueAt)}
	case *Likely:
		return &Likely{X: InlineFunction(n.X, callee, valueAt)}
	}
	return e
}
