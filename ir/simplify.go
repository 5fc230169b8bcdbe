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

// Simplify performs constant folding and a small set of algebraic
// identities (x+0, 0+x, x-0, x*1, 1*x, x*0, 0*x, x/1, boolean
// shortcuts, and the cancellations (a+v)-(b+v) = a-b and (v+k)-v = k
// for a variable v).
// It is not a full term rewriter: the scheduling core only ever needs
// enough simplification to resolve compile-time-constant bounds and
// tidy up expressions the builder generates mechanically.
func Simplify(e Expr) Expr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *BinOp:
		l := Simplify(n.Left)
		r := Simplify(n.Right)
		return simplifyBinOp(n.Op, l, r)
	case *Not:
		x := Simplify(n.X)
		if b, ok := x.(*BoolImm); ok {
			return &BoolImm{Value: !b.Value}
		}
		if not, ok := x.(*Not); ok {
			return not.X
		}
		return &Not{X: x}
	case *Select:
		c := Simplify(n.Cond)
		t := Simplify(n.T)
		f := Simplify(n.F)
		if b, ok := c.(*BoolImm); ok {
			if b.Value {
				return t
			}
			return f
		}
		return &Select{Cond: c, T: t, F: f}
	case *Likely:
		return &Likely{X: Simplify(n.X)}
	case *Call:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Simplify(a)
		}
		return &Call{Kind: n.Kind, Name: n.Name, Args: args}
	case *AddressOf:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Simplify(a)
		}
		return &AddressOf{Buffer: n.Buffer, Args: args}
	}
	return e
}

func asInt(e Expr) (int64, bool) {
	if i, ok := e.(*IntImm); ok {
		return i.Value, true
	}
	return 0, false
}

func asBool(e Expr) (bool, bool) {
	if b, ok := e.(*BoolImm); ok {
		return b.Value, true
	}
	return false, false
}

func simplifyBinOp(op BinOpKind, l, r Expr) Expr {
	if li, lok := asInt(l); lok {
		if ri, rok := asInt(r); rok {
			switch op {
			case Add:
				return &IntImm{Value: li + ri}
			case Sub:
				return &IntImm{Value: li - ri}
			case Mul:
				return &IntImm{Value: li * ri}
			case Div:
				if ri != 0 {
					return &IntImm{Value: floorDiv(li, ri)}
				}
			case Mod:
				if ri != 0 {
					return &IntImm{Value: floorMod(li, ri)}
				}
			case Min:
				if li < ri {
					return &IntImm{Value: li}
				}
				return &IntImm{Value: ri}
			case Max:
				if li > ri {
					return &IntImm{Value: li}
				}
				return &IntImm{Value: ri}
			case EQ:
				return &BoolImm{Value: li == ri}
			case NE:
				return &BoolImm{Value: li != ri}
			case LT:
				return &BoolImm{Value: li < ri}
			case LE:
				return &BoolImm{Value: li <= ri}
			case GT:
				return &BoolImm{Value: li > ri}
			case GE:
				return &BoolImm{Value: li >= ri}
			}
		}
	}
	if lb, lok := asBool(l); lok {
		if rb, rok := asBool(r); rok {
			switch op {
			case And:
				return &BoolImm{Value: lb && rb}
			case Or:
				return &BoolImm{Value: lb || rb}
			case EQ:
				return &BoolImm{Value: lb == rb}
			case NE:
				return &BoolImm{Value: lb != rb}
			}
		}
		switch op {
		case And:
			if !lb {
				return &BoolImm{Value: false}
			}
			return r
		case Or:
			if lb {
				return &BoolImm{Value: true}
			}
			return r
		}
	}
	// Algebraic identities that don't require both sides constant.
	switch op {
	case Add:
		if i, ok := asInt(r); ok && i == 0 {
			return l
		}
		if i, ok := asInt(l); ok && i == 0 {
			return r
		}
	case Sub:
		if i, ok := asInt(r); ok && i == 0 {
			return l
		}
		if lb, ok := l.(*BinOp); ok && lb.Op == Add {
			lv, lok := lb.Right.(*Variable)
			if rb, ok := r.(*BinOp); ok && rb.Op == Add && lok {
				if rv, ok := rb.Right.(*Variable); ok && rv.Name == lv.Name {
					return simplifyBinOp(Sub, lb.Left, rb.Left)
				}
			}
			if v, ok := lb.Left.(*Variable); ok {
				if rv, ok := r.(*Variable); ok && rv.Name == v.Name {
					return lb.Right
				}
			}
		}
	case Mul:
		if i, ok := asInt(r); ok {
			if i == 1 {
				return l
			}
			if i == 0 {
				return &IntImm{Value: 0}
			}
		}
		if i, ok := asInt(l); ok {
			if i == 1 {
				return r
			}
			if i == 0 {
				return &IntImm{Value: 0}
			}
		}
	case Div:
		if i, ok := asInt(r); ok && i == 1 {
			return l
		}
	}
	return &BinOp{Op: op, Left: l, Right: r}
}

// floorDiv and floorMod implement the truncation-toward-negative-
// infinity semantics the loop-nest builder's tile arithmetic assumes
// (extents and factors are non-negative in practice, but the halo
// clamp in §4.2 can produce a negative base).
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}
