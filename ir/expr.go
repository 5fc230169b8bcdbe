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

import "fmt"

// Variable is a reference to a named scalar: a loop variable, a let
// binding, or a symbol injected by the external bounds-inference pass
// (e.g. "f.x.min").
type Variable struct {
	Name string
}

func (*Variable) node() {}
func (*Variable) expr() {}

// IntImm is an integer literal.
type IntImm struct {
	Value int64
}

func (*IntImm) node() {}
func (*IntImm) expr() {}

// BoolImm is a boolean literal.
type BoolImm struct {
	Value bool
}

func (*BoolImm) node() {}
func (*BoolImm) expr() {}

// BinOpKind is the closed set of binary operators.
type BinOpKind int

const (
	Add BinOpKind = iota
	Sub
	Mul
	Div
	Mod
	Min
	Max
	EQ
	NE
	LT
	LE
	GT
	GE
	And
	Or
)

func (k BinOpKind) String() string {
	switch k {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Mod:
		return "%"
	case Min:
		return "min"
	case Max:
		return "max"
	case EQ:
		return "=="
	case NE:
		return "!="
	case LT:
		return "<"
	case LE:
		return "<="
	case GT:
		return ">"
	case GE:
		return ">="
	case And:
		return "&&"
	case Or:
		return "||"
	}
	return "?"
}

// IsComparison reports whether the operator produces a boolean.
func (k BinOpKind) IsComparison() bool {
	switch k {
	case EQ, NE, LT, LE, GT, GE, And, Or:
		return true
	}
	return false
}

// BinOp is a binary arithmetic or comparison node.
type BinOp struct {
	Op          BinOpKind
	Left, Right Expr
}

func (*BinOp) node() {}
func (*BinOp) expr() {}

// Not is boolean negation.
type Not struct {
	X Expr
}

func (*Not) node() {}
func (*Not) expr() {}

// Select is a ternary: Cond ? T : F.
type Select struct {
	Cond, T, F Expr
}

func (*Select) node() {}
func (*Select) expr() {}

// Likely wraps an expression with a hint that, in a Serial loop, one
// branch (the non-boundary one) is far more probable; consumed by loop
// partitioning in code generation. It does not change the value.
type Likely struct {
	X Expr
}

func (*Likely) node() {}
func (*Likely) expr() {}

// CallKind distinguishes what a Call node refers to.
type CallKind int

const (
	// CallFunc is a reference to another function's value at the given
	// arguments (a "pure" call, the common case inside value expressions).
	CallFunc CallKind = iota
	// CallExtern is a call to an externally-defined (out-of-IR) routine.
	CallExtern
	// CallIntrinsic is a call to a core-provided intrinsic (ceil_div, likely, ...).
	CallIntrinsic
)

// Call is either a reference to a function's value at a set of
// coordinates, or an invocation of an extern/intrinsic routine.
type Call struct {
	Kind Kind
	Name string
	Args []Expr
}

// Kind is an alias kept distinct from CallKind to document intent at
// call sites; see CallKind above.
type Kind = CallKind

func (*Call) node() {}
func (*Call) expr() {}

// AddressOf takes the address of the first element of a realized
// buffer, used when synthesizing sub-tile buffer descriptors for
// extern calls (§4.3).
type AddressOf struct {
	Buffer string
	Args   []Expr
}

func (*AddressOf) node() {}
func (*AddressOf) expr() {}

func (v *Variable) String() string { return v.Name }
func (i *IntImm) String() string   { return fmt.Sprintf("%d", i.Value) }
func (b *BoolImm) String() string  { return fmt.Sprintf("%t", b.Value) }
