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

package schedule

import "github.com/gx-org/loopsched/ir"

// PredicateKind is the closed set of specialisation predicate shapes
// observed in practice (§9's design note): represented as a small
// tagged union rather than pattern-matching on arbitrary expression
// shape.
type PredicateKind int

const (
	// PredVar: the predicate is a bare boolean variable.
	PredVar PredicateKind = iota
	// PredVarEqBool: the predicate is `var == literal` for a boolean literal.
	PredVarEqBool
	// PredExpr: the predicate is an arbitrary expression.
	PredExpr
)

// Predicate is one specialisation guard.
type Predicate struct {
	Kind  PredicateKind
	Var   string // for PredVar, PredVarEqBool
	Value bool   // for PredVarEqBool
	Expr  ir.Expr
}

// AsExpr renders the predicate as a boolean expression usable directly
// in an IfThenElse condition.
func (p Predicate) AsExpr() ir.Expr {
	switch p.Kind {
	case PredVar:
		return &ir.Variable{Name: p.Var}
	case PredVarEqBool:
		return &ir.BinOp{Op: ir.EQ, Left: &ir.Variable{Name: p.Var}, Right: &ir.BoolImm{Value: p.Value}}
	default:
		return p.Expr
	}
}

// Specialisation pairs a predicate with the schedule to use when it holds.
type Specialisation struct {
	Predicate Predicate
	Then      *Schedule
}
