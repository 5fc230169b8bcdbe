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

package loopnest

import (
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// container is one entry of the ordered wrapping sequence built in
// §4.2 steps 4-6: either a schedule dim (becomes a For) or a let
// binding peeled off the per-split substitution (becomes a LetStmt).
// id disambiguates let containers with the same name during
// rebalancing.
type container struct {
	isFor bool
	id    int

	dim schedule.Dim // valid when isFor

	name  string  // valid when !isFor
	value ir.Expr // valid when !isFor
}

func forContainer(d schedule.Dim) container { return container{isFor: true, dim: d} }

func letContainer(id int, name string, value ir.Expr) container {
	return container{id: id, name: name, value: value}
}

// wrap builds the IR node for this container around body.
func (c container) wrap(body ir.Stmt) ir.Stmt {
	if c.isFor {
		v := c.dim.Var
		return &ir.For{
			Var:    v,
			Min:    &ir.Variable{Name: v + ".loop_min"},
			Extent: &ir.Variable{Name: v + ".loop_extent"},
			Type:   c.dim.Type,
			Device: c.dim.Device,
			Body:   body,
		}
	}
	return &ir.LetStmt{Name: c.name, Value: c.value, Body: body}
}

// rebalance implements §4.2 step 5: "reverse insertion-sort each
// let-container outward past any For whose value it does not depend
// on; stop at the first dependency." A let never moves past another
// let (their relative order, and any dependency one might have on
// another's binding, is preserved).
func rebalance(containers []container) []container {
	out := append([]container{}, containers...)
	// Process lets in their original left-to-right order so an earlier
	// let settles before a later one is considered.
	var letIDs []int
	for _, c := range out {
		if !c.isFor {
			letIDs = append(letIDs, c.id)
		}
	}
	for _, id := range letIDs {
		pos := indexOfLet(out, id)
		for pos > 0 && out[pos-1].isFor && !ir.ExprUsesVar(out[pos].value, out[pos-1].dim.Var) {
			out[pos-1], out[pos] = out[pos], out[pos-1]
			pos--
		}
	}
	return out
}

func indexOfLet(containers []container, id int) int {
	for i, c := range containers {
		if !c.isFor && c.id == id {
			return i
		}
	}
	return -1
}

// wrapAll wraps body with containers outermost-first (§4.2 step 6):
// containers[0] ends up outermost.
func wrapAll(containers []container, body ir.Stmt) ir.Stmt {
	for i := len(containers) - 1; i >= 0; i-- {
		body = containers[i].wrap(body)
	}
	return body
}

// peelLets strips outer-wrapping LetStmt nodes off s, returning the
// peeled bindings (outermost first) and the remaining statement.
func peelLets(s ir.Stmt, nextID func() int) ([]container, ir.Stmt) {
	var lets []container
	for {
		let, ok := s.(*ir.LetStmt)
		if !ok {
			return lets, s
		}
		lets = append(lets, letContainer(nextID(), let.Name, let.Value))
		s = let.Body
	}
}
