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

package validate

import "github.com/gx-org/loopsched/ir"

// frame is one entry of the loop stack active at a use site: the For's
// qualified variable name and whether it is a Parallel loop.
type frame struct {
	v        string
	parallel bool
}

// legalSites returns, for every use of target found in s, the stack of
// enclosing loops active at that use (outermost first), then reduces
// those stacks to their longest common prefix — the legal site set
// (§4.5): two stacks "intersect positionally where their loop levels
// match", so the set is only as deep as every use's stack agrees.
func legalSites(s ir.Stmt, target string) ([]frame, [][]frame) {
	var uses [][]frame
	collectUses(s, target, nil, &uses)
	if len(uses) == 0 {
		return nil, uses
	}
	common := uses[0]
	for _, stack := range uses[1:] {
		common = commonPrefix(common, stack)
	}
	return common, uses
}

func commonPrefix(a, b []frame) []frame {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

func collectUses(s ir.Stmt, target string, stack []frame, uses *[][]frame) {
	if s == nil {
		return
	}
	switch n := s.(type) {
	case *ir.For:
		next := append(append([]frame{}, stack...), frame{v: n.Var, parallel: n.Type == ir.Parallel})
		collectUses(n.Body, target, next, uses)
	case *ir.LetStmt:
		checkUse(n.Value, target, stack, uses)
		collectUses(n.Body, target, stack, uses)
	case *ir.Block:
		for _, c := range n.Stmts {
			collectUses(c, target, stack, uses)
		}
	case *ir.Provide:
		for _, a := range n.Args {
			checkUse(a, target, stack, uses)
		}
		for _, v := range n.Values {
			checkUse(v, target, stack, uses)
		}
	case *ir.Evaluate:
		checkUse(n.Value, target, stack, uses)
	case *ir.Realize:
		for _, b := range n.Bounds {
			checkUse(b.Min, target, stack, uses)
			checkUse(b.Extent, target, stack, uses)
		}
		collectUses(n.Body, target, stack, uses)
	case *ir.ProducerConsumer:
		collectUses(n.Produce, target, stack, uses)
		collectUses(n.Update, target, stack, uses)
		collectUses(n.Body, target, stack, uses)
	case *ir.IfThenElse:
		checkUse(n.Cond, target, stack, uses)
		collectUses(n.Then, target, stack, uses)
		collectUses(n.Else, target, stack, uses)
	case *ir.AssertStmt:
		checkUse(n.Cond, target, stack, uses)
		checkUse(n.Message, target, stack, uses)
	}
}

func checkUse(e ir.Expr, target string, stack []frame, uses *[][]frame) {
	used := false
	ir.WalkExprCalls(e, func(name string) {
		if name == target {
			used = true
		}
	})
	if ir.UsesBuffer(e, target) {
		used = true
	}
	if used {
		*uses = append(*uses, append([]frame{}, stack...))
	}
}

// indexOf returns the index of v in stack, or -1.
func indexOf(stack []frame, v string) int {
	for i, f := range stack {
		if f.v == v {
			return i
		}
	}
	return -1
}

// hasParallelBetween reports whether any frame strictly between indices
// lo and hi (exclusive) is Parallel.
func hasParallelBetween(stack []frame, lo, hi int) bool {
	for i := lo + 1; i < hi; i++ {
		if stack[i].parallel {
			return true
		}
	}
	return false
}
