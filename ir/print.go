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

import (
	"fmt"
	"strings"
)

// SprintExpr renders e as a single-line, C-like expression, for error
// messages and debug dumps.
func SprintExpr(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch n := e.(type) {
	case *Variable:
		return n.Name
	case *IntImm:
		return fmt.Sprintf("%d", n.Value)
	case *BoolImm:
		return fmt.Sprintf("%t", n.Value)
	case *BinOp:
		if n.Op == Min || n.Op == Max {
			return fmt.Sprintf("%s(%s, %s)", n.Op, SprintExpr(n.Left), SprintExpr(n.Right))
		}
		return fmt.Sprintf("(%s %s %s)", SprintExpr(n.Left), n.Op, SprintExpr(n.Right))
	case *Not:
		return fmt.Sprintf("!%s", SprintExpr(n.X))
	case *Select:
		return fmt.Sprintf("select(%s, %s, %s)", SprintExpr(n.Cond), SprintExpr(n.T), SprintExpr(n.F))
	case *Likely:
		return fmt.Sprintf("likely(%s)", SprintExpr(n.X))
	case *Call:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = SprintExpr(a)
		}
		return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ", "))
	case *AddressOf:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = SprintExpr(a)
		}
		return fmt.Sprintf("&%s[%s]", n.Buffer, strings.Join(args, ", "))
	}
	return "<?>"
}

// SprintStmt renders s as an indented tree, eliding any subtree deeper
// than maxDepth as "...". maxDepth <= 0 means unlimited.
func SprintStmt(s Stmt, maxDepth int) string {
	var b strings.Builder
	sprintStmt(&b, s, 0, maxDepth)
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
}

func sprintStmt(b *strings.Builder, s Stmt, depth, maxDepth int) {
	if s == nil {
		return
	}
	if maxDepth > 0 && depth > maxDepth {
		indent(b, depth)
		b.WriteString("...\n")
		return
	}
	indent(b, depth)
	switch n := s.(type) {
	case *Evaluate:
		fmt.Fprintf(b, "evaluate(%s)\n", SprintExpr(n.Value))
	case *Provide:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = SprintExpr(a)
		}
		vals := make([]string, len(n.Values))
		for i, v := range n.Values {
			vals[i] = SprintExpr(v)
		}
		fmt.Fprintf(b, "%s[%s] = {%s}\n", n.Target, strings.Join(args, ", "), strings.Join(vals, ", "))
	case *For:
		fmt.Fprintf(b, "for %s in [%s, %s) %s@%s {\n", n.Var, SprintExpr(n.Min), SprintExpr(n.Extent), n.Type, n.Device)
		sprintStmt(b, n.Body, depth+1, maxDepth)
		indent(b, depth)
		b.WriteString("}\n")
	case *LetStmt:
		fmt.Fprintf(b, "let %s = %s in\n", n.Name, SprintExpr(n.Value))
		sprintStmt(b, n.Body, depth, maxDepth)
	case *Block:
		b.WriteString("{\n")
		for _, c := range n.Stmts {
			sprintStmt(b, c, depth+1, maxDepth)
		}
		indent(b, depth)
		b.WriteString("}\n")
	case *Realize:
		fmt.Fprintf(b, "realize %s {\n", n.Name)
		sprintStmt(b, n.Body, depth+1, maxDepth)
		indent(b, depth)
		b.WriteString("}\n")
	case *ProducerConsumer:
		fmt.Fprintf(b, "produce %s {\n", n.Name)
		sprintStmt(b, n.Produce, depth+1, maxDepth)
		if n.Update != nil {
			indent(b, depth+1)
			b.WriteString("update {\n")
			sprintStmt(b, n.Update, depth+2, maxDepth)
			indent(b, depth+1)
			b.WriteString("}\n")
		}
		indent(b, depth)
		b.WriteString("} consume {\n")
		sprintStmt(b, n.Body, depth+1, maxDepth)
		indent(b, depth)
		b.WriteString("}\n")
	case *IfThenElse:
		fmt.Fprintf(b, "if (%s) {\n", SprintExpr(n.Cond))
		sprintStmt(b, n.Then, depth+1, maxDepth)
		if n.Else != nil {
			indent(b, depth)
			b.WriteString("} else {\n")
			sprintStmt(b, n.Else, depth+1, maxDepth)
		}
		indent(b, depth)
		b.WriteString("}\n")
	case *AssertStmt:
		fmt.Fprintf(b, "assert(%s, %s)\n", SprintExpr(n.Cond), SprintExpr(n.Message))
	}
}
