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

// SubstituteExpr replaces every Variable named in env by its bound
// expression. Nodes untouched by the substitution are returned as-is,
// except Call and AddressOf nodes, which are always rebuilt (sharing
// their argument slice when no argument changed).
func SubstituteExpr(e Expr, env map[string]Expr) Expr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *Variable:
		if v, ok := env[n.Name]; ok {
			return v
		}
		return n
	case *IntImm, *BoolImm:
		return n
	case *BinOp:
		l, r := SubstituteExpr(n.Left, env), SubstituteExpr(n.Right, env)
		if l == n.Left && r == n.Right {
			return n
		}
		return &BinOp{Op: n.Op, Left: l, Right: r}
	case *Not:
		x := SubstituteExpr(n.X, env)
		if x == n.X {
			return n
		}
		return &Not{X: x}
	case *Select:
		c, t, f := SubstituteExpr(n.Cond, env), SubstituteExpr(n.T, env), SubstituteExpr(n.F, env)
		if c == n.Cond && t == n.T && f == n.F {
			return n
		}
		return &Select{Cond: c, T: t, F: f}
	case *Likely:
		x := SubstituteExpr(n.X, env)
		if x == n.X {
			return n
		}
		return &Likely{X: x}
	case *Call:
		args := substituteExprList(n.Args, env)
		return &Call{Kind: n.Kind, Name: n.Name, Args: args}
	case *AddressOf:
		args := substituteExprList(n.Args, env)
		return &AddressOf{Buffer: n.Buffer, Args: args}
	}
	return e
}

func substituteExprList(es []Expr, env map[string]Expr) []Expr {
	out := make([]Expr, len(es))
	changed := false
	for i, e := range es {
		out[i] = SubstituteExpr(e, env)
		if out[i] != e {
			changed = true
		}
	}
	if !changed {
		return es
	}
	return out
}

// SubstituteOne is shorthand for substituting a single variable.
func SubstituteOne(e Expr, name string, v Expr) Expr {
	return SubstituteExpr(e, map[string]Expr{name: v})
}

// SubstituteStmt applies SubstituteExpr to every expression reachable
// from s, recursing into statement bodies.
func SubstituteStmt(s Stmt, env map[string]Expr) Stmt {
	if s == nil {
		return nil
	}
	switch n := s.(type) {
	case *Evaluate:
		return &Evaluate{Value: SubstituteExpr(n.Value, env)}
	case *Provide:
		return &Provide{Target: n.Target, Args: substituteExprList(n.Args, env), Values: substituteExprList(n.Values, env)}
	case *For:
		return &For{Var: n.Var, Min: SubstituteExpr(n.Min, env), Extent: SubstituteExpr(n.Extent, env),
			Type: n.Type, Device: n.Device, Body: SubstituteStmt(n.Body, env)}
	case *LetStmt:
		return &LetStmt{Name: n.Name, Value: SubstituteExpr(n.Value, env), Body: SubstituteStmt(n.Body, env)}
	case *Block:
		stmts := make([]Stmt, len(n.Stmts))
		for i, st := range n.Stmts {
			stmts[i] = SubstituteStmt(st, env)
		}
		return &Block{Stmts: stmts}
	case *Realize:
		bounds := make([]Range, len(n.Bounds))
		for i, b := range n.Bounds {
			bounds[i] = Range{Min: SubstituteExpr(b.Min, env), Extent: SubstituteExpr(b.Extent, env)}
		}
		return &Realize{Name: n.Name, Types: n.Types, Bounds: bounds, Body: SubstituteStmt(n.Body, env)}
	case *ProducerConsumer:
		return &ProducerConsumer{Name: n.Name, Produce: SubstituteStmt(n.Produce, env), Update: SubstituteStmt(n.Update, env),
			Body: SubstituteStmt(n.Body, env), Memoized: n.Memoized, Async: n.Async}
	case *IfThenElse:
		return &IfThenElse{Cond: SubstituteExpr(n.Cond, env), Then: SubstituteStmt(n.Then, env), Else: SubstituteStmt(n.Else, env)}
	case *AssertStmt:
		return &AssertStmt{Cond: SubstituteExpr(n.Cond, env), Message: SubstituteExpr(n.Message, env)}
	}
	return s
}

// ExprUsesVar reports whether e references name anywhere in its tree.
func ExprUsesVar(e Expr, name string) bool {
	found := false
	walkExpr(e, func(x Expr) {
		if v, ok := x.(*Variable); ok && v.Name == name {
			found = true
		}
	})
	return found
}

// walkExpr visits every expr node reachable from e, including e.
func walkExpr(e Expr, visit func(Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch n := e.(type) {
	case *BinOp:
		walkExpr(n.Left, visit)
		walkExpr(n.Right, visit)
	case *Not:
		walkExpr(n.X, visit)
	case *Select:
		walkExpr(n.Cond, visit)
		walkExpr(n.T, visit)
		walkExpr(n.F, visit)
	case *Likely:
		walkExpr(n.X, visit)
	case *Call:
		for _, a := range n.Args {
			walkExpr(a, visit)
		}
	case *AddressOf:
		for _, a := range n.Args {
			walkExpr(a, visit)
		}
	}
}

// WalkStmtExprs calls visit on every expression node reachable from s.
func WalkStmtExprs(s Stmt, visit func(Expr)) {
	if s == nil {
		return
	}
	switch n := s.(type) {
	case *Evaluate:
		walkExpr(n.Value, visit)
	case *Provide:
		for _, a := range n.Args {
			walkExpr(a, visit)
		}
		for _, v := range n.Values {
			walkExpr(v, visit)
		}
	case *For:
		walkExpr(n.Min, visit)
		walkExpr(n.Extent, visit)
		WalkStmtExprs(n.Body, visit)
	case *LetStmt:
		walkExpr(n.Value, visit)
		WalkStmtExprs(n.Body, visit)
	case *Block:
		for _, st := range n.Stmts {
			WalkStmtExprs(st, visit)
		}
	case *Realize:
		for _, b := range n.Bounds {
			walkExpr(b.Min, visit)
			walkExpr(b.Extent, visit)
		}
		WalkStmtExprs(n.Body, visit)
	case *ProducerConsumer:
		WalkStmtExprs(n.Produce, visit)
		WalkStmtExprs(n.Update, visit)
		WalkStmtExprs(n.Body, visit)
	case *IfThenElse:
		walkExpr(n.Cond, visit)
		WalkStmtExprs(n.Then, visit)
		WalkStmtExprs(n.Else, visit)
	case *AssertStmt:
		walkExpr(n.Cond, visit)
		walkExpr(n.Message, visit)
	}
}

// WalkExprCalls calls visit with the name of every CallFunc node
// reachable from e.
func WalkExprCalls(e Expr, visit func(name string)) {
	walkExpr(e, func(x Expr) {
		if c, ok := x.(*Call); ok && c.Kind == CallFunc {
			visit(c.Name)
		}
	})
}

// UsesBuffer reports whether e takes the address of name's buffer
// anywhere in its tree (the AddressOf reference a synthesised extern
// sub-tile descriptor uses, §4.3).
func UsesBuffer(e Expr, name string) bool {
	found := false
	walkExpr(e, func(x Expr) {
		if a, ok := x.(*AddressOf); ok && a.Buffer == name {
			found = true
		}
	})
	return found
}

// WalkCalls calls visit with every CallFunc node reachable from e,
// giving access to its full argument list (the dependency analyser
// needs each call's per-axis argument expressions, not just the callee
// name WalkExprCalls exposes).
func WalkCalls(e Expr, visit func(c *Call)) {
	walkExpr(e, func(x Expr) {
		if c, ok := x.(*Call); ok && c.Kind == CallFunc {
			visit(c)
		}
	})
}

// FindDirectCalls returns the set of function names referenced by a
// CallFunc node or a Provide target anywhere under s, excluding self
// (a function's own update stages provide into themselves).
func FindDirectCalls(s Stmt, self string) map[string]bool {
	calls := map[string]bool{}
	WalkStmtExprs(s, func(e Expr) {
		if c, ok := e.(*Call); ok && c.Kind == CallFunc && c.Name != self {
			calls[c.Name] = true
		}
	})
	var visitStmt func(Stmt)
	visitStmt = func(st Stmt) {
		switch n := st.(type) {
		case *Provide:
			if n.Target != self {
				calls[n.Target] = true
			}
		case *For:
			visitStmt(n.Body)
		case *LetStmt:
			visitStmt(n.Body)
		case *Block:
			for _, c := range n.Stmts {
				visitStmt(c)
			}
		case *Realize:
			visitStmt(n.Body)
		case *ProducerConsumer:
			visitStmt(n.Produce)
			visitStmt(n.Update)
			visitStmt(n.Body)
		case *IfThenElse:
			visitStmt(n.Then)
			visitStmt(n.Else)
		}
	}
	visitStmt(s)
	return calls
}

// UsesFunc reports whether s refers to name, either via a function
// call expression or as the target of a Provide.
func UsesFunc(s Stmt, name string) bool {
	return FindDirectCalls(s, "")[name]
}

// Qualify renames every Variable whose name does not already carry the
// given stage prefix, prefixing it. Used to bring a stage's argument
// and value expressions into the stage's own symbol namespace
// (<name>.s0.<arg>, ...).
func Qualify(e Expr, prefix string) Expr {
	renames := map[string]Expr{}
	walkExpr(e, func(x Expr) {
		if v, ok := x.(*Variable); ok {
			if _, seen := renames[v.Name]; !seen {
				renames[v.Name] = &Variable{Name: prefix + v.Name}
			}
		}
	})
	return SubstituteExpr(e, renames)
}

// QualifyAll qualifies every expression in es with the same prefix,
// sharing one rename map so that repeated variables across the list
// are renamed consistently.
func QualifyAll(es []Expr, prefix string) []Expr {
	renames := map[string]Expr{}
	for _, e := range es {
		walkExpr(e, func(x Expr) {
			if v, ok := x.(*Variable); ok {
				if _, seen := renames[v.Name]; !seen {
					renames[v.Name] = &Variable{Name: prefix + v.Name}
				}
			}
		})
	}
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = SubstituteExpr(e, renames)
	}
	return out
}
