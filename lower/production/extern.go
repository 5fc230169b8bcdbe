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

package production

import (
	"fmt"

	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// namedLet is a (name, value) pair peeled out of the extern-argument
// translation, wrapped around the call once the argument list is
// built (§4.3's "wrap in the buffer-descriptor lets").
type namedLet struct {
	name  string
	value ir.Expr
}

// buildExternProduce implements §4.3's extern case.
func buildExternProduce(f *schedule.Function) ir.Stmt {
	ext := f.Extern
	var args []ir.Expr
	var lets []namedLet
	for _, a := range ext.Args {
		args = append(args, externArgExprs(a)...)
	}
	outArgs, outLets := outputArgs(f)
	args = append(args, outArgs...)
	lets = append(lets, outLets...)

	resultName := f.Name + ".extern_result"
	call := &ir.Call{Kind: ir.CallExtern, Name: ext.Name, Args: args}
	assertCond := &ir.BinOp{Op: ir.EQ, Left: &ir.Variable{Name: resultName}, Right: &ir.IntImm{Value: 0}}
	handlerMsg := &ir.Call{
		Kind: ir.CallIntrinsic,
		Name: "halide_error_extern_stage_failed",
		Args: []ir.Expr{&ir.Variable{Name: ext.Name}, &ir.Variable{Name: resultName}},
	}
	var body ir.Stmt = &ir.AssertStmt{Cond: assertCond, Message: handlerMsg}
	body = &ir.LetStmt{Name: resultName, Value: call, Body: body}
	for i := len(lets) - 1; i >= 0; i-- {
		body = &ir.LetStmt{Name: lets[i].name, Value: lets[i].value, Body: body}
	}
	return body
}

// externArgExprs translates one extern argument into the call
// arguments it expands to (§4.3): an expression passes through
// unchanged; a function reference becomes one buffer handle per output
// channel; a materialised buffer or image parameter becomes a typed
// handle plus its parameter record.
func externArgExprs(a schedule.ExternArg) []ir.Expr {
	switch a.Kind {
	case schedule.ExternArgExpr:
		return []ir.Expr{a.Expr}
	case schedule.ExternArgFuncRef:
		n := a.Channels
		if n < 1 {
			n = 1
		}
		if n == 1 {
			return []ir.Expr{&ir.Variable{Name: a.FuncName + ".buffer"}}
		}
		out := make([]ir.Expr, n)
		for k := 0; k < n; k++ {
			out[k] = &ir.Variable{Name: fmt.Sprintf("%s.%d.buffer", a.FuncName, k)}
		}
		return out
	case schedule.ExternArgBuffer:
		return []ir.Expr{&ir.Variable{Name: a.BufferName + ".buffer"}, &ir.Variable{Name: a.BufferName + ".param"}}
	case schedule.ExternArgImageParam:
		return []ir.Expr{&ir.Variable{Name: a.ImageName + ".buffer"}, &ir.Variable{Name: a.ImageName + ".param"}}
	}
	return nil
}

// outputArgs builds the extern call's output-buffer arguments. When
// store_level == compute_level the output buffers are the ones
// allocation-bounds inference already injected; otherwise a
// per-subregion descriptor is synthesised, rooted at the address of
// the sub-tile's top-left corner.
func outputArgs(f *schedule.Function) ([]ir.Expr, []namedLet) {
	sameLevel := f.Sched.StoreAt.Equal(f.Sched.ComputeAt)
	n := f.Channels()
	if n < 1 {
		n = 1
	}
	var args []ir.Expr
	var lets []namedLet
	for k := 0; k < n; k++ {
		suffix := ""
		if n > 1 {
			suffix = fmt.Sprintf(".%d", k)
		}
		name := f.Name + suffix
		if sameLevel {
			args = append(args, &ir.Variable{Name: name + ".buffer"})
			continue
		}
		descName := name + ".subtile"
		lets = append(lets, namedLet{descName, &ir.AddressOf{Buffer: name, Args: subtileOriginArgs(f)}})
		args = append(args, &ir.Variable{Name: descName})
	}
	return args, lets
}

// subtileOriginArgs returns, for every schedule dim, the expression for
// that axis's current loop minimum — the coordinates of the sub-tile's
// top-left corner.
func subtileOriginArgs(f *schedule.Function) []ir.Expr {
	dims := f.Sched.Dims
	out := make([]ir.Expr, len(dims))
	for i, d := range dims {
		out[i] = &ir.Variable{Name: d.Var + ".loop_min"}
	}
	return out
}
