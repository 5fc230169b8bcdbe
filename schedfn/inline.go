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

package schedfn

import (
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

// maxInlineDepth bounds repeated substitution against an accidental
// cycle; RealizationOrder already rejects a true call-graph cycle, so
// this only guards against bugs in that check, not real pipelines.
const maxInlineDepth = 64

// inlined returns f with every direct or transitive call to an
// inline-scheduled callee in env substituted by the callee's own value
// expression (§4.3's premise: an inlined function contributes no
// Realize/ProducerConsumer node of its own, so its definition must be
// folded into every caller before the caller's loop nest is built).
func inlined(f *schedule.Function, env schedule.Environment) *schedule.Function {
	if f.IsExtern() {
		return f
	}
	out := &schedule.Function{
		Name: f.Name, Args: f.Args, Extern: f.Extern, Sched: f.Sched, IsOutput: f.IsOutput,
	}
	out.Values = inlineAll(f.Values, env)
	for _, u := range f.Updates {
		out.Updates = append(out.Updates, &schedule.UpdateDefinition{
			Args:            inlineAll(u.Args, env),
			Values:          inlineAll(u.Values, env),
			ReductionDomain: u.ReductionDomain,
			Sched:           u.Sched,
		})
	}
	return out
}

func inlineAll(exprs []ir.Expr, env schedule.Environment) []ir.Expr {
	out := make([]ir.Expr, len(exprs))
	for i, e := range exprs {
		out[i] = inlineFixpoint(e, env)
	}
	return out
}

func inlineFixpoint(e ir.Expr, env schedule.Environment) ir.Expr {
	for i := 0; i < maxInlineDepth; i++ {
		callee, ok := firstInlinedCallee(e, env)
		if !ok {
			return e
		}
		cf := env[callee]
		e = ir.InlineFunction(e, callee, func(args []ir.Expr) ir.Expr {
			return bindCalleeValue(cf, args)
		})
	}
	return e
}

// firstInlinedCallee reports the name of the first (in walk order)
// inline-scheduled function e directly calls, if any.
func firstInlinedCallee(e ir.Expr, env schedule.Environment) (string, bool) {
	var found string
	ir.WalkCalls(e, func(c *ir.Call) {
		if found != "" || c.Kind != ir.CallFunc {
			return
		}
		if cf, ok := env[c.Name]; ok && cf.Sched != nil && cf.Sched.IsInline() {
			found = c.Name
		}
	})
	return found, found != ""
}

// bindCalleeValue substitutes a call's actual argument expressions for
// callee's own formal pure-arg names inside its (single-channel) value
// expression; this IR's Call nodes carry no channel index, so only
// Values[0] is ever reachable through a CallFunc.
func bindCalleeValue(callee *schedule.Function, args []ir.Expr) ir.Expr {
	if len(callee.Values) == 0 {
		return &ir.IntImm{Value: 0}
	}
	binding := make(map[string]ir.Expr, len(callee.Args))
	for i, a := range callee.Args {
		if i < len(args) {
			binding[a] = args[i]
		}
	}
	return ir.SubstituteExpr(callee.Values[0], binding)
}
