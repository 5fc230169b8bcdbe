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

// Split is one of three schedule-variable transformations (§3). All
// three carry a name, Old, that is the variable consumed (SplitVar,
// Rename) or produced (FuseVars) by the transform, so that the split
// normaliser (§4.1) can reason about chains uniformly across kinds by
// string identity of Old/Outer alone.
type Split interface {
	isSplit()
}

// SplitVar: old -> outer*factor + inner.
type SplitVar struct {
	Old, Outer, Inner string
	Factor            ir.Expr
	// Exact means the caller guarantees Factor evenly divides Old's extent.
	Exact bool
	// Partial means the tail tile is handled by clamping rather than by
	// the `exact`/`likely` machinery of §4.2.
	Partial bool
}

func (SplitVar) isSplit() {}

// FuseVars: old <- inner + outer*inner_extent. Old here is the *new*
// fused variable; Inner and Outer are consumed.
type FuseVars struct {
	Old, Inner, Outer string
}

func (FuseVars) isSplit() {}

// Rename: old -> outer (identity).
type Rename struct {
	Old, Outer string
}

func (Rename) isSplit() {}

// splitOld returns the Old field common to all three split kinds.
func splitOld(s Split) string {
	switch n := s.(type) {
	case SplitVar:
		return n.Old
	case FuseVars:
		return n.Old
	case Rename:
		return n.Old
	}
	return ""
}

// splitOuter returns the "outer" field common to all three kinds for
// the purpose of the chain-detection rule in §4.1 (splits[i].outer ==
// splits[j].old): for SplitVar and Rename this is the newly-produced
// outer/renamed variable; for FuseVars it is one of the two variables
// consumed into Old.
func splitOuter(s Split) string {
	switch n := s.(type) {
	case SplitVar:
		return n.Outer
	case FuseVars:
		return n.Outer
	case Rename:
		return n.Outer
	}
	return ""
}

// SplitOld exports splitOld for use outside the package (lower/loopnest
// needs it while walking splits in construction order).
func SplitOld(s Split) string { return splitOld(s) }

// SplitOuter exports splitOuter.
func SplitOuter(s Split) string { return splitOuter(s) }
