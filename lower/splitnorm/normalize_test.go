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

package splitnorm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/loopsched/ir"
	"github.com/gx-org/loopsched/schedule"
)

func factor(n int64) ir.Expr { return &ir.IntImm{Value: n} }

func TestNormalizeRenameAbsorption(t *testing.T) {
	splits := []schedule.Split{
		schedule.Rename{Old: "x", Outer: "xr"},
		schedule.SplitVar{Old: "xr", Outer: "xo", Inner: "xi", Factor: factor(4)},
	}
	got := Normalize(splits)
	want := []schedule.Split{
		schedule.SplitVar{Old: "x", Outer: "xo", Inner: "xi", Factor: factor(4)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Normalize() mismatch:\n%s", diff)
	}
}

func TestNormalizeSplitChainReassociates(t *testing.T) {
	splits := []schedule.Split{
		schedule.SplitVar{Old: "x", Outer: "xo", Inner: "xi", Factor: factor(4)},
		schedule.SplitVar{Old: "xo", Outer: "xoo", Inner: "xoi", Factor: factor(8)},
	}
	got := Normalize(splits)
	if len(got) != 2 {
		t.Fatalf("Normalize() = %v, want 2 splits", got)
	}
	first, ok := got[0].(schedule.SplitVar)
	if !ok || first.Old != "x" {
		t.Fatalf("first split = %#v, want old=x", got[0])
	}
	if first.Outer != "xoo" {
		t.Errorf("first.Outer = %s, want xoo", first.Outer)
	}
	second, ok := got[1].(schedule.SplitVar)
	if !ok || second.Old != first.Inner {
		t.Fatalf("second split = %#v, want old == first.Inner (%s)", got[1], first.Inner)
	}
	if second.Outer != "xoi" || second.Inner != "xi" {
		t.Errorf("second = %#v, want outer=xoi inner=xi", second)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	splits := []schedule.Split{
		schedule.Rename{Old: "x", Outer: "xr"},
		schedule.SplitVar{Old: "xr", Outer: "xo", Inner: "xi", Factor: factor(4)},
		schedule.SplitVar{Old: "xo", Outer: "xoo", Inner: "xoi", Factor: factor(2)},
	}
	once := Normalize(splits)
	twice := Normalize(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("Normalize() not idempotent:\n%s", diff)
	}
}

func TestNormalizeLeavesUnrelatedSplitsInOrder(t *testing.T) {
	splits := []schedule.Split{
		schedule.SplitVar{Old: "y", Outer: "yo", Inner: "yi", Factor: factor(2)},
		schedule.Rename{Old: "x", Outer: "xr"},
		schedule.SplitVar{Old: "xr", Outer: "xo", Inner: "xi", Factor: factor(4)},
	}
	got := Normalize(splits)
	if len(got) != 2 {
		t.Fatalf("Normalize() = %v, want 2 splits", got)
	}
	y, ok := got[0].(schedule.SplitVar)
	if !ok || y.Old != "y" {
		t.Fatalf("expected y split to remain first, got %#v", got[0])
	}
}
