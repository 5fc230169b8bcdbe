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

// Interval is a symbolic [Min, Max] pair, both inclusive.
type Interval struct {
	Min, Max Expr
}

// Box is an ordered sequence of intervals, one per axis.
type Box []Interval

// IntervalUnion returns the smallest interval containing both a and b:
// min of mins, max of maxes.
func IntervalUnion(a, b Interval) Interval {
	return Interval{
		Min: Simplify(&BinOp{Op: Min, Left: a.Min, Right: b.Min}),
		Max: Simplify(&BinOp{Op: Max, Left: a.Max, Right: b.Max}),
	}
}

// IntervalIntersect returns the overlap of a and b: max of mins, min of
// maxes. The result may be empty (Min > Max); callers that need to
// detect emptiness should concretize with ConstInterval first.
func IntervalIntersect(a, b Interval) Interval {
	return Interval{
		Min: Simplify(&BinOp{Op: Max, Left: a.Min, Right: b.Min}),
		Max: Simplify(&BinOp{Op: Min, Left: a.Max, Right: b.Max}),
	}
}

// BoxUnion merges two boxes axis-by-axis. Boxes must have equal rank.
func BoxUnion(a, b Box) Box {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	out := make(Box, len(a))
	for i := range a {
		out[i] = IntervalUnion(a[i], b[i])
	}
	return out
}

// BoxIntersect intersects two boxes axis-by-axis.
func BoxIntersect(a, b Box) Box {
	out := make(Box, len(a))
	for i := range a {
		out[i] = IntervalIntersect(a[i], b[i])
	}
	return out
}

// ShiftInterval translates an interval by a constant delta (used by the
// redundant-region computation, which compares a consumer tile against
// its neighbour shifted by the tile's own extent on one axis).
func ShiftInterval(iv Interval, delta Expr) Interval {
	return Interval{
		Min: Simplify(&BinOp{Op: Add, Left: iv.Min, Right: delta}),
		Max: Simplify(&BinOp{Op: Add, Left: iv.Max, Right: delta}),
	}
}

// ConstInterval evaluates an interval to concrete int64 bounds if both
// ends simplify to constants.
func ConstInterval(iv Interval) (lo, hi int64, ok bool) {
	lo, ok1 := asInt(Simplify(iv.Min))
	hi, ok2 := asInt(Simplify(iv.Max))
	return lo, hi, ok1 && ok2
}

// ConstBox evaluates every axis of a box; ok is false if any axis is
// not a compile-time constant.
func ConstBox(b Box) (lo, hi []int64, ok bool) {
	lo = make([]int64, len(b))
	hi = make([]int64, len(b))
	for i, iv := range b {
		l, h, axOK := ConstInterval(iv)
		if !axOK {
			return nil, nil, false
		}
		lo[i], hi[i] = l, h
	}
	return lo, hi, true
}

// Area returns the product of each axis's extent (max-min+1), or ok=false
// if the box is not fully constant.
func Area(b Box) (int64, bool) {
	lo, hi, ok := ConstBox(b)
	if !ok {
		return 0, false
	}
	area := int64(1)
	for i := range lo {
		ext := hi[i] - lo[i] + 1
		if ext < 0 {
			ext = 0
		}
		area *= ext
	}
	return area, true
}
