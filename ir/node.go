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

// Package ir is the loop-nest intermediate representation consumed and
// produced by the scheduling core. It is deliberately small: arithmetic
// and comparison expressions, and the handful of statement shapes the
// lowering passes emit (Provide, For, LetStmt, Block, Realize,
// ProducerConsumer, IfThenElse, AssertStmt).
//
// Nodes are immutable value trees, shared by structural identity: once
// built, a node is never mutated in place. Rewrites build new nodes.
package ir

// Node is any element of the IR tree.
type Node interface {
	// node prevents external packages from implementing Node directly,
	// keeping the set of node kinds closed and exhaustiveness-checkable
	// in type switches.
	node()
}

// Expr is a value-producing node.
type Expr interface {
	Node
	expr()
}

// Stmt is an effect-producing node.
type Stmt interface {
	Node
	stmt()
}
