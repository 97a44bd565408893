// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package absint implements a forward abstract interpretation engine over the control-flow graphs of package cfg.
//
// An analysis is defined by an abstract Domain of states S and facts F, an Extractor that turns guards into facts,
// and a CallPolicy that decides the effect of calls. The engine makes a single forward pass over the instructions
// of a procedure:
//
//   - at an instruction with more than one incoming edge, the working state is reset to bottom,
//   - at a jump target with a single incoming edge, the working state is replaced by the state stored for it,
//   - the working state is stored as the state of the instruction when it is not bottom,
//   - the instruction is transferred.
//
// Loops are not iterated: a backwards jump drops all facts. Results are therefore computed in time linear in the
// number of instructions.
package absint

import (
	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/expr"
)

// Domain is the lattice of abstract states S, whose elements are built from facts F.
type Domain[S any, F any] interface {
	// Bottom returns the empty state, the state of unreached code
	Bottom() S

	// IsBottom returns true when s is the empty state
	IsBottom(s S) bool

	// Join returns an over-approximation of both a and b
	Join(a, b S) S

	// Equal returns true when a and b represent the same state
	Equal(a, b S) bool

	// Add returns s with the fact f added
	Add(s S, f F) S

	// Transfer returns the state after ins, given the state s before it. Transfer is called for Return instructions
	// and for the kinds of instructions the engine does not handle itself (e.g. Assign or Other). When it returns
	// false, the instruction is not modelled and the engine continues with bottom.
	Transfer(s S, ins *cfg.Instruction) (S, bool)
}

// ConditionalFact is a fact that holds on one branch of a conditional jump
type ConditionalFact[F any] struct {
	// Fact is the fact established by the guard
	Fact F
	// WhenTaken is true if the fact holds when the jump is taken, false if it holds on the fallthrough
	WhenTaken bool
}

// Extractor recognizes the guards that establish facts. Guards of unrecognized shapes are ignored; they are never
// an error.
type Extractor[F any] interface {
	// Fact returns the fact established by assuming guard
	Fact(guard expr.Expr) (F, bool)

	// ConditionalFact returns the fact established by one of the branches of a jump conditioned on guard
	ConditionalFact(guard expr.Expr) (ConditionalFact[F], bool)
}

// CallPolicy decides the effect of a call instruction on the state. When Call returns false, the call is not
// modelled and the engine clears the state.
type CallPolicy[S any] interface {
	Call(s S, ins *cfg.Instruction) (S, bool)
}

// CallPolicyFunc is a function implementing CallPolicy
type CallPolicyFunc[S any] func(s S, ins *cfg.Instruction) (S, bool)

// Call calls f
func (f CallPolicyFunc[S]) Call(s S, ins *cfg.Instruction) (S, bool) {
	return f(s, ins)
}

// Invalidate is the call policy that does not model any call: every call clears all facts
type Invalidate[S any] struct{}

// Call returns false
func (Invalidate[S]) Call(s S, _ *cfg.Instruction) (S, bool) {
	return s, false
}
