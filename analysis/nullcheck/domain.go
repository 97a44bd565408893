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

// Package nullcheck implements the null-check analysis: at every instruction, it computes the set of access paths
// that have been proven non-null.
//
// The facts of the analysis are access paths. A path is added to the state when a guard establishes that it is not
// null (an assumption p != null, or the branch of a jump on p != null or p == null where the comparison holds),
// when it is assigned the address of a variable or a fresh allocation, or when it is assigned a path that is known
// to be non-null. The join of two states is their intersection.
package nullcheck

import (
	"github.com/awslabs/ar-go-absint/analysis/absint"
	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/effects"
	"github.com/awslabs/ar-go-absint/analysis/expr"
	"github.com/awslabs/ar-go-absint/analysis/summaries"
)

// Domain is the domain of sets of non-null access paths, for one procedure
type Domain struct {
	// addressTaken is the set of symbols whose address is taken in the procedure. Writes through pointers may
	// modify them.
	addressTaken map[string]bool
}

// NewDomain returns the domain for the analysis of proc
func NewDomain(proc *cfg.Procedure) *Domain {
	return &Domain{addressTaken: proc.AddressTakenSymbols()}
}

// Bottom returns the empty set
func (d *Domain) Bottom() expr.Set {
	return expr.NewSet()
}

// IsBottom returns true when s is empty
func (d *Domain) IsBottom(s expr.Set) bool {
	return s.IsEmpty()
}

// Join returns the paths that are non-null in both states
func (d *Domain) Join(a, b expr.Set) expr.Set {
	return a.Intersect(b)
}

// Equal returns true when a and b have the same paths
func (d *Domain) Equal(a, b expr.Set) bool {
	return a.Equal(b)
}

// Add returns s with the path e
func (d *Domain) Add(s expr.Set, e expr.Expr) expr.Set {
	return s.With(expr.Normalise(e))
}

// Transfer models assignments and returns. Other instructions are not modelled.
func (d *Domain) Transfer(s expr.Set, ins *cfg.Instruction) (expr.Set, bool) {
	switch ins.Kind {
	case cfg.Assign:
		return d.assign(s, ins.LHS, ins.RHS), true
	case cfg.Return:
		if ins.Value.IsValid() && isNonNull(s, ins.Value) {
			return s.With(expr.ReturnValue(ins.Value.Type())), true
		}
		return s, true
	default:
		return s, false
	}
}

func (d *Domain) assign(s expr.Set, lhs, rhs expr.Expr) expr.Set {
	nonNull := isNonNull(s, rhs)
	res := d.kill(s, lhs)
	if nonNull && expr.IsAccessPath(lhs) {
		res = res.With(expr.Normalise(lhs))
	}
	return res
}

// kill returns the facts of s that still hold after lhs is written
func (d *Domain) kill(s expr.Set, lhs expr.Expr) expr.Set {
	if expr.IsIdentifier(lhs) {
		name := lhs.Name()
		clobbersHeap := d.addressTaken[name]
		return s.Filter(func(e expr.Expr) bool {
			return !expr.Mentions(e, name) && !(clobbersHeap && expr.IsHeapPath(e))
		})
	}
	// a write through memory may modify any heap path and any variable whose address is taken
	return s.Filter(func(e expr.Expr) bool {
		root, _ := expr.Root(e)
		return expr.IsIdentifier(e) && !d.addressTaken[root.Name()]
	})
}

// isNonNull returns true when the value of e is known to be non-null in s
func isNonNull(s expr.Set, e expr.Expr) bool {
	e = expr.Normalise(e)
	switch e.Op() {
	case expr.AddressOfOp, expr.AllocOp:
		return true
	default:
		return s.Contains(e)
	}
}

// Extractor recognizes the comparisons of access paths with null
type Extractor struct{}

// Fact returns p for the guard p != null
func (Extractor) Fact(guard expr.Expr) (expr.Expr, bool) {
	e, nonNull, ok := expr.NullComparison(guard)
	if !ok || !nonNull {
		return expr.Expr{}, false
	}
	return e, true
}

// ConditionalFact returns p for the guards p != null (when taken) and p == null (when not taken)
func (Extractor) ConditionalFact(guard expr.Expr) (absint.ConditionalFact[expr.Expr], bool) {
	e, nonNull, ok := expr.NullComparison(guard)
	if !ok {
		return absint.ConditionalFact[expr.Expr]{}, false
	}
	return absint.ConditionalFact[expr.Expr]{Fact: e, WhenTaken: nonNull}, true
}

// NewAnalysis returns the null-check analysis of proc. Calls are handled with the given strategy, looking up the
// summaries of the callees in db.
func NewAnalysis(proc *cfg.Procedure, strategy effects.Strategy, db *summaries.Database,
	logger *config.LogGroup) *absint.Analysis[expr.Set, expr.Expr] {
	d := NewDomain(proc)
	return &absint.Analysis[expr.Set, expr.Expr]{
		Name:      "nullcheck",
		Domain:    d,
		Extractor: Extractor{},
		Calls:     effects.NewCallPolicy[expr.Set, *Summary](strategy, proc.ID, db, Kind, d.Splice, logger),
		Logger:    logger,
	}
}
