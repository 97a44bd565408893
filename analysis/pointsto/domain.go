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

package pointsto

import (
	"fmt"

	"github.com/awslabs/ar-go-absint/analysis/absint"
	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/effects"
	"github.com/awslabs/ar-go-absint/analysis/expr"
	"github.com/awslabs/ar-go-absint/analysis/summaries"
)

// Domain is the domain of rule sets, for one procedure
type Domain struct {
	proc *cfg.Procedure

	// addressTaken is the set of symbols whose address is taken in the procedure
	addressTaken map[string]bool

	// decls maps the locals of the procedure to the location of their declaration
	decls map[string]int
}

// NewDomain returns the domain for the analysis of proc
func NewDomain(proc *cfg.Procedure) *Domain {
	d := &Domain{proc: proc, addressTaken: proc.AddressTakenSymbols(), decls: map[string]int{}}
	for _, ins := range proc.Instructions {
		if ins.Kind == cfg.Decl && ins.Symbol.IsValid() {
			d.decls[ins.Symbol.Name()] = ins.LocationNumber
		}
	}
	return d
}

// Bottom returns the empty rule set
func (d *Domain) Bottom() RuleSet {
	return RuleSet{}
}

// IsBottom returns true when s has no rule
func (d *Domain) IsBottom(s RuleSet) bool {
	return s.IsEmpty()
}

// Join joins a and b pointwise
func (d *Domain) Join(a, b RuleSet) RuleSet {
	return JoinRuleSets(a, b)
}

// Equal returns true when a and b have the same rules
func (d *Domain) Equal(a, b RuleSet) bool {
	return a.Equal(b)
}

// Add returns s where the rule r replaces the rule of r.Pointer
func (d *Domain) Add(s RuleSet, r Rule) RuleSet {
	return s.With(r)
}

// Transfer models assignments and returns. Other instructions are not modelled.
func (d *Domain) Transfer(s RuleSet, ins *cfg.Instruction) (RuleSet, bool) {
	switch ins.Kind {
	case cfg.Assign:
		return d.assign(s, ins.LHS, ins.RHS, ins.LocationNumber), true
	case cfg.Return:
		if ins.Value.IsValid() && ins.Value.IsPointer() {
			ret := expr.ReturnValue(ins.Value.Type())
			return s.With(Rule{Pointer: ret, Targets: d.eval(s, ins.Value, ins.LocationNumber)}), true
		}
		return s, true
	default:
		return s, false
	}
}

func (d *Domain) assign(s RuleSet, lhs, rhs expr.Expr, loc int) RuleSet {
	lhs = expr.Normalise(lhs)
	var targets Targets
	if lhs.IsPointer() {
		targets = d.eval(s, rhs, loc)
	}
	res := d.kill(s, lhs)
	if targets != nil && expr.IsAccessPath(lhs) {
		res = res.With(Rule{Pointer: lhs, Targets: targets})
	}
	return res
}

// eval returns the targets of the pointer value e evaluated in s at location loc. Values that are not modelled
// point to a symbolic set named after the location and the expression.
func (d *Domain) eval(s RuleSet, e expr.Expr, loc int) Targets {
	e = expr.Normalise(e)
	switch e.Op() {
	case expr.NullOp:
		return NewConcreteSet()
	case expr.AllocOp:
		return NewConcreteSet(ConcreteTarget{Function: d.proc.ID, Location: loc, Name: e.String()})
	case expr.AddressOfOp:
		if x := e.Operand(0); expr.IsIdentifier(x) {
			return NewConcreteSet(d.objectOf(x))
		}
	}
	if expr.IsAccessPath(e) {
		if t, ok := s.Get(e); ok {
			return t
		}
	}
	return NewSymbolicSet(fmt.Sprintf("%s@%d:%s", d.proc.ID, loc, e))
}

// objectOf returns the object of the variable x
func (d *Domain) objectOf(x expr.Expr) ConcreteTarget {
	if x.Scope() == expr.Global {
		return ConcreteTarget{Name: x.Name()}
	}
	return ConcreteTarget{Function: d.proc.ID, Location: d.decls[x.Name()], Name: x.Name()}
}

// kill returns the rules of s that still hold after lhs is written
func (d *Domain) kill(s RuleSet, lhs expr.Expr) RuleSet {
	if expr.IsIdentifier(lhs) {
		name := lhs.Name()
		clobbersHeap := d.addressTaken[name]
		return s.Filter(func(r Rule) bool {
			return !expr.Mentions(r.Pointer, name) && !(clobbersHeap && expr.IsHeapPath(r.Pointer))
		})
	}
	return s.Filter(func(r Rule) bool {
		for _, c := range cells(r.Pointer) {
			if d.overlaps(lhs, c) {
				return false
			}
		}
		return true
	})
}

// cells returns the memory cells read to evaluate the access path p: p itself and the operand of each of its
// dereferences
func cells(p expr.Expr) []expr.Expr {
	res := []expr.Expr{p}
	expr.Any(p, func(sub expr.Expr) bool {
		if sub.Op() == expr.DerefOp {
			res = append(res, sub.Operand(0))
		}
		return false
	})
	return res
}

// overlaps returns true when writing the heap path lhs may modify the cell c: when their bases may be the same
// object and one field path is a prefix of the other.
func (d *Domain) overlaps(lhs, c expr.Expr) bool {
	lb, lf := region(lhs)
	cb, cf := region(c)
	if !d.mayShareBase(lb, cb) {
		return false
	}
	for i := 0; i < len(lf) && i < len(cf); i++ {
		if lf[i] != cf[i] {
			return false
		}
	}
	return true
}

// region splits the access path p into its base, a variable or a dereference, and the fields accessed from the base
func region(p expr.Expr) (expr.Expr, []string) {
	var fields []string
	for expr.IsMember(p) {
		fields = append([]string{p.Name()}, fields...)
		p = p.Operand(0)
	}
	return p, fields
}

func (d *Domain) mayShareBase(a, b expr.Expr) bool {
	switch {
	case expr.IsIdentifier(a) && expr.IsIdentifier(b):
		return a.Name() == b.Name()
	case expr.IsIdentifier(a):
		return d.addressTaken[a.Name()]
	case expr.IsIdentifier(b):
		return d.addressTaken[b.Name()]
	default:
		return true
	}
}

// Extractor recognizes the comparisons of access paths with null
type Extractor struct{}

// Fact returns the rule p -> {} for the guard p == null
func (Extractor) Fact(guard expr.Expr) (Rule, bool) {
	e, nonNull, ok := expr.NullComparison(guard)
	if !ok || nonNull {
		return Rule{}, false
	}
	return Rule{Pointer: e, Targets: NewConcreteSet()}, true
}

// ConditionalFact returns the rule p -> {} for the guards p == null (when taken) and p != null (when not taken)
func (Extractor) ConditionalFact(guard expr.Expr) (absint.ConditionalFact[Rule], bool) {
	e, nonNull, ok := expr.NullComparison(guard)
	if !ok {
		return absint.ConditionalFact[Rule]{}, false
	}
	return absint.ConditionalFact[Rule]{Fact: Rule{Pointer: e, Targets: NewConcreteSet()}, WhenTaken: !nonNull}, true
}

// EntryState returns the state at the entry of a procedure whose pointer parameters are seeded with seeds: each
// parameter points to the symbolic set of its seed.
func EntryState(seeds []effects.Seed) RuleSet {
	rules := make([]Rule, len(seeds))
	for i, seed := range seeds {
		rules[i] = Rule{Pointer: seed.Param, Targets: NewSymbolicSet(seed.Symbol)}
	}
	return NewRuleSet(rules...)
}

// NewAnalysis returns the pointer-target analysis of proc, starting from the parameters seeded by seeds. Calls are
// handled with the given strategy, looking up the summaries of the callees in db.
func NewAnalysis(proc *cfg.Procedure, seeds []effects.Seed, strategy effects.Strategy, db *summaries.Database,
	logger *config.LogGroup) *absint.Analysis[RuleSet, Rule] {
	d := NewDomain(proc)
	entry := EntryState(seeds)
	return &absint.Analysis[RuleSet, Rule]{
		Name:      "pointsto",
		Domain:    d,
		Extractor: Extractor{},
		Calls:     effects.NewCallPolicy[RuleSet, *Summary](strategy, proc.ID, db, Kind, d.Splice, logger),
		Entry:     func(*cfg.Procedure) RuleSet { return entry },
		Logger:    logger,
	}
}
