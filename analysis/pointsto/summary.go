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
	"gopkg.in/yaml.v3"
)

// Kind is the kind of the summaries of the pointer-target analysis
const Kind = "absint://analysis/pointsto"

// Summary is the summary of a procedure for the pointer-target analysis
type Summary struct {
	// Params are the formal parameters of the procedure
	Params []expr.Expr

	// Input are the rules of the entry state: each pointer parameter points to a symbolic set
	Input RuleSet

	// Output are the rules of the exit state that are visible to callers: rules of globals and of the return
	// value, and rules of heap paths rooted at globals or at parameters that are never reassigned.
	Output RuleSet

	// NoEffect is true when the procedure does not modify memory visible to its callers
	NoEffect bool

	// States are the states of the procedure by location number. Only set when the domain is kept in summaries.
	States map[int]RuleSet
}

// Kind returns the kind of pointer-target summaries
func (s *Summary) Kind() string {
	return Kind
}

// Description returns the output rules of the summary
func (s *Summary) Description() string {
	return fmt.Sprintf("input: %s, output: %s", s.Input, s.Output)
}

// Parameters returns the formal parameters of the summarized procedure
func (s *Summary) Parameters() []expr.Expr {
	return s.Params
}

// Summarize returns the summary of proc, analysed from the entry state seeded with seeds, given the result of its
// analysis. When keepDomain is true, the states of every instruction are kept in the summary.
func Summarize(proc *cfg.Procedure, seeds []effects.Seed, res *absint.Result[RuleSet], keepDomain bool) *Summary {
	assigned := proc.AssignedSymbols()
	output := res.Terminal().Filter(func(r Rule) bool {
		root, ok := expr.Root(r.Pointer)
		if !ok {
			return false
		}
		switch root.Scope() {
		case expr.Global, expr.Return:
			return true
		case expr.Param:
			return expr.IsHeapPath(r.Pointer) && !assigned[root.Name()]
		default:
			return false
		}
	})
	s := &Summary{Params: proc.Params, Input: EntryState(seeds), Output: output}
	if keepDomain {
		s.States = res.States()
	}
	return s
}

// Splice returns the state after a call, given the state s before the call and the summary of the callee.
//
// The output rules of the callee are translated to the scope of the caller. The symbolic set of each parameter of
// the callee is replaced by the targets of the corresponding argument. Other symbolic sets are renamed after the
// call site so that two calls to the same procedure produce different objects. Rules of the caller that the callee
// may invalidate are dropped.
func (d *Domain) Splice(s RuleSet, summary *Summary, site expr.CallSite) RuleSet {
	bindings := map[string]Targets{}
	for i, formal := range site.Formals {
		t, ok := summary.Input.Get(formal)
		sym, isSym := t.(SymbolicSet)
		if !ok || !isSym || i >= len(site.Actuals) || !site.Actuals[i].IsValid() {
			continue
		}
		actual := d.eval(s, site.Actuals[i], site.Location)
		for _, name := range sym.Names() {
			bindings[name] = actual
		}
	}
	var lhsName string
	if site.Result.IsValid() {
		if root, ok := expr.Root(site.Result); ok {
			lhsName = root.Name()
		}
	}
	res := s.Filter(func(r Rule) bool {
		if lhsName != "" && expr.Mentions(r.Pointer, lhsName) {
			return false
		}
		if summary.NoEffect {
			return true
		}
		p := r.Pointer
		return expr.IsIdentifier(p) && p.Scope() != expr.Global && !d.addressTaken[p.Name()]
	})
	if site.Result.IsValid() && !expr.IsIdentifier(site.Result) {
		res = d.kill(res, site.Result)
	}
	for _, r := range summary.Output.Rules() {
		p, ok := expr.ScopeTranslation(r.Pointer, site)
		if !ok || !expr.IsAccessPath(p) {
			continue
		}
		res = res.With(Rule{Pointer: p, Targets: translateTargets(r.Targets, bindings, site)})
	}
	return res
}

// translateTargets returns the union, over the names of t, of the targets bound to the name, or of a symbolic set
// named after the call site when the name is not bound
func translateTargets(t Targets, bindings map[string]Targets, site expr.CallSite) Targets {
	sym, ok := t.(SymbolicSet)
	if !ok {
		return t
	}
	var res Targets
	for _, name := range sym.Names() {
		b, ok := bindings[name]
		if !ok {
			b = NewSymbolicSet(fmt.Sprintf("%s@%d/%s", site.Caller, site.Location, name))
		}
		res = Join(res, b)
	}
	if res == nil {
		return t
	}
	return res
}

// FromModel returns the summary of the function described by model. A function returning fresh objects returns a
// pointer to an object allocated by the function; a function returning non-null pointers returns a pointer to a
// symbolic set.
func FromModel(model config.LibraryModel) *Summary {
	n := 0
	for _, i := range model.NonNullArgs {
		if i+1 > n {
			n = i + 1
		}
	}
	anyPtr := expr.Type{Name: "any", Pointer: true}
	params := make([]expr.Expr, n)
	for i := range params {
		params[i] = expr.Symbol(fmt.Sprintf("arg%d", i), anyPtr, expr.Param)
	}
	var output RuleSet
	switch {
	case model.ReturnsFresh:
		output = NewRuleSet(Rule{
			Pointer: expr.ReturnValue(anyPtr),
			Targets: NewConcreteSet(ConcreteTarget{Function: model.Function, Name: "fresh"}),
		})
	case model.ReturnsNonNull:
		output = NewRuleSet(Rule{
			Pointer: expr.ReturnValue(anyPtr),
			Targets: NewSymbolicSet(model.Function + "::return"),
		})
	}
	return &Summary{Params: params, Output: output, NoEffect: model.NoEffect}
}

// record is the serialized form of a summary
type record struct {
	Params   []expr.Expr     `yaml:"params"`
	Input    RuleSet         `yaml:"input"`
	Output   RuleSet         `yaml:"output"`
	NoEffect bool            `yaml:"no-effect,omitempty"`
	States   map[int]RuleSet `yaml:"states,omitempty"`
}

// MarshalYAML implements yaml.Marshaler
func (s *Summary) MarshalYAML() (interface{}, error) {
	return record{Params: s.Params, Input: s.Input, Output: s.Output, NoEffect: s.NoEffect, States: s.States}, nil
}

// Decode decodes a summary persisted in a summaries.Store
func Decode(node *yaml.Node) (summaries.Summary, error) {
	var r record
	if err := node.Decode(&r); err != nil {
		return nil, err
	}
	return &Summary{Params: r.Params, Input: r.Input, Output: r.Output, NoEffect: r.NoEffect, States: r.States}, nil
}
