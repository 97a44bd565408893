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

package nullcheck

import (
	"fmt"

	"github.com/awslabs/ar-go-absint/analysis/absint"
	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/expr"
	"github.com/awslabs/ar-go-absint/analysis/summaries"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
	"gopkg.in/yaml.v3"
)

// Kind is the kind of the summaries of the null-check analysis
const Kind = "absint://analysis/nullcheck"

// Summary is the summary of a procedure for the null-check analysis: the paths that are non-null when the
// procedure returns, in the scope of the procedure.
type Summary struct {
	// Params are the formal parameters of the procedure
	Params []expr.Expr

	// Exit are the paths non-null at the exit. They are rooted at parameters that are never reassigned, at globals
	// or at the return value.
	Exit expr.Set

	// NoEffect is true when the procedure does not modify memory visible to its callers
	NoEffect bool

	// States are the states of the procedure by location number. Only set when the domain is kept in summaries.
	States map[int]expr.Set
}

// Kind returns the kind of null-check summaries
func (s *Summary) Kind() string {
	return Kind
}

// Description returns the paths that are non-null at the exit
func (s *Summary) Description() string {
	return fmt.Sprintf("non-null at exit: %s", s.Exit)
}

// Parameters returns the formal parameters of the summarized procedure
func (s *Summary) Parameters() []expr.Expr {
	return s.Params
}

// Summarize returns the summary of proc given the result of its analysis. When keepDomain is true, the states of
// every instruction are kept in the summary.
func Summarize(proc *cfg.Procedure, res *absint.Result[expr.Set], keepDomain bool) *Summary {
	assigned := proc.AssignedSymbols()
	exit := res.Terminal().Filter(func(e expr.Expr) bool {
		root, ok := expr.Root(e)
		if !ok {
			return false
		}
		switch root.Scope() {
		case expr.Global, expr.Return:
			return true
		case expr.Param:
			return !assigned[root.Name()]
		default:
			return false
		}
	})
	s := &Summary{Params: proc.Params, Exit: exit}
	if keepDomain {
		s.States = res.States()
	}
	return s
}

// Splice returns the state after a call, given the state s before the call and the summary of the callee.
// Facts about variables of the caller that the callee cannot modify are kept, and the exit facts of the callee are
// translated to the scope of the caller. Heap paths and globals survive only calls to procedures without effect.
func (d *Domain) Splice(s expr.Set, summary *Summary, site expr.CallSite) expr.Set {
	var lhsName string
	if site.Result.IsValid() {
		if root, ok := expr.Root(site.Result); ok {
			lhsName = root.Name()
		}
	}
	res := s.Filter(func(e expr.Expr) bool {
		if lhsName != "" && expr.Mentions(e, lhsName) {
			return false
		}
		if summary.NoEffect {
			return true
		}
		return expr.IsIdentifier(e) && e.Scope() != expr.Global && !d.addressTaken[e.Name()]
	})
	if site.Result.IsValid() && !expr.IsIdentifier(site.Result) {
		res = d.kill(res, site.Result)
	}
	for _, fact := range summary.Exit.Elements() {
		if translated, ok := expr.ScopeTranslation(fact, site); ok && expr.IsAccessPath(translated) {
			res = res.With(translated)
		}
	}
	return res
}

// FromModel returns the summary of the function described by model. The parameters of the summary are named
// arg0, arg1, ... in the order of the arguments.
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
	exit := expr.NewSet(funcutil.Map(model.NonNullArgs, func(i int) expr.Expr { return params[i] })...)
	if model.ReturnsNonNull || model.ReturnsFresh {
		exit = exit.With(expr.ReturnValue(anyPtr))
	}
	return &Summary{Params: params, Exit: exit, NoEffect: model.NoEffect}
}

// record is the serialized form of a summary
type record struct {
	Params   []expr.Expr      `yaml:"params"`
	Exit     expr.Set         `yaml:"exit"`
	NoEffect bool             `yaml:"no-effect,omitempty"`
	States   map[int]expr.Set `yaml:"states,omitempty"`
}

// MarshalYAML implements yaml.Marshaler
func (s *Summary) MarshalYAML() (interface{}, error) {
	return record{Params: s.Params, Exit: s.Exit, NoEffect: s.NoEffect, States: s.States}, nil
}

// Decode decodes a summary persisted in a summaries.Store
func Decode(node *yaml.Node) (summaries.Summary, error) {
	var r record
	if err := node.Decode(&r); err != nil {
		return nil, err
	}
	return &Summary{Params: r.Params, Exit: r.Exit, NoEffect: r.NoEffect, States: r.States}, nil
}
