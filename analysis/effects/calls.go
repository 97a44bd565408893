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

package effects

import (
	"github.com/awslabs/ar-go-absint/analysis/absint"
	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/expr"
	"github.com/awslabs/ar-go-absint/analysis/summaries"
)

// ParametricSummary is a summary that knows the formal parameters of the procedure it summarizes, so that it can be
// translated to the scope of a caller.
type ParametricSummary interface {
	summaries.Summary
	Parameters() []expr.Expr
}

// SummarySubstitution is the call policy that splices the summary of the callee into the state of the caller. Calls
// to procedures without a summary of the expected kind are not modelled, and the engine clears the state.
type SummarySubstitution[S any, T ParametricSummary] struct {
	// Caller is the identifier of the procedure being analyzed
	Caller string

	// Database holds the summaries of the callees
	Database *summaries.Database

	// Kind is the kind of the summaries of the analysis
	Kind string

	// Splice returns the state after a call given the state s before it and the summary of the callee
	Splice func(s S, summary T, site expr.CallSite) S

	// Logger logs the calls without summary at trace level. May be nil.
	Logger *config.LogGroup
}

// Call implements absint.CallPolicy
func (p SummarySubstitution[S, T]) Call(s S, ins *cfg.Instruction) (S, bool) {
	summary, ok := summaries.Find[T](p.Database, ins.Callee, p.Kind)
	if !ok {
		if p.Logger != nil {
			p.Logger.Tracef("%s: no %s summary for %s, invalidating\n", p.Caller, p.Kind, ins.Callee)
		}
		return s, false
	}
	return p.Splice(s, summary, CallSiteOf(p.Caller, ins, summary.Parameters())), true
}

// CallSiteOf returns the call site of the call instruction ins in caller, whose callee has parameters formals
func CallSiteOf(caller string, ins *cfg.Instruction, formals []expr.Expr) expr.CallSite {
	return expr.CallSite{
		Caller:   caller,
		Callee:   ins.Callee,
		Location: ins.LocationNumber,
		Formals:  formals,
		Actuals:  ins.Args,
		Result:   ins.LHS,
	}
}

// NewCallPolicy returns the call policy implementing strategy for the analysis of caller
func NewCallPolicy[S any, T ParametricSummary](strategy Strategy, caller string, db *summaries.Database, kind string,
	splice func(S, T, expr.CallSite) S, logger *config.LogGroup) absint.CallPolicy[S] {
	if strategy == Invalidate || db == nil {
		return absint.Invalidate[S]{}
	}
	return SummarySubstitution[S, T]{Caller: caller, Database: db, Kind: kind, Splice: splice, Logger: logger}
}
