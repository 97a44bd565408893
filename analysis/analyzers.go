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

// Package analysis runs the abstract interpretations of the module over whole programs.
//
// A Driver analyses the procedures of a cfg.Program bottom-up on its call graph: callees are summarized before
// their callers, so that calls can be resolved with the summaries of the callees. The procedures of one level of
// the call graph are independent and analysed in parallel.
package analysis

import (
	"fmt"

	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/effects"
	"github.com/awslabs/ar-go-absint/analysis/nullcheck"
	"github.com/awslabs/ar-go-absint/analysis/pointsto"
	"github.com/awslabs/ar-go-absint/analysis/summaries"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
)

// Analyzer is an analysis the driver can run
type Analyzer struct {
	// Name is the name of the analysis in the configuration
	Name string

	// Kind is the kind of the summaries of the analysis
	Kind string

	// Decode decodes the persisted summaries of the analysis
	Decode summaries.Decoder

	// FromModel returns the summary of a library function
	FromModel func(config.LibraryModel) summaries.Summary

	// Run analyses one procedure. Summaries of the callees are looked up in db.
	Run func(d *Driver, proc *cfg.Procedure, db *summaries.Database) (Outcome, error)
}

// Analyzers returns the analyses known to the driver, in the order they run on each procedure
func Analyzers() []Analyzer {
	return []Analyzer{
		{
			Name:      config.NullCheckAnalysis,
			Kind:      nullcheck.Kind,
			Decode:    nullcheck.Decode,
			FromModel: func(m config.LibraryModel) summaries.Summary { return nullcheck.FromModel(m) },
			Run:       runNullCheck,
		},
		{
			Name:      config.PointsToAnalysis,
			Kind:      pointsto.Kind,
			Decode:    pointsto.Decode,
			FromModel: func(m config.LibraryModel) summaries.Summary { return pointsto.FromModel(m) },
			Run:       runPointsTo,
		},
	}
}

// Outcome is the result of one analysis on one procedure
type Outcome struct {
	// Analysis is the name of the analysis
	Analysis string

	// Procedure is the identifier of the analysed procedure
	Procedure string

	// Summary is the summary of the procedure
	Summary summaries.Summary

	// States are the states computed by the analysis, by location number
	States map[int]fmt.Stringer

	// Warnings are the problems found by the analysis in the procedure
	Warnings []string
}

func runNullCheck(d *Driver, proc *cfg.Procedure, db *summaries.Database) (Outcome, error) {
	res, err := nullcheck.NewAnalysis(proc, d.strategy, db, d.Logger).Run(proc)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Analysis:  config.NullCheckAnalysis,
		Procedure: proc.ID,
		Summary:   nullcheck.Summarize(proc, res, d.Config.KeepDomain),
		States:    stringers(res.States()),
		Warnings:  funcutil.Map(nullcheck.UncheckedDerefs(proc, res), nullcheck.Deref.String),
	}, nil
}

func runPointsTo(d *Driver, proc *cfg.Procedure, db *summaries.Database) (Outcome, error) {
	seeds := effects.SeedParameters(proc, d.Symbols)
	res, err := pointsto.NewAnalysis(proc, seeds, d.strategy, db, d.Logger).Run(proc)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Analysis:  config.PointsToAnalysis,
		Procedure: proc.ID,
		Summary:   pointsto.Summarize(proc, seeds, res, d.Config.KeepDomain),
		States:    stringers(res.States()),
	}, nil
}

func stringers[S fmt.Stringer](states map[int]S) map[int]fmt.Stringer {
	res := make(map[int]fmt.Stringer, len(states))
	for loc, s := range states {
		res[loc] = s
	}
	return res
}
