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

package analysis

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/effects"
	"github.com/awslabs/ar-go-absint/analysis/summaries"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
	"github.com/awslabs/ar-go-absint/internal/graphutil"
)

// Driver runs the analyses enabled in a configuration over programs, and owns the summaries they compute
type Driver struct {
	Config *config.Config
	Logger *config.LogGroup

	// Databases hold the summaries of each analysis, by analysis name
	Databases map[string]*summaries.Database

	// Stores persist the databases when a summaries directory is configured, by analysis name
	Stores map[string]*summaries.Store

	// Models are the library models of the configuration. Their summaries are in the databases before any
	// procedure is analysed.
	Models *summaries.Models

	// Symbols generates the symbolic names of the pointer parameters
	Symbols *effects.SymbolGenerator

	strategy  effects.Strategy
	analyzers []Analyzer
}

// NewDriver returns a driver for the analyses enabled in c. The databases are populated with the summaries of the
// library models, then with the summaries persisted in the summaries directory, if any.
func NewDriver(c *config.Config, logger *config.LogGroup) (*Driver, error) {
	strategy, err := effects.ParseStrategy(c.CallStrategy)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		Config:    c,
		Logger:    logger,
		Databases: map[string]*summaries.Database{},
		Stores:    map[string]*summaries.Store{},
		Models:    summaries.NewModels(c),
		Symbols:   effects.NewSymbolGenerator(),
		strategy:  strategy,
	}
	for _, a := range Analyzers() {
		if !c.Runs(a.Name) {
			continue
		}
		name := a.Name
		db := summaries.NewDatabase()
		db.OnOverwrite = func(id string, _, _ summaries.Summary) {
			logger.Debugf("%s: replacing summary of %s\n", name, id)
		}
		for _, fn := range d.Models.Functions() {
			m, _ := d.Models.Lookup(fn)
			db.Insert(fn, a.FromModel(m))
		}
		if c.SummariesDir != "" {
			store, err := summaries.OpenStore(filepath.Join(c.RelPath(c.SummariesDir), name), db, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to open %s summaries: %w", name, err)
			}
			store.RegisterDecoder(a.Kind, a.Decode)
			n, err := store.LoadAll()
			if err != nil {
				return nil, fmt.Errorf("failed to load %s summaries: %w", name, err)
			}
			logger.Infof("Loaded %d %s summaries from %s\n", n, name, store.Dir())
			d.Stores[name] = store
		}
		d.Databases[name] = db
		d.analyzers = append(d.analyzers, a)
	}
	return d, nil
}

// Strategy returns the way the driver handles calls
func (d *Driver) Strategy() effects.Strategy {
	return d.strategy
}

// SummarizeAll analyses every procedure of prog, callees before callers, and inserts their summaries in the
// databases. The procedures of a strongly connected component of the call graph are analysed once, without the
// summaries of each other. A procedure whose analysis fails does not stop the others: the returned error joins
// the errors of all the procedures that failed. The summaries are persisted when the driver has stores.
func (d *Driver) SummarizeAll(prog *cfg.Program) (*Report, error) {
	d.Logger.Infof("Starting summarization of %d procedures ...\n", prog.Len())
	start := time.Now()
	report := newReport()
	report.Recursive = graphutil.Recursive(prog.CallGraph())
	levels := graphutil.Levels(prog.Procedures(), prog.Callees)
	for i, level := range levels {
		var procs []*cfg.Procedure
		for _, scc := range level {
			for _, id := range scc {
				if p, ok := prog.Procedure(id); ok {
					procs = append(procs, p)
				}
			}
		}
		d.Logger.Debugf("Call graph level %d: %d procedures\n", i, len(procs))
		// summaries are inserted once the level is done, so that mutually recursive procedures never see each
		// other's summaries
		for _, r := range funcutil.MapParallel(procs, d.analyze, d.Config.NumRoutines) {
			d.record(report, r)
		}
	}
	var errs []error
	for _, id := range funcutil.SortedKeys(report.Failed) {
		errs = append(errs, report.Failed[id])
	}
	if err := d.Save(); err != nil {
		errs = append(errs, err)
	}
	report.Duration = time.Since(start)
	d.Logger.Infof("Summarization done (%.2f s): %d procedures, %d failed.\n",
		report.Duration.Seconds(), len(report.Outcomes), len(report.Failed))
	return report, errors.Join(errs...)
}

// SummarizeOne analyses the procedure id of prog with the summaries currently in the databases, and inserts its
// summaries.
func (d *Driver) SummarizeOne(prog *cfg.Program, id string) (*Report, error) {
	proc, ok := prog.Procedure(id)
	if !ok {
		return nil, fmt.Errorf("unknown procedure %s", id)
	}
	start := time.Now()
	report := newReport()
	d.record(report, d.analyze(proc))
	report.Duration = time.Since(start)
	return report, report.Failed[id]
}

// Save persists the summaries of every database that has a store
func (d *Driver) Save() error {
	var errs []error
	for _, name := range funcutil.SortedKeys(d.Stores) {
		store := d.Stores[name]
		n, err := store.SaveAll()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to save %s summaries: %w", name, err))
			continue
		}
		d.Logger.Infof("Saved %d %s summaries to %s\n", n, name, store.Dir())
	}
	return errors.Join(errs...)
}

// procedureResult is the result of all the analyses of one procedure
type procedureResult struct {
	id       string
	outcomes []Outcome
	errs     []error
}

// analyze runs every enabled analysis on proc
func (d *Driver) analyze(proc *cfg.Procedure) procedureResult {
	d.Logger.Debugf("%-10sProc: %-40s ...\n", "Analyzing", proc.ID)
	r := procedureResult{id: proc.ID}
	for _, a := range d.analyzers {
		o, err := a.Run(d, proc, d.Databases[a.Name])
		if err != nil {
			d.Logger.Errorf("error while analyzing %s with %s:\n\t%v\n", proc.ID, a.Name, err)
			r.errs = append(r.errs, fmt.Errorf("%s of %s: %w", a.Name, proc.ID, err))
			continue
		}
		r.outcomes = append(r.outcomes, o)
	}
	return r
}

// record inserts the summaries of r in the databases and adds r to the report
func (d *Driver) record(report *Report, r procedureResult) {
	for _, o := range r.outcomes {
		d.Databases[o.Analysis].Insert(o.Procedure, o.Summary)
		report.add(o)
	}
	if len(r.errs) > 0 {
		report.Failed[r.id] = errors.Join(r.errs...)
	}
}
