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

// Package analyze implements the nullcheck and pointsto sub-commands: they convert a Go program, summarize its
// functions bottom-up on the call graph and print the summaries and warnings of one analysis.
package analyze

import (
	"fmt"
	"io"
	"os"

	"github.com/awslabs/ar-go-absint/analysis"
	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/render"
	"github.com/awslabs/ar-go-absint/analysis/ssafrontend"
	"github.com/awslabs/ar-go-absint/cmd/absint/tools"
	"github.com/awslabs/ar-go-absint/internal/formatutil"
)

const usage = `Run the %[1]s analysis on the functions of a Go program.
Usage:
  absint %[1]s [options] <package path(s)>
Examples:
Print the summaries of all the functions of the packages in the current module
  %% absint %[1]s -config config.yaml ./...
Print the states of the analysis at every location of one function
  %% absint %[1]s -proc example.com/pkg.F -states ./...
`

// Flags represents the parsed flags of an analysis sub-command
type Flags struct {
	tools.CommonFlags
	proc    string
	states  bool
	jsonOut string
	cgOut   string
	stats   bool
}

// NewFlags returns the parsed flags of the sub-command running the analysis name
func NewFlags(name string, args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags(name)
	proc := flags.FlagSet.String("proc", "", "only analyze the procedure with this identifier")
	states := flags.FlagSet.Bool("states", false, "print the state of the analysis at every location")
	jsonOut := flags.FlagSet.String("jsonout", "", "output file for the summaries in JSON (no output if not specified)")
	cgOut := flags.FlagSet.String("cgout", "", "output file for the call graph in dot format (no output if not specified)")
	stats := flags.FlagSet.Bool("stats", false, "log statistics about the converted program")
	tools.SetUsage(flags.FlagSet, fmt.Sprintf(usage, name))
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{
		CommonFlags: common,
		proc:        *proc,
		states:      *states,
		jsonOut:     *jsonOut,
		cgOut:       *cgOut,
		stats:       *stats,
	}, nil
}

// Run runs the analysis name with flags and prints its results on standard output
func Run(name string, flags Flags) error {
	c, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	c.Analyses = []string{name}
	logger := config.NewLogGroup(c)

	logger.Infof("Reading sources")
	prog, err := ssafrontend.Load(c, logger, flags.FlagSet.Args())
	if prog == nil {
		return fmt.Errorf("could not load program: %v", err)
	}
	if err != nil {
		logger.Warnf("Some functions are not analyzed: %v", err)
	}
	if flags.stats {
		analysis.ProgramStatistics(prog).Log(logger)
	}
	if flags.cgOut != "" {
		if err := render.GraphvizToFile(prog, flags.cgOut); err != nil {
			return fmt.Errorf("could not write call graph: %v", err)
		}
		logger.Infof("Call graph written in %s", flags.cgOut)
	}

	d, err := analysis.NewDriver(c, logger)
	if err != nil {
		return err
	}
	var report *analysis.Report
	var runErr error
	if flags.proc != "" {
		report, runErr = d.SummarizeOne(prog, flags.proc)
	} else {
		report, runErr = d.SummarizeAll(prog)
	}
	if report == nil {
		return runErr
	}
	if err := Print(os.Stdout, formatutil.NewPainter(os.Stdout), name, prog, report, flags.states); err != nil {
		return err
	}
	if flags.jsonOut != "" {
		if err := writeJSON(flags.jsonOut, d, name); err != nil {
			return err
		}
		logger.Infof("Summaries written in %s", flags.jsonOut)
	}
	if runErr != nil {
		return fmt.Errorf("%s analysis failed: %v", name, runErr)
	}
	return nil
}

// Print prints the outcomes of the analysis name in report: the summary of every procedure, preceded by its
// states when withStates is set, and followed by its warnings.
func Print(w io.Writer, p formatutil.Painter, name string, prog *cfg.Program, report *analysis.Report,
	withStates bool) error {
	for _, id := range report.Procedures() {
		out, ok := report.Outcome(id, name)
		if !ok {
			continue
		}
		if withStates {
			proc, _ := prog.Procedure(id)
			if err := render.Text(w, p, proc, out.States); err != nil {
				return err
			}
		}
		if err := render.SummaryText(w, p, id, out.Summary); err != nil {
			return err
		}
		for _, warning := range out.Warnings {
			if _, err := fmt.Fprintf(w, "  %s %s\n", p.Paint(formatutil.Red, "warning:"), warning); err != nil {
				return err
			}
		}
	}
	for _, id := range report.Recursive {
		if _, err := fmt.Fprintf(w, "%s %s\n", p.Paint(formatutil.Faint, "recursive:"), id); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(filename string, d *analysis.Driver, name string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create %s: %v", filename, err)
	}
	defer f.Close()
	return render.JSON(f, d.Databases[name])
}
