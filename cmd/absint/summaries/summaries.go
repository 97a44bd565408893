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

// Package summaries implements the summaries sub-command, which prints the summaries persisted in the summaries
// directory of a configuration, including the summaries of the library models.
package summaries

import (
	"fmt"
	"io"
	"os"

	"github.com/awslabs/ar-go-absint/analysis"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/render"
	"github.com/awslabs/ar-go-absint/cmd/absint/tools"
	"github.com/awslabs/ar-go-absint/internal/formatutil"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
)

const usage = `Print the summaries persisted by previous analyses.
Usage:
  absint summaries [options]
Examples:
  % absint summaries -config config.yaml
  % absint summaries -config config.yaml -json
`

// Flags represents the parsed summaries sub-command flags.
type Flags struct {
	tools.CommonFlags
	json bool
}

// NewFlags returns the parsed summaries sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("summaries")
	json := flags.FlagSet.Bool("json", false, "print the summaries in JSON")
	tools.SetUsage(flags.FlagSet, usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, json: *json}, nil
}

// Run runs the summaries sub-command with flags
func Run(flags Flags) error {
	c, err := tools.LoadConfig(flags.ConfigPath, flags.Verbose)
	if err != nil {
		return err
	}
	if c.SummariesDir == "" {
		return fmt.Errorf("no summaries-dir in the configuration")
	}
	d, err := analysis.NewDriver(c, config.NewLogGroup(c))
	if err != nil {
		return err
	}
	return Print(os.Stdout, formatutil.NewPainter(os.Stdout), d, flags.json)
}

// Print prints the summaries of every database of d, by analysis name
func Print(w io.Writer, p formatutil.Painter, d *analysis.Driver, asJSON bool) error {
	for _, name := range funcutil.SortedKeys(d.Databases) {
		db := d.Databases[name]
		if _, err := fmt.Fprintf(w, "%s (%d summaries)\n", p.Paint(formatutil.Cyan, name), db.Len()); err != nil {
			return err
		}
		var err error
		if asJSON {
			err = render.JSON(w, db)
		} else {
			err = render.Database(w, p, db)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
