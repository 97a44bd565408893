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

// Package render prints the states and summaries computed by the analyses. Renderers only read the procedures,
// states and databases they are given.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/expr"
	"github.com/awslabs/ar-go-absint/analysis/nullcheck"
	"github.com/awslabs/ar-go-absint/analysis/pointsto"
	"github.com/awslabs/ar-go-absint/analysis/summaries"
	"github.com/awslabs/ar-go-absint/internal/formatutil"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
)

// Text writes one line per instruction of proc: its location, a marker for jump targets, the instruction and the
// state before the instruction. Locations without state are unreachable or have no information.
func Text[S fmt.Stringer](w io.Writer, p formatutil.Painter, proc *cfg.Procedure, states map[int]S) error {
	if _, err := fmt.Fprintf(w, "%s\n", p.Paint(formatutil.Bold, proc.ID)); err != nil {
		return err
	}
	for _, ins := range proc.Instructions {
		marker := " "
		if ins.IsTarget() {
			marker = p.Paint(formatutil.Yellow, ">")
		}
		state := p.Paint(formatutil.Faint, "-")
		if s, ok := states[ins.LocationNumber]; ok {
			state = formatutil.Sanitize(s.String())
		}
		line := fmt.Sprintf("%5d %s %s  %s\n", ins.LocationNumber, marker,
			formatutil.PadRight(ins.String(), 36), state)
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

// SummaryText writes the summary s of the procedure id
func SummaryText(w io.Writer, p formatutil.Painter, id string, s summaries.Summary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", p.Paint(formatutil.Bold, id), p.Paint(formatutil.Faint, "["+s.Kind()+"]"))
	switch s := s.(type) {
	case *nullcheck.Summary:
		writeList(&b, p, "non-null at exit", funcutil.Map(s.Exit.Elements(), expr.Expr.String))
		writeFlag(&b, p, "no effect", s.NoEffect)
	case *pointsto.Summary:
		writeList(&b, p, "input", funcutil.Map(s.Input.Rules(), pointsto.Rule.String))
		writeList(&b, p, "output", funcutil.Map(s.Output.Rules(), pointsto.Rule.String))
		writeFlag(&b, p, "no effect", s.NoEffect)
	default:
		fmt.Fprintf(&b, "  %s\n", formatutil.Sanitize(s.Description()))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Database writes the summaries of db, ordered by identifier
func Database(w io.Writer, p formatutil.Painter, db *summaries.Database) error {
	var err error
	db.Range(func(id string, s summaries.Summary) bool {
		err = SummaryText(w, p, id, s)
		return err == nil
	})
	return err
}

func writeList(b *strings.Builder, p formatutil.Painter, title string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(b, "  %s: %s\n", title, p.Paint(formatutil.Faint, "none"))
		return
	}
	fmt.Fprintf(b, "  %s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "    %s\n", p.Paint(formatutil.Cyan, formatutil.Sanitize(item)))
	}
}

func writeFlag(b *strings.Builder, p formatutil.Painter, title string, flag bool) {
	if flag {
		fmt.Fprintf(b, "  %s\n", p.Paint(formatutil.Green, title))
	}
}
