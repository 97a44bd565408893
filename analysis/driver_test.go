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
	"testing"

	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/expr"
	"github.com/awslabs/ar-go-absint/analysis/nullcheck"
	"github.com/awslabs/ar-go-absint/analysis/pointsto"
	"github.com/awslabs/ar-go-absint/analysis/summaries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tT  = expr.Type{Name: "T"}
	ptr = expr.Type{Name: "*T", Pointer: true}
	a   = expr.Symbol("a", ptr, expr.Param)
	x   = expr.Symbol("x", ptr, expr.Param)
	t0  = expr.Symbol("t0", ptr, expr.Local)
	v   = expr.Symbol("v", tT, expr.Local)
)

func field(e expr.Expr) expr.Expr { return expr.Member(expr.Deref(e), "f", ptr) }

func add(t *testing.T, prog *cfg.Program, id string, params []expr.Expr, f func(b *cfg.Builder)) {
	b := prog.NewBuilder(id, params, expr.Type{})
	f(b)
	proc, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, prog.Add(proc))
}

// testProgram returns the program
//
//	init(x):
//	  assume x != null
//	  (*x).f = new(T)
//	main(a):
//	  init(a)
//	  t0 = (*a).f
//	  v = *t0
//	rec(a):
//	  rec(a)
func testProgram(t *testing.T) *cfg.Program {
	prog := cfg.NewProgram()
	add(t, prog, "init", []expr.Expr{x}, func(b *cfg.Builder) {
		b.Assume(expr.NotEq(x, expr.Null()))
		b.Assign(field(x), expr.Alloc(tT))
		b.Return(expr.Expr{})
	})
	add(t, prog, "main", []expr.Expr{a}, func(b *cfg.Builder) {
		b.Call(expr.Expr{}, "init", a)
		b.Assign(t0, field(a))
		b.Assign(v, expr.Deref(t0))
		b.Return(expr.Expr{})
	})
	add(t, prog, "rec", []expr.Expr{a}, func(b *cfg.Builder) {
		b.Call(expr.Expr{}, "rec", a)
		b.Return(expr.Expr{})
	})
	return prog
}

func newDriver(t *testing.T, c *config.Config) *Driver {
	d, err := NewDriver(c, config.NewDiscardLogGroup())
	require.NoError(t, err)
	return d
}

func TestSummarizeAll(t *testing.T) {
	d := newDriver(t, config.NewDefault())
	report, err := d.SummarizeAll(testProgram(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"init", "main", "rec"}, report.Procedures())
	assert.Equal(t, []string{"rec"}, report.Recursive)
	assert.Empty(t, report.Failed)
	assert.Empty(t, report.Warnings(), "the summary of init proves (*a).f non-null in main")

	o, ok := report.Outcome("main", config.NullCheckAnalysis)
	require.True(t, ok)
	assert.Equal(t, "{(*a).f, a}", o.Summary.(*nullcheck.Summary).Exit.String())
	assert.NotEmpty(t, o.States)

	o, ok = report.Outcome("main", config.PointsToAnalysis)
	require.True(t, ok)
	assert.Equal(t, "{(*a).f -> {init:2:new(T)}}", o.Summary.(*pointsto.Summary).Output.String())

	for _, name := range []string{config.NullCheckAnalysis, config.PointsToAnalysis} {
		db := d.Databases[name]
		for _, id := range []string{"init", "main", "rec"} {
			assert.Equal(t, 1, db.Inserted(id), "%s is summarized once by %s", id, name)
		}
	}
	_, ok = summaries.Find[*nullcheck.Summary](d.Databases[config.NullCheckAnalysis], "main", nullcheck.Kind)
	assert.True(t, ok)
}

func TestSummarizeAllInvalidate(t *testing.T) {
	c := config.NewDefault()
	c.CallStrategy = config.InvalidateStrategy
	c.Analyses = []string{config.NullCheckAnalysis}
	d := newDriver(t, c)
	assert.Len(t, d.Databases, 1)

	report, err := d.SummarizeAll(testProgram(t))
	require.NoError(t, err)
	assert.Len(t, report.Warnings(), 2)
	_, ok := report.Outcome("main", config.PointsToAnalysis)
	assert.False(t, ok)
}

func TestSummarizeOne(t *testing.T) {
	d := newDriver(t, config.NewDefault())
	prog := testProgram(t)

	_, err := d.SummarizeOne(prog, "missing")
	assert.Error(t, err)

	report, err := d.SummarizeOne(prog, "main")
	require.NoError(t, err)
	assert.Len(t, report.Warnings(), 2, "init has no summary yet")

	_, err = d.SummarizeOne(prog, "init")
	require.NoError(t, err)
	report, err = d.SummarizeOne(prog, "main")
	require.NoError(t, err)
	assert.Empty(t, report.Warnings())
	assert.Equal(t, 2, d.Databases[config.NullCheckAnalysis].Inserted("main"))
}

func TestFailuresDoNotStopOtherProcedures(t *testing.T) {
	prog := testProgram(t)
	require.NoError(t, prog.Add(cfg.NewProcedure("bad", nil, expr.Type{}, nil)))
	d := newDriver(t, config.NewDefault())

	report, err := d.SummarizeAll(prog)
	require.Error(t, err)
	var malformed *cfg.MalformedError
	assert.True(t, errors.As(err, &malformed))
	assert.Equal(t, "bad", malformed.Procedure)
	assert.Contains(t, report.Failed, "bad")
	_, ok := report.Outcome("main", config.NullCheckAnalysis)
	assert.True(t, ok)
}

func TestModels(t *testing.T) {
	c := config.NewDefault()
	c.LibraryModels = []config.LibraryModel{{Function: "lib.Must", NonNullArgs: []int{0}, ReturnsNonNull: true}}
	d := newDriver(t, c)
	s, ok := summaries.Find[*nullcheck.Summary](d.Databases[config.NullCheckAnalysis], "lib.Must", nullcheck.Kind)
	require.True(t, ok)
	assert.Equal(t, "{arg0, return_value}", s.Exit.String())
	_, ok = summaries.Find[*pointsto.Summary](d.Databases[config.PointsToAnalysis], "lib.Must", pointsto.Kind)
	assert.True(t, ok)
	assert.Equal(t, d.Models.Len(), d.Databases[config.PointsToAnalysis].Len())
}

func TestPersistedSummaries(t *testing.T) {
	c := config.NewDefault()
	c.SummariesDir = t.TempDir()
	d := newDriver(t, c)
	_, err := d.SummarizeAll(testProgram(t))
	require.NoError(t, err)

	reloaded := newDriver(t, c)
	s, ok := summaries.Find[*nullcheck.Summary](reloaded.Databases[config.NullCheckAnalysis], "main", nullcheck.Kind)
	require.True(t, ok)
	assert.Equal(t, "{(*a).f, a}", s.Exit.String())
	p, ok := summaries.Find[*pointsto.Summary](reloaded.Databases[config.PointsToAnalysis], "init", pointsto.Kind)
	require.True(t, ok)
	assert.Equal(t, "{(*x).f -> {init:2:new(T)}}", p.Output.String())
}

func TestProgramStatistics(t *testing.T) {
	s := ProgramStatistics(testProgram(t))
	assert.Equal(t, 3, s.NumberOfProcedures)
	assert.Equal(t, 2, s.NumberOfCalls)
	assert.Equal(t, 1, s.NumberOfRecursive)
	assert.Equal(t, 2, s.NumberOfLevels)
	assert.Equal(t, 3, s.InstructionsByKind[cfg.EndFunction])
	assert.Equal(t, 12, s.NumberOfInstructions)
	s.Log(config.NewDiscardLogGroup())
}
