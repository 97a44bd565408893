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

package ssafrontend

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-absint/analysis"
	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/effects"
	"github.com/awslabs/ar-go-absint/analysis/expr"
	"github.com/awslabs/ar-go-absint/analysis/nullcheck"
	"github.com/awslabs/ar-go-absint/analysis/summaries"
	"github.com/awslabs/ar-go-absint/internal/analysistest"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const src = `package main

type T struct {
	f *T
	x int
}

var g *T

func alloc() *T {
	return &T{}
}

func checked(p *T) int {
	if p != nil {
		return p.x
	}
	return 0
}

func unchecked(p *T) int {
	return p.x // @MayBeNull
}

func setg(p *T) {
	g = p
}

func caller() {
	setg(alloc())
}

func must(p *T) *T {
	if p == nil {
		panic("nil")
	}
	return p
}

func local() int {
	var x T
	x.x = 1
	return x.x
}

func main() {
	caller()
}
`

func instructionsOf(proc *cfg.Procedure, kind cfg.Kind) []*cfg.Instruction {
	var res []*cfg.Instruction
	for _, ins := range proc.Instructions {
		if ins.Kind == kind {
			res = append(res, ins)
		}
	}
	return res
}

func TestConvertNullCheck(t *testing.T) {
	s := analysistest.Build(t, src)
	proc, err := Convert(s.Function(t, "checked"))
	require.NoError(t, err)

	assert.Equal(t, "main.checked", proc.ID)
	require.Len(t, proc.Params, 1)
	assert.Equal(t, "p", proc.Params[0].Name())
	assert.Equal(t, expr.Param, proc.Params[0].Scope())
	assert.True(t, proc.Params[0].IsPointer())
	assert.Equal(t, 1, proc.Instructions[0].LocationNumber)

	gotos := instructionsOf(proc, cfg.Goto)
	require.Len(t, gotos, 1)
	p, nonNull, ok := expr.NullComparison(gotos[0].Guard)
	require.True(t, ok)
	assert.Equal(t, "p", p.String())
	// the non-nil branch is laid out after the test
	assert.False(t, nonNull)
	assert.Len(t, instructionsOf(proc, cfg.Return), 2)
}

func TestConvertedCodeIsAnalyzed(t *testing.T) {
	s := analysistest.Build(t, src)
	expected := s.Annotated("MayBeNull")
	require.Len(t, expected, 1)

	tests := []struct {
		name     string
		warnings int
	}{
		{"checked", 0},
		{"unchecked", 1},
		{"local", 0},
		{"alloc", 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			proc, err := Convert(s.Function(t, test.name))
			require.NoError(t, err)
			a := nullcheck.NewAnalysis(proc, effects.Invalidate, summaries.NewDatabase(), config.NewDiscardLogGroup())
			res, err := a.Run(proc)
			require.NoError(t, err)
			derefs := nullcheck.UncheckedDerefs(proc, res)
			require.Len(t, derefs, test.warnings)
			for _, d := range derefs {
				assert.Equal(t, "p", d.Pointer.String())
				pos := Position(proc, d.Location)
				assert.True(t, expected[analysistest.LPos{Filename: "main.go", Line: lineOf(t, pos)}], pos)
			}
		})
	}
}

func lineOf(t *testing.T, pos string) int {
	file, line, ok := strings.Cut(pos, ":")
	require.True(t, ok, pos)
	require.Equal(t, "main.go", file)
	n, err := strconv.Atoi(line)
	require.NoError(t, err)
	return n
}

func TestConvertStackVariables(t *testing.T) {
	s := analysistest.Build(t, src)
	proc, err := Convert(s.Function(t, "local"))
	require.NoError(t, err)

	decls := instructionsOf(proc, cfg.Decl)
	require.Len(t, decls, 1)
	assert.Equal(t, "x", decls[0].Symbol.String())
	var writes []string
	for _, ins := range instructionsOf(proc, cfg.Assign) {
		writes = append(writes, expr.Normalise(ins.LHS).String())
	}
	assert.Contains(t, writes, "x.x")
}

func TestConvertGlobalsAndCalls(t *testing.T) {
	s := analysistest.Build(t, src)
	prog := cfg.NewProgram()
	for _, name := range []string{"alloc", "setg", "caller"} {
		_, err := AddFunction(prog, s.Function(t, name))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"main.alloc", "main.setg"}, prog.Callees("main.caller"))

	setg, _ := prog.Procedure("main.setg")
	assigns := instructionsOf(setg, cfg.Assign)
	require.Len(t, assigns, 1)
	lhs := expr.Normalise(assigns[0].LHS)
	assert.Equal(t, "main.g", lhs.String())
	assert.Equal(t, expr.Global, lhs.Scope())

	alloc, _ := prog.Procedure("main.alloc")
	allocs := instructionsOf(alloc, cfg.Assign)
	require.NotEmpty(t, allocs)
	assert.Equal(t, expr.AllocOp, allocs[0].RHS.Op())

	// locations are unique across the program
	seen := map[int]bool{}
	for _, id := range prog.Procedures() {
		p, _ := prog.Procedure(id)
		for _, ins := range p.Instructions {
			assert.False(t, seen[ins.LocationNumber])
			seen[ins.LocationNumber] = true
		}
	}
}

func TestConvertPanic(t *testing.T) {
	s := analysistest.Build(t, src)
	proc, err := Convert(s.Function(t, "must"))
	require.NoError(t, err)

	aborts := instructionsOf(proc, cfg.Abort)
	require.Len(t, aborts, 1)
	assert.Empty(t, proc.Successors(aborts[0]))
	assert.Len(t, proc.Exit().Incoming, 1, "only the return reaches the exit")
}

func TestProgramSummaries(t *testing.T) {
	s := analysistest.Build(t, src)
	c := config.NewDefault()
	logger := config.NewDiscardLogGroup()
	prog, err := Program(c, logger, s.Package.Prog)
	require.NoError(t, err)
	_, ok := prog.Procedure("main.checked")
	assert.True(t, ok)

	d, err := analysis.NewDriver(c, logger)
	require.NoError(t, err)
	report, err := d.SummarizeAll(prog)
	require.NoError(t, err)

	out, ok := report.Outcome("main.alloc", config.NullCheckAnalysis)
	require.True(t, ok)
	sum, ok := out.Summary.(*nullcheck.Summary)
	require.True(t, ok)
	assert.True(t, sum.Exit.Contains(expr.ReturnValue(expr.Type{Name: "*main.T", Pointer: true})))

	out, ok = report.Outcome("main.must", config.NullCheckAnalysis)
	require.True(t, ok)
	sum, ok = out.Summary.(*nullcheck.Summary)
	require.True(t, ok)
	assert.True(t, sum.Exit.Contains(expr.ReturnValue(expr.Type{Name: "*main.T", Pointer: true})),
		"a panicking branch does not reach the exit")

	assert.True(t, funcutil.Exists(report.Warnings(), func(w string) bool {
		return strings.HasPrefix(w, "main.unchecked: nullcheck: ")
	}))
}

func TestLoadAndAnalyze(t *testing.T) {
	file := filepath.Join("testdata", "src", "nullcheck", "main.go")
	expected := analysistest.AnnotatedFile(t, file, "MayBeNull")
	c := config.NewDefault()
	logger := config.NewDiscardLogGroup()
	prog, err := Load(c, logger, []string{file})
	require.NoError(t, err)
	_, ok := prog.Procedure("command-line-arguments.fresh")
	require.True(t, ok)
	_, ok = prog.Procedure("errors.New")
	assert.False(t, ok)

	d, err := analysis.NewDriver(c, logger)
	require.NoError(t, err)
	_, err = d.SummarizeAll(prog)
	require.NoError(t, err)

	db := d.Databases[config.NullCheckAnalysis]
	found := map[analysistest.LPos]bool{}
	for _, id := range prog.Procedures() {
		proc, _ := prog.Procedure(id)
		res, err := nullcheck.NewAnalysis(proc, d.Strategy(), db, logger).Run(proc)
		require.NoError(t, err)
		for _, deref := range nullcheck.UncheckedDerefs(proc, res) {
			found[analysistest.LPos{Filename: "main.go", Line: lineOf(t, Position(proc, deref.Location))}] = true
		}
	}
	assert.Equal(t, expected, found)
}
