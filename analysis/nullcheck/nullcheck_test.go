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
	"testing"

	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/effects"
	"github.com/awslabs/ar-go-absint/analysis/expr"
	"github.com/awslabs/ar-go-absint/analysis/summaries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var (
	tT   = expr.Type{Name: "T"}
	ptr  = expr.Type{Name: "*T", Pointer: true}
	x    = expr.Symbol("x", ptr, expr.Param)
	a    = expr.Symbol("a", ptr, expr.Param)
	b    = expr.Symbol("b", ptr, expr.Param)
	t0   = expr.Symbol("t0", ptr, expr.Local)
	glob = expr.Symbol("G", ptr, expr.Global)
)

func field(e expr.Expr) expr.Expr { return expr.Member(expr.Deref(e), "f", ptr) }

func nonNull(e expr.Expr) expr.Expr { return expr.NotEq(e, expr.Null()) }

var logger = config.NewDiscardLogGroup()

func build(t *testing.T, id string, params []expr.Expr, result expr.Type, f func(b *cfg.Builder)) *cfg.Procedure {
	bld := cfg.NewBuilder(id, params, result)
	f(bld)
	proc, err := bld.Build()
	require.NoError(t, err)
	return proc
}

func TestExtractor(t *testing.T) {
	f, ok := Extractor{}.Fact(nonNull(field(a)))
	require.True(t, ok)
	assert.Equal(t, "(*a).f", f.String())
	_, ok = Extractor{}.Fact(expr.Eq(a, expr.Null()))
	assert.False(t, ok, "p == null does not prove anything when assumed")

	cf, ok := Extractor{}.ConditionalFact(expr.Eq(a, expr.Null()))
	require.True(t, ok)
	assert.False(t, cf.WhenTaken)
	assert.True(t, cf.Fact.Equal(a))
	cf, ok = Extractor{}.ConditionalFact(expr.Not(expr.Eq(expr.Null(), a)))
	require.True(t, ok)
	assert.True(t, cf.WhenTaken)
	_, ok = Extractor{}.ConditionalFact(expr.Eq(a, b))
	assert.False(t, ok)
}

func TestTransfer(t *testing.T) {
	y := expr.Symbol("y", ptr, expr.Local)
	proc := build(t, "f", []expr.Expr{a, b}, expr.Type{}, func(bl *cfg.Builder) {
		bl.Assign(t0, expr.AddressOf(y))
	})
	d := NewDomain(proc)
	s := expr.NewSet(a, b, field(a), field(b))

	tests := []struct {
		name string
		ins  *cfg.Instruction
		want string
	}{
		{"reassign kills", &cfg.Instruction{Kind: cfg.Assign, LHS: a, RHS: expr.Unknown(ptr)}, "{(*b).f, b}"},
		{"copy non-null", &cfg.Instruction{Kind: cfg.Assign, LHS: t0, RHS: b},
			"{(*a).f, (*b).f, a, b, t0}"},
		{"alloc is non-null", &cfg.Instruction{Kind: cfg.Assign, LHS: a, RHS: expr.Alloc(tT)}, "{(*b).f, a, b}"},
		{"memory write", &cfg.Instruction{Kind: cfg.Assign, LHS: field(a), RHS: expr.Null()}, "{a, b}"},
		{"memory write of non-null", &cfg.Instruction{Kind: cfg.Assign, LHS: field(b), RHS: a},
			"{(*b).f, a, b}"},
		{"return non-null", &cfg.Instruction{Kind: cfg.Return, Value: a},
			"{(*a).f, (*b).f, a, b, return_value}"},
		{"return unknown", &cfg.Instruction{Kind: cfg.Return, Value: t0}, "{(*a).f, (*b).f, a, b}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.Transfer(s, tt.ins)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
	_, ok := d.Transfer(s, &cfg.Instruction{Kind: cfg.Other})
	assert.False(t, ok)

	addressTaken := expr.NewSet(y, a)
	got, _ := d.Transfer(addressTaken, &cfg.Instruction{Kind: cfg.Assign, LHS: field(b), RHS: expr.Null()})
	assert.Equal(t, "{a}", got.String(), "writes through memory may modify address-taken variables")
}

// callee is
//
//	init(x):
//	  assume x != null
//	  (*x).f = new(T)
//	  return
func callee(t *testing.T) *cfg.Procedure {
	return build(t, "init", []expr.Expr{x}, expr.Type{}, func(bl *cfg.Builder) {
		bl.Assume(nonNull(x))
		bl.Assign(field(x), expr.Alloc(tT))
		bl.Return(expr.Expr{})
	})
}

func caller(t *testing.T) (*cfg.Procedure, int) {
	var after int
	proc := build(t, "main", []expr.Expr{a}, expr.Type{}, func(bl *cfg.Builder) {
		bl.Call(expr.Expr{}, "init", a)
		after = bl.Assign(t0, field(a))
		bl.Assign(expr.Symbol("v", tT, expr.Local), expr.Deref(t0))
	})
	return proc, after
}

func TestSummarySubstitutionIsMorePrecise(t *testing.T) {
	db := summaries.NewDatabase()
	calleeProc := callee(t)
	res, err := NewAnalysis(calleeProc, effects.Substitute, db, logger).Run(calleeProc)
	require.NoError(t, err)
	summary := Summarize(calleeProc, res, false)
	assert.Equal(t, "{(*x).f, x}", summary.Exit.String())
	db.Insert(calleeProc.ID, summary)

	main, after := caller(t)
	withSummaries, err := NewAnalysis(main, effects.Substitute, db, logger).Run(main)
	require.NoError(t, err)
	invalidated, err := NewAnalysis(main, effects.Invalidate, db, logger).Run(main)
	require.NoError(t, err)

	precise := withSummaries.StateAt(after)
	coarse := invalidated.StateAt(after)
	assert.Equal(t, "{(*a).f, a}", precise.String())
	assert.True(t, coarse.IsEmpty(), "a call without summary clears all facts")
	assert.True(t, coarse.Intersect(precise).Equal(coarse) && precise.Len() > coarse.Len())

	assert.Empty(t, UncheckedDerefs(main, withSummaries))
	assert.Len(t, UncheckedDerefs(main, invalidated), 2)
}

func TestCallWithoutSummaryClearsFacts(t *testing.T) {
	var after int
	proc := build(t, "main", []expr.Expr{a}, expr.Type{}, func(bl *cfg.Builder) {
		bl.Assume(nonNull(a))
		bl.Call(expr.Expr{}, "unknown")
		after = bl.Skip()
	})
	res, err := NewAnalysis(proc, effects.Substitute, summaries.NewDatabase(), logger).Run(proc)
	require.NoError(t, err)
	_, ok := res.At(after)
	assert.False(t, ok)
}

func TestSpliceKeepsUnaffectedFacts(t *testing.T) {
	y := expr.Symbol("y", tT, expr.Local)
	r := expr.Symbol("r", ptr, expr.Local)
	proc := build(t, "main", []expr.Expr{a}, expr.Type{}, func(bl *cfg.Builder) {
		bl.Assign(b, expr.AddressOf(y))
	})
	d := NewDomain(proc)
	s := expr.NewSet(a, r, t0, glob, field(a))
	site := expr.CallSite{Caller: "main", Callee: "mk", Actuals: []expr.Expr{}, Result: r}
	summary := &Summary{Exit: expr.NewSet(expr.ReturnValue(ptr))}
	assert.Equal(t, "{a, r, t0}", d.Splice(s, summary, site).String(),
		"the result is non-null, heap paths and globals are dropped")

	summary.Exit = expr.NewSet()
	assert.Equal(t, "{a, t0}", d.Splice(s, summary, site).String())

	summary.NoEffect = true
	assert.Equal(t, "{(*a).f, G, a, t0}", d.Splice(s, summary, site).String())

	site.Result = expr.Expr{}
	assert.Equal(t, "{(*a).f, G, a, r, t0}", d.Splice(s, summary, site).String())
}

func TestSummarizePrunesFacts(t *testing.T) {
	proc := build(t, "f", []expr.Expr{a, b}, ptr, func(bl *cfg.Builder) {
		bl.Assume(nonNull(a))
		bl.Assume(nonNull(field(b)))
		bl.Assume(nonNull(glob))
		bl.Assign(t0, expr.Alloc(tT))
		bl.Assign(b, a)
		bl.Return(t0)
	})
	res, err := NewAnalysis(proc, effects.Invalidate, nil, logger).Run(proc)
	require.NoError(t, err)
	assert.Equal(t, "{G, a, b, return_value, t0}", res.Terminal().String())
	s := Summarize(proc, res, true)
	assert.Equal(t, "{G, a, return_value}", s.Exit.String(), "locals and reassigned parameters are pruned")
	assert.NotEmpty(t, s.States)
	assert.Contains(t, s.Description(), "return_value")
}

func TestFromModel(t *testing.T) {
	s := FromModel(config.LibraryModel{Function: "lib.Must", NonNullArgs: []int{1}, ReturnsFresh: true})
	require.Len(t, s.Params, 2)
	assert.Equal(t, "{arg1, return_value}", s.Exit.String())

	d := NewDomain(build(t, "main", nil, expr.Type{}, func(*cfg.Builder) {}))
	r := expr.Symbol("r", ptr, expr.Local)
	site := expr.CallSite{Caller: "main", Callee: "lib.Must", Formals: s.Params, Actuals: []expr.Expr{a, b}, Result: r}
	assert.Equal(t, "{b, r}", d.Splice(expr.NewSet(), s, site).String())
}

func TestSummaryYAML(t *testing.T) {
	s := &Summary{
		Params: []expr.Expr{a, b},
		Exit:   expr.NewSet(a, field(b), expr.ReturnValue(ptr)),
		States: map[int]expr.Set{3: expr.NewSet(a)},
	}
	out, err := yaml.Marshal(s)
	require.NoError(t, err)
	var node yaml.Node
	require.NoError(t, yaml.Unmarshal(out, &node))
	decoded, err := Decode(node.Content[0])
	require.NoError(t, err)
	got := decoded.(*Summary)
	assert.Equal(t, Kind, got.Kind())
	assert.True(t, got.Exit.Equal(s.Exit))
	assert.True(t, got.States[3].Equal(s.States[3]))
	assert.Len(t, got.Params, 2)
	assert.Equal(t, expr.Param, got.Params[0].Scope())
}

func TestUncheckedDerefs(t *testing.T) {
	v := expr.Symbol("v", tT, expr.Local)
	var checked, unchecked int
	proc := build(t, "f", []expr.Expr{a, b}, expr.Type{}, func(bl *cfg.Builder) {
		bl.Goto(expr.Eq(a, expr.Null()), "end")
		checked = bl.Assign(v, expr.Deref(a))
		bl.Label("end")
		unchecked = bl.Assign(v, expr.Deref(b))
	})
	res, err := NewAnalysis(proc, effects.Invalidate, nil, logger).Run(proc)
	require.NoError(t, err)
	assert.True(t, Checked(res, checked, a))
	derefs := UncheckedDerefs(proc, res)
	require.Len(t, derefs, 1)
	assert.Equal(t, unchecked, derefs[0].Location)
	assert.True(t, derefs[0].Pointer.Equal(b))
}
