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

package absint

import (
	"errors"
	"testing"

	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setDomain is a minimal domain of non-null access paths. Assignments and returns keep the state unchanged, other
// instructions are not modelled.
type setDomain struct{}

func (setDomain) Bottom() expr.Set                     { return expr.NewSet() }
func (setDomain) IsBottom(s expr.Set) bool             { return s.IsEmpty() }
func (setDomain) Join(a, b expr.Set) expr.Set          { return a.Intersect(b) }
func (setDomain) Equal(a, b expr.Set) bool             { return a.Equal(b) }
func (setDomain) Add(s expr.Set, e expr.Expr) expr.Set { return s.With(e) }
func (setDomain) Transfer(s expr.Set, ins *cfg.Instruction) (expr.Set, bool) {
	return s, ins.Kind == cfg.Assign || ins.Kind == cfg.Return
}

type nonNullExtractor struct{}

func (nonNullExtractor) Fact(guard expr.Expr) (expr.Expr, bool) {
	e, nonNull, ok := expr.NullComparison(guard)
	return e, ok && nonNull
}

func (nonNullExtractor) ConditionalFact(guard expr.Expr) (ConditionalFact[expr.Expr], bool) {
	e, nonNull, ok := expr.NullComparison(guard)
	return ConditionalFact[expr.Expr]{Fact: e, WhenTaken: nonNull}, ok
}

var (
	ptr = expr.Type{Name: "*T", Pointer: true}
	a   = expr.Symbol("a", ptr, expr.Param)
	b   = expr.Symbol("b", ptr, expr.Param)
	c   = expr.Symbol("c", expr.Bool, expr.Local)
)

func nonNull(e expr.Expr) expr.Expr { return expr.NotEq(e, expr.Null()) }

func isNull(e expr.Expr) expr.Expr { return expr.Eq(e, expr.Null()) }

func newAnalysis() *Analysis[expr.Set, expr.Expr] {
	return &Analysis[expr.Set, expr.Expr]{
		Name:      "test",
		Domain:    setDomain{},
		Extractor: nonNullExtractor{},
		Logger:    config.NewDiscardLogGroup(),
	}
}

func build(t *testing.T, f func(b *cfg.Builder)) *cfg.Procedure {
	bld := cfg.NewBuilder("proc", []expr.Expr{a, b}, expr.Type{})
	f(bld)
	proc, err := bld.Build()
	require.NoError(t, err)
	return proc
}

func TestLinearGrowth(t *testing.T) {
	var l1, l2, l3, l4 int
	proc := build(t, func(bl *cfg.Builder) {
		l1 = bl.Assume(nonNull(a))
		l2 = bl.Assume(nonNull(b))
		l3 = bl.Assume(expr.And(c, c))
		l4 = bl.Assert(nonNull(a))
	})
	res, err := newAnalysis().Run(proc)
	require.NoError(t, err)

	_, ok := res.At(l1)
	assert.False(t, ok, "entry state is bottom")
	assert.Equal(t, "{a}", res.StateAt(l2).String())
	assert.Equal(t, "{a, b}", res.StateAt(l3).String())
	assert.Equal(t, "{a, b}", res.StateAt(l4).String(), "unrecognized guards leave the state unchanged")
	assert.Equal(t, "{a, b}", res.Terminal().String())

	prev := expr.NewSet()
	for _, ins := range proc.Instructions {
		s := res.StateAt(ins.LocationNumber)
		assert.True(t, prev.Intersect(s).Equal(prev), "state must grow monotonically along a linear CFG")
		prev = s
	}
	assert.Equal(t, []int{l2, l3, l4, l4 + 1}, res.Locations())
}

func TestDiamondMergeIsBottom(t *testing.T) {
	var merge, thenBranch, elseBranch int
	proc := build(t, func(bl *cfg.Builder) {
		bl.Assume(nonNull(a))
		bl.Goto(isNull(b), "else")
		thenBranch = bl.Skip()
		bl.Jump("end")
		bl.Label("else")
		elseBranch = bl.Assume(nonNull(b))
		bl.Label("end")
		merge = bl.Skip()
	})
	res, err := newAnalysis().Run(proc)
	require.NoError(t, err)

	assert.Equal(t, "{a, b}", res.StateAt(thenBranch).String())
	assert.Equal(t, "{a}", res.StateAt(elseBranch).String())
	_, ok := res.At(merge)
	assert.False(t, ok, "merge points are reset to bottom even when both branches establish the same facts")
	assert.True(t, res.Terminal().IsEmpty())
}

func TestUnrecognizedGotoGuard(t *testing.T) {
	var fallthru int
	proc := build(t, func(bl *cfg.Builder) {
		bl.Assume(nonNull(a))
		bl.Goto(c, "end")
		fallthru = bl.Skip()
		bl.Label("end")
		bl.Skip()
	})
	res, err := newAnalysis().Run(proc)
	require.NoError(t, err)
	assert.True(t, res.StateAt(fallthru).IsEmpty(), "a goto whose guard gives no fact clears the state")
}

func TestConditionalSplit(t *testing.T) {
	tests := []struct {
		name         string
		guard        expr.Expr
		wantTaken    string
		wantFallthru string
	}{
		{"taken branch gets the fact", nonNull(a), "{a, b}", "{b}"},
		{"fallthrough gets the fact", isNull(a), "{b}", "{a, b}"},
		{"negated guard", expr.Not(isNull(a)), "{a, b}", "{b}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var taken, fallthru int
			proc := build(t, func(bl *cfg.Builder) {
				bl.Assume(nonNull(b))
				bl.Goto(tt.guard, "taken")
				fallthru = bl.Skip()
				bl.Return(expr.Expr{})
				bl.Label("taken")
				taken = bl.Skip()
			})
			res, err := newAnalysis().Run(proc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTaken, res.StateAt(taken).String())
			assert.Equal(t, tt.wantFallthru, res.StateAt(fallthru).String())
		})
	}
}

func TestCallsClearFacts(t *testing.T) {
	var after int
	proc := build(t, func(bl *cfg.Builder) {
		bl.Assume(nonNull(a))
		bl.Call(expr.Expr{}, "f")
		after = bl.Skip()
	})

	res, err := newAnalysis().Run(proc)
	require.NoError(t, err)
	_, ok := res.At(after)
	assert.False(t, ok, "a call without model clears all the facts")

	an := newAnalysis()
	an.Calls = Invalidate[expr.Set]{}
	res, err = an.Run(proc)
	require.NoError(t, err)
	assert.True(t, res.StateAt(after).IsEmpty())

	an.Calls = CallPolicyFunc[expr.Set](func(s expr.Set, ins *cfg.Instruction) (expr.Set, bool) {
		return s.With(b), ins.Callee == "f"
	})
	res, err = an.Run(proc)
	require.NoError(t, err)
	assert.Equal(t, "{a, b}", res.StateAt(after).String())
}

func TestUnmodelledInstructions(t *testing.T) {
	var afterAssign, afterOther int
	proc := build(t, func(bl *cfg.Builder) {
		bl.Assume(nonNull(a))
		bl.Assign(b, a)
		afterAssign = bl.Other("asm")
		afterOther = bl.Skip()
	})
	res, err := newAnalysis().Run(proc)
	require.NoError(t, err)
	assert.Equal(t, "{a}", res.StateAt(afterAssign).String())
	assert.True(t, res.StateAt(afterOther).IsEmpty())
}

func TestBackwardsGotoDropsFacts(t *testing.T) {
	var head, after int
	proc := build(t, func(bl *cfg.Builder) {
		bl.Assume(nonNull(a))
		bl.Label("head")
		head = bl.Assume(nonNull(b))
		bl.Goto(nonNull(a), "head")
		after = bl.Skip()
	})
	res, err := newAnalysis().Run(proc)
	require.NoError(t, err)
	assert.True(t, res.StateAt(head).IsEmpty(), "loop heads are merge points")
	assert.True(t, res.StateAt(after).IsEmpty(), "backwards gotos are not split")
}

func TestReturnStoresExitState(t *testing.T) {
	proc := build(t, func(bl *cfg.Builder) {
		bl.Assume(nonNull(a))
		bl.Goto(isNull(b), "other")
		bl.Return(a)
		bl.Label("other")
		bl.Assume(nonNull(b))
	})
	res, err := newAnalysis().Run(proc)
	require.NoError(t, err)
	// the exit is reached by the return and by the fallthrough of the last assume
	assert.True(t, res.Terminal().IsEmpty())

	single := build(t, func(bl *cfg.Builder) {
		bl.Assume(nonNull(a))
		bl.Goto(isNull(b), "end")
		bl.Assume(nonNull(b))
		bl.Label("end")
		bl.Return(a)
	})
	res, err = newAnalysis().Run(single)
	require.NoError(t, err)
	assert.True(t, res.Terminal().IsEmpty(), "the return is a merge point")

	straight := build(t, func(bl *cfg.Builder) {
		bl.Assume(nonNull(a))
		bl.Return(a)
	})
	res, err = newAnalysis().Run(straight)
	require.NoError(t, err)
	assert.Equal(t, "{a}", res.Terminal().String(), "the exit gets the state of its only return")
}

func TestEntryState(t *testing.T) {
	proc := build(t, func(bl *cfg.Builder) {
		bl.Skip()
	})
	an := newAnalysis()
	an.Entry = func(p *cfg.Procedure) expr.Set { return expr.NewSet(p.Params...) }
	res, err := an.Run(proc)
	require.NoError(t, err)
	assert.Equal(t, "{a, b}", res.StateAt(proc.Entry().LocationNumber).String())
}

func TestMalformedProcedure(t *testing.T) {
	proc := build(t, func(bl *cfg.Builder) {
		bl.Goto(nonNull(a), "end")
		bl.Label("end")
		bl.Skip()
	})
	proc.Instructions[0].Targets = []*cfg.Instruction{{Kind: cfg.Skip, LocationNumber: 42}}
	res, err := newAnalysis().Run(proc)
	assert.Nil(t, res)
	var malformed *cfg.MalformedError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "proc", malformed.Procedure)
	assert.Equal(t, proc.Instructions[0].LocationNumber, malformed.Location)
}
