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
	"sync"
	"testing"

	"github.com/awslabs/ar-go-absint/analysis/absint"
	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/expr"
	"github.com/awslabs/ar-go-absint/analysis/summaries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ptr = expr.Type{Name: "*T", Pointer: true}

type namesSummary struct {
	params []expr.Expr
	names  []string
}

func (s *namesSummary) Kind() string            { return "absint://names" }
func (s *namesSummary) Description() string     { return "names" }
func (s *namesSummary) Parameters() []expr.Expr { return s.params }

type otherSummary struct{}

func (otherSummary) Kind() string        { return "absint://other" }
func (otherSummary) Description() string { return "other" }

func TestFreshNamesAreUnique(t *testing.T) {
	gen := NewSymbolGenerator()
	seen := sync.Map{}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				name := gen.Fresh("p")
				_, dup := seen.LoadOrStore(name, true)
				assert.False(t, dup, "duplicate name %s", name)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, "q#1001", gen.Fresh("q"))
}

func TestSeedParameters(t *testing.T) {
	params := []expr.Expr{
		expr.Symbol("p", ptr, expr.Param),
		expr.Symbol("n", expr.Type{Name: "int"}, expr.Param),
		expr.Symbol("q", ptr, expr.Param),
	}
	b := cfg.NewBuilder("f", params, expr.Type{})
	proc, err := b.Build()
	require.NoError(t, err)

	gen := NewSymbolGenerator()
	seeds := SeedParameters(proc, gen)
	require.Len(t, seeds, 2, "only pointer parameters are seeded")
	assert.Equal(t, "p", seeds[0].Param.Name())
	assert.Equal(t, "f::p#1", seeds[0].Symbol)
	assert.Equal(t, "f::q#2", seeds[1].Symbol)

	again := SeedParameters(proc, gen)
	assert.NotEqual(t, seeds[0].Symbol, again[0].Symbol, "every analysis gets fresh names")
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("invalidate")
	require.NoError(t, err)
	assert.Equal(t, Invalidate, s)
	s, err = ParseStrategy("summaries")
	require.NoError(t, err)
	assert.Equal(t, Substitute, s)
	assert.Equal(t, "summaries", s.String())
	_, err = ParseStrategy("inline")
	assert.Error(t, err)
}

func TestSummarySubstitution(t *testing.T) {
	formal := expr.Symbol("x", ptr, expr.Param)
	actual := expr.Symbol("a", ptr, expr.Local)
	result := expr.Symbol("r", ptr, expr.Local)

	db := summaries.NewDatabase()
	db.Insert("callee", &namesSummary{params: []expr.Expr{formal}, names: []string{"callee-fact"}})
	db.Insert("other", otherSummary{})

	var sites []expr.CallSite
	splice := func(s []string, summary *namesSummary, site expr.CallSite) []string {
		sites = append(sites, site)
		return append(append([]string(nil), s...), summary.names...)
	}
	policy := NewCallPolicy[[]string, *namesSummary](Substitute, "caller", db, "absint://names", splice,
		config.NewDiscardLogGroup())

	call := &cfg.Instruction{Kind: cfg.Call, Callee: "callee", Args: []expr.Expr{actual}, LHS: result}
	s, ok := policy.Call([]string{"before"}, call)
	require.True(t, ok)
	assert.Equal(t, []string{"before", "callee-fact"}, s)
	require.Len(t, sites, 1)
	assert.Equal(t, "caller", sites[0].Caller)
	assert.True(t, sites[0].Formals[0].Equal(formal))
	assert.True(t, sites[0].Actuals[0].Equal(actual))
	assert.True(t, sites[0].Result.Equal(result))

	_, ok = policy.Call([]string{"before"}, &cfg.Instruction{Kind: cfg.Call, Callee: "missing"})
	assert.False(t, ok, "absent summaries are not modelled")
	_, ok = policy.Call([]string{"before"}, &cfg.Instruction{Kind: cfg.Call, Callee: "other"})
	assert.False(t, ok, "summaries of another kind are not modelled")

	invalidate := NewCallPolicy[[]string, *namesSummary](Invalidate, "caller", db, "absint://names", splice, nil)
	_, ok = invalidate.Call([]string{"before"}, call)
	assert.False(t, ok)
	assert.IsType(t, absint.Invalidate[[]string]{}, invalidate)
}
