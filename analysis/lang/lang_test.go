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

package lang

import (
	"testing"

	"github.com/awslabs/ar-go-absint/internal/analysistest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/ssa"
)

const src = `package main

type I interface {
	M(x int) int
}

type T struct {
	a int
	b *T
}

func (t *T) M(x int) int { return x }

func f(i I, t *T, g func() int, s []int) int {
	if t == nil {
		return len(s)
	}
	if nil != t.b {
		return i.M(1)
	}
	ok := !(t.a == 0)
	if ok {
		return g()
	}
	return h(t)
}

func h(t *T) int { return 0 }
`

func callsOf(fn *ssa.Function) []*ssa.Call {
	var calls []*ssa.Call
	IterateInstructions(fn, func(_ int, instr ssa.Instruction) {
		if c, ok := instr.(*ssa.Call); ok {
			calls = append(calls, c)
		}
	})
	return calls
}

func TestCalls(t *testing.T) {
	s := analysistest.Build(t, src)
	calls := callsOf(s.Function(t, "f"))
	require.Len(t, calls, 4)

	keys := map[string]bool{}
	for _, c := range calls {
		if b, ok := BuiltinCallee(c); ok {
			assert.Equal(t, "len", b.Name())
			continue
		}
		keys[CalleeKey(c)] = true
		if c.Common().IsInvoke() {
			assert.True(t, InstrMethodKey(c).IsSome())
			assert.Len(t, GetArgs(c), 2)
		} else {
			assert.True(t, InstrMethodKey(c).IsNone())
		}
	}
	assert.Equal(t, map[string]bool{"main.I.M": true, DynamicCallPrefix + "g": true, "main.h": true}, keys)
}

func TestMatchNilCheck(t *testing.T) {
	s := analysistest.Build(t, src)
	var checks []bool
	var checked []string
	for _, b := range s.Function(t, "f").Blocks {
		if cond, ok := LastInstr(b).(*ssa.If); ok {
			if y, eq, ok := MatchNilCheck(cond.Cond); ok {
				checks = append(checks, eq)
				checked = append(checked, y.Type().String())
			} else {
				assert.NotNil(t, MatchNegation(cond.Cond))
			}
		}
	}
	assert.Equal(t, []bool{true, false}, checks)
	assert.Equal(t, []string{"*main.T", "*main.T"}, checked)
}

func TestTypesAndNames(t *testing.T) {
	s := analysistest.Build(t, src)
	fn := s.Function(t, "f")
	tType := fn.Params[1].Type()
	assert.True(t, IsPointerType(tType))
	assert.True(t, IsNillableType(tType))
	assert.True(t, IsNillableType(fn.Params[0].Type()))
	assert.False(t, IsPointerType(fn.Params[0].Type()))
	assert.False(t, IsNillableType(fn.Signature.Results().At(0).Type()))

	assert.Equal(t, "a", FieldName(tType, 0))
	assert.Equal(t, "b", FieldName(tType, 1))
	assert.Equal(t, "?", FieldName(tType, 2))
	assert.Equal(t, "?", FieldName(fn.Params[0].Type(), 0))

	assert.Equal(t, "main", PackageNameFromFunction(fn))
	assert.False(t, IsExternal(fn))
}

func TestPackageFromErrorName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"(*example.com/pkg.MyErr).Error", "example.com/pkg"},
		{"(example.com/pkg.MyErr).Error", "example.com/pkg"},
		{"(MyErr).Error", ""},
		{"example.com/pkg.F", ""},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, packageFromErrorName(test.name), test.name)
	}
}
