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

// Package effects models the effects of code that is not analyzed: the values of the parameters at the entry of a
// procedure, and the calls whose callee is not inlined.
package effects

import (
	"fmt"
	"sync/atomic"

	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/expr"
)

// SymbolGenerator generates symbolic names that are unique within one analysis run. It is safe for concurrent use.
type SymbolGenerator struct {
	next atomic.Uint64
}

// NewSymbolGenerator returns a generator whose first name has suffix 1
func NewSymbolGenerator() *SymbolGenerator {
	return &SymbolGenerator{}
}

// Fresh returns a new name derived from base
func (g *SymbolGenerator) Fresh(base string) string {
	return fmt.Sprintf("%s#%d", base, g.next.Add(1))
}

// Seed is the symbolic identity given to a pointer parameter at the entry of a procedure
type Seed struct {
	// Param is the parameter symbol
	Param expr.Expr
	// Symbol is the fresh name of the object the parameter points to
	Symbol string
}

// SeedParameters returns one seed per pointer-typed parameter of proc, in the order of the parameters.
func SeedParameters(proc *cfg.Procedure, gen *SymbolGenerator) []Seed {
	var seeds []Seed
	for _, p := range proc.Params {
		if p.IsPointer() {
			seeds = append(seeds, Seed{Param: p, Symbol: gen.Fresh(proc.ID + "::" + p.Name())})
		}
	}
	return seeds
}

// Strategy is the way calls are handled
type Strategy int

const (
	// Invalidate clears every fact at a call
	Invalidate Strategy = iota
	// Substitute splices the summary of the callee at a call when it is available, and invalidates otherwise
	Substitute
)

func (s Strategy) String() string {
	if s == Substitute {
		return config.SummariesStrategy
	}
	return config.InvalidateStrategy
}

// ParseStrategy returns the strategy named s in a configuration file
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case config.InvalidateStrategy:
		return Invalidate, nil
	case config.SummariesStrategy, "":
		return Substitute, nil
	default:
		return Invalidate, fmt.Errorf("unknown call strategy %q", s)
	}
}
