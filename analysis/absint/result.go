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
	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
)

// Result holds the states computed for one procedure. The state of an instruction is the state before its
// transfer; instructions whose state is bottom have no stored state.
type Result[S any] struct {
	// Procedure is the analyzed procedure
	Procedure *cfg.Procedure

	states   map[int]S
	terminal S
	bottom   S
}

// At returns the state stored for location loc, and false if none was stored (the state is bottom)
func (r *Result[S]) At(loc int) (S, bool) {
	s, ok := r.states[loc]
	return s, ok
}

// StateAt returns the state of location loc, bottom if none was stored
func (r *Result[S]) StateAt(loc int) S {
	if s, ok := r.states[loc]; ok {
		return s
	}
	return r.bottom
}

// Terminal returns the state at the end of the procedure
func (r *Result[S]) Terminal() S {
	return r.terminal
}

// Locations returns the sorted location numbers that have a stored state
func (r *Result[S]) Locations() []int {
	return funcutil.SortedKeys(r.states)
}

// States returns a copy of the stored states, by location number
func (r *Result[S]) States() map[int]S {
	res := make(map[int]S, len(r.states))
	for loc, s := range r.states {
		res[loc] = s
	}
	return res
}
