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
	"github.com/awslabs/ar-go-absint/analysis/config"
)

// Analysis is a forward analysis over states S and facts F. Only Domain and Extractor are required.
type Analysis[S any, F any] struct {
	// Name is used in log messages
	Name string

	// Domain is the abstract domain of the analysis
	Domain Domain[S, F]

	// Extractor recognizes the guards that establish facts
	Extractor Extractor[F]

	// Calls decides the effect of calls. When nil, every call clears the state.
	Calls CallPolicy[S]

	// Entry returns the state at the entry of a procedure. When nil, the entry state is bottom.
	Entry func(proc *cfg.Procedure) S

	// Logger traces every transfer at trace level. When nil, nothing is logged.
	Logger *config.LogGroup
}

// run holds the mutable state of one execution of the engine on one procedure
type run[S any, F any] struct {
	*Analysis[S, F]
	proc   *cfg.Procedure
	stored map[int]S
}

// Run analyzes proc and returns the state at every instruction. The only error returned is a *cfg.MalformedError
// when proc does not satisfy the invariants of the control-flow graph model.
//
// Run only reads proc and the analysis; it may be called concurrently on different procedures.
func (a *Analysis[S, F]) Run(proc *cfg.Procedure) (*Result[S], error) {
	if err := cfg.Validate(proc); err != nil {
		return nil, err
	}
	r := &run[S, F]{Analysis: a, proc: proc, stored: map[int]S{}}
	dom := a.Domain
	w := dom.Bottom()
	if a.Entry != nil {
		w = a.Entry(proc)
	}
	for i, ins := range proc.Instructions {
		loc := ins.LocationNumber
		incoming := len(ins.Incoming)
		if i == 0 {
			// the procedure entry is an edge of the first instruction
			incoming++
		}
		switch {
		case incoming > 1:
			w = dom.Bottom()
			delete(r.stored, loc)
		case incoming == 0:
			// unreachable
			w = dom.Bottom()
		case ins.IsTarget() && i > 0:
			if s, ok := r.stored[loc]; ok {
				w = s
			} else {
				w = dom.Bottom()
			}
		}
		if dom.IsBottom(w) {
			delete(r.stored, loc)
		} else {
			r.stored[loc] = w
		}
		next := r.transfer(w, ins)
		if a.Logger != nil && a.Logger.LogsTrace() && !dom.Equal(w, next) {
			a.Logger.Tracef("%s %s@%d %s: %v -> %v", a.Name, proc.ID, loc, ins, w, next)
		}
		w = next
	}
	return &Result[S]{Procedure: proc, states: r.stored, terminal: w, bottom: dom.Bottom()}, nil
}

// transfer returns the working state after ins
func (r *run[S, F]) transfer(w S, ins *cfg.Instruction) S {
	dom := r.Domain
	switch ins.Kind {
	case cfg.Decl, cfg.Dead, cfg.Assert, cfg.Skip, cfg.Location, cfg.EndFunction:
		return w
	case cfg.Assume:
		if f, ok := r.Extractor.Fact(ins.Guard); ok {
			return dom.Add(w, f)
		}
		return w
	case cfg.Goto:
		if ins.IsBackwardsGoto() {
			return dom.Bottom()
		}
		cf, ok := r.Extractor.ConditionalFact(ins.Guard)
		if !ok {
			return dom.Bottom()
		}
		taken, fall := w, w
		if cf.WhenTaken {
			taken = dom.Add(w, cf.Fact)
		} else {
			fall = dom.Add(w, cf.Fact)
		}
		for _, t := range ins.Targets {
			r.store(t, taken)
		}
		return fall
	case cfg.Call:
		if r.Calls != nil {
			if s, ok := r.Calls.Call(w, ins); ok {
				return s
			}
		}
		return dom.Bottom()
	case cfg.Abort:
		return dom.Bottom()
	case cfg.Return:
		s, ok := dom.Transfer(w, ins)
		if !ok {
			s = dom.Bottom()
		}
		r.store(r.proc.Exit(), s)
		return dom.Bottom()
	default:
		if s, ok := dom.Transfer(w, ins); ok {
			return s
		}
		return dom.Bottom()
	}
}

// store records s as the state entering the jump target t, joined with what was already recorded for it
func (r *run[S, F]) store(t *cfg.Instruction, s S) {
	if r.Domain.IsBottom(s) {
		return
	}
	if prev, ok := r.stored[t.LocationNumber]; ok {
		s = r.Domain.Join(prev, s)
	}
	r.stored[t.LocationNumber] = s
}
