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

package cfg

import (
	"fmt"
)

// MalformedError is returned when a procedure does not satisfy the invariants of the control-flow graph model. The
// analysis of that procedure cannot proceed.
type MalformedError struct {
	// Procedure is the identifier of the malformed procedure
	Procedure string
	// Location is the location number of the offending instruction, or 0
	Location int
	// Reason describes the problem
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Location == 0 {
		return fmt.Sprintf("malformed procedure %s: %s", e.Procedure, e.Reason)
	}
	return fmt.Sprintf("malformed procedure %s at location %d: %s", e.Procedure, e.Location, e.Reason)
}

// Validate checks that p satisfies the invariants of the control-flow graph model:
//   - p is not empty and ends with its exit instruction,
//   - location numbers are unique,
//   - every Goto has a target, and targets and incoming edges are instructions of p,
//   - Assume, Assert and Goto instructions have a guard.
func Validate(p *Procedure) error {
	malformed := func(loc int, format string, args ...any) error {
		return &MalformedError{Procedure: p.ID, Location: loc, Reason: fmt.Sprintf(format, args...)}
	}
	if len(p.Instructions) == 0 {
		return malformed(0, "empty procedure")
	}
	if p.Exit().Kind != EndFunction {
		return malformed(p.Exit().LocationNumber, "last instruction is %s, not end", p.Exit().Kind)
	}
	seen := make(map[int]bool, len(p.Instructions))
	for i, ins := range p.Instructions {
		loc := ins.LocationNumber
		if seen[loc] {
			return malformed(loc, "location number is not unique")
		}
		seen[loc] = true
		if ins.Kind == EndFunction && i != len(p.Instructions)-1 {
			return malformed(loc, "end instruction before the end of the procedure")
		}
		switch ins.Kind {
		case Goto:
			if len(ins.Targets) == 0 {
				return malformed(loc, "goto without target")
			}
			for _, t := range ins.Targets {
				if t == nil {
					return malformed(loc, "goto with an unresolved target")
				}
				if registered, ok := p.At(t.LocationNumber); !ok || registered != t {
					return malformed(loc, "jump to unregistered location %d", t.LocationNumber)
				}
			}
			if !ins.Guard.IsValid() {
				return malformed(loc, "goto without guard")
			}
		case Assume, Assert:
			if !ins.Guard.IsValid() {
				return malformed(loc, "%s without guard", ins.Kind)
			}
		case NoInstruction:
			return malformed(loc, "instruction without kind")
		}
		for _, pred := range ins.Incoming {
			if !p.Contains(pred) {
				return malformed(loc, "incoming edge from an instruction outside the procedure")
			}
		}
	}
	return nil
}
