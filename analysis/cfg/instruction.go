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

// Package cfg defines the control-flow graph model consumed by the analyses: procedures made of an ordered list of
// instructions with unique location numbers, resolved jump targets and precomputed incoming edges.
//
// Procedures are immutable once built. The analyses only read them.
package cfg

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-absint/analysis/expr"
)

// Kind is the kind of an instruction
type Kind int

const (
	NoInstruction Kind = iota
	Decl
	Dead
	Assert
	Skip
	Location
	Assume
	Goto
	Call
	Assign
	Return
	EndFunction
	Other
	// Abort stops the execution of the procedure without returning, e.g. a panic. It has no successor.
	Abort
)

var kindNames = [...]string{
	NoInstruction: "none",
	Decl:          "decl",
	Dead:          "dead",
	Assert:        "assert",
	Skip:          "skip",
	Location:      "location",
	Assume:        "assume",
	Goto:          "goto",
	Call:          "call",
	Assign:        "assign",
	Return:        "return",
	EndFunction:   "end",
	Other:         "other",
	Abort:         "abort",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "none"
	}
	return kindNames[k]
}

// Instruction is a node of the control-flow graph. Only the fields relevant to its kind are set.
type Instruction struct {
	// Kind is the kind of the instruction
	Kind Kind

	// LocationNumber identifies the instruction uniquely in its program
	LocationNumber int

	// Guard is the condition of Assume, Assert and Goto instructions. An unconditional Goto has the guard true.
	Guard expr.Expr

	// Targets are the jump targets of a Goto
	Targets []*Instruction

	// Incoming are the predecessors of the instruction
	Incoming []*Instruction

	// LHS is the assigned location of an Assign, or the expression receiving the result of a Call (invalid when the
	// result is discarded)
	LHS expr.Expr

	// RHS is the assigned value of an Assign
	RHS expr.Expr

	// Callee is the identifier of the procedure called by a Call
	Callee string

	// Args are the arguments of a Call, receiver first
	Args []expr.Expr

	// Value is the returned value of a Return. It is invalid for procedures without result.
	Value expr.Expr

	// Symbol is the declared symbol of a Decl, or the symbol going out of scope of a Dead
	Symbol expr.Expr

	// Comment is the text of Location, Other and Abort instructions
	Comment string

	// target is true when some Goto jumps to this instruction, or when it is the exit of a procedure with a Return
	target bool
}

// Target returns the first jump target of a Goto, or nil
func (i *Instruction) Target() *Instruction {
	if len(i.Targets) == 0 {
		return nil
	}
	return i.Targets[0]
}

// IsTarget returns true when the instruction is the target of some Goto. The exit of a procedure is the target of
// its Return instructions.
func (i *Instruction) IsTarget() bool {
	return i.target
}

// IsUnconditional returns true for a Goto that always jumps
func (i *Instruction) IsUnconditional() bool {
	return i.Kind == Goto && i.Guard.Equal(expr.True())
}

// IsBackwardsGoto returns true for a Goto whose target does not come after it, i.e. a loop back-edge
func (i *Instruction) IsBackwardsGoto() bool {
	t := i.Target()
	return i.Kind == Goto && t != nil && t.LocationNumber <= i.LocationNumber
}

func (i *Instruction) String() string {
	switch i.Kind {
	case Decl, Dead:
		return fmt.Sprintf("%s %s", i.Kind, i.Symbol)
	case Assume, Assert:
		return fmt.Sprintf("%s %s", i.Kind, i.Guard)
	case Goto:
		target := "?"
		if t := i.Target(); t != nil {
			target = fmt.Sprint(t.LocationNumber)
		}
		if i.IsUnconditional() {
			return "goto " + target
		}
		return fmt.Sprintf("if %s goto %s", i.Guard, target)
	case Call:
		args := make([]string, len(i.Args))
		for k, a := range i.Args {
			args[k] = a.String()
		}
		call := fmt.Sprintf("%s(%s)", i.Callee, strings.Join(args, ", "))
		if i.LHS.IsValid() {
			return i.LHS.String() + " = " + call
		}
		return call
	case Assign:
		return fmt.Sprintf("%s = %s", i.LHS, i.RHS)
	case Return:
		if i.Value.IsValid() {
			return "return " + i.Value.String()
		}
		return "return"
	case Location, Other, Abort:
		if i.Comment == "" {
			return i.Kind.String()
		}
		return fmt.Sprintf("%s %s", i.Kind, i.Comment)
	default:
		return i.Kind.String()
	}
}
