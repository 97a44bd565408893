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

	"github.com/awslabs/ar-go-absint/analysis/expr"
)

// Builder assembles a procedure from a list of instructions where jumps refer to labels. Every method adding an
// instruction returns the location number of that instruction.
type Builder struct {
	id           string
	params       []expr.Expr
	result       expr.Type
	instructions []*Instruction
	labels       map[string]int
	jumps        map[*Instruction]string
	nextLocation func() int
}

// NewBuilder returns a builder for a standalone procedure whose location numbers start at 1. Use
// Program.NewBuilder for procedures that belong to a program.
func NewBuilder(id string, params []expr.Expr, result expr.Type) *Builder {
	counter := 0
	return &Builder{
		id:     id,
		params: params,
		result: result,
		labels: map[string]int{},
		jumps:  map[*Instruction]string{},
		nextLocation: func() int {
			counter++
			return counter
		},
	}
}

func (b *Builder) add(ins *Instruction) int {
	ins.LocationNumber = b.nextLocation()
	b.instructions = append(b.instructions, ins)
	return ins.LocationNumber
}

// Label attaches the label name to the next instruction added to the builder (or to the exit of the procedure if
// no instruction follows).
func (b *Builder) Label(name string) *Builder {
	b.labels[name] = len(b.instructions)
	return b
}

// Decl declares the symbol sym
func (b *Builder) Decl(sym expr.Expr) int {
	return b.add(&Instruction{Kind: Decl, Symbol: sym})
}

// Dead marks the end of the scope of sym
func (b *Builder) Dead(sym expr.Expr) int {
	return b.add(&Instruction{Kind: Dead, Symbol: sym})
}

// Assert adds an assertion of guard
func (b *Builder) Assert(guard expr.Expr) int {
	return b.add(&Instruction{Kind: Assert, Guard: guard})
}

// Skip adds an instruction that does nothing
func (b *Builder) Skip() int {
	return b.add(&Instruction{Kind: Skip})
}

// Location adds a source location marker
func (b *Builder) Location(comment string) int {
	return b.add(&Instruction{Kind: Location, Comment: comment})
}

// Assume adds an assumption of guard
func (b *Builder) Assume(guard expr.Expr) int {
	return b.add(&Instruction{Kind: Assume, Guard: guard})
}

// Goto adds a jump to label, taken when guard holds
func (b *Builder) Goto(guard expr.Expr, label string) int {
	ins := &Instruction{Kind: Goto, Guard: guard}
	b.jumps[ins] = label
	return b.add(ins)
}

// Jump adds an unconditional jump to label
func (b *Builder) Jump(label string) int {
	return b.Goto(expr.True(), label)
}

// Call adds a call of callee with args, whose result is stored in lhs. lhs may be the invalid expression.
func (b *Builder) Call(lhs expr.Expr, callee string, args ...expr.Expr) int {
	return b.add(&Instruction{Kind: Call, LHS: lhs, Callee: callee, Args: args})
}

// Assign adds the assignment lhs = rhs
func (b *Builder) Assign(lhs, rhs expr.Expr) int {
	return b.add(&Instruction{Kind: Assign, LHS: lhs, RHS: rhs})
}

// Return adds a return of value, which may be invalid for procedures without result
func (b *Builder) Return(value expr.Expr) int {
	return b.add(&Instruction{Kind: Return, Value: value})
}

// Other adds an instruction with effects not modelled by the other kinds
func (b *Builder) Other(comment string) int {
	return b.add(&Instruction{Kind: Other, Comment: comment})
}

// Abort adds an instruction that ends the execution of the procedure abnormally
func (b *Builder) Abort(comment string) int {
	return b.add(&Instruction{Kind: Abort, Comment: comment})
}

// Build terminates the procedure with its exit instruction, resolves the jump targets, computes the incoming edges
// of every instruction and validates the result.
func (b *Builder) Build() (*Procedure, error) {
	b.add(&Instruction{Kind: EndFunction})
	for ins, label := range b.jumps {
		i, ok := b.labels[label]
		if !ok {
			return nil, &MalformedError{Procedure: b.id, Location: ins.LocationNumber,
				Reason: fmt.Sprintf("jump to undefined label %q", label)}
		}
		ins.Targets = []*Instruction{b.instructions[i]}
	}
	p := NewProcedure(b.id, b.params, b.result, b.instructions)
	for _, ins := range p.Instructions {
		for _, s := range p.Successors(ins) {
			s.Incoming = append(s.Incoming, ins)
		}
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}
