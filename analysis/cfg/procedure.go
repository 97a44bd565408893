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
	"sync"

	"github.com/awslabs/ar-go-absint/analysis/expr"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
	"github.com/awslabs/ar-go-absint/internal/graphutil"
)

// Procedure is the control-flow graph of one procedure
type Procedure struct {
	// ID identifies the procedure in its program
	ID string

	// Params are the formal parameters of the procedure, receiver first
	Params []expr.Expr

	// Result is the type of the value returned by the procedure
	Result expr.Type

	// Instructions are the instructions of the procedure in program order. The last one is the exit.
	Instructions []*Instruction

	byLocation map[int]*Instruction
	position   map[*Instruction]int
}

// NewProcedure returns the procedure with the given instructions. The incoming edges and jump targets of the
// instructions must already be resolved; use a Builder to build procedures from labelled instruction lists.
func NewProcedure(id string, params []expr.Expr, result expr.Type, instructions []*Instruction) *Procedure {
	p := &Procedure{
		ID:           id,
		Params:       params,
		Result:       result,
		Instructions: instructions,
		byLocation:   make(map[int]*Instruction, len(instructions)),
		position:     make(map[*Instruction]int, len(instructions)),
	}
	for i, ins := range instructions {
		p.byLocation[ins.LocationNumber] = ins
		p.position[ins] = i
	}
	// every return jumps to the exit
	exit := p.Exit()
	for _, ins := range instructions {
		switch ins.Kind {
		case Goto:
			for _, t := range ins.Targets {
				if t != nil {
					t.target = true
				}
			}
		case Return:
			exit.target = true
		}
	}
	return p
}

// Entry returns the first instruction of the procedure, or nil if it is empty
func (p *Procedure) Entry() *Instruction {
	if len(p.Instructions) == 0 {
		return nil
	}
	return p.Instructions[0]
}

// Exit returns the last instruction of the procedure, or nil if it is empty
func (p *Procedure) Exit() *Instruction {
	if len(p.Instructions) == 0 {
		return nil
	}
	return p.Instructions[len(p.Instructions)-1]
}

// At returns the instruction at location loc
func (p *Procedure) At(loc int) (*Instruction, bool) {
	ins, ok := p.byLocation[loc]
	return ins, ok
}

// Contains returns true if ins is an instruction of p
func (p *Procedure) Contains(ins *Instruction) bool {
	_, ok := p.position[ins]
	return ok
}

// Next returns the instruction following ins in program order, or nil
func (p *Procedure) Next(ins *Instruction) *Instruction {
	i, ok := p.position[ins]
	if !ok || i+1 >= len(p.Instructions) {
		return nil
	}
	return p.Instructions[i+1]
}

// Successors returns the instructions control may flow to after ins
func (p *Procedure) Successors(ins *Instruction) []*Instruction {
	var succs []*Instruction
	switch ins.Kind {
	case EndFunction, Abort:
		return nil
	case Return:
		if exit := p.Exit(); exit != nil && exit != ins {
			succs = append(succs, exit)
		}
		return succs
	case Goto:
		succs = append(succs, ins.Targets...)
		if ins.IsUnconditional() {
			return succs
		}
	}
	if next := p.Next(ins); next != nil {
		succs = append(succs, next)
	}
	return succs
}

// Calls returns the sorted identifiers of the procedures called by p, without duplicates
func (p *Procedure) Calls() []string {
	callees := map[string]bool{}
	for _, ins := range p.Instructions {
		if ins.Kind == Call {
			callees[ins.Callee] = true
		}
	}
	return funcutil.SortedKeys(callees)
}

// AssignedSymbols returns the names of the symbols that are assigned in p, either directly or as the result of a
// call
func (p *Procedure) AssignedSymbols() map[string]bool {
	res := map[string]bool{}
	for _, ins := range p.Instructions {
		if (ins.Kind == Assign || ins.Kind == Call) && expr.IsIdentifier(ins.LHS) {
			res[ins.LHS.Name()] = true
		}
	}
	return res
}

// AddressTakenSymbols returns the names of the symbols whose address is taken somewhere in p
func (p *Procedure) AddressTakenSymbols() map[string]bool {
	res := map[string]bool{}
	for _, ins := range p.Instructions {
		for _, e := range []expr.Expr{ins.Guard, ins.LHS, ins.RHS, ins.Value} {
			markAddressTaken(res, e)
		}
		for _, e := range ins.Args {
			markAddressTaken(res, e)
		}
	}
	return res
}

func markAddressTaken(res map[string]bool, e expr.Expr) {
	if !e.IsValid() {
		return
	}
	expr.Any(e, func(x expr.Expr) bool {
		if x.Op() == expr.AddressOfOp {
			if root, ok := expr.Root(x); ok {
				res[root.Name()] = true
			}
		}
		return false
	})
}

// Loops returns the sets of instructions that form loops in the procedure, each in program order
func (p *Procedure) Loops() [][]*Instruction {
	adj := make(graphutil.Adjacency, len(p.Instructions))
	for i, ins := range p.Instructions {
		for _, s := range p.Successors(ins) {
			if j, ok := p.position[s]; ok {
				adj.AddEdge(i, j)
			}
		}
	}
	var loops [][]*Instruction
	for _, component := range graphutil.CyclicComponents(adj) {
		loops = append(loops, funcutil.Map(component, func(i int) *Instruction { return p.Instructions[i] }))
	}
	return loops
}

func (p *Procedure) String() string {
	return p.ID
}

// Program is a set of procedures whose instructions have distinct location numbers
type Program struct {
	mu           sync.Mutex
	procedures   map[string]*Procedure
	nextLocation int
}

// NewProgram returns an empty program
func NewProgram() *Program {
	return &Program{procedures: map[string]*Procedure{}, nextLocation: 1}
}

// NewBuilder returns a builder for a procedure of the program. Location numbers are drawn from the program's
// counter, so they are unique across all the procedures of the program.
func (prog *Program) NewBuilder(id string, params []expr.Expr, result expr.Type) *Builder {
	b := NewBuilder(id, params, result)
	b.nextLocation = prog.allocateLocation
	return b
}

func (prog *Program) allocateLocation() int {
	prog.mu.Lock()
	defer prog.mu.Unlock()
	loc := prog.nextLocation
	prog.nextLocation++
	return loc
}

// Add adds the procedure p to the program. It is an error to add two procedures with the same identifier.
func (prog *Program) Add(p *Procedure) error {
	prog.mu.Lock()
	defer prog.mu.Unlock()
	if _, ok := prog.procedures[p.ID]; ok {
		return fmt.Errorf("procedure %s is already in the program", p.ID)
	}
	prog.procedures[p.ID] = p
	return nil
}

// Procedure returns the procedure with identifier id
func (prog *Program) Procedure(id string) (*Procedure, bool) {
	prog.mu.Lock()
	defer prog.mu.Unlock()
	p, ok := prog.procedures[id]
	return p, ok
}

// Procedures returns the sorted identifiers of the procedures of the program
func (prog *Program) Procedures() []string {
	prog.mu.Lock()
	defer prog.mu.Unlock()
	return funcutil.SortedKeys(prog.procedures)
}

// Len returns the number of procedures in the program
func (prog *Program) Len() int {
	prog.mu.Lock()
	defer prog.mu.Unlock()
	return len(prog.procedures)
}

// Callees returns the sorted identifiers of the procedures of the program called by the procedure id. Calls to
// procedures that are not in the program are omitted.
func (prog *Program) Callees(id string) []string {
	p, ok := prog.Procedure(id)
	if !ok {
		return nil
	}
	return funcutil.Filter(p.Calls(), func(callee string) bool {
		_, defined := prog.Procedure(callee)
		return defined
	})
}

// CallGraph returns the call graph of the program, restricted to the procedures of the program
func (prog *Program) CallGraph() *graphutil.DiGraph {
	return graphutil.NewDiGraph(prog.Procedures(), prog.Callees)
}

// CallEdges returns every (caller, callee) pair of the call graph, sorted
func (prog *Program) CallEdges() [][2]string {
	var edges [][2]string
	for _, caller := range prog.Procedures() {
		for _, callee := range prog.Callees(caller) {
			edges = append(edges, [2]string{caller, callee})
		}
	}
	return edges
}
