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

// Package ssafrontend converts the SSA form of Go functions into the procedures analysed by the abstract
// interpreter.
//
// Each basic block becomes a labelled sequence of instructions, laid out in the order of the block indexes. Pointer
// manipulations become assignments between access paths: field and variable addresses are folded into the
// expressions that use them, so that a store through the address of p.f writes the path (*p).f. Comparisons with nil
// become guards the domains can refine on. Instructions with effects that are not modelled become Other
// instructions, and clear the facts of the analyses.
package ssafrontend

import (
	"fmt"
	"go/token"
	"go/types"
	"path/filepath"

	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/expr"
	"github.com/awslabs/ar-go-absint/analysis/lang"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
	"golang.org/x/tools/go/ssa"
)

// builtins without effects on the memory of the program
var pureBuiltins = map[string]bool{
	"len": true, "cap": true, "real": true, "imag": true, "complex": true, "min": true, "max": true,
	"print": true, "println": true, "ssa:wrapnilchk": true,
}

// ID returns the identifier of the procedure converted from fn
func ID(fn *ssa.Function) string {
	return fn.String()
}

// Convert converts fn to a standalone procedure whose location numbers start at 1
func Convert(fn *ssa.Function) (*cfg.Procedure, error) {
	return convert(fn, cfg.NewBuilder)
}

// AddFunction converts fn and adds the procedure to prog
func AddFunction(prog *cfg.Program, fn *ssa.Function) (*cfg.Procedure, error) {
	p, err := convert(fn, prog.NewBuilder)
	if err != nil {
		return nil, err
	}
	return p, prog.Add(p)
}

// Position returns the source position "file:line" of the instruction at location loc of a converted procedure,
// or "" when it is unknown.
func Position(proc *cfg.Procedure, loc int) string {
	pos := ""
	for _, ins := range proc.Instructions {
		if ins.Kind == cfg.Location {
			pos = ins.Comment
		}
		if ins.LocationNumber == loc {
			return pos
		}
	}
	return ""
}

type newBuilder func(id string, params []expr.Expr, result expr.Type) *cfg.Builder

type converter struct {
	fn     *ssa.Function
	b      *cfg.Builder
	result expr.Type
	locals map[*ssa.Alloc]expr.Expr
	// next is the block laid out after the block being converted
	next *ssa.BasicBlock
	line int
}

func convert(fn *ssa.Function, mk newBuilder) (*cfg.Procedure, error) {
	if lang.IsExternal(fn) {
		return nil, fmt.Errorf("function %s has no body", fn)
	}
	c := &converter{fn: fn, result: resultType(fn.Signature), locals: localVariables(fn)}
	params := funcutil.Map(fn.Params, func(p *ssa.Parameter) expr.Expr { return c.value(p) })
	c.b = mk(ID(fn), params, c.result)
	for i, block := range fn.Blocks {
		c.next = nil
		if i+1 < len(fn.Blocks) {
			c.next = fn.Blocks[i+1]
		}
		c.line = 0
		c.b.Label(blockLabel(block))
		for _, instr := range block.Instrs {
			c.instruction(instr)
		}
	}
	return c.b.Build()
}

func blockLabel(b *ssa.BasicBlock) string {
	return fmt.Sprintf("b%d", b.Index)
}

func resultType(sig *types.Signature) expr.Type {
	switch sig.Results().Len() {
	case 0:
		return expr.Type{}
	case 1:
		return typeOf(sig.Results().At(0).Type())
	default:
		return typeOf(sig.Results())
	}
}

func typeOf(t types.Type) expr.Type {
	return expr.Type{Name: t.String(), Pointer: lang.IsPointerType(t)}
}

func elemOf(t types.Type) types.Type {
	if p, ok := t.Underlying().(*types.Pointer); ok {
		return p.Elem()
	}
	return t
}

// localVariables names the variables of fn allocated on the stack. A variable is named after its source name,
// qualified by its register when the name is ambiguous.
func localVariables(fn *ssa.Function) map[*ssa.Alloc]expr.Expr {
	var allocs []*ssa.Alloc
	count := map[string]int{}
	for _, a := range fn.Locals {
		if !a.Heap {
			allocs = append(allocs, a)
			count[a.Comment]++
		}
	}
	res := make(map[*ssa.Alloc]expr.Expr, len(allocs))
	for _, a := range allocs {
		name := a.Comment
		if name == "" || count[name] > 1 {
			name = fmt.Sprintf("%s$%s", a.Comment, a.Name())
		}
		res[a] = expr.Symbol(name, typeOf(elemOf(a.Type())), expr.Local)
	}
	return res
}

// value returns the expression of v. Addresses of variables and fields are expressions over the variable or the
// field; other instructions are represented by their register.
func (c *converter) value(v ssa.Value) expr.Expr {
	switch v := v.(type) {
	case *ssa.Const:
		if v.IsNil() {
			return expr.Null()
		}
		text := "zero"
		if v.Value != nil {
			text = v.Value.ExactString()
		}
		return expr.Const(text, typeOf(v.Type()))
	case *ssa.Parameter:
		return expr.Symbol(v.Name(), typeOf(v.Type()), expr.Param)
	case *ssa.FreeVar:
		return expr.Symbol(v.Name(), typeOf(v.Type()), expr.Param)
	case *ssa.Global:
		return expr.AddressOf(expr.Symbol(v.String(), typeOf(elemOf(v.Type())), expr.Global))
	case *ssa.Function:
		return expr.Const(v.String(), typeOf(v.Type()))
	case *ssa.Builtin:
		return expr.Unknown(typeOf(v.Type()))
	case *ssa.Alloc:
		if local, ok := c.locals[v]; ok {
			return expr.AddressOf(local)
		}
	case *ssa.FieldAddr:
		field := expr.Member(expr.Deref(c.value(v.X)), lang.FieldName(v.X.Type(), v.Field), typeOf(elemOf(v.Type())))
		return expr.AddressOf(field)
	}
	return c.register(v)
}

func (c *converter) register(v ssa.Value) expr.Expr {
	return expr.Symbol(v.Name(), typeOf(v.Type()), expr.Local)
}

func (c *converter) define(v ssa.Value, rhs expr.Expr) {
	c.b.Assign(c.register(v), rhs)
}

// position emits a Location instruction when instr starts a new source line
func (c *converter) position(pos token.Pos) {
	if !pos.IsValid() || c.fn.Prog == nil || c.fn.Prog.Fset == nil {
		return
	}
	p := c.fn.Prog.Fset.Position(pos)
	if p.Line == c.line {
		return
	}
	c.line = p.Line
	c.b.Location(fmt.Sprintf("%s:%d", filepath.Base(p.Filename), p.Line))
}

//gocyclo:ignore
func (c *converter) instruction(instr ssa.Instruction) {
	c.position(instr.Pos())
	switch instr := instr.(type) {
	case *ssa.DebugRef:
		c.b.Skip()
	case *ssa.If:
		c.branch(instr)
	case *ssa.Jump:
		c.jump(instr.Block().Succs[0])
	case *ssa.Return:
		c.ret(instr)
	case *ssa.Panic:
		c.b.Abort(instr.String())
	case *ssa.Call:
		c.call(instr)
	case *ssa.Store:
		c.b.Assign(expr.Deref(c.value(instr.Addr)), c.value(instr.Val))
	case *ssa.Alloc:
		if local, ok := c.locals[instr]; ok {
			c.b.Decl(local)
		} else {
			c.define(instr, expr.Alloc(typeOf(elemOf(instr.Type()))))
		}
	case *ssa.FieldAddr:
		// the address is folded into its uses
		c.b.Skip()
	case *ssa.UnOp:
		switch instr.Op {
		case token.MUL:
			c.define(instr, expr.Deref(c.value(instr.X)))
		case token.NOT:
			c.define(instr, expr.Not(c.value(instr.X)))
		default:
			c.define(instr, expr.Unknown(typeOf(instr.Type())))
		}
	case *ssa.BinOp:
		if y, eq, ok := lang.MatchNilCheck(instr); ok {
			c.define(instr, nilComparison(c.value(y), eq))
		} else {
			c.define(instr, expr.Unknown(typeOf(instr.Type())))
		}
	case *ssa.Field:
		c.define(instr, expr.Member(c.value(instr.X), lang.FieldName(instr.X.Type(), instr.Field), typeOf(instr.Type())))
	case *ssa.IndexAddr:
		// the address of an element is never nil
		reg := c.register(instr)
		c.b.Assign(reg, expr.Unknown(typeOf(instr.Type())))
		c.b.Assume(expr.NotEq(reg, expr.Null()))
	case *ssa.ChangeType:
		c.define(instr, c.value(instr.X))
	case *ssa.Defer:
		// deferred calls run at RunDefers
		c.b.Skip()
	case *ssa.RunDefers, *ssa.Go, *ssa.Send, *ssa.MapUpdate, *ssa.Select, *ssa.Next:
		c.b.Other(instr.String())
	default:
		if v, ok := instr.(ssa.Value); ok {
			c.define(v, expr.Unknown(typeOf(v.Type())))
		} else {
			c.b.Other(instr.String())
		}
	}
}

func nilComparison(e expr.Expr, eq bool) expr.Expr {
	if eq {
		return expr.Eq(e, expr.Null())
	}
	return expr.NotEq(e, expr.Null())
}

// guard returns the condition cond as a guard. Comparisons with nil are expressed on the compared value.
func (c *converter) guard(cond ssa.Value) expr.Expr {
	if y, eq, ok := lang.MatchNilCheck(cond); ok {
		return nilComparison(c.value(y), eq)
	}
	if x := lang.MatchNegation(cond); x != nil {
		return expr.Not(c.guard(x))
	}
	return c.value(cond)
}

// branch lays out the two successors of a conditional jump. The successor laid out next is reached by falling
// through the Goto.
func (c *converter) branch(instr *ssa.If) {
	guard := c.guard(instr.Cond)
	succs := instr.Block().Succs
	switch {
	case succs[1] == c.next:
		c.b.Goto(guard, blockLabel(succs[0]))
	case succs[0] == c.next:
		c.b.Goto(expr.Not(guard), blockLabel(succs[1]))
	default:
		c.b.Goto(guard, blockLabel(succs[0]))
		c.b.Jump(blockLabel(succs[1]))
	}
}

func (c *converter) jump(target *ssa.BasicBlock) {
	if target != c.next {
		c.b.Jump(blockLabel(target))
	}
}

func (c *converter) ret(instr *ssa.Return) {
	switch len(instr.Results) {
	case 0:
		c.b.Return(expr.Expr{})
	case 1:
		c.b.Return(c.value(instr.Results[0]))
	default:
		c.b.Return(expr.Unknown(c.result))
	}
}

func (c *converter) call(instr *ssa.Call) {
	var lhs expr.Expr
	if t, ok := instr.Type().(*types.Tuple); !ok || t.Len() > 0 {
		lhs = c.register(instr)
	}
	if b, ok := lang.BuiltinCallee(instr); ok {
		switch {
		case !pureBuiltins[b.Name()]:
			c.b.Other(instr.String())
		case lhs.IsValid():
			c.b.Assign(lhs, expr.Unknown(lhs.Type()))
		default:
			c.b.Skip()
		}
		return
	}
	c.b.Call(lhs, lang.CalleeKey(instr), funcutil.Map(lang.GetArgs(instr), c.value)...)
}
