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

// Package lang provides functions to operate on the SSA representation of Go programs: the targets and arguments
// of calls, the comparisons with nil and the names of fields and packages.
package lang

import (
	"github.com/awslabs/ar-go-absint/internal/funcutil"
	"golang.org/x/tools/go/ssa"
)

// DynamicCallPrefix prefixes the callee identifiers of calls whose target is a value computed at run time
const DynamicCallPrefix = "dynamic:"

// GetArgs returns the arguments of a function call including the receiver when the function called is a method.
// More precisely, it returns instr.Common().Args, but prepends instr.Common().Value if the call is "invoke" mode.
func GetArgs(instr ssa.CallInstruction) []ssa.Value {
	var args []ssa.Value
	if instr.Common().IsInvoke() {
		args = append(args, instr.Common().Value)
	}
	args = append(args, instr.Common().Args...)
	return args
}

// InstrMethodKey returns the key "T.m" of the interface method m called by instr when the call is in invoke mode
func InstrMethodKey(instr ssa.CallInstruction) funcutil.Optional[string] {
	methodFunc := instr.Common().Method
	if methodFunc != nil {
		return funcutil.Some(instr.Common().Value.Type().String() + "." + methodFunc.Name())
	}
	return funcutil.None[string]()
}

// StaticCalleeKey returns the identifier of the function called by instr when it is statically known
func StaticCalleeKey(instr ssa.CallInstruction) funcutil.Optional[string] {
	if f := instr.Common().StaticCallee(); f != nil {
		return funcutil.Some(f.String())
	}
	return funcutil.None[string]()
}

// CalleeKey returns the identifier of the procedure called by instr: the static callee if there is one, then the
// interface method key, and otherwise the name of the called value prefixed by DynamicCallPrefix.
func CalleeKey(instr ssa.CallInstruction) string {
	return funcutil.MaybeOr(StaticCalleeKey(instr), InstrMethodKey(instr)).
		ValueOr(DynamicCallPrefix + instr.Common().Value.Name())
}

// BuiltinCallee returns the builtin called by instr, if any
func BuiltinCallee(instr ssa.CallInstruction) (*ssa.Builtin, bool) {
	b, ok := instr.Common().Value.(*ssa.Builtin)
	return b, ok
}

// LastInstr returns the last instruction in a block, or nil for an empty block
func LastInstr(block *ssa.BasicBlock) ssa.Instruction {
	if len(block.Instrs) == 0 {
		return nil
	}
	return block.Instrs[len(block.Instrs)-1]
}
