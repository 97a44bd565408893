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

package expr

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// record is the serialized form of an expression
type record struct {
	Op      string `yaml:"op"`
	Name    string `yaml:"name,omitempty"`
	Type    string `yaml:"type,omitempty"`
	Pointer bool   `yaml:"pointer,omitempty"`
	Scope   string `yaml:"scope,omitempty"`
	Args    []Expr `yaml:"args,omitempty"`
}

// MarshalYAML implements yaml.Marshaler
func (e Expr) MarshalYAML() (interface{}, error) {
	if !e.IsValid() {
		return nil, fmt.Errorf("cannot marshal an invalid expression")
	}
	r := record{Op: e.op.String(), Name: e.name, Type: e.typ.Name, Pointer: e.typ.Pointer, Args: e.operands}
	if e.op == SymbolOp {
		r.Scope = e.scope.String()
	}
	return r, nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (e *Expr) UnmarshalYAML(value *yaml.Node) error {
	var r record
	if err := value.Decode(&r); err != nil {
		return err
	}
	op := opOfString(r.Op)
	typ := Type{Name: r.Type, Pointer: r.Pointer}
	arity := map[Op]int{DerefOp: 1, MemberOp: 1, AddressOfOp: 1, NotOp: 1, EqOp: 2, NotEqOp: 2, AndOp: 2, OrOp: 2}
	if len(r.Args) != arity[op] {
		return fmt.Errorf("line %d: %s expression with %d operands", value.Line, r.Op, len(r.Args))
	}
	switch op {
	case SymbolOp:
		*e = Symbol(r.Name, typ, scopeOfString(r.Scope))
	case NullOp:
		*e = Null()
	case ConstOp:
		*e = Const(r.Name, typ)
	case AllocOp:
		*e = Alloc(typ.Elem())
	case UnknownOp:
		*e = Unknown(typ)
	case DerefOp, MemberOp, AddressOfOp, NotOp, EqOp, NotEqOp, AndOp, OrOp:
		*e = rebuild(Expr{op: op, name: r.Name, typ: typ}, r.Args)
	default:
		return fmt.Errorf("line %d: unknown expression operator %q", value.Line, r.Op)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (s Set) MarshalYAML() (interface{}, error) {
	if s.elems == nil {
		return []Expr{}, nil
	}
	return s.elems, nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (s *Set) UnmarshalYAML(value *yaml.Node) error {
	var elems []Expr
	if err := value.Decode(&elems); err != nil {
		return err
	}
	*s = NewSet(elems...)
	return nil
}
