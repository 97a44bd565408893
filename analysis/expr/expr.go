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

// Package expr defines the immutable symbolic expressions used as guards in the control-flow graph and as facts in
// the abstract domains, together with access-path utilities.
//
// Expressions are compared by structural equality: two expressions are equal when their canonical renderings are
// equal. Symbols are identified by their name; their scope and type are attributes that do not take part in
// equality.
package expr

import (
	"strings"
)

// Op is the operator at the root of an expression
type Op int

const (
	invalidOp Op = iota
	SymbolOp
	NullOp
	ConstOp
	DerefOp
	MemberOp
	AddressOfOp
	NotOp
	EqOp
	NotEqOp
	AndOp
	OrOp
	AllocOp
	UnknownOp
)

var opNames = [...]string{
	invalidOp:   "invalid",
	SymbolOp:    "symbol",
	NullOp:      "null",
	ConstOp:     "const",
	DerefOp:     "deref",
	MemberOp:    "member",
	AddressOfOp: "address-of",
	NotOp:       "not",
	EqOp:        "eq",
	NotEqOp:     "neq",
	AndOp:       "and",
	OrOp:        "or",
	AllocOp:     "alloc",
	UnknownOp:   "unknown",
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "invalid"
	}
	return opNames[o]
}

func opOfString(s string) Op {
	for i, name := range opNames {
		if name == s {
			return Op(i)
		}
	}
	return invalidOp
}

// Scope is the naming scope of a symbol
type Scope int

const (
	// Local symbols are the variables and temporaries of a procedure
	Local Scope = iota
	// Param symbols are the formal parameters of a procedure, including the receiver
	Param
	// Global symbols are package-level variables, visible in every procedure
	Global
	// Return is the scope of the symbol that holds the value returned by a procedure
	Return
)

var scopeNames = [...]string{Local: "local", Param: "param", Global: "global", Return: "return"}

func (s Scope) String() string {
	if s < 0 || int(s) >= len(scopeNames) {
		return "local"
	}
	return scopeNames[s]
}

func scopeOfString(s string) Scope {
	for i, name := range scopeNames {
		if name == s {
			return Scope(i)
		}
	}
	return Local
}

// ReturnValueName is the name of the symbol holding the value returned by a procedure
const ReturnValueName = "return_value"

// Type is the type of an expression, as much as the analyses need to know about it
type Type struct {
	// Name is the printed type, e.g. "*bytes.Buffer"
	Name string
	// Pointer is true when values of the type may be compared to null and dereferenced
	Pointer bool
}

// PointerTo returns the type of pointers to t
func PointerTo(t Type) Type {
	return Type{Name: "*" + t.Name, Pointer: true}
}

// Elem returns the type obtained by dereferencing t. The result is a pointer if its name starts with "*".
func (t Type) Elem() Type {
	name := strings.TrimPrefix(t.Name, "*")
	return Type{Name: name, Pointer: strings.HasPrefix(name, "*")}
}

// Bool is the type of conditions
var Bool = Type{Name: "bool"}

// Expr is an immutable symbolic expression. The zero value is the invalid expression.
type Expr struct {
	op       Op
	name     string
	typ      Type
	scope    Scope
	operands []Expr
	text     string
	sig      string // operators and scopes in prefix order
	key      string
}

// Symbol returns the symbol name of type typ in the given scope
func Symbol(name string, typ Type, scope Scope) Expr {
	return mk(Expr{op: SymbolOp, name: name, typ: typ, scope: scope})
}

// ReturnValue returns the symbol that holds the value returned by a procedure whose result type is typ
func ReturnValue(typ Type) Expr {
	return Symbol(ReturnValueName, typ, Return)
}

// Null returns the null pointer constant
func Null() Expr {
	return mk(Expr{op: NullOp, typ: Type{Name: "nil", Pointer: true}})
}

// Const returns a constant whose rendering is text
func Const(text string, typ Type) Expr {
	return mk(Expr{op: ConstOp, name: text, typ: typ})
}

// True returns the boolean constant true
func True() Expr {
	return Const("true", Bool)
}

// False returns the boolean constant false
func False() Expr {
	return Const("false", Bool)
}

// Deref returns *e
func Deref(e Expr) Expr {
	return mk(Expr{op: DerefOp, typ: e.typ.Elem(), operands: []Expr{e}})
}

// Member returns e.field, of type typ
func Member(e Expr, field string, typ Type) Expr {
	return mk(Expr{op: MemberOp, name: field, typ: typ, operands: []Expr{e}})
}

// AddressOf returns &e
func AddressOf(e Expr) Expr {
	return mk(Expr{op: AddressOfOp, typ: PointerTo(e.typ), operands: []Expr{e}})
}

// Not returns !e
func Not(e Expr) Expr {
	return mk(Expr{op: NotOp, typ: Bool, operands: []Expr{e}})
}

// Eq returns a == b
func Eq(a, b Expr) Expr {
	return mk(Expr{op: EqOp, typ: Bool, operands: []Expr{a, b}})
}

// NotEq returns a != b
func NotEq(a, b Expr) Expr {
	return mk(Expr{op: NotEqOp, typ: Bool, operands: []Expr{a, b}})
}

// And returns a && b
func And(a, b Expr) Expr {
	return mk(Expr{op: AndOp, typ: Bool, operands: []Expr{a, b}})
}

// Or returns a || b
func Or(a, b Expr) Expr {
	return mk(Expr{op: OrOp, typ: Bool, operands: []Expr{a, b}})
}

// Alloc returns a fresh allocation of an object of type typ. The result has type *typ.
func Alloc(typ Type) Expr {
	return mk(Expr{op: AllocOp, name: typ.Name, typ: PointerTo(typ)})
}

// Unknown returns an expression whose value is not modelled
func Unknown(typ Type) Expr {
	return mk(Expr{op: UnknownOp, typ: typ})
}

// mk computes the rendering and the key of e. The key is the rendering followed by the operators and scopes of the
// tree, so that keys sort like renderings and expressions that only differ by an operator or a scope differ.
func mk(e Expr) Expr {
	var b strings.Builder
	e.render(&b)
	e.text = b.String()
	b.Reset()
	b.WriteByte(byte('a' + e.op))
	b.WriteByte(byte('0' + e.scope))
	for _, o := range e.operands {
		b.WriteString(o.sig)
	}
	e.sig = b.String()
	e.key = e.text + "\x00" + e.sig
	return e
}

// Op returns the operator of e
func (e Expr) Op() Op {
	return e.op
}

// IsValid returns false for the zero expression
func (e Expr) IsValid() bool {
	return e.op != invalidOp
}

// Name returns the name of a symbol, the field of a member expression, the text of a constant or the type name of
// an allocation. It returns "" for other expressions.
func (e Expr) Name() string {
	return e.name
}

// Type returns the type of e
func (e Expr) Type() Type {
	return e.typ
}

// IsPointer returns true if e has a pointer type
func (e Expr) IsPointer() bool {
	return e.typ.Pointer
}

// Scope returns the scope of a symbol. It returns Local for other expressions.
func (e Expr) Scope() Scope {
	return e.scope
}

// Operands returns a copy of the operands of e
func (e Expr) Operands() []Expr {
	return append([]Expr(nil), e.operands...)
}

// Operand returns the i-th operand of e, or the invalid expression
func (e Expr) Operand(i int) Expr {
	if i < 0 || i >= len(e.operands) {
		return Expr{}
	}
	return e.operands[i]
}

// Equal returns true when e and f are structurally equal: same operators, names and scopes. Types are not compared.
func (e Expr) Equal(f Expr) bool {
	return e.key == f.key
}

// Key returns the canonical key of e, suitable as a map key
func (e Expr) Key() string {
	return e.key
}

func (e Expr) String() string {
	if !e.IsValid() {
		return "<invalid>"
	}
	return e.text
}

func isBinary(op Op) bool {
	return op == EqOp || op == NotEqOp || op == AndOp || op == OrOp
}

func (e Expr) renderOperand(b *strings.Builder, i int, parens func(Op) bool) {
	o := e.operands[i]
	if parens(o.op) {
		b.WriteByte('(')
		b.WriteString(o.text)
		b.WriteByte(')')
	} else {
		b.WriteString(o.text)
	}
}

func (e *Expr) render(b *strings.Builder) {
	unaryParens := isBinary
	switch e.op {
	case SymbolOp, ConstOp:
		b.WriteString(e.name)
	case NullOp:
		b.WriteString("null")
	case DerefOp:
		b.WriteByte('*')
		e.renderOperand(b, 0, unaryParens)
	case AddressOfOp:
		b.WriteByte('&')
		e.renderOperand(b, 0, unaryParens)
	case NotOp:
		b.WriteByte('!')
		e.renderOperand(b, 0, unaryParens)
	case MemberOp:
		e.renderOperand(b, 0, func(op Op) bool {
			return isBinary(op) || op == DerefOp || op == AddressOfOp || op == NotOp
		})
		b.WriteByte('.')
		b.WriteString(e.name)
	case EqOp, NotEqOp, AndOp, OrOp:
		e.renderOperand(b, 0, isBinary)
		b.WriteString(map[Op]string{EqOp: " == ", NotEqOp: " != ", AndOp: " && ", OrOp: " || "}[e.op])
		e.renderOperand(b, 1, isBinary)
	case AllocOp:
		b.WriteString("new(")
		b.WriteString(e.name)
		b.WriteByte(')')
	case UnknownOp:
		b.WriteString("unknown")
	}
}

// Rewrite returns the expression obtained by applying f bottom-up to every sub-expression of e. Operands are rewritten
// first, then f is applied to the rebuilt node.
func Rewrite(e Expr, f func(Expr) Expr) Expr {
	if len(e.operands) == 0 {
		return f(e)
	}
	changed := false
	ops := make([]Expr, len(e.operands))
	for i, o := range e.operands {
		ops[i] = Rewrite(o, f)
		changed = changed || !ops[i].Equal(o)
	}
	if !changed {
		return f(e)
	}
	return f(rebuild(e, ops))
}

// rebuild returns e with its operands replaced by ops, recomputing derived types
func rebuild(e Expr, ops []Expr) Expr {
	switch e.op {
	case DerefOp:
		return Deref(ops[0])
	case AddressOfOp:
		return AddressOf(ops[0])
	case MemberOp:
		return Member(ops[0], e.name, e.typ)
	default:
		n := e
		n.operands = ops
		return mk(n)
	}
}

// Any returns true when pred holds for some sub-expression of e, including e itself
func Any(e Expr, pred func(Expr) bool) bool {
	if pred(e) {
		return true
	}
	for _, o := range e.operands {
		if Any(o, pred) {
			return true
		}
	}
	return false
}
