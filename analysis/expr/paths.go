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

// IsIdentifier returns true when e is a symbol
func IsIdentifier(e Expr) bool {
	return e.op == SymbolOp
}

// IsMember returns true when e is a member access e'.f
func IsMember(e Expr) bool {
	return e.op == MemberOp
}

// IsNull returns true when e is the null constant
func IsNull(e Expr) bool {
	return e.op == NullOp
}

// IsAccessPath returns true when e denotes a memory location: a symbol, or a dereference or member access of an
// access path.
func IsAccessPath(e Expr) bool {
	switch e.op {
	case SymbolOp:
		return true
	case DerefOp, MemberOp:
		return IsAccessPath(e.operands[0])
	default:
		return false
	}
}

// IsHeapPath returns true when e is an access path that goes through memory, i.e. it is not a bare identifier.
func IsHeapPath(e Expr) bool {
	return IsAccessPath(e) && !IsIdentifier(e)
}

// IsPureLocal returns true when e is a symbol of the Local scope
func IsPureLocal(e Expr) bool {
	return e.op == SymbolOp && e.scope == Local
}

// Root returns the symbol at the root of an access path (or of an address-of expression of an access path).
func Root(e Expr) (Expr, bool) {
	for {
		switch e.op {
		case SymbolOp:
			return e, true
		case DerefOp, MemberOp, AddressOfOp:
			e = e.operands[0]
		default:
			return Expr{}, false
		}
	}
}

// Mentions returns true when the symbol called name appears in e
func Mentions(e Expr, name string) bool {
	return Any(e, func(x Expr) bool { return x.op == SymbolOp && x.name == name })
}

// Symbols returns the symbols appearing in e, without duplicates, in order of first appearance
func Symbols(e Expr) []Expr {
	var res []Expr
	seen := map[string]bool{}
	Any(e, func(x Expr) bool {
		if x.op == SymbolOp && !seen[x.name] {
			seen[x.name] = true
			res = append(res, x)
		}
		return false
	})
	return res
}

// AddressTaken returns true when &s appears in e for the symbol s called name
func AddressTaken(e Expr, name string) bool {
	return Any(e, func(x Expr) bool {
		return x.op == AddressOfOp && x.operands[0].op == SymbolOp && x.operands[0].name == name
	})
}

// Substitute replaces every occurrence of the symbol called name in e by replacement, and normalises the result.
func Substitute(e Expr, name string, replacement Expr) Expr {
	return Normalise(Rewrite(e, func(x Expr) Expr {
		if x.op == SymbolOp && x.name == name {
			return replacement
		}
		return x
	}))
}

// Normalise simplifies e with the rules *&x → x, &*x → x, !!x → x, !(a == b) → a != b and !(a != b) → a == b,
// applied bottom-up.
func Normalise(e Expr) Expr {
	return Rewrite(e, normaliseNode)
}

func normaliseNode(e Expr) Expr {
	switch e.op {
	case DerefOp:
		if o := e.operands[0]; o.op == AddressOfOp {
			return o.operands[0]
		}
	case AddressOfOp:
		if o := e.operands[0]; o.op == DerefOp {
			return o.operands[0]
		}
	case NotOp:
		o := e.operands[0]
		switch o.op {
		case NotOp:
			return o.operands[0]
		case EqOp:
			return NotEq(o.operands[0], o.operands[1])
		case NotEqOp:
			return Eq(o.operands[0], o.operands[1])
		}
	}
	return e
}

// NullComparison recognizes the guards e == null and e != null (in either operand order, after normalisation)
// where e is an access path. It returns e and true for e != null, e and false for e == null.
func NullComparison(guard Expr) (e Expr, nonNull bool, ok bool) {
	g := Normalise(guard)
	if g.op != EqOp && g.op != NotEqOp {
		return Expr{}, false, false
	}
	a, b := g.operands[0], g.operands[1]
	if IsNull(a) {
		a, b = b, a
	}
	if !IsNull(b) || !IsAccessPath(a) {
		return Expr{}, false, false
	}
	return a, g.op == NotEqOp, true
}

// CallSite is the information needed to translate expressions from the scope of a callee to the scope of one of
// its callers.
type CallSite struct {
	// Caller is the identifier of the calling procedure
	Caller string
	// Callee is the identifier of the called procedure
	Callee string
	// Location is the location number of the call instruction
	Location int
	// Formals are the parameter symbols of the callee, receiver first
	Formals []Expr
	// Actuals are the arguments of the call, in the order of Formals
	Actuals []Expr
	// Result is the expression of the caller that receives the returned value. It is invalid when the result is
	// discarded.
	Result Expr
}

// ScopeTranslation translates the expression path from the scope of the callee of site to the scope of its caller.
// Parameters are replaced by the corresponding arguments, the return value by the call's result and globals are
// unchanged. The translation fails when path mentions a local of the callee, a parameter without an argument, the
// discarded result of the call or an argument whose value is unknown.
func ScopeTranslation(path Expr, site CallSite) (Expr, bool) {
	ok := true
	res := Rewrite(path, func(x Expr) Expr {
		if x.op != SymbolOp || !ok {
			return x
		}
		switch x.scope {
		case Global:
			return x
		case Return:
			if !site.Result.IsValid() {
				ok = false
				return x
			}
			return site.Result
		case Param:
			for i, f := range site.Formals {
				if f.name == x.name {
					if i >= len(site.Actuals) || !site.Actuals[i].IsValid() {
						break
					}
					return site.Actuals[i]
				}
			}
			ok = false
			return x
		default:
			ok = false
			return x
		}
	})
	if !ok || Any(res, func(x Expr) bool { return x.op == UnknownOp }) {
		return Expr{}, false
	}
	return Normalise(res), true
}
