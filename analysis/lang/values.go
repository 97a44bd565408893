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

package lang

import (
	"go/token"

	"golang.org/x/tools/go/ssa"
)

// IsNil returns true if v is the constant nil
func IsNil(v ssa.Value) bool {
	c, ok := v.(*ssa.Const)
	return ok && c.IsNil()
}

// MatchNilCheck returns the value y when v is a comparison of the form 'y == nil' or 'y != nil', or 'nil == y' and
// 'nil != y'. The boolean is true if the comparison is an equality.
func MatchNilCheck(v ssa.Value) (ssa.Value, bool, bool) {
	x, ok := v.(*ssa.BinOp)
	if !ok || (x.Op != token.EQL && x.Op != token.NEQ) {
		return nil, false, false
	}
	switch {
	case IsNil(x.Y) && !IsNil(x.X):
		return x.X, x.Op == token.EQL, true
	case IsNil(x.X) && !IsNil(x.Y):
		return x.Y, x.Op == token.EQL, true
	default:
		return nil, false, false
	}
}

// MatchNegation returns a non-nil ssa value if x is the negation of some value y, in which case y is returned.
func MatchNegation(x ssa.Value) ssa.Value {
	v, ok := x.(*ssa.UnOp)
	if ok && v.Op == token.NOT {
		return v.X
	}
	return nil
}
