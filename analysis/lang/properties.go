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
	"go/types"
)

// IsNillableType returns true if t is a type that can have the nil value.
func IsNillableType(t types.Type) bool {
	switch t.(type) {
	case *types.Pointer, *types.Interface, *types.Slice, *types.Map, *types.Chan, *types.Signature:
		return true
	case *types.Named:
		return IsNillableType(t.Underlying())
	default:
		return false
	}
}

// IsPointerType returns true if the values of t are pointers that can be dereferenced
func IsPointerType(t types.Type) bool {
	_, ok := t.Underlying().(*types.Pointer)
	return ok
}

// FieldName returns the name of the i-th field of the struct t, or of the struct t points to. If it cannot find a
// proper field name, it returns "?"
func FieldName(t types.Type, i int) string {
	switch typ := t.Underlying().(type) {
	case *types.Pointer:
		return FieldName(typ.Elem(), i)
	case *types.Struct:
		if 0 <= i && i < typ.NumFields() {
			return typ.Field(i).Name()
		}
	}
	return "?"
}
