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
	"strings"

	"golang.org/x/exp/slices"
)

// Set is a set of expressions with a deterministic order. Sets are values: every operation returns a new set and
// never modifies its receiver.
type Set struct {
	// elems is sorted by key, without duplicates
	elems []Expr
}

// NewSet returns the set containing elems
func NewSet(elems ...Expr) Set {
	s := Set{}
	for _, e := range elems {
		s = s.With(e)
	}
	return s
}

func compareKeys(a, b Expr) int {
	return strings.Compare(a.key, b.key)
}

func (s Set) search(e Expr) (int, bool) {
	return slices.BinarySearchFunc(s.elems, e, compareKeys)
}

// Len returns the number of elements of s
func (s Set) Len() int {
	return len(s.elems)
}

// IsEmpty returns true when s has no element
func (s Set) IsEmpty() bool {
	return len(s.elems) == 0
}

// Contains returns true when e is in s
func (s Set) Contains(e Expr) bool {
	_, found := s.search(e)
	return found
}

// With returns s ∪ {e}
func (s Set) With(e Expr) Set {
	i, found := s.search(e)
	if found {
		return s
	}
	return Set{elems: slices.Insert(slices.Clip(s.elems), i, e)}
}

// Union returns s ∪ t
func (s Set) Union(t Set) Set {
	res := make([]Expr, 0, len(s.elems)+len(t.elems))
	i, j := 0, 0
	for i < len(s.elems) && j < len(t.elems) {
		switch a, b := s.elems[i], t.elems[j]; {
		case a.key < b.key:
			res = append(res, a)
			i++
		case a.key > b.key:
			res = append(res, b)
			j++
		default:
			res = append(res, a)
			i++
			j++
		}
	}
	res = append(res, s.elems[i:]...)
	res = append(res, t.elems[j:]...)
	return Set{elems: res}
}

// Intersect returns s ∩ t
func (s Set) Intersect(t Set) Set {
	return s.Filter(t.Contains)
}

// Filter returns the elements of s satisfying keep
func (s Set) Filter(keep func(Expr) bool) Set {
	var res []Expr
	for _, e := range s.elems {
		if keep(e) {
			res = append(res, e)
		}
	}
	return Set{elems: res}
}

// Elements returns the elements of s in order
func (s Set) Elements() []Expr {
	return append([]Expr(nil), s.elems...)
}

// Equal returns true when s and t have the same elements
func (s Set) Equal(t Set) bool {
	return slices.EqualFunc(s.elems, t.elems, Expr.Equal)
}

func (s Set) String() string {
	parts := make([]string, len(s.elems))
	for i, e := range s.elems {
		parts[i] = e.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
