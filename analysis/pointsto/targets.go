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

// Package pointsto implements the pointer-target analysis: at every instruction, it maps pointer access paths to
// the objects they may point to.
//
// The objects a pointer may point to are either enumerated (a ConcreteSet of allocation sites and variables) or
// unresolved (a SymbolicSet standing for the objects reachable from outside the procedure, for example the object
// a parameter points to). A symbolic set absorbs any concrete set it is joined with.
package pointsto

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Targets is the set of objects a pointer may point to. It is either a SymbolicSet or a ConcreteSet.
type Targets interface {
	fmt.Stringer

	// Equal returns true when the two sets are the same variant with the same content
	Equal(Targets) bool

	isTargets()
}

// SymbolicSet is an unresolved set of objects. Each of its names is unique in an analysis run and stands for the
// objects of one external reference; a set with several names is the union of the objects of each name.
type SymbolicSet struct {
	names []string // sorted, without duplicates
}

func (SymbolicSet) isTargets() {}

// NewSymbolicSet returns the union of the symbolic sets named names
func NewSymbolicSet(names ...string) SymbolicSet {
	ns := append([]string{}, names...)
	slices.Sort(ns)
	return SymbolicSet{names: slices.Compact(ns)}
}

// Names returns the names of the set, in order
func (s SymbolicSet) Names() []string {
	return s.names
}

func (s SymbolicSet) String() string {
	return "?" + strings.Join(s.names, "|?")
}

// Equal returns true when t is the symbolic set with the same names
func (s SymbolicSet) Equal(t Targets) bool {
	t2, ok := t.(SymbolicSet)
	return ok && slices.Equal(s.names, t2.names)
}

// Union returns the symbolic set with the names of both sets
func (s SymbolicSet) Union(t SymbolicSet) SymbolicSet {
	return NewSymbolicSet(append(append([]string{}, s.names...), t.names...)...)
}

// ConcreteTarget identifies an object: a variable or an allocation site
type ConcreteTarget struct {
	// Function is the procedure owning the object, empty for globals
	Function string `yaml:"function,omitempty" json:"function,omitempty"`
	// Location is the location of the allocation or of the declaration of the variable (0 when unknown)
	Location int `yaml:"location" json:"location"`
	// Name is the name of the variable, or the allocation expression
	Name string `yaml:"name" json:"name"`
}

func (t ConcreteTarget) String() string {
	if t.Function == "" {
		return t.Name
	}
	return fmt.Sprintf("%s:%d:%s", t.Function, t.Location, t.Name)
}

func (t ConcreteTarget) compare(u ConcreteTarget) int {
	if c := strings.Compare(t.Function, u.Function); c != 0 {
		return c
	}
	if t.Location != u.Location {
		if t.Location < u.Location {
			return -1
		}
		return 1
	}
	return strings.Compare(t.Name, u.Name)
}

// ConcreteSet is an enumerated set of objects. The empty set means the pointer provably points to nothing, i.e. it
// is null.
type ConcreteSet struct {
	targets []ConcreteTarget // sorted, without duplicates
}

func (ConcreteSet) isTargets() {}

// NewConcreteSet returns the set of the given targets
func NewConcreteSet(targets ...ConcreteTarget) ConcreteSet {
	ts := append([]ConcreteTarget{}, targets...)
	slices.SortFunc(ts, func(t, u ConcreteTarget) bool { return t.compare(u) < 0 })
	return ConcreteSet{targets: slices.Compact(ts)}
}

// Targets returns the objects of the set, in order
func (c ConcreteSet) Targets() []ConcreteTarget {
	return c.targets
}

// Len returns the number of objects
func (c ConcreteSet) Len() int {
	return len(c.targets)
}

// IsEmpty returns true when the set has no object
func (c ConcreteSet) IsEmpty() bool {
	return len(c.targets) == 0
}

// Contains returns true when t is in the set
func (c ConcreteSet) Contains(t ConcreteTarget) bool {
	_, found := slices.BinarySearchFunc(c.targets, t, ConcreteTarget.compare)
	return found
}

// Union returns the objects of both sets
func (c ConcreteSet) Union(d ConcreteSet) ConcreteSet {
	return NewConcreteSet(append(append([]ConcreteTarget{}, c.targets...), d.targets...)...)
}

// Equal returns true when t is a concrete set with the same objects
func (c ConcreteSet) Equal(t Targets) bool {
	d, ok := t.(ConcreteSet)
	return ok && slices.Equal(c.targets, d.targets)
}

func (c ConcreteSet) String() string {
	strs := make([]string, len(c.targets))
	for i, t := range c.targets {
		strs[i] = t.String()
	}
	return "{" + strings.Join(strs, ", ") + "}"
}

// Join returns the least set containing a and b. The union of two concrete sets is concrete, the union of two
// symbolic sets has the names of both, and a symbolic set absorbs a concrete one.
func Join(a, b Targets) Targets {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	switch a := a.(type) {
	case SymbolicSet:
		if b, ok := b.(SymbolicSet); ok {
			return a.Union(b)
		}
		return a
	case ConcreteSet:
		switch b := b.(type) {
		case SymbolicSet:
			return b
		case ConcreteSet:
			return a.Union(b)
		}
	}
	panic(fmt.Sprintf("unexpected targets %T and %T", a, b))
}

// MayAlias returns true when pointers to a and b may point to the same object: when one of them is symbolic or the
// two concrete sets share an object.
func MayAlias(a, b Targets) bool {
	ca, ok := a.(ConcreteSet)
	if !ok {
		return true
	}
	cb, ok := b.(ConcreteSet)
	if !ok {
		return true
	}
	for _, t := range ca.targets {
		if cb.Contains(t) {
			return true
		}
	}
	return false
}
