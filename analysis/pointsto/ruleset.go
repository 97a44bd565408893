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

package pointsto

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-go-absint/analysis/expr"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
	"gopkg.in/yaml.v3"
)

// Rule states that Pointer points to one of Targets
type Rule struct {
	Pointer expr.Expr
	Targets Targets
}

func (r Rule) String() string {
	return fmt.Sprintf("%s -> %s", r.Pointer, r.Targets)
}

// RuleSet maps pointer access paths to their targets. The empty rule set is the bottom of the domain: nothing is
// known yet. A pointer without a rule has no information, which is different from a pointer whose targets are the
// empty concrete set.
//
// Rule sets are values: every operation returns a new rule set and never modifies its receiver.
type RuleSet struct {
	rules map[string]Rule
}

// NewRuleSet returns the rule set with the given rules. When two rules have the same pointer, the last one is kept.
func NewRuleSet(rules ...Rule) RuleSet {
	s := RuleSet{rules: make(map[string]Rule, len(rules))}
	for _, r := range rules {
		r.Pointer = expr.Normalise(r.Pointer)
		s.rules[r.Pointer.Key()] = r
	}
	return s
}

// Len returns the number of rules
func (s RuleSet) Len() int {
	return len(s.rules)
}

// IsEmpty returns true when s has no rule
func (s RuleSet) IsEmpty() bool {
	return len(s.rules) == 0
}

// Get returns the targets of pointer p
func (s RuleSet) Get(p expr.Expr) (Targets, bool) {
	r, ok := s.rules[expr.Normalise(p).Key()]
	return r.Targets, ok
}

// With returns s where the targets of r.Pointer are r.Targets
func (s RuleSet) With(r Rule) RuleSet {
	res := s.copy(len(s.rules) + 1)
	r.Pointer = expr.Normalise(r.Pointer)
	res.rules[r.Pointer.Key()] = r
	return res
}

// Filter returns the rules of s for which keep returns true
func (s RuleSet) Filter(keep func(Rule) bool) RuleSet {
	res := RuleSet{rules: make(map[string]Rule, len(s.rules))}
	for k, r := range s.rules {
		if keep(r) {
			res.rules[k] = r
		}
	}
	return res
}

// Rules returns the rules of s ordered by pointer
func (s RuleSet) Rules() []Rule {
	return funcutil.Map(funcutil.SortedKeys(s.rules), func(k string) Rule { return s.rules[k] })
}

// Equal returns true when s and t have the same rules
func (s RuleSet) Equal(t RuleSet) bool {
	if len(s.rules) != len(t.rules) {
		return false
	}
	for k, r := range s.rules {
		r2, ok := t.rules[k]
		if !ok || !r.Targets.Equal(r2.Targets) {
			return false
		}
	}
	return true
}

func (s RuleSet) String() string {
	return "{" + strings.Join(funcutil.Map(s.Rules(), Rule.String), "; ") + "}"
}

func (s RuleSet) copy(capacity int) RuleSet {
	res := RuleSet{rules: make(map[string]Rule, capacity)}
	for k, r := range s.rules {
		res.rules[k] = r
	}
	return res
}

// JoinRuleSets joins a and b pointwise. A pointer with a rule on one side only keeps that rule: the other side has
// no information about it yet.
func JoinRuleSets(a, b RuleSet) RuleSet {
	res := a.copy(len(a.rules) + len(b.rules))
	for k, r := range b.rules {
		if ra, ok := res.rules[k]; ok {
			res.rules[k] = Rule{Pointer: ra.Pointer, Targets: Join(ra.Targets, r.Targets)}
		} else {
			res.rules[k] = r
		}
	}
	return res
}

// ruleRecord is the serialized form of a rule. Rules without symbolic name have concrete targets.
type ruleRecord struct {
	Pointer  expr.Expr        `yaml:"pointer"`
	Symbolic []string         `yaml:"symbolic,omitempty,flow"`
	Concrete []ConcreteTarget `yaml:"concrete,omitempty"`
}

func recordOf(r Rule) ruleRecord {
	switch t := r.Targets.(type) {
	case SymbolicSet:
		return ruleRecord{Pointer: r.Pointer, Symbolic: t.Names()}
	case ConcreteSet:
		return ruleRecord{Pointer: r.Pointer, Concrete: t.Targets()}
	}
	return ruleRecord{Pointer: r.Pointer}
}

// MarshalYAML implements yaml.Marshaler
func (s RuleSet) MarshalYAML() (interface{}, error) {
	return funcutil.Map(s.Rules(), recordOf), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (s *RuleSet) UnmarshalYAML(value *yaml.Node) error {
	var records []ruleRecord
	if err := value.Decode(&records); err != nil {
		return err
	}
	rules := make([]Rule, len(records))
	for i, r := range records {
		if !expr.IsAccessPath(r.Pointer) {
			return fmt.Errorf("line %d: pointer %s is not an access path", value.Line, r.Pointer)
		}
		if len(r.Symbolic) > 0 {
			rules[i] = Rule{Pointer: r.Pointer, Targets: NewSymbolicSet(r.Symbolic...)}
		} else {
			rules[i] = Rule{Pointer: r.Pointer, Targets: NewConcreteSet(r.Concrete...)}
		}
	}
	*s = NewRuleSet(rules...)
	return nil
}
