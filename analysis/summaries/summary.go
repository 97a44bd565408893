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

// Package summaries defines the summaries of procedures, the database that stores them during an analysis run, a
// directory-backed store that persists them across runs, and the models of library functions.
package summaries

import (
	"gopkg.in/yaml.v3"
)

// Summary is the reusable result of the analysis of one procedure. Summaries are never mutated once inserted in a
// Database.
type Summary interface {
	// Kind discriminates the analysis that produced the summary
	Kind() string

	// Description returns a short human-readable description of the summary
	Description() string
}

// Serializable is a summary that can be persisted in a Store. The store decodes it with the Decoder registered for
// its kind.
type Serializable interface {
	Summary
	yaml.Marshaler
}

// Decoder decodes a summary persisted by a Store
type Decoder func(node *yaml.Node) (Summary, error)

// Find returns the summary of id when it exists, is of the given kind and has type T.
// Absent summaries and summaries of another kind are not errors: the caller falls back to its default behavior.
func Find[T Summary](db *Database, id string, kind string) (T, bool) {
	var zero T
	s, ok := db.Lookup(id)
	if !ok || s.Kind() != kind {
		return zero, false
	}
	t, ok := s.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
