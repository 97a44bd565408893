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

package summaries

import (
	"sync"

	"github.com/awslabs/ar-go-absint/internal/funcutil"
)

// Database maps procedure identifiers to their summary. A Database is safe for concurrent use: insertions are
// atomic per identifier, and readers either see the previous summary or the new one. The zero value is an empty
// database.
//
// Inserting a summary for an identifier that already has one replaces it silently. OnOverwrite and Inserted let
// callers detect when a procedure is summarized twice.
type Database struct {
	mu      sync.RWMutex
	entries map[string]Summary
	inserts map[string]int

	// OnOverwrite, when not nil, is called when Insert replaces a summary. It is called without holding the lock of
	// the database.
	OnOverwrite func(id string, previous, current Summary)
}

// NewDatabase returns an empty database
func NewDatabase() *Database {
	return &Database{entries: map[string]Summary{}, inserts: map[string]int{}}
}

// Insert stores s as the summary of id, replacing any previous summary of id
func (db *Database) Insert(id string, s Summary) {
	db.mu.Lock()
	if db.entries == nil {
		db.entries = map[string]Summary{}
		db.inserts = map[string]int{}
	}
	previous, existed := db.entries[id]
	db.entries[id] = s
	db.inserts[id]++
	hook := db.OnOverwrite
	db.mu.Unlock()
	if existed && hook != nil {
		hook(id, previous, s)
	}
}

// Lookup returns the summary of id
func (db *Database) Lookup(id string) (Summary, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	s, ok := db.entries[id]
	return s, ok
}

// Len returns the number of identifiers with a summary
func (db *Database) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.entries)
}

// Inserted returns the number of times a summary has been inserted for id
func (db *Database) Inserted(id string) int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.inserts[id]
}

// IDs returns the sorted identifiers with a summary
func (db *Database) IDs() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return funcutil.SortedKeys(db.entries)
}

// Range calls f on every summary, in the order of the identifiers, until f returns false. Range iterates over a
// snapshot of the database: f may insert summaries.
func (db *Database) Range(f func(id string, s Summary) bool) {
	db.mu.RLock()
	ids := funcutil.SortedKeys(db.entries)
	snapshot := make([]Summary, len(ids))
	for i, id := range ids {
		snapshot[i] = db.entries[id]
	}
	db.mu.RUnlock()
	for i, id := range ids {
		if !f(id, snapshot[i]) {
			return
		}
	}
}
