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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
	"gopkg.in/yaml.v3"
)

// IndexFile is the name of the file mapping procedure identifiers to summary files in a store directory
const IndexFile = "__index.yaml"

// Store persists the summaries of a Database in a directory, one yaml file per summary. The index file of the
// directory maps procedure identifiers to file names.
type Store struct {
	dir      string
	db       *Database
	logger   *config.LogGroup
	mu       sync.Mutex
	decoders map[string]Decoder
	// index maps procedure identifiers to file names relative to dir
	index map[string]string
	// files is the set of file names in the index
	files map[string]bool
}

// entry is the content of a summary file
type entry struct {
	ID      string      `yaml:"id"`
	Kind    string      `yaml:"kind"`
	Summary interface{} `yaml:"summary"`
}

// rawEntry is an entry whose summary has not been decoded yet
type rawEntry struct {
	ID      string    `yaml:"id"`
	Kind    string    `yaml:"kind"`
	Summary yaml.Node `yaml:"summary"`
}

// OpenStore opens the store in directory dir, creating the directory if it does not exist, and reads its index.
// Summaries are loaded into and saved from db.
func OpenStore(dir string, db *Database, logger *config.LogGroup) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("could not create summaries directory: %w", err)
	}
	s := &Store{
		dir:      dir,
		db:       db,
		logger:   logger,
		decoders: map[string]Decoder{},
		index:    map[string]string{},
		files:    map[string]bool{},
	}
	b, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read summaries index: %w", err)
	}
	if err := yaml.Unmarshal(b, &s.index); err != nil {
		return nil, fmt.Errorf("could not parse summaries index %s: %w", filepath.Join(dir, IndexFile), err)
	}
	if s.index == nil {
		s.index = map[string]string{}
	}
	for id, f := range s.index {
		if !isStoreFileName(f) {
			return nil, fmt.Errorf("summaries index %s: invalid file name %q for %s",
				filepath.Join(dir, IndexFile), f, id)
		}
		s.files[f] = true
	}
	return s, nil
}

// isStoreFileName returns true when name is the name of a summary file directly inside a store directory
func isStoreFileName(name string) bool {
	return filepath.IsLocal(name) && !strings.ContainsAny(name, `/\`) && name != IndexFile
}

// RegisterDecoder sets the decoder of the summaries of the given kind
func (s *Store) RegisterDecoder(kind string, d Decoder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decoders[kind] = d
}

// Dir returns the directory of the store
func (s *Store) Dir() string {
	return s.dir
}

// IDs returns the sorted identifiers of the summaries in the store
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return funcutil.SortedKeys(s.index)
}

// Save writes the summary of id in the store. The summary must be Serializable.
func (s *Store) Save(id string) error {
	summary, ok := s.db.Lookup(id)
	if !ok {
		return fmt.Errorf("no summary for %s", id)
	}
	ser, ok := summary.(Serializable)
	if !ok {
		return fmt.Errorf("summary of %s (%s) cannot be persisted", id, summary.Kind())
	}
	b, err := yaml.Marshal(entry{ID: id, Kind: summary.Kind(), Summary: ser})
	if err != nil {
		return fmt.Errorf("could not encode summary of %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	file, ok := s.index[id]
	if !ok {
		file = s.fileName(id)
	}
	if err := writeFile(filepath.Join(s.dir, file), b); err != nil {
		return err
	}
	if !ok {
		s.index[id] = file
		s.files[file] = true
		return s.writeIndex()
	}
	return nil
}

// SaveAll saves every serializable summary of the database, and returns the number of summaries saved.
// Summaries that cannot be persisted are skipped.
func (s *Store) SaveAll() (int, error) {
	n := 0
	var errs []error
	s.db.Range(func(id string, summary Summary) bool {
		if _, ok := summary.(Serializable); !ok {
			s.logger.Debugf("summary of %s (%s) is not persisted\n", id, summary.Kind())
			return true
		}
		if err := s.Save(id); err != nil {
			errs = append(errs, err)
		} else {
			n++
		}
		return true
	})
	return n, errors.Join(errs...)
}

// Load reads the summary of id from the store and inserts it in the database
func (s *Store) Load(id string) error {
	s.mu.Lock()
	file, ok := s.index[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no summary for %s in %s", id, s.dir)
	}
	b, err := os.ReadFile(filepath.Join(s.dir, file))
	if err != nil {
		return fmt.Errorf("could not read summary of %s: %w", id, err)
	}
	var raw rawEntry
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("could not parse summary file %s: %w", file, err)
	}
	if raw.ID != id {
		return fmt.Errorf("summary file %s is for %s, not %s", file, raw.ID, id)
	}
	s.mu.Lock()
	decode, ok := s.decoders[raw.Kind]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no decoder for summaries of kind %s", raw.Kind)
	}
	summary, err := decode(&raw.Summary)
	if err != nil {
		return fmt.Errorf("could not decode summary of %s: %w", id, err)
	}
	s.db.Insert(id, summary)
	return nil
}

// LoadAll loads every summary of the store whose kind has a decoder, and returns the number of summaries loaded.
func (s *Store) LoadAll() (int, error) {
	n := 0
	var errs []error
	for _, id := range s.IDs() {
		if err := s.Load(id); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	if n > 0 {
		s.logger.Infof("loaded %d summaries from %s\n", n, s.dir)
	}
	return n, errors.Join(errs...)
}

// fileName returns a file name for id that is not used in the store. It must be called with the lock held.
func (s *Store) fileName(id string) string {
	base := sanitize(id)
	name := base + ".yaml"
	for i := 1; s.files[name]; i++ {
		name = fmt.Sprintf("%s_%d.yaml", base, i)
	}
	return name
}

func (s *Store) writeIndex() error {
	b, err := yaml.Marshal(s.index)
	if err != nil {
		return fmt.Errorf("could not encode summaries index: %w", err)
	}
	return writeFile(filepath.Join(s.dir, IndexFile), b)
}

// sanitize replaces the characters of id that are not safe in file names
func sanitize(id string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, id)
	name = strings.TrimLeft(name, ".")
	if name == "" || strings.HasPrefix(name, "__") {
		name = "s" + name
	}
	return name
}

// writeFile replaces the contents of the file at path with b
func writeFile(path string, b []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0600); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}
