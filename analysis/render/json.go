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

package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/awslabs/ar-go-absint/analysis/summaries"
	"gopkg.in/yaml.v3"
)

// entry is the exported form of a summary. Summaries that cannot be serialized only have a description.
type entry struct {
	Kind        string      `json:"kind"`
	Description string      `json:"description,omitempty"`
	Summary     interface{} `json:"summary,omitempty"`
}

// JSON writes the summaries of db as a JSON object mapping procedure identifiers to summaries. Serializable
// summaries are exported in the same form as in a summaries.Store.
func JSON(w io.Writer, db *summaries.Database) error {
	out := map[string]entry{}
	var err error
	db.Range(func(id string, s summaries.Summary) bool {
		e := entry{Kind: s.Kind()}
		if ser, ok := s.(summaries.Serializable); ok {
			e.Summary, err = plain(ser)
			if err != nil {
				err = fmt.Errorf("failed to export summary of %s: %w", id, err)
				return false
			}
		} else {
			e.Description = s.Description()
		}
		out[id] = e
		return true
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// plain returns the yaml form of m as maps, slices and scalars that encoding/json accepts
func plain(m yaml.Marshaler) (interface{}, error) {
	b, err := yaml.Marshal(m)
	if err != nil {
		return nil, err
	}
	var v interface{}
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return stringKeys(v), nil
}

// stringKeys converts the maps with non-string keys produced by yaml into maps with string keys
func stringKeys(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		for k, x := range v {
			v[k] = stringKeys(x)
		}
		return v
	case map[interface{}]interface{}:
		res := make(map[string]interface{}, len(v))
		for k, x := range v {
			res[fmt.Sprint(k)] = stringKeys(x)
		}
		return res
	case []interface{}:
		for i, x := range v {
			v[i] = stringKeys(x)
		}
		return v
	default:
		return v
	}
}
