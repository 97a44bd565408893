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
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
)

// Models holds the models of the library functions, by function identifier. Models are built once by the driver
// from its configuration and passed explicitly to the analyses.
type Models struct {
	byFunction map[string]config.LibraryModel
}

// NewModels returns the models of the standard library, overridden and extended by the library models of the
// configuration. A nil configuration only gives the standard models.
func NewModels(c *config.Config) *Models {
	m := &Models{byFunction: map[string]config.LibraryModel{}}
	for _, model := range standardModels {
		m.byFunction[model.Function] = model
	}
	if c != nil {
		for _, model := range c.LibraryModels {
			m.byFunction[model.Function] = model
		}
	}
	return m
}

// Lookup returns the model of the function with identifier fn
func (m *Models) Lookup(fn string) (config.LibraryModel, bool) {
	model, ok := m.byFunction[fn]
	return model, ok
}

// Functions returns the sorted identifiers of the modelled functions
func (m *Models) Functions() []string {
	return funcutil.SortedKeys(m.byFunction)
}

// Len returns the number of models
func (m *Models) Len() int {
	return len(m.byFunction)
}
