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

package tools

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validateHint(t *testing.T, errorMsg string, containedHint string) {
	hint := HintForErrorMessage(errorMsg)
	if !strings.Contains(hint, containedHint) {
		t.Fatalf("incorrect hint; check and update error message if necessary")
	}
}

func TestHintForFlagAfterFiles(t *testing.T) {
	errorMsg := "error: could not load program:\n -: named files must be .go files: -v"
	containedHint := "all command line flags should be before the path"
	validateHint(t, errorMsg, containedHint)
}

func TestHintForFailedLoadProgram(t *testing.T) {
	errorMsg := "error: could not load program:\n errors found, exiting\n"
	containedHint := "you have provided the right arguments to load a Go program"
	validateHint(t, errorMsg, containedHint)
}

func TestHintForUnknownStrategy(t *testing.T) {
	validateHint(t, `error: unknown call strategy "fast"`, "invalidate")
}

func TestHintForUnknownProcedure(t *testing.T) {
	validateHint(t, "error: unknown procedure main.F", "pkg-filter")
}

func TestNoHint(t *testing.T) {
	assert.Empty(t, HintForErrorMessage("error: something else"))
}

func TestParseCommonFlags(t *testing.T) {
	flags, err := NewUnparsedCommonFlags("test").Parse([]string{"-config", "c.yaml", "-verbose", "main.go"})
	require.NoError(t, err)
	assert.Equal(t, "c.yaml", flags.ConfigPath)
	assert.True(t, flags.Verbose)
	assert.Equal(t, []string{"main.go"}, flags.FlagSet.Args())
}

func TestLoadConfig(t *testing.T) {
	c, err := LoadConfig("", true)
	require.NoError(t, err)
	assert.Equal(t, int(config.DebugLevel), c.LogLevel)
	assert.Equal(t, config.SummariesStrategy, c.CallStrategy)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	assert.Error(t, err)
}
