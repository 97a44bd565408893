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

package config

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/awslabs/ar-go-absint/internal/funcutil"
	"gopkg.in/yaml.v3"
)

const (
	// NullCheckAnalysis is the name of the null-check analysis in the "analyses" list
	NullCheckAnalysis = "nullcheck"

	// PointsToAnalysis is the name of the pointer-target analysis in the "analyses" list
	PointsToAnalysis = "pointsto"

	// InvalidateStrategy is the call strategy that clears all facts at every call
	InvalidateStrategy = "invalidate"

	// SummariesStrategy is the call strategy that splices the callee's summary when one is available
	SummariesStrategy = "summaries"

	// DefaultNumRoutines is the default number of procedures analyzed in parallel
	DefaultNumRoutines = 4
)

// Config contains the options of the analyses, the list of analyses to run and the library models.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp

	// Analyses lists the analyses to run. An empty list means all analyses.
	Analyses []string `yaml:"analyses"`

	// LibraryModels lists the models of functions whose body is not analyzed
	LibraryModels []LibraryModel `yaml:"library-models"`
}

// LibraryModel describes the effect of a library function on the facts of its caller
type LibraryModel struct {
	// Function is the identifier of the modelled procedure
	Function string `yaml:"function"`

	// NonNullArgs lists the indexes of the arguments that are non-null after the call returns
	NonNullArgs []int `yaml:"non-null-args"`

	// ReturnsNonNull is true when the result of the function is never null
	ReturnsNonNull bool `yaml:"returns-non-null"`

	// ReturnsFresh is true when the result of the function is a freshly allocated object
	ReturnsFresh bool `yaml:"returns-fresh"`

	// NoEffect is true when the function does not modify any memory visible to its caller
	NoEffect bool `yaml:"no-effect"`
}

// Options are the global settings of the analyses
type Options struct {
	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// CallStrategy is either "invalidate" or "summaries". With "invalidate", every call clears all the facts; with
	// "summaries", the summary of the callee is spliced into the caller's state when one is available.
	CallStrategy string `yaml:"call-strategy"`

	// SummariesDir is the directory where summaries are persisted. If empty, summaries only live in memory.
	SummariesDir string `yaml:"summaries-dir"`

	// ReportsDir is the directory where the reports will be stored. If empty, reports are written on the standard
	// output.
	ReportsDir string `yaml:"reports-dir"`

	// KeepDomain can be set to true to keep the per-location states of a procedure inside its summary
	KeepDomain bool `yaml:"keep-domain"`

	// NumRoutines is the number of procedures of the same call graph level that are analyzed in parallel
	NumRoutines int `yaml:"num-routines"`

	// PkgFilter is a regex restricting the Go packages whose functions are converted and analyzed
	PkgFilter string `yaml:"pkg-filter"`
}

// NewDefault returns a default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:    "",
		Analyses:      []string{NullCheckAnalysis, PointsToAnalysis},
		LibraryModels: nil,
		Options: Options{
			LogLevel:     int(InfoLevel),
			CallStrategy: SummariesStrategy,
			SummariesDir: "",
			ReportsDir:   "",
			KeepDomain:   false,
			NumRoutines:  DefaultNumRoutines,
			PkgFilter:    "",
		},
	}
}

// Load reads a configuration from the contents of a yaml file. The filename is only used to resolve relative
// paths and in error messages.
func Load(filename string, contents []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}
	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.LogLevel < int(ErrLevel) || cfg.LogLevel > int(TraceLevel) {
		return nil, fmt.Errorf("invalid log-level %d in %s", cfg.LogLevel, filename)
	}
	if cfg.NumRoutines <= 0 {
		cfg.NumRoutines = DefaultNumRoutines
	}

	switch cfg.CallStrategy {
	case "":
		cfg.CallStrategy = SummariesStrategy
	case InvalidateStrategy, SummariesStrategy:
	default:
		return nil, fmt.Errorf("invalid call-strategy %q in %s", cfg.CallStrategy, filename)
	}

	if len(cfg.Analyses) == 0 {
		cfg.Analyses = []string{NullCheckAnalysis, PointsToAnalysis}
	}
	for _, a := range cfg.Analyses {
		if a != NullCheckAnalysis && a != PointsToAnalysis {
			return nil, fmt.Errorf("unknown analysis %q in %s", a, filename)
		}
	}

	seen := map[string]bool{}
	for _, m := range cfg.LibraryModels {
		if m.Function == "" {
			return nil, fmt.Errorf("library model without function in %s", filename)
		}
		if seen[m.Function] {
			return nil, fmt.Errorf("duplicate library model for %s in %s", m.Function, filename)
		}
		seen[m.Function] = true
		if funcutil.Exists(m.NonNullArgs, func(i int) bool { return i < 0 }) {
			return nil, fmt.Errorf("negative argument index in library model for %s", m.Function)
		}
	}

	if cfg.PkgFilter != "" {
		r, err := regexp.Compile(cfg.PkgFilter)
		if err == nil {
			cfg.pkgFilterRegex = r
		}
	}

	return cfg, nil
}

// LoadFile reads the file at filename and loads the configuration it contains
func LoadFile(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return Load(filename, b)
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	if filename == "" || path.IsAbs(filename) || c.sourceFile == "" {
		return filename
	}
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchPkgFilter returns true if the package name pkgname matches the package filter set in the config file. If no
// package filter has been set in the config file, the regex will match anything and return true. This function safely
// considers the case where a filter has been specified by the user, but it could not be compiled to a regex. The safe
// case is to check whether the package filter string is a prefix of the pkgname
func (c Config) MatchPkgFilter(pkgname string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgname)
	} else if c.PkgFilter != "" {
		return strings.HasPrefix(pkgname, c.PkgFilter)
	} else {
		return true
	}
}

// Runs returns true if the analysis named name is enabled
func (c Config) Runs(name string) bool {
	return funcutil.Contains(c.Analyses, name)
}

// UseSummaries returns true when calls are resolved with the callee's summaries
func (c Config) UseSummaries() bool {
	return c.CallStrategy == SummariesStrategy
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}
