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

package ssafrontend

import (
	"errors"
	"fmt"
	"go/token"
	"sort"

	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/analysis/config"
	"github.com/awslabs/ar-go-absint/analysis/lang"
	"github.com/awslabs/ar-go-absint/analysis/summaries"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// PkgLoadMode is the default loading mode in the analyses. We load all possible information
const PkgLoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedTypesSizes |
	packages.NeedModule

// LoadSSA loads the packages matching args, and builds the SSA form of the whole program. A nil config loads the
// packages with PkgLoadMode, without tests.
func LoadSSA(pkgConfig *packages.Config, args []string) (*ssa.Program, error) {
	if pkgConfig == nil {
		pkgConfig = &packages.Config{
			Mode:  PkgLoadMode,
			Tests: false,
			Fset:  token.NewFileSet(),
		}
	}
	initialPackages, err := packages.Load(pkgConfig, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if len(initialPackages) == 0 {
		return nil, fmt.Errorf("no packages")
	}
	if packages.PrintErrors(initialPackages) > 0 {
		return nil, fmt.Errorf("errors found, exiting")
	}
	program, ssaPackages := ssautil.AllPackages(initialPackages, ssa.InstantiateGenerics)
	for i, p := range ssaPackages {
		if p == nil {
			return nil, fmt.Errorf("cannot build SSA for package %s", initialPackages[i])
		}
	}
	program.Build()
	return program, nil
}

// Program converts the functions of prog that have a body and belong to a package matching the package filter of
// c. Functions of the standard library are left to the library models. A function that cannot be converted is
// reported in the returned error, and the others are still part of the result.
func Program(c *config.Config, logger *config.LogGroup, prog *ssa.Program) (*cfg.Program, error) {
	var fns []*ssa.Function
	for fn := range ssautil.AllFunctions(prog) {
		if lang.IsExternal(fn) {
			continue
		}
		pkg := lang.PackageNameFromFunction(fn)
		if summaries.IsStdPackageName(pkg) || !c.MatchPkgFilter(pkg) {
			continue
		}
		fns = append(fns, fn)
	}
	sort.Slice(fns, func(i, j int) bool { return ID(fns[i]) < ID(fns[j]) })

	res := cfg.NewProgram()
	var errs []error
	for _, fn := range fns {
		if _, err := AddFunction(res, fn); err != nil {
			logger.Warnf("Could not convert %s: %v", ID(fn), err)
			errs = append(errs, err)
		}
	}
	logger.Infof("Converted %d functions to procedures (%d failed)", res.Len(), len(errs))
	return res, errors.Join(errs...)
}

// Load loads the packages matching args and converts their functions. See Program.
func Load(c *config.Config, logger *config.LogGroup, args []string) (*cfg.Program, error) {
	prog, err := LoadSSA(nil, args)
	if err != nil {
		return nil, err
	}
	return Program(c, logger, prog)
}
