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

// Package analysistest contains the helpers of the tests that analyze Go source code.
package analysistest

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"regexp"
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Source is a single-file Go package built to SSA
type Source struct {
	Fset    *token.FileSet
	File    *ast.File
	Package *ssa.Package
}

// Build parses and type-checks src as the file main.go of a package, and builds the SSA form of the package. The
// test fails if the source does not compile.
func Build(t *testing.T, src string) *Source {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "main.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("failed to parse source: %v", err)
	}
	pkg := types.NewPackage(f.Name.Name, f.Name.Name)
	conf := &types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	ssaPkg, _, err := ssautil.BuildPackage(conf, fset, pkg, []*ast.File{f}, ssa.SanityCheckFunctions)
	if err != nil {
		t.Fatalf("failed to build SSA: %v", err)
	}
	return &Source{Fset: fset, File: f, Package: ssaPkg}
}

// Function returns the function name of the package. The test fails if there is none.
func (s *Source) Function(t *testing.T, name string) *ssa.Function {
	t.Helper()
	fn := s.Package.Func(name)
	if fn == nil {
		t.Fatalf("no function %s in package %s", name, s.Package.Pkg.Path())
	}
	return fn
}

// LPos is a position in a file, without column
type LPos struct {
	Filename string
	Line     int
}

func (p LPos) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// RemoveColumn returns the position pos without its column, and with the base name of its file
func RemoveColumn(pos token.Position) LPos {
	return LPos{Filename: filepath.Base(pos.Filename), Line: pos.Line}
}

var annotationRegex = regexp.MustCompile(`@(\w+)`)

// Annotated returns the positions of the lines whose comment contains the annotation @tag
func (s *Source) Annotated(tag string) map[LPos]bool {
	return annotated(s.Fset, s.File, tag)
}

// AnnotatedFile returns the positions of the lines of the Go file filename whose comment contains the annotation
// @tag. The test fails if the file cannot be parsed.
func AnnotatedFile(t *testing.T, filename string, tag string) map[LPos]bool {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		t.Fatalf("failed to parse %s: %v", filename, err)
	}
	return annotated(fset, f, tag)
}

func annotated(fset *token.FileSet, f *ast.File, tag string) map[LPos]bool {
	res := map[LPos]bool{}
	for _, group := range f.Comments {
		for _, c := range group.List {
			for _, m := range annotationRegex.FindAllStringSubmatch(c.Text, -1) {
				if m[1] == tag {
					res[RemoveColumn(fset.Position(c.Pos()))] = true
				}
			}
		}
	}
	return res
}
