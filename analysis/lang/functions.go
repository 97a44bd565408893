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

package lang

import (
	"strings"

	"golang.org/x/tools/go/ssa"
)

// IsExternal returns true if function is external (in ssa, when Blocks is nil)
func IsExternal(function *ssa.Function) bool {
	return function.Blocks == nil
}

// IterateInstructions iterates through all the instructions in the function, block by block in the order of the
// block indexes.
func IterateInstructions(function *ssa.Function, f func(index int, instruction ssa.Instruction)) {
	for _, block := range function.Blocks {
		for index, instruction := range block.Instrs {
			f(index, instruction)
		}
	}
}

// PackageNameFromFunction returns the path of the package of f. Methods and wrappers that do not belong to a
// package are attributed to the package of their object, or to the package named in their identifier for the
// synthetic (T).Error wrappers. It returns "" when no package can be found.
func PackageNameFromFunction(f *ssa.Function) string {
	if pkg := f.Package(); pkg != nil {
		return pkg.Pkg.Path()
	}
	if obj := f.Object(); obj != nil && obj.Pkg() != nil {
		return obj.Pkg().Path()
	}
	return packageFromErrorName(f.String())
}

func packageFromErrorName(name string) string {
	if !strings.HasSuffix(name, ").Error") || !strings.HasPrefix(name, "(") {
		return ""
	}
	name = strings.TrimPrefix(name[1:len(name)-len(").Error")], "*")
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[:i]
}
