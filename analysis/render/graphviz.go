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
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/awslabs/ar-go-absint/analysis/cfg"
	"github.com/awslabs/ar-go-absint/internal/graphutil"
)

// edgeColor defines specific color for specific edges in the call graph
// - a call between two recursive procedures is red
// - all other calls have the default color
func edgeColor(recursive map[string]bool, caller, callee string) string {
	if recursive[caller] && recursive[callee] {
		return " [color=red]"
	}
	return ""
}

// WriteGraphviz writes a graphviz representation of the call graph of prog to w. Only calls between procedures of
// the program are drawn.
func WriteGraphviz(prog *cfg.Program, w io.Writer) error {
	recursive := map[string]bool{}
	for _, id := range graphutil.Recursive(prog.CallGraph()) {
		recursive[id] = true
	}
	if _, err := io.WriteString(w, "digraph callgraph {\n"); err != nil {
		return fmt.Errorf("error while writing graph: %w", err)
	}
	for _, id := range prog.Procedures() {
		if _, err := fmt.Fprintf(w, "  %q;\n", id); err != nil {
			return fmt.Errorf("error while writing graph: %w", err)
		}
	}
	for _, e := range prog.CallEdges() {
		if _, err := fmt.Fprintf(w, "  %q -> %q%s;\n", e[0], e[1], edgeColor(recursive, e[0], e[1])); err != nil {
			return fmt.Errorf("error while writing graph: %w", err)
		}
	}
	if _, err := io.WriteString(w, "}\n"); err != nil {
		return fmt.Errorf("error while writing graph: %w", err)
	}
	return nil
}

// GraphvizToFile writes the graphviz representation of the call graph of prog to the file filename
func GraphvizToFile(prog *cfg.Program, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := WriteGraphviz(prog, w); err != nil {
		return err
	}
	return w.Flush()
}
