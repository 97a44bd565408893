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

package graphutil

// StronglyConnectedComponents is an implementation of Tarjan's strongly connected component (SCC) algorithm
// for generic nodes T.
// Successors returns a slice containing the targets of directed edges out from the given node.
// sccs is a slice of slices containing the nodes in each SCC, in the order they were popped from the stack.
// The order of SCCs is toposorted so that successors appear first; i.e. if the graph is a call graph then
// callees come before their callers. This is the order in which bottom-up summaries must be computed.
func StronglyConnectedComponents[T comparable](nodes []T, successors func(T) []T) (sccs [][]T) {
	var stack []T
	onStack := map[T]bool{}
	index := map[T]int{}
	lowlink := map[T]int{}
	nextIndex := 0

	var visit func(v T)

	visit = func(v T) {
		index[v] = nextIndex
		lowlink[v] = nextIndex
		nextIndex++
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range successors(v) {
			if _, visited := index[w]; !visited {
				visit(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], index[w])
			}
		}
		if lowlink[v] != index[v] {
			return
		}
		var scc []T
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		sccs = append(sccs, scc)
	}

	for _, v := range nodes {
		if _, visited := index[v]; !visited {
			visit(v)
		}
	}
	return sccs
}

// Levels groups the strongly connected components of the graph into levels such that every component only has
// edges to components in the same or in earlier levels, and never to components of its own level other than
// itself. Components in the same level are independent and can be processed in parallel; level i only depends on
// levels 0..i-1.
func Levels[T comparable](nodes []T, successors func(T) []T) [][][]T {
	sccs := StronglyConnectedComponents(nodes, successors)
	component := map[T]int{}
	for i, scc := range sccs {
		for _, n := range scc {
			component[n] = i
		}
	}
	// sccs is toposorted with successors first, so the level of each successor component is known when its
	// predecessors are visited
	level := make([]int, len(sccs))
	maxLevel := -1
	for i, scc := range sccs {
		for _, n := range scc {
			for _, s := range successors(n) {
				j, ok := component[s]
				if !ok || j == i {
					continue
				}
				level[i] = max(level[i], level[j]+1)
			}
		}
		maxLevel = max(maxLevel, level[i])
	}
	levels := make([][][]T, maxLevel+1)
	for i, scc := range sccs {
		levels[level[i]] = append(levels[level[i]], scc)
	}
	return levels
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
