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

import (
	"sort"

	"github.com/yourbasic/graph"
)

// Adjacency is a directed graph over the nodes 0..n-1 given by its successor lists. It implements the
// graph.Iterator interface of github.com/yourbasic/graph, so all the algorithms of that package can run on it.
type Adjacency [][]int

// Order returns the number of nodes in the graph
func (a Adjacency) Order() int {
	return len(a)
}

// Visit calls the do function for each successor w of v, in increasing order of w. If do returns true, Visit
// returns immediately, skipping any remaining successors, and returns true.
func (a Adjacency) Visit(v int, do func(w int, c int64) bool) bool {
	succs := append([]int(nil), a[v]...)
	sort.Ints(succs)
	for i, w := range succs {
		if i > 0 && succs[i-1] == w {
			continue
		}
		if do(w, 0) {
			return true
		}
	}
	return false
}

// AddEdge adds an edge from v to w. Both nodes must be in the graph.
func (a Adjacency) AddEdge(v, w int) {
	a[v] = append(a[v], w)
}

// CyclicComponents returns the strongly connected components of the graph that contain a cycle: components with at
// least two nodes, and single nodes with an edge to themselves. Each component is sorted, and components are sorted
// by their smallest node.
func CyclicComponents(a Adjacency) [][]int {
	var res [][]int
	for _, component := range graph.StrongComponents(a) {
		if len(component) == 1 {
			v := component[0]
			if !a.Visit(v, func(w int, _ int64) bool { return w == v }) {
				continue
			}
		}
		c := append([]int(nil), component...)
		sort.Ints(c)
		res = append(res, c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i][0] < res[j][0] })
	return res
}

// CyclicNodes returns the sorted list of nodes that lie on a cycle of the graph
func CyclicNodes(a Adjacency) []int {
	var res []int
	for _, c := range CyclicComponents(a) {
		res = append(res, c...)
	}
	sort.Ints(res)
	return res
}

// IsAcyclic returns true when the graph has no cycle
func IsAcyclic(a Adjacency) bool {
	return graph.Acyclic(a)
}
