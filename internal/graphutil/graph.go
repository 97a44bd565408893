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

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/topo"
)

// DiGraph is a directed graph over named nodes (typically procedure identifiers) that implements gonum's
// graph.Directed interface. Node identifiers are assigned in the order of the names given to NewDiGraph, which keeps
// every traversal deterministic.
type DiGraph struct {
	// names maps node ids to node names
	names []string

	// ids maps node names to node ids
	ids map[string]int64

	// out[x][y] means there is a directed edge from x to y
	out map[int64]map[int64]bool

	// in[y][x] means there is a directed edge from x to y
	in map[int64]map[int64]bool
}

// NewDiGraph returns a graph whose nodes are nodes and whose edges are given by succ. Successors that are not in
// nodes are ignored (e.g. calls to procedures without a body).
func NewDiGraph(nodes []string, succ func(string) []string) *DiGraph {
	g := &DiGraph{
		names: make([]string, len(nodes)),
		ids:   make(map[string]int64, len(nodes)),
		out:   make(map[int64]map[int64]bool, len(nodes)),
		in:    make(map[int64]map[int64]bool, len(nodes)),
	}
	for i, name := range nodes {
		g.names[i] = name
		g.ids[name] = int64(i)
		g.out[int64(i)] = map[int64]bool{}
		g.in[int64(i)] = map[int64]bool{}
	}
	for _, name := range nodes {
		x := g.ids[name]
		for _, s := range succ(name) {
			if y, ok := g.ids[s]; ok {
				g.out[x][y] = true
				g.in[y][x] = true
			}
		}
	}
	return g
}

// Name returns the name of the node n, or "" if n is not in the graph
func (g *DiGraph) Name(n graph.Node) string {
	if n == nil || n.ID() < 0 || n.ID() >= int64(len(g.names)) {
		return ""
	}
	return g.names[n.ID()]
}

// Successors returns the names of the successors of the node called name, sorted
func (g *DiGraph) Successors(name string) []string {
	id, ok := g.ids[name]
	if !ok {
		return nil
	}
	var res []string
	for y := range g.out[id] {
		res = append(res, g.names[y])
	}
	sort.Strings(res)
	return res
}

// Recursive returns the names of the nodes that belong to a cycle of the graph: either they are in a strongly
// connected component with more than one node, or they have an edge to themselves. The result is sorted.
func Recursive(g *DiGraph) []string {
	var res []string
	for _, component := range topo.TarjanSCC(g) {
		if len(component) > 1 {
			for _, n := range component {
				res = append(res, g.Name(n))
			}
		} else if len(component) == 1 && g.HasEdgeFromTo(component[0].ID(), component[0].ID()) {
			res = append(res, g.Name(component[0]))
		}
	}
	sort.Strings(res)
	return res
}

// *************** Graph interface implementation **********************

// Node returns the node with the given id, or nil
func (g *DiGraph) Node(id int64) graph.Node {
	if id < 0 || id >= int64(len(g.names)) {
		return nil
	}
	return node{id: id, name: g.names[id]}
}

// Nodes returns the set of nodes in the graph
func (g *DiGraph) Nodes() graph.Nodes {
	ids := make([]int64, len(g.names))
	for i := range g.names {
		ids[i] = int64(i)
	}
	return g.nodeSet(ids)
}

// From returns the set of nodes that are successors of id
func (g *DiGraph) From(id int64) graph.Nodes {
	return g.nodeSet(sortedIDs(g.out[id]))
}

// To returns the set of nodes that are predecessors of id
func (g *DiGraph) To(id int64) graph.Nodes {
	return g.nodeSet(sortedIDs(g.in[id]))
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers, in either
// direction
func (g *DiGraph) HasEdgeBetween(xid, yid int64) bool {
	return g.out[xid][yid] || g.out[yid][xid]
}

// HasEdgeFromTo returns whether there is a directed edge from uid to vid
func (g *DiGraph) HasEdgeFromTo(uid, vid int64) bool {
	return g.out[uid][vid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (g *DiGraph) Edge(uid, vid int64) graph.Edge {
	if !g.out[uid][vid] {
		return nil
	}
	return edge{from: node{uid, g.names[uid]}, to: node{vid, g.names[vid]}}
}

func (g *DiGraph) nodeSet(ids []int64) *NodeSet {
	return &NodeSet{graph: g, ids: ids, cur: -1}
}

func sortedIDs(m map[int64]bool) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// *************** Nodes implementation **********************

type node struct {
	id   int64
	name string
}

// ID returns the id of the node
func (n node) ID() int64 {
	return n.id
}

func (n node) String() string {
	return n.name
}

// NodeSet implements the graph.Nodes interface, an iterator over a set of nodes
type NodeSet struct {
	graph *DiGraph

	// ids is the set of node ids in the iterator
	ids []int64

	// cur is the current index of the iterator. Before the first call to Next, cur is -1
	cur int
}

// Next moves the current node to the next, and returns true if such a node exists.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	ns.cur = len(ns.ids)
	return false
}

// Len returns the number of nodes remaining in the iterator
func (ns *NodeSet) Len() int {
	if ns.cur >= len(ns.ids) {
		return 0
	}
	return len(ns.ids) - ns.cur - 1
}

// Reset restarts the iteration
func (ns *NodeSet) Reset() {
	ns.cur = -1
}

// Node returns the current node in the set, or nil if the iterator is not on a node
func (ns *NodeSet) Node() graph.Node {
	if ns.cur < 0 || ns.cur >= len(ns.ids) {
		return nil
	}
	return ns.graph.Node(ns.ids[ns.cur])
}

// *************** Edge implementation **********************

type edge struct {
	from node
	to   node
}

// From returns the origin of the edge
func (e edge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e edge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e edge) ReversedEdge() graph.Edge {
	return edge{from: e.to, to: e.from}
}
