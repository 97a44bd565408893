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

package main

import "errors"

type Node struct {
	next  *Node
	value int
}

func newNode(v int) *Node {
	return &Node{value: v}
}

func value(n *Node) int {
	return n.value // @MayBeNull
}

func checkedValue(n *Node) int {
	if n == nil {
		return 0
	}
	return n.value
}

func fresh() int {
	n := newNode(1)
	return n.value
}

func second(n *Node) int {
	if n.next != nil { // @MayBeNull
		return n.next.value // @MayBeNull
	}
	return 0
}

func failing() error {
	return errors.New("failure")
}

func main() {
	_ = value(newNode(0))
	_ = checkedValue(nil)
	_ = fresh()
	_ = second(newNode(2))
	_ = failing()
}
