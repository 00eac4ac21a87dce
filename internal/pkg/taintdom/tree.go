// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package taintdom

import (
	"sort"

	"github.com/taintflow/engine/internal/pkg/kind"
)

// node is a trie node keyed by access-path segment (field/index
// projections of the root variable). Each node holds the set of (kind,
// frame) pairs attributed directly to that path, plus its children.
type node struct {
	local    flat
	children map[string]*node
}

func newNode() *node {
	return &node{local: flat{}, children: map[string]*node{}}
}

func (n *node) isEmpty() bool {
	if n == nil {
		return true
	}
	if len(n.local) != 0 {
		return false
	}
	for _, c := range n.children {
		if !c.isEmpty() {
			return false
		}
	}
	return true
}

func (n *node) copy() *node {
	if n == nil {
		return nil
	}
	cp := &node{local: n.local.copy(), children: make(map[string]*node, len(n.children))}
	for k, c := range n.children {
		cp.children[k] = c.copy()
	}
	return cp
}

func (n *node) join(other *node) *node {
	if n == nil {
		return other
	}
	if other == nil {
		return n
	}
	out := &node{local: n.local.join(other.local), children: make(map[string]*node, len(n.children)+len(other.children))}
	for k, c := range n.children {
		out.children[k] = c
	}
	for k, c := range other.children {
		if existing, ok := out.children[k]; ok {
			out.children[k] = existing.join(c)
		} else {
			out.children[k] = c
		}
	}
	return out
}

func (n *node) readPath(path []string) *node {
	cur := n
	for _, seg := range path {
		if cur == nil {
			return nil
		}
		cur = cur.children[seg]
	}
	return cur
}

// collapseInto unions every (kind, frame) pair found at n and below into
// acc, adding extraBreadcrumbs to every frame collected this way: this is
// the "widening via a configured breadcrumb set" the Flow Matcher (§4.B)
// applies when reading a source subtree.
func (n *node) collapseInto(acc flat, extraBreadcrumbs []string) flat {
	if n == nil {
		return acc
	}
	for _, e := range n.local {
		fr := e.frame
		if len(extraBreadcrumbs) > 0 {
			fr.Breadcrumbs = unionStrings(fr.Breadcrumbs, extraBreadcrumbs)
		}
		key := e.kind.Key()
		if existing, ok := acc[key]; ok {
			acc[key] = entry{kind: existing.kind, frame: existing.frame.Join(fr)}
		} else {
			acc[key] = entry{kind: e.kind, frame: fr}
		}
	}
	// deterministic traversal order for reproducible joins
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		acc = n.children[k].collapseInto(acc, extraBreadcrumbs)
	}
	return acc
}

// leafPaths enumerates every path from n that terminates in a non-empty
// local set, depth-first, in sorted child order, used by the Flow
// Matcher to fold the sink tree "along each path-to-leaf".
func (n *node) leafPaths(prefix []string, visit func(path []string, leaf flat)) {
	if n == nil {
		return
	}
	if len(n.local) > 0 {
		visit(append([]string(nil), prefix...), n.local)
	}
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.children[k].leafPaths(append(prefix, k), visit)
	}
}

// ForwardTree is the forward taint tree (reachable sources), a trie over
// access paths.
type ForwardTree struct{ root *node }

// BackwardTree is the backward taint tree (reached sinks).
type BackwardTree struct{ root *node }

func EmptyForwardTree() ForwardTree   { return ForwardTree{root: newNode()} }
func EmptyBackwardTree() BackwardTree { return BackwardTree{root: newNode()} }

// CreateLeafForward builds a single-entry tree at the empty path.
func CreateLeafForward(ci CallInfo, k kind.Kind, fr Frame) ForwardTree {
	n := newNode()
	fr.CallInfo = ci
	n.local[k.Key()] = entry{kind: k, frame: fr}
	return ForwardTree{root: n}
}

// CreateLeafBackward is the backward analogue of CreateLeafForward.
func CreateLeafBackward(ci CallInfo, k kind.Kind, fr Frame) BackwardTree {
	n := newNode()
	fr.CallInfo = ci
	n.local[k.Key()] = entry{kind: k, frame: fr}
	return BackwardTree{root: n}
}

func (t ForwardTree) IsEmpty() bool  { return t.root.isEmpty() }
func (t BackwardTree) IsEmpty() bool { return t.root.isEmpty() }

func (t ForwardTree) Join(other ForwardTree) ForwardTree {
	return ForwardTree{root: t.root.join(other.root)}
}
func (t BackwardTree) Join(other BackwardTree) BackwardTree {
	return BackwardTree{root: t.root.join(other.root)}
}

// Read returns the subtree found at path, or an empty tree if no taint
// was recorded there.
func (t ForwardTree) Read(path []string) ForwardTree {
	return ForwardTree{root: t.root.readPath(path)}
}
func (t BackwardTree) Read(path []string) BackwardTree {
	return BackwardTree{root: t.root.readPath(path)}
}

// Collapse widens the subtree into a single flat ForwardTaint value,
// tagging every collected frame with the given configured breadcrumb
// set (§4.B: "collapse it (widening via a configured breadcrumb set)").
func (t ForwardTree) Collapse(breadcrumbs []string) ForwardTaint {
	return ForwardTaint{m: t.root.collapseInto(flat{}, breadcrumbs)}
}
func (t BackwardTree) Collapse(breadcrumbs []string) BackwardTaint {
	return BackwardTaint{m: t.root.collapseInto(flat{}, breadcrumbs)}
}

// WriteLeaf returns a new tree equal to t with a leaf inserted/joined at
// path.
func (t ForwardTree) WriteLeaf(path []string, ci CallInfo, k kind.Kind, fr Frame) ForwardTree {
	return ForwardTree{root: writeLeaf(t.root, path, ci, k, fr)}
}
func (t BackwardTree) WriteLeaf(path []string, ci CallInfo, k kind.Kind, fr Frame) BackwardTree {
	return BackwardTree{root: writeLeaf(t.root, path, ci, k, fr)}
}

func writeLeaf(n *node, path []string, ci CallInfo, k kind.Kind, fr Frame) *node {
	root := n.copy()
	if root == nil {
		root = newNode()
	}
	cur := root
	for _, seg := range path {
		child, ok := cur.children[seg]
		if !ok {
			child = newNode()
			cur.children[seg] = child
		}
		cur = child
	}
	fr.CallInfo = ci
	key := k.Key()
	if existing, ok := cur.local[key]; ok {
		cur.local[key] = entry{kind: existing.kind, frame: existing.frame.Join(fr)}
	} else {
		cur.local[key] = entry{kind: k, frame: fr}
	}
	return root
}

// LeafPath pairs a path-to-leaf with the flat taint recorded there,
// returned by Leaves for fold-style traversal of a BackwardTree by the
// Flow Matcher.
type LeafPath struct {
	Path []string
	Leaf BackwardTaint
}

// Leaves enumerates every leaf path in depth-first, sorted-child order.
func (t BackwardTree) Leaves() []LeafPath {
	var out []LeafPath
	t.root.leafPaths(nil, func(path []string, leaf flat) {
		out = append(out, LeafPath{Path: path, Leaf: BackwardTaint{m: leaf.copy()}})
	})
	return out
}

// ForwardLeafPath is the ForwardTree analogue of LeafPath, returned by
// ForwardTree.Leaves, which the Triggered-Sink Tracker (§4.F) uses to
// scan each source in the source tree.
type ForwardLeafPath struct {
	Path []string
	Leaf ForwardTaint
}

func (t ForwardTree) Leaves() []ForwardLeafPath {
	var out []ForwardLeafPath
	t.root.leafPaths(nil, func(path []string, leaf flat) {
		out = append(out, ForwardLeafPath{Path: path, Leaf: ForwardTaint{m: leaf.copy()}})
	})
	return out
}
