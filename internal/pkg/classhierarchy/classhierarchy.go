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

// Package classhierarchy resolves class ancestry for the ClassConstraint
// family (§4.G). The host supplies the graph; an unresolved class name
// is simply untracked, never a fatal condition (§7).
package classhierarchy

// Graph answers ancestry questions about a host's class hierarchy. A
// class absent from the graph is untracked: every query about it
// returns false rather than erroring.
type Graph interface {
	// Children returns the direct subclasses of class, or nil if class
	// is untracked.
	Children(class string) []string
	// IsTransitiveSuccessor reports whether class is ancestor itself or a
	// (possibly indirect) subclass of ancestor.
	IsTransitiveSuccessor(class, ancestor string) bool
}

// StaticGraph is a Graph backed by a fixed parent map, as produced by a
// one-shot resolution of the host's class hierarchy ahead of querying.
type StaticGraph struct {
	children map[string][]string
	parents  map[string]string
}

// NewStaticGraph builds a Graph from a child->parent map. A class with
// no entry has no recorded parent (e.g. a root class).
func NewStaticGraph(parentOf map[string]string) *StaticGraph {
	g := &StaticGraph{
		children: map[string][]string{},
		parents:  map[string]string{},
	}
	for child, parent := range parentOf {
		g.parents[child] = parent
		g.children[parent] = append(g.children[parent], child)
	}
	return g
}

// Children implements Graph.
func (g *StaticGraph) Children(class string) []string {
	return g.children[class]
}

// IsTransitiveSuccessor implements Graph.
func (g *StaticGraph) IsTransitiveSuccessor(class, ancestor string) bool {
	seen := map[string]bool{}
	for cur := class; ; {
		if cur == ancestor {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
		parent, ok := g.parents[cur]
		if !ok {
			return false
		}
		cur = parent
	}
}
