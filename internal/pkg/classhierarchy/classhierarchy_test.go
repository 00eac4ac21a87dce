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

package classhierarchy

import "testing"

func testGraph() *StaticGraph {
	// Base <- Mid <- Leaf; any other class name is untracked.
	return NewStaticGraph(map[string]string{
		"Mid":  "Base",
		"Leaf": "Mid",
	})
}

func TestIsTransitiveSuccessorWalksAncestry(t *testing.T) {
	g := testGraph()
	if !g.IsTransitiveSuccessor("Leaf", "Base") {
		t.Fatalf("expected Leaf to be a transitive successor of Base")
	}
	if !g.IsTransitiveSuccessor("Leaf", "Leaf") {
		t.Fatalf("expected reflexive successor")
	}
	if g.IsTransitiveSuccessor("Base", "Leaf") {
		t.Fatalf("successor relation should not run backwards")
	}
}

func TestIsTransitiveSuccessorUntrackedClassReturnsFalse(t *testing.T) {
	g := testGraph()
	if g.IsTransitiveSuccessor("Unknown", "Base") {
		t.Fatalf("untracked class should never be reported as a successor")
	}
}

func TestChildrenReturnsDirectSubclassesOnly(t *testing.T) {
	g := testGraph()
	children := g.Children("Base")
	if len(children) != 1 || children[0] != "Mid" {
		t.Fatalf("expected [Mid], got %v", children)
	}
	if len(g.Children("Leaf")) != 0 {
		t.Fatalf("expected Leaf to have no children")
	}
}
