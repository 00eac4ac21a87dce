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
	"testing"

	"github.com/taintflow/engine/internal/pkg/kind"
)

func TestEmptyTreeIsEmpty(t *testing.T) {
	if !EmptyForwardTree().IsEmpty() {
		t.Fatalf("EmptyForwardTree() should be empty")
	}
}

func TestCreateLeafIsNotEmpty(t *testing.T) {
	uc := kind.New("UserControlled")
	tree := CreateLeafForward(CallInfo{}, uc, Frame{})
	if tree.IsEmpty() {
		t.Fatalf("a tree with one leaf should not be empty")
	}
}

func TestReadMissingPathIsEmpty(t *testing.T) {
	uc := kind.New("UserControlled")
	tree := CreateLeafForward(CallInfo{}, uc, Frame{})
	sub := tree.Read([]string{"field"})
	if !sub.IsEmpty() {
		t.Fatalf("reading an absent path should yield an empty subtree")
	}
}

func TestWriteLeafAndReadRoundTrip(t *testing.T) {
	uc := kind.New("UserControlled")
	tree := EmptyForwardTree().WriteLeaf([]string{"a", "b"}, CallInfo{}, uc, Frame{})

	sub := tree.Read([]string{"a", "b"})
	if sub.IsEmpty() {
		t.Fatalf("expected taint recorded at a.b to be readable")
	}

	collapsed := sub.Collapse(nil)
	if collapsed.IsBottom() {
		t.Fatalf("collapsing a non-empty subtree should be non-bottom")
	}
}

func TestCollapseUnionsWholeSubtree(t *testing.T) {
	uc := kind.New("UserControlled")
	vc := kind.New("ViaValueOf")
	tree := EmptyForwardTree().
		WriteLeaf([]string{"a"}, CallInfo{}, uc, Frame{}).
		WriteLeaf([]string{"a", "b"}, CallInfo{}, vc, Frame{})

	collapsed := tree.Read([]string{"a"}).Collapse(nil)
	kinds := collapsed.Kinds()
	if len(kinds) != 2 {
		t.Fatalf("Collapse should union every kind under the subtree, got %v", kinds)
	}
}

func TestCollapseAppliesConfiguredBreadcrumbs(t *testing.T) {
	uc := kind.New("UserControlled")
	tree := CreateLeafForward(CallInfo{}, uc, Frame{})
	collapsed := tree.Collapse([]string{"widened"})
	breadcrumbs := collapsed.JoinedBreadcrumbs()
	if len(breadcrumbs) != 1 || breadcrumbs[0] != "widened" {
		t.Fatalf("Collapse(breadcrumbs) = %v, want [widened]", breadcrumbs)
	}
}

func TestLeavesVisitsEveryNonEmptyPath(t *testing.T) {
	sql := kind.New("Sql")
	tree := EmptyBackwardTree().
		WriteLeaf([]string{"x"}, CallInfo{}, sql, Frame{}).
		WriteLeaf([]string{"y", "z"}, CallInfo{}, sql, Frame{})

	leaves := tree.Leaves()
	if len(leaves) != 2 {
		t.Fatalf("expected 2 leaf paths, got %d: %v", len(leaves), leaves)
	}
}

func TestJoinTreesUnionsBothSides(t *testing.T) {
	sql := kind.New("Sql")
	xss := kind.New("XSS")
	t1 := EmptyBackwardTree().WriteLeaf([]string{"x"}, CallInfo{}, sql, Frame{})
	t2 := EmptyBackwardTree().WriteLeaf([]string{"y"}, CallInfo{}, xss, Frame{})

	joined := t1.Join(t2)
	if len(joined.Leaves()) != 2 {
		t.Fatalf("expected join of disjoint trees to keep both leaves")
	}
}
