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

package rwcache

import (
	"testing"

	"github.com/taintflow/engine/internal/pkg/model"
)

func TestCacheWriteAndReadRoundtrips(t *testing.T) {
	c := NewCache()
	c.Write("parent", "Foo", model.Target{FullyQualifiedName: "pkg.Bar"})
	c.Write("parent", "Foo", model.Target{FullyQualifiedName: "pkg.Baz"})

	got := c.Read("parent", "Foo")
	if len(got) != 2 || got[0].FullyQualifiedName != "pkg.Bar" || got[1].FullyQualifiedName != "pkg.Baz" {
		t.Fatalf("expected sorted [pkg.Bar pkg.Baz], got %v", got)
	}
	if c.Read("parent", "Other") != nil {
		t.Fatalf("expected no entries under an unwritten name")
	}
}

func TestCacheMergeIsPointwiseUnion(t *testing.T) {
	a := NewCache()
	a.Write("parent", "Foo", model.Target{FullyQualifiedName: "pkg.A"})
	b := NewCache()
	b.Write("parent", "Foo", model.Target{FullyQualifiedName: "pkg.B"})
	b.Write("parent", "Bar", model.Target{FullyQualifiedName: "pkg.C"})

	merged := a.Merge(b)
	foo := merged.Read("parent", "Foo")
	if len(foo) != 2 {
		t.Fatalf("expected both pkg.A and pkg.B under parent/Foo, got %v", foo)
	}
	if len(merged.Read("parent", "Bar")) != 1 {
		t.Fatalf("expected pkg.C preserved under parent/Bar")
	}
}

func TestCacheMergeAssociative(t *testing.T) {
	a := NewCache()
	a.Write("k", "n", model.Target{FullyQualifiedName: "a"})
	b := NewCache()
	b.Write("k", "n", model.Target{FullyQualifiedName: "b"})
	cC := NewCache()
	cC.Write("k", "n", model.Target{FullyQualifiedName: "c"})

	left := a.Merge(b).Merge(cC)
	right := a.Merge(b.Merge(cC))

	if len(left.Read("k", "n")) != 3 || len(right.Read("k", "n")) != 3 {
		t.Fatalf("expected associativity to preserve all three entries")
	}
}
