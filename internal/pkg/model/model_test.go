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

package model

import "testing"

func TestLocationLessTotalOrder(t *testing.T) {
	a := Location{File: "a.py", Line: 1, Column: 0}
	b := Location{File: "a.py", Line: 2, Column: 0}
	c := Location{File: "b.py", Line: 1, Column: 0}

	if !a.Less(b) {
		t.Fatalf("expected %v < %v", a, b)
	}
	if !b.Less(c) {
		t.Fatalf("expected %v < %v", b, c)
	}
	if a.Less(a) {
		t.Fatalf("Less should be irreflexive")
	}
}

func TestMinReturnsSmallestLocation(t *testing.T) {
	locs := []Location{
		{File: "a.py", Line: 5},
		{File: "a.py", Line: 1},
		{File: "a.py", Line: 3},
	}
	got := Min(locs)
	want := Location{File: "a.py", Line: 1}
	if got != want {
		t.Fatalf("Min() = %v, want %v", got, want)
	}
}

func TestSinkHandleShowDistinguishesCallSites(t *testing.T) {
	callee := Target{FullyQualifiedName: "pkg.sink"}
	h1 := SinkHandle{Handle: CallSiteHandle, Callee: callee, CallIndex: 0, Port: 0}
	h2 := SinkHandle{Handle: CallSiteHandle, Callee: callee, CallIndex: 1, Port: 0}

	if h1.Equal(h2) {
		t.Fatalf("distinct call indices should not be equal handles")
	}
	if !h1.Equal(h1) {
		t.Fatalf("a handle should equal itself")
	}
}

func TestSinkHandleGlobalAndReturnDistinct(t *testing.T) {
	g := SinkHandle{Handle: GlobalHandle, GlobalKind: "Sql"}
	r := SinkHandle{Handle: ReturnHandle}
	if g.Equal(r) {
		t.Fatalf("global and return handles must differ")
	}
}
