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

// Package flowmatch implements the Flow Matcher (§4.B): enumerating
// (source, sink) path pairs in a forward/backward taint-tree pair and
// recording them as Candidates keyed by (location, sink handle).
package flowmatch

import (
	"sort"

	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/taintdom"
)

// Key identifies a Candidate within one definition's Candidates table:
// the program location and the sink handle of the call site examined.
type Key struct {
	Location   model.Location
	SinkHandle model.SinkHandle
}

// Candidate accumulates every flow observed at one (location, sink
// handle) pair within a single definition's forward analysis.
type Candidate struct {
	Key   Key
	Flows []taintdom.Flow
}

// Join concatenates the flow lists of two candidates sharing the same
// key. The caller is responsible for only joining same-keyed candidates.
func (c Candidate) Join(other Candidate) Candidate {
	return Candidate{
		Key:   c.Key,
		Flows: append(append([]taintdom.Flow(nil), c.Flows...), other.Flows...),
	}
}

// Candidates is the per-definition table owned by one definition's
// forward analysis and consumed at issue generation (§3).
type Candidates struct {
	byKey map[Key]*Candidate
	order []Key
}

// NewCandidates builds an empty candidate table.
func NewCandidates() *Candidates {
	return &Candidates{byKey: map[Key]*Candidate{}}
}

// Add records flows at key, joining them into any existing candidate
// for that key.
func (c *Candidates) Add(key Key, flows ...taintdom.Flow) {
	if len(flows) == 0 {
		return
	}
	existing, ok := c.byKey[key]
	if !ok {
		cand := &Candidate{Key: key, Flows: append([]taintdom.Flow(nil), flows...)}
		c.byKey[key] = cand
		c.order = append(c.order, key)
		return
	}
	existing.Flows = append(existing.Flows, flows...)
}

// AddCandidate joins cand into the table under its own key.
func (c *Candidates) AddCandidate(cand Candidate) {
	c.Add(cand.Key, cand.Flows...)
}

// Get returns the candidate recorded at key, if any.
func (c *Candidates) Get(key Key) (Candidate, bool) {
	cand, ok := c.byKey[key]
	if !ok {
		return Candidate{}, false
	}
	return *cand, true
}

// All returns every candidate in the table, ordered by first-insertion
// of its key (a stable, deterministic order for downstream issue
// generation).
func (c *Candidates) All() []Candidate {
	out := make([]Candidate, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, *c.byKey[k])
	}
	return out
}

// SortedKeys returns every key present in the table in a total,
// deterministic order independent of insertion order: used when a
// caller needs byte-identical output regardless of map iteration or
// merge order (§8 "Candidate join commutativity").
func (c *Candidates) SortedKeys() []Key {
	keys := make([]Key, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Location != b.Location {
			return a.Location.Less(b.Location)
		}
		return a.SinkHandle.Show() < b.SinkHandle.Show()
	})
	return keys
}
