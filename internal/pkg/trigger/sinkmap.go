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

// Package trigger implements the Triggered-Sink Tracker (§4.F):
// combined-source rules whose sink is a placeholder requiring two
// complementary sources. The first-seen half is remembered per call site
// so the second half, arriving later (possibly from a caller), can
// complete it.
package trigger

import (
	"sort"

	"github.com/taintflow/engine/internal/pkg/kind"
	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/taintdom"
)

// Entry is the per-call record kept for one triggered partial sink: the
// Kind identifying it (for writing into a tree leaf), the call-info it
// was first observed at, and the Frame accumulating its provisional
// issue handles and ExtraTraceFirstHop.
type Entry struct {
	Kind     kind.Kind
	CallInfo taintdom.CallInfo
	Frame    taintdom.Frame
}

func (e Entry) join(other Entry) Entry {
	return Entry{Kind: e.Kind, CallInfo: e.CallInfo, Frame: e.Frame.Join(other.Frame)}
}

// SinkMap is the per-call TriggeredSinkHashMap, keyed by
// show(triggered_sink).
type SinkMap struct {
	entries map[string]Entry
}

// NewSinkMap builds an empty per-call triggered-sink map.
func NewSinkMap() *SinkMap {
	return &SinkMap{entries: map[string]Entry{}}
}

// Get returns the entry recorded under key, if any.
func (m *SinkMap) Get(key string) (Entry, bool) {
	e, ok := m.entries[key]
	return e, ok
}

// Has reports whether key has an entry recorded.
func (m *SinkMap) Has(key string) bool {
	_, ok := m.entries[key]
	return ok
}

// Set records or joins entry under key.
func (m *SinkMap) Set(key string, entry Entry) {
	if existing, ok := m.entries[key]; ok {
		m.entries[key] = existing.join(entry)
	} else {
		m.entries[key] = entry
	}
}

// Keys returns every recorded key in deterministic sorted order.
func (m *SinkMap) Keys() []string {
	out := make([]string, 0, len(m.entries))
	for k := range m.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LocationMap is the definition-level TriggeredSinkLocationMap: for each
// call location, the synthetic backward state formed by transferring that
// call's per-call SinkMap entries, so that a caller's forward analysis
// can observe a propagated TriggeredPartialSink.
type LocationMap struct {
	byLocation map[model.Location]taintdom.BackwardTree
}

// NewLocationMap builds an empty definition-level triggered-sink map.
func NewLocationMap() *LocationMap {
	return &LocationMap{byLocation: map[model.Location]taintdom.BackwardTree{}}
}

// Transfer writes every entry of m into loc's backward state, one root
// leaf per triggered partial sink, keyed by its own Kind representation.
func (lm *LocationMap) Transfer(loc model.Location, m *SinkMap) {
	tree, ok := lm.byLocation[loc]
	if !ok {
		tree = taintdom.EmptyBackwardTree()
	}
	for _, key := range m.Keys() {
		entry := m.entries[key]
		tree = tree.WriteLeaf(nil, entry.CallInfo, entry.Kind, entry.Frame)
	}
	lm.byLocation[loc] = tree
}

// Tree returns the backward state accumulated for loc, or an empty tree
// if none was transferred.
func (lm *LocationMap) Tree(loc model.Location) taintdom.BackwardTree {
	if tree, ok := lm.byLocation[loc]; ok {
		return tree
	}
	return taintdom.EmptyBackwardTree()
}
