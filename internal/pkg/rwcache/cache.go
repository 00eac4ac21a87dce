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

// Package rwcache implements the Read/Write Cache Pipeline (§4.H): a
// write phase populates a kind/name-keyed target index, a read phase
// derives a candidate target set from it through the
// CandidateTargetsFromCache lattice, and a regular phase runs
// unrestricted. Per-shard caches merge by pointwise union, the
// associative/commutative operation the map-reduce scheduler (§5) relies
// on to make global output order-independent.
package rwcache

import (
	"sort"

	"github.com/taintflow/engine/internal/pkg/model"
)

// Cache is the ReadWriteCache: kind -> name -> set of targets (keyed by
// fully-qualified name to dedupe).
type Cache struct {
	entries map[string]map[string]map[string]model.Target
}

// NewCache builds an empty cache.
func NewCache() *Cache {
	return &Cache{entries: map[string]map[string]map[string]model.Target{}}
}

// Write records t under {kind, name}.
func (c *Cache) Write(kind, name string, t model.Target) {
	byName, ok := c.entries[kind]
	if !ok {
		byName = map[string]map[string]model.Target{}
		c.entries[kind] = byName
	}
	targets, ok := byName[name]
	if !ok {
		targets = map[string]model.Target{}
		byName[name] = targets
	}
	targets[t.FullyQualifiedName] = t
}

// Read returns every target recorded under {kind, name}, sorted by
// fully-qualified name for determinism.
func (c *Cache) Read(kind, name string) []model.Target {
	targets, ok := c.entries[kind]
	if !ok {
		return nil
	}
	byName, ok := targets[name]
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(byName))
	for k := range byName {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]model.Target, 0, len(keys))
	for _, k := range keys {
		out = append(out, byName[k])
	}
	return out
}

// Merge returns a new Cache holding the pointwise union of c and other.
// Merge is commutative and associative, so repeated shard reduction is
// order-independent.
func (c *Cache) Merge(other *Cache) *Cache {
	out := NewCache()
	for kind, byName := range c.entries {
		for name, targets := range byName {
			for _, t := range targets {
				out.Write(kind, name, t)
			}
		}
	}
	for kind, byName := range other.entries {
		for name, targets := range byName {
			for _, t := range targets {
				out.Write(kind, name, t)
			}
		}
	}
	return out
}
