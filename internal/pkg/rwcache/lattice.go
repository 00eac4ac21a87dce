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
	"sort"

	"github.com/taintflow/engine/internal/pkg/engerr"
	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/modelquery"
)

// Targets is the CandidateTargetsFromCache lattice: Top (unrestricted)
// or a concrete Set of targets. Top absorbs Join; the empty Set absorbs
// Meet.
type Targets struct {
	top bool
	set map[string]model.Target
}

// Top returns the unrestricted element of the lattice.
func Top() Targets { return Targets{top: true} }

// FromTargets builds a concrete Set from ts.
func FromTargets(ts []model.Target) Targets {
	set := make(map[string]model.Target, len(ts))
	for _, t := range ts {
		set[t.FullyQualifiedName] = t
	}
	return Targets{set: set}
}

// EmptySet returns Set(∅), the absorbing element of Meet.
func EmptySet() Targets { return Targets{set: map[string]model.Target{}} }

// IsTop reports whether t is the Top element.
func (t Targets) IsTop() bool { return t.top }

// Meet is the lattice intersection: Top is Meet's identity, Set(∅)
// absorbs it.
func (t Targets) Meet(other Targets) Targets {
	if t.top {
		return other
	}
	if other.top {
		return t
	}
	out := map[string]model.Target{}
	for k, v := range t.set {
		if _, ok := other.set[k]; ok {
			out[k] = v
		}
	}
	return Targets{set: out}
}

// Join is the lattice union: Top absorbs Join.
func (t Targets) Join(other Targets) Targets {
	if t.top || other.top {
		return Top()
	}
	out := make(map[string]model.Target, len(t.set)+len(other.set))
	for k, v := range t.set {
		out[k] = v
	}
	for k, v := range other.set {
		out[k] = v
	}
	return Targets{set: out}
}

// List materializes the concrete set in sorted order; returns nil for
// Top.
func (t Targets) List() []model.Target {
	if t.top {
		return nil
	}
	keys := make([]string, 0, len(t.set))
	for k := range t.set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]model.Target, 0, len(keys))
	for _, k := range keys {
		out = append(out, t.set[k])
	}
	return out
}

// fromConstraint walks c, deriving a Targets lattice value: AllOf meets
// its branches, AnyOf joins them, ReadFromCache reads the cache, and
// every other leaf (including Not, which cannot be inverted into a
// restricted set) contributes Top.
func fromConstraint(cache *Cache, c *modelquery.Constraint) Targets {
	switch {
	case c.AllOf != nil:
		acc := Top()
		for i := range c.AllOf {
			acc = acc.Meet(fromConstraint(cache, &c.AllOf[i]))
		}
		return acc
	case c.AnyOf != nil:
		if len(c.AnyOf) == 0 {
			return EmptySet()
		}
		acc := fromConstraint(cache, &c.AnyOf[0])
		for i := 1; i < len(c.AnyOf); i++ {
			acc = acc.Join(fromConstraint(cache, &c.AnyOf[i]))
		}
		return acc
	case c.ReadFromCache != nil:
		return FromTargets(cache.Read(c.ReadFromCache.Kind, c.ReadFromCache.Name))
	default:
		return Top()
	}
}

// FromConstraint implements CandidateTargetsFromCache.from_constraint
// (§4.H): where is evaluated as if wrapped in AllOf(where), and a Top
// result at the top level is a query-verification failure — rejected
// here as a ConfigError per the §7/§9 open-question resolution.
func FromConstraint(cache *Cache, where *modelquery.Constraint) (Targets, error) {
	wrapped := modelquery.Constraint{}
	if where != nil {
		wrapped.AllOf = []modelquery.Constraint{*where}
	}
	result := fromConstraint(cache, &wrapped)
	if result.IsTop() {
		return Targets{}, engerr.NewConfigError("read-from-cache query where-clause evaluates to Top")
	}
	return result, nil
}
