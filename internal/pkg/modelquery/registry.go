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

package modelquery

import "sort"

// Model is the accumulated set of TaintSites recorded for one target
// across every query that matched it.
type Model struct {
	Sites []TaintSite
}

func siteKey(s TaintSite) string {
	key := ""
	switch s.Site {
	case ReturnSite:
		key = "return"
	case ParameterSite:
		key = "param:" + s.ParameterName
	case SelfSite:
		key = "self"
	}
	for _, k := range s.Kinds {
		key += "\x00" + k.Key()
	}
	return key
}

// joinUserModels merges other into m, deduplicating sites that denote
// the same site+kinds (Model.join_user_models). Later registrations win
// no data; duplicates are simply not repeated.
func (m Model) joinUserModels(other Model) Model {
	seen := map[string]bool{}
	var out []TaintSite
	for _, s := range m.Sites {
		k := siteKey(s)
		if !seen[k] {
			seen[k] = true
			out = append(out, s)
		}
	}
	for _, s := range other.Sites {
		k := siteKey(s)
		if !seen[k] {
			seen[k] = true
			out = append(out, s)
		}
	}
	return Model{Sites: out}
}

// RegistryMap is the final name -> Model table assembled from every
// query's results, merging duplicate registrations for the same target
// across queries.
type RegistryMap struct {
	byTarget map[string]Model
}

// NewRegistryMap builds an empty registry.
func NewRegistryMap() *RegistryMap {
	return &RegistryMap{byTarget: map[string]Model{}}
}

// Add registers results, one per matched target, merging into any
// existing Model recorded for that target's fully-qualified name.
func (r *RegistryMap) Add(results []Result) {
	for _, res := range results {
		key := res.Target.FullyQualifiedName
		model := Model{Sites: res.Sites}
		if existing, ok := r.byTarget[key]; ok {
			model = existing.joinUserModels(model)
		}
		r.byTarget[key] = model
	}
}

// Get returns the merged Model recorded for fqn, if any.
func (r *RegistryMap) Get(fqn string) (Model, bool) {
	m, ok := r.byTarget[fqn]
	return m, ok
}

// Names returns every registered target name in sorted order.
func (r *RegistryMap) Names() []string {
	out := make([]string, 0, len(r.byTarget))
	for k := range r.byTarget {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
