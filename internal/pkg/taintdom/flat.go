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

// Package taintdom is the Taint Domain Facade (§4.A): an opaque
// join/partition/fold contract over lattice values, consumed by the flow
// matcher, sanitizer fixpoint, transform splitter and rule engine. It is
// the Go analogue of the host's ForwardState/BackwardState/ForwardTaint/
// BackwardTaint lattices, which §1 treats as an external abstract-domain
// library; here they are given a concrete (but still opaque-to-callers)
// representation as a flat multiset of (Kind, Frame) pairs collapsed from
// a taint tree (§4.B), since callers never need the tree structure once
// a Flow has been matched.
package taintdom

import (
	"sort"

	"github.com/taintflow/engine/internal/pkg/kind"
)

type entry struct {
	kind  kind.Kind
	frame Frame
}

// flat is the shared representation behind ForwardTaint and
// BackwardTaint: a set of (Kind, Frame) pairs keyed by Kind.Key so that
// two entries for the same kind are always joined rather than
// duplicated.
type flat map[string]entry

func (f flat) isBottom() bool { return len(f) == 0 }

func (f flat) join(other flat) flat {
	if len(f) == 0 {
		return other
	}
	if len(other) == 0 {
		return f
	}
	out := make(flat, len(f)+len(other))
	for k, e := range f {
		out[k] = e
	}
	for k, e := range other {
		if existing, ok := out[k]; ok {
			out[k] = entry{kind: existing.kind, frame: existing.frame.Join(e.frame)}
		} else {
			out[k] = e
		}
	}
	return out
}

func (f flat) kinds() []kind.Kind {
	out := make([]kind.Kind, 0, len(f))
	for _, e := range f {
		out = append(out, e.kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// transform applies fn to every (kind, frame) pair, dropping pairs for
// which fn reports ok=false. Multiple input pairs may collapse onto the
// same output kind, in which case their frames are joined.
func (f flat) transform(fn func(kind.Kind, Frame) (kind.Kind, Frame, bool)) flat {
	out := make(flat, len(f))
	for _, e := range f {
		nk, nf, ok := fn(e.kind, e.frame)
		if !ok {
			continue
		}
		key := nk.Key()
		if existing, exists := out[key]; exists {
			out[key] = entry{kind: nk, frame: existing.frame.Join(nf)}
		} else {
			out[key] = entry{kind: nk, frame: nf}
		}
	}
	return out
}

// partition groups the set by proj(kind), returning, per distinct
// projected-kind key, the representative projected kind and the
// sub-multiset of original entries that projected to it.
func (f flat) partition(proj func(kind.Kind) kind.Kind) map[string]flat {
	out := map[string]flat{}
	for key, e := range f {
		pk := proj(e.kind)
		pkey := pk.Key()
		if out[pkey] == nil {
			out[pkey] = flat{}
		}
		out[pkey][key] = e
	}
	return out
}

// sanitizeTaintKinds re-filters every (kind, frame) pair, discarding
// kinds whose Name appears in sanitized (by Kind.Name, following the
// host's convention that a sanitize-transform names a base kind, not a
// fully-qualified one).
func (f flat) sanitizeTaintKinds(sanitized map[string]bool) flat {
	if len(sanitized) == 0 {
		return f
	}
	return f.transform(func(k kind.Kind, fr Frame) (kind.Kind, Frame, bool) {
		if sanitized[k.Name] {
			return k, fr, false
		}
		return k, fr, true
	})
}

func (f flat) joinedBreadcrumbs() []string {
	var all []string
	for _, e := range f {
		all = append(all, e.frame.Breadcrumbs...)
	}
	return unionStrings(all, nil)
}

// firstIndices returns every distinct feature, across all entries, that
// looks like a numeric/collection index marker (by convention, features
// prefixed "index:"), sorted lexicographically. This mirrors the domain's
// first_indices accessor used to report a representative index for
// diagnostics.
func (f flat) firstIndices() []string {
	return firstPrefixed(f, "index:")
}

// firstFields is the field analogue of firstIndices, over "field:"
// prefixed features.
func (f flat) firstFields() []string {
	return firstPrefixed(f, "field:")
}

func firstPrefixed(f flat, prefix string) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range f {
		for _, feat := range e.frame.Features {
			if len(feat) > len(prefix) && feat[:len(prefix)] == prefix && !seen[feat] {
				seen[feat] = true
				out = append(out, feat)
			}
		}
	}
	sort.Strings(out)
	return out
}

func (f flat) copy() flat {
	out := make(flat, len(f))
	for k, e := range f {
		out[k] = e
	}
	return out
}

// ForwardTaint is the abstract forward-taint value attached to the
// source side of a Flow: a collapsed set of (Kind, Frame) pairs reached
// from some root.
type ForwardTaint struct{ m flat }

// BackwardTaint is the symmetric sink-side value.
type BackwardTaint struct{ m flat }

// BottomForward is the bottom ForwardTaint (no reachable source).
func BottomForward() ForwardTaint { return ForwardTaint{} }

// BottomBackward is the bottom BackwardTaint (no reached sink).
func BottomBackward() BackwardTaint { return BackwardTaint{} }

// SingletonForward builds a ForwardTaint carrying exactly one (kind,
// frame) pair, attributed to ci.
func SingletonForward(ci CallInfo, k kind.Kind, fr Frame) ForwardTaint {
	fr.CallInfo = ci
	return ForwardTaint{m: flat{k.Key(): {kind: k, frame: fr}}}
}

// SingletonBackward is the BackwardTaint analogue of SingletonForward.
func SingletonBackward(ci CallInfo, k kind.Kind, fr Frame) BackwardTaint {
	fr.CallInfo = ci
	return BackwardTaint{m: flat{k.Key(): {kind: k, frame: fr}}}
}

func (t ForwardTaint) IsBottom() bool  { return t.m.isBottom() }
func (t BackwardTaint) IsBottom() bool { return t.m.isBottom() }

func (t ForwardTaint) Join(other ForwardTaint) ForwardTaint {
	return ForwardTaint{m: t.m.join(other.m)}
}
func (t BackwardTaint) Join(other BackwardTaint) BackwardTaint {
	return BackwardTaint{m: t.m.join(other.m)}
}

func (t ForwardTaint) Kinds() []kind.Kind  { return t.m.kinds() }
func (t BackwardTaint) Kinds() []kind.Kind { return t.m.kinds() }

func (t ForwardTaint) Transform(fn func(kind.Kind, Frame) (kind.Kind, Frame, bool)) ForwardTaint {
	return ForwardTaint{m: t.m.transform(fn)}
}
func (t BackwardTaint) Transform(fn func(kind.Kind, Frame) (kind.Kind, Frame, bool)) BackwardTaint {
	return BackwardTaint{m: t.m.transform(fn)}
}

// Partition groups t by proj(kind), returning a map from the projected
// kind's Key() to the projected Kind and the matching ForwardTaint
// sub-value.
func (t ForwardTaint) Partition(proj func(kind.Kind) kind.Kind) map[string]ForwardTaint {
	out := map[string]ForwardTaint{}
	for key, sub := range t.m.partition(proj) {
		out[key] = ForwardTaint{m: sub}
	}
	return out
}

func (t BackwardTaint) Partition(proj func(kind.Kind) kind.Kind) map[string]BackwardTaint {
	out := map[string]BackwardTaint{}
	for key, sub := range t.m.partition(proj) {
		out[key] = BackwardTaint{m: sub}
	}
	return out
}

func (t ForwardTaint) SanitizeTaintKinds(sanitized map[string]bool) ForwardTaint {
	return ForwardTaint{m: t.m.sanitizeTaintKinds(sanitized)}
}
func (t BackwardTaint) SanitizeTaintKinds(sanitized map[string]bool) BackwardTaint {
	return BackwardTaint{m: t.m.sanitizeTaintKinds(sanitized)}
}

func (t ForwardTaint) JoinedBreadcrumbs() []string  { return t.m.joinedBreadcrumbs() }
func (t BackwardTaint) JoinedBreadcrumbs() []string { return t.m.joinedBreadcrumbs() }

func (t ForwardTaint) FirstIndices() []string { return t.m.firstIndices() }
func (t ForwardTaint) FirstFields() []string  { return t.m.firstFields() }

// Fold folds over every (kind, frame) pair in t in a deterministic
// (kind-key-sorted) order.
func (t ForwardTaint) Fold(init interface{}, step func(acc interface{}, k kind.Kind, fr Frame) interface{}) interface{} {
	return foldFlat(t.m, init, step)
}
func (t BackwardTaint) Fold(init interface{}, step func(acc interface{}, k kind.Kind, fr Frame) interface{}) interface{} {
	return foldFlat(t.m, init, step)
}

func foldFlat(f flat, init interface{}, step func(acc interface{}, k kind.Kind, fr Frame) interface{}) interface{} {
	acc := init
	for _, k := range f.kinds() {
		e := f[k.Key()]
		acc = step(acc, e.kind, e.frame)
	}
	return acc
}

// WithIssueHandle returns a copy of t with handleKey recorded against
// every (kind, frame) pair it carries.
func (t ForwardTaint) WithIssueHandle(handleKey string) ForwardTaint {
	return t.Transform(func(k kind.Kind, fr Frame) (kind.Kind, Frame, bool) {
		return k, fr.WithIssueHandle(handleKey), true
	})
}
func (t BackwardTaint) WithIssueHandle(handleKey string) BackwardTaint {
	return t.Transform(func(k kind.Kind, fr Frame) (kind.Kind, Frame, bool) {
		return k, fr.WithIssueHandle(handleKey), true
	})
}
