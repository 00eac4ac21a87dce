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

// Package kind models the source/sink Kind entity of the taint domain:
// an opaque name optionally carrying a subkind discriminator, a pair of
// sanitize-transform sets, and an ordered list of named transforms.
package kind

import (
	"sort"
	"strings"
)

// SanitizeTransforms is a pair of disjoint sets: sanitized-sources and
// sanitized-sinks. Both sides are compared as sorted copies, so Kind
// equality and Key do not depend on the order the slices were built in.
type SanitizeTransforms struct {
	SanitizedSources []string
	SanitizedSinks   []string
}

// IsEmpty reports whether neither side carries a sanitize transform.
func (st SanitizeTransforms) IsEmpty() bool {
	return len(st.SanitizedSources) == 0 && len(st.SanitizedSinks) == 0
}

func (st SanitizeTransforms) equal(other SanitizeTransforms) bool {
	return stringsEqual(sortedCopy(st.SanitizedSources), sortedCopy(other.SanitizedSources)) &&
		stringsEqual(sortedCopy(st.SanitizedSinks), sortedCopy(other.SanitizedSinks))
}

// Kind is an opaque identifier for a source or sink type, e.g.
// "UserControlled". Two kinds are equal iff every component is equal.
type Kind struct {
	Name               string
	Subkind            string
	SanitizeTransforms SanitizeTransforms
	NamedTransforms    []string
}

// New builds a bare Kind with no subkind or transforms.
func New(name string) Kind {
	return Kind{Name: name}
}

// Equal reports whether k and other denote the same kind.
func (k Kind) Equal(other Kind) bool {
	return k.Name == other.Name &&
		k.Subkind == other.Subkind &&
		k.SanitizeTransforms.equal(other.SanitizeTransforms) &&
		stringsEqual(k.NamedTransforms, other.NamedTransforms)
}

// DiscardSubkind returns a copy of k with the subkind cleared.
func (k Kind) DiscardSubkind() Kind {
	k.Subkind = ""
	return k
}

// DiscardTransforms returns a copy of k with the named-transform list
// cleared.
func (k Kind) DiscardTransforms() Kind {
	k.NamedTransforms = nil
	return k
}

// DiscardSanitizeTransforms returns a copy of k with its sanitize
// transforms cleared.
func (k Kind) DiscardSanitizeTransforms() Kind {
	k.SanitizeTransforms = SanitizeTransforms{}
	return k
}

// ExtractSanitizeTransforms returns just the sanitize-transform payload
// of k.
func (k Kind) ExtractSanitizeTransforms() SanitizeTransforms {
	return k.SanitizeTransforms
}

// GetNamedTransforms returns the ordered list of named transforms k
// carries.
func (k Kind) GetNamedTransforms() []string {
	return k.NamedTransforms
}

// ContainsSanitizeTransforms reports whether k carries any sanitize
// transform at all.
func (k Kind) ContainsSanitizeTransforms() bool {
	return !k.SanitizeTransforms.IsEmpty()
}

// DiscardSubkindAndTransforms returns discard_subkind ∘
// discard_transforms(k), the projection the rule engine (§4.E) partitions
// flows by before matching rule sources/sinks.
func (k Kind) DiscardSubkindAndTransforms() Kind {
	return k.DiscardSubkind().DiscardTransforms()
}

// Base returns discard_sanitize_transforms ∘ discard_subkind(k), used by
// the sanitizer fixpoint (§4.C) to compute the "single base source/sink"
// across a kind set.
func (k Kind) Base() Kind {
	return k.DiscardSanitizeTransforms().DiscardSubkind()
}

// Key returns a canonical string uniquely identifying k, suitable for use
// as a map key. Kind.Equal(a, b) iff Key(a) == Key(b).
func (k Kind) Key() string {
	var b strings.Builder
	b.WriteString(k.Name)
	b.WriteByte('\x00')
	b.WriteString(k.Subkind)
	b.WriteByte('\x00')
	b.WriteString(strings.Join(sortedCopy(k.SanitizeTransforms.SanitizedSources), ","))
	b.WriteByte('\x00')
	b.WriteString(strings.Join(sortedCopy(k.SanitizeTransforms.SanitizedSinks), ","))
	b.WriteByte('\x00')
	b.WriteString(strings.Join(k.NamedTransforms, ","))
	return b.String()
}

func (k Kind) String() string {
	if k.Subkind == "" {
		return k.Name
	}
	return k.Name + "[" + k.Subkind + "]"
}

func sortedCopy(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// PartialSink is the kind of a placeholder sink requiring a complementary
// source to become an issue (§4.F). It is identified by a textual key,
// e.g. "UC_and_VC[uc]".
type PartialSink struct {
	Key string
}

func (p PartialSink) String() string { return p.Key }

// partialSinkKindName and triggeredPartialSinkKindName are the reserved
// Kind.Name values used to embed a PartialSink/TriggeredPartialSink in a
// taint tree leaf, since tree leaves are keyed generically by Kind.
const (
	partialSinkKindName          = "PartialSink"
	triggeredPartialSinkKindName = "TriggeredPartialSink"
)

// AsKind embeds p as a Kind so it can be written into a taint tree leaf.
func (p PartialSink) AsKind() Kind {
	return Kind{Name: partialSinkKindName, Subkind: p.Key}
}

// AsPartialSink reports whether k was built by PartialSink.AsKind, and if
// so recovers the original PartialSink.
func AsPartialSink(k Kind) (PartialSink, bool) {
	if k.Name != partialSinkKindName {
		return PartialSink{}, false
	}
	return PartialSink{Key: k.Subkind}, true
}

// TriggeredPartialSink marks a backward-taint leaf synthesized once a
// partial sink has been triggered by one half of a combined-source rule.
type TriggeredPartialSink struct {
	PartialSink PartialSink
}

func (t TriggeredPartialSink) String() string { return "Triggered[" + t.PartialSink.Key + "]" }

// AsKind embeds t as a Kind so it can be written into a taint tree leaf.
func (t TriggeredPartialSink) AsKind() Kind {
	return Kind{Name: triggeredPartialSinkKindName, Subkind: t.PartialSink.Key}
}
