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

// Package sanitize implements the Sanitizer Fixpoint (§4.C): mutual
// refinement of a Flow's source and sink kind sets until the sanitized
// sets and the "single base kind" observations on both sides stop
// changing.
//
// Each step only shrinks a kind set (the taint domain facade's
// SanitizeTaintKinds never adds kinds back), so over a finite kind
// universe the loop reaches a fixpoint in at most O(|kinds|) iterations:
// this mirrors the monotone convergence argument behind
// earpointer.AbsState's union-find merge (each unification strictly
// decreases the partition count, bounded below by 1).
package sanitize

import (
	"github.com/taintflow/engine/internal/pkg/kind"
	"github.com/taintflow/engine/internal/pkg/taintdom"
)

// stringSet is used to represent the accumulator for "intersection over
// every kind's extracted sanitize-transform set". nil means "no kinds
// have contributed yet" (the §4.C "None"/top accumulator); a non-nil,
// possibly-empty map is the running intersection.
type stringSet map[string]bool

func intersect(a, b stringSet) stringSet {
	out := stringSet{}
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func toSlice(ss []string) stringSet {
	out := make(stringSet, len(ss))
	for _, s := range ss {
		out[s] = true
	}
	return out
}

// intersectionOverKinds folds set-intersection over extract(k) for every
// k in kinds, starting from a None/top accumulator. It returns nil if
// kinds is empty (§4.C: "only a missing value defaults to the empty set
// when the fixpoint is read out" — the caller decides the default).
func intersectionOverKinds(kinds []kind.Kind, extract func(kind.Kind) []string) stringSet {
	var acc stringSet
	for _, k := range kinds {
		s := toSlice(extract(k))
		if acc == nil {
			acc = s
		} else {
			acc = intersect(acc, s)
		}
	}
	return acc
}

func readOut(s stringSet) map[string]bool {
	if s == nil {
		return map[string]bool{}
	}
	return map[string]bool(s)
}

// singleBase returns the unique Base() (discard-sanitize-transforms ∘
// discard-subkind) shared by every kind in kinds, or ok=false if kinds is
// empty or the bases differ.
func singleBase(kinds []kind.Kind) (kind.Kind, bool) {
	if len(kinds) == 0 {
		return kind.Kind{}, false
	}
	base := kinds[0].Base()
	for _, k := range kinds[1:] {
		if !k.Base().Equal(base) {
			return kind.Kind{}, false
		}
	}
	return base, true
}

func removeIfNames(taintKinds []kind.Kind, carriesSanitizeTransformFor func(kind.Kind, string) bool, name string) map[string]bool {
	toRemove := map[string]bool{}
	for _, k := range taintKinds {
		if carriesSanitizeTransformFor(k, name) {
			toRemove[k.Name] = true
		}
	}
	return toRemove
}

func sinkCarriesSanitizeTransformForSource(k kind.Kind, sourceName string) bool {
	for _, s := range k.SanitizeTransforms.SanitizedSources {
		if s == sourceName {
			return true
		}
	}
	return false
}

func sourceCarriesSanitizeTransformForSink(k kind.Kind, sinkName string) bool {
	for _, s := range k.SanitizeTransforms.SanitizedSinks {
		if s == sinkName {
			return true
		}
	}
	return false
}

type fixpointState struct {
	sanitizedSources stringSet
	sanitizedSinks   stringSet
	baseSource       string
	haveBaseSource   bool
	baseSink         string
	haveBaseSink     bool
}

func (s fixpointState) equal(o fixpointState) bool {
	return setEqual(s.sanitizedSources, o.sanitizedSources) &&
		setEqual(s.sanitizedSinks, o.sanitizedSinks) &&
		s.baseSource == o.baseSource && s.haveBaseSource == o.haveBaseSource &&
		s.baseSink == o.baseSink && s.haveBaseSink == o.haveBaseSink
}

func setEqual(a, b stringSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// ApplySanitizers runs the sanitizer fixpoint on flow and returns the
// refined Flow. It is idempotent: ApplySanitizers(ApplySanitizers(f)) ==
// ApplySanitizers(f).
func ApplySanitizers(flow taintdom.Flow) taintdom.Flow {
	source, sink := flow.Source, flow.Sink

	var prev fixpointState
	first := true
	for {
		sourceKinds := source.Kinds()
		sinkKinds := sink.Kinds()

		sanitizedSinks := intersectionOverKinds(sourceKinds, func(k kind.Kind) []string {
			return k.SanitizeTransforms.SanitizedSinks
		})
		sink = sink.SanitizeTaintKinds(readOut(sanitizedSinks))

		sanitizedSources := intersectionOverKinds(sinkKinds, func(k kind.Kind) []string {
			return k.SanitizeTransforms.SanitizedSources
		})
		source = source.SanitizeTaintKinds(readOut(sanitizedSources))

		sourceKindsAfter := source.Kinds()
		sinkKindsAfter := sink.Kinds()

		var current fixpointState
		current.sanitizedSources = sanitizedSources
		current.sanitizedSinks = sanitizedSinks

		if base, ok := singleBase(sourceKindsAfter); ok {
			current.haveBaseSource = true
			current.baseSource = base.Name
			toRemove := removeIfNames(sinkKindsAfter, sinkCarriesSanitizeTransformForSource, base.Name)
			sink = sink.SanitizeTaintKinds(toRemove)
		}

		if base, ok := singleBase(sink.Kinds()); ok {
			current.haveBaseSink = true
			current.baseSink = base.Name
			toRemove := removeIfNames(source.Kinds(), sourceCarriesSanitizeTransformForSink, base.Name)
			source = source.SanitizeTaintKinds(toRemove)
		}

		if !first && current.equal(prev) {
			break
		}
		prev = current
		first = false
	}

	return taintdom.Flow{Source: source, Sink: sink}
}
