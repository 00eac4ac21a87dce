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

// Package transformsplit implements the Transform Splitter (§4.D): given
// a rule's required named-transform sequence, it enumerates every way to
// split that sequence into a source-side prefix and a sink-side suffix,
// keeps only the splits whose prefix/suffix actually appear on the
// matching sides of a Flow, and joins the sanitizer-fixpoint result of
// each surviving split.
package transformsplit

import (
	"github.com/taintflow/engine/internal/pkg/kind"
	"github.com/taintflow/engine/internal/pkg/sanitize"
	"github.com/taintflow/engine/internal/pkg/taintdom"
)

// namedTransformsProjection discards every Kind field except the
// named-transform list, so that Partition groups purely by that list.
func namedTransformsProjection(k kind.Kind) kind.Kind {
	return kind.Kind{NamedTransforms: k.NamedTransforms}
}

func keyFor(transforms []string) string {
	return kind.Kind{NamedTransforms: transforms}.Key()
}

func sourcePartitionByTransforms(taint taintdom.ForwardTaint, transforms []string) (taintdom.ForwardTaint, bool) {
	groups := taint.Partition(namedTransformsProjection)
	sub, ok := groups[keyFor(transforms)]
	return sub, ok
}

func sinkPartitionByTransforms(taint taintdom.BackwardTaint, transforms []string) (taintdom.BackwardTaint, bool) {
	groups := taint.Partition(namedTransformsProjection)
	sub, ok := groups[keyFor(transforms)]
	return sub, ok
}

// splits enumerates every (prefix, suffix) pair covering transforms, in
// prefix-length order from 0 to len(transforms).
func splits(transforms []string) [][2][]string {
	out := make([][2][]string, 0, len(transforms)+1)
	for i := 0; i <= len(transforms); i++ {
		prefix := append([]string(nil), transforms[:i]...)
		suffix := append([]string(nil), transforms[i:]...)
		out = append(out, [2][]string{prefix, suffix})
	}
	return out
}

// Apply runs the transform splitter over flow for the given rule
// transforms, returning the join of the sanitizer-fixpoint result of
// every split whose prefix partitions the source side and whose suffix
// partitions the sink side.
func Apply(transforms []string, flow taintdom.Flow) taintdom.Flow {
	acc := taintdom.BottomFlow()
	for _, sp := range splits(transforms) {
		prefix, suffix := sp[0], sp[1]

		srcSub, srcOk := sourcePartitionByTransforms(flow.Source, prefix)
		if !srcOk {
			continue
		}
		sinkSub, sinkOk := sinkPartitionByTransforms(flow.Sink, suffix)
		if !sinkOk {
			continue
		}

		sub := taintdom.Flow{Source: srcSub, Sink: sinkSub}
		acc = acc.Join(sanitize.ApplySanitizers(sub))
	}
	return acc
}
