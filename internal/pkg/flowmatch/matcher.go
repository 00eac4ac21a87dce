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

package flowmatch

import (
	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/taintdom"
)

// MatchFlows is the Flow Matcher (§4.B). If sourceTree is empty, it
// returns a candidate with no flows. Otherwise it folds sinkTree along
// each path-to-leaf P: it reads the subtree of sourceTree at P, collapses
// it (widening via collapseBreadcrumbs), and if the resulting source
// taint is non-bottom it emits a Flow pairing that source taint with the
// sink taint found at P.
//
// This matches at sink paths rather than forming the full cross product
// of source and sink paths: the source tree is upward-closed while the
// sink tree enumerates concrete downward paths, so folding over sink
// leaves alone yields exactly the minimal deduplicated flow set (one
// flow per sink-taint path with a non-empty matching source).
func MatchFlows(loc model.Location, sink model.SinkHandle, sourceTree taintdom.ForwardTree, sinkTree taintdom.BackwardTree, collapseBreadcrumbs []string) Candidate {
	key := Key{Location: loc, SinkHandle: sink}
	if sourceTree.IsEmpty() {
		return Candidate{Key: key}
	}

	var flows []taintdom.Flow
	for _, leaf := range sinkTree.Leaves() {
		sourceAtPath := sourceTree.Read(leaf.Path).Collapse(collapseBreadcrumbs)
		if sourceAtPath.IsBottom() {
			continue
		}
		flows = append(flows, taintdom.Flow{Source: sourceAtPath, Sink: leaf.Leaf})
	}

	return Candidate{Key: key, Flows: flows}
}

// CheckFlow is the external-interface entry point (§6): it matches flows
// at the given site and appends the resulting candidate into the shared
// per-definition candidate table.
func CheckFlow(candidates *Candidates, loc model.Location, sink model.SinkHandle, sourceTree taintdom.ForwardTree, sinkTree taintdom.BackwardTree, collapseBreadcrumbs []string) {
	cand := MatchFlows(loc, sink, sourceTree, sinkTree, collapseBreadcrumbs)
	candidates.AddCandidate(cand)
}
