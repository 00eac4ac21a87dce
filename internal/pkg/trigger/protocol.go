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

package trigger

import (
	"github.com/taintflow/engine/internal/pkg/flowmatch"
	"github.com/taintflow/engine/internal/pkg/kind"
	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/rule"
	"github.com/taintflow/engine/internal/pkg/taintdom"
)

func partialSinksIn(sinkTree taintdom.BackwardTree) []kind.PartialSink {
	var out []kind.PartialSink
	for _, leaf := range sinkTree.Leaves() {
		for _, k := range leaf.Leaf.Kinds() {
			if p, ok := kind.AsPartialSink(k); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

// CheckTriggeredFlows implements the §4.F per-call-site protocol: every
// partial sink found in sinkTree is matched against every source kind
// reachable in sourceTree; a match configured via
// cfg.GetTriggeredSink synthesizes a triggered-sink leaf, runs the flow
// matcher and rule engine to collect provisional issue handles, records
// the result in perCall, and — if perCall already holds the complementary
// half — promotes the match into candidates as a real flow.
func CheckTriggeredFlows(
	candidates *flowmatch.Candidates,
	perCall *SinkMap,
	cfg *rule.Configuration,
	define model.Target,
	loc model.Location,
	sink model.SinkHandle,
	sourceTree taintdom.ForwardTree,
	sinkTree taintdom.BackwardTree,
	collapseBreadcrumbs []string,
) {
	sourceLeaves := sourceTree.Leaves()

	for _, partial := range partialSinksIn(sinkTree) {
		for _, srcLeaf := range sourceLeaves {
			for _, srcKind := range srcLeaf.Leaf.Kinds() {
				triggered, ok := cfg.GetTriggeredSink(partial, srcKind)
				if !ok {
					continue
				}
				handleProvisionalTrigger(candidates, perCall, cfg, define, loc, sink, sourceTree, partial, triggered, srcKind, collapseBreadcrumbs)
			}
		}
	}
}

func handleProvisionalTrigger(
	candidates *flowmatch.Candidates,
	perCall *SinkMap,
	cfg *rule.Configuration,
	define model.Target,
	loc model.Location,
	sink model.SinkHandle,
	sourceTree taintdom.ForwardTree,
	partial kind.PartialSink,
	triggered kind.TriggeredPartialSink,
	srcKind kind.Kind,
	collapseBreadcrumbs []string,
) {
	originCall := taintdom.CallInfo{Kind: taintdom.Origin, Location: loc}
	syntheticSink := taintdom.CreateLeafBackward(originCall, triggered.AsKind(), taintdom.Frame{})

	cand := flowmatch.MatchFlows(loc, sink, sourceTree, syntheticSink, collapseBreadcrumbs)

	var handleKeys []string
	if len(cand.Flows) > 0 {
		tmp := flowmatch.NewCandidates()
		tmp.AddCandidate(cand)
		provisional, _ := rule.GenerateIssues(tmp, cfg, define)
		for _, iss := range provisional {
			handleKeys = append(handleKeys, iss.Handle.Key())
		}
	}

	frame := taintdom.Frame{}
	for _, hk := range handleKeys {
		frame = frame.WithIssueHandle(hk)
	}
	frame = frame.WithExtraTrace(taintdom.ExtraTraceFrame{
		CallInfo: originCall,
		LeafKind: "Source",
		Message:  srcKind.Name,
	})

	key := triggered.String()
	perCall.Set(key, Entry{Kind: triggered.AsKind(), CallInfo: originCall, Frame: frame})

	if complement, ok := cfg.Complement(partial); ok {
		complementKey := kind.TriggeredPartialSink{PartialSink: complement}.String()
		if perCall.Has(complementKey) && len(cand.Flows) > 0 {
			candidates.Add(flowmatch.Key{Location: loc, SinkHandle: sink}, cand.Flows...)
		}
	}
}
