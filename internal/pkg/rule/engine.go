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

package rule

import (
	"github.com/taintflow/engine/internal/pkg/flowmatch"
	"github.com/taintflow/engine/internal/pkg/kind"
	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/taintdom"
	"github.com/taintflow/engine/internal/pkg/transformsplit"
)

func sourcesTaintFor(sources []kind.Kind, partition map[string]taintdom.ForwardTaint) taintdom.ForwardTaint {
	taint := taintdom.BottomForward()
	for _, s := range sources {
		if sub, ok := partition[projectKey(s)]; ok {
			taint = taint.Join(sub)
		}
	}
	return taint
}

func sinksTaintFor(sinks []kind.Kind, partition map[string]taintdom.BackwardTaint) taintdom.BackwardTaint {
	taint := taintdom.BottomBackward()
	for _, s := range sinks {
		if sub, ok := partition[projectKey(s)]; ok {
			taint = taint.Join(sub)
		}
	}
	return taint
}

// GenerateIssues evaluates every rule in cfg against each candidate in
// candidates, returning the resulting issues for the definition define.
func GenerateIssues(candidates *flowmatch.Candidates, cfg *Configuration, define model.Target) ([]Issue, error) {
	var issues []Issue

	for _, key := range candidates.SortedKeys() {
		cand, ok := candidates.Get(key)
		if !ok {
			continue
		}

		combined := taintdom.BottomFlow()
		for _, f := range cand.Flows {
			combined = combined.Join(f)
		}
		if combined.IsBottom() {
			continue
		}

		sourcePartition := combined.Source.Partition(projectForRuleMatch)
		sinkPartition := combined.Sink.Partition(projectForRuleMatch)

		for _, r := range cfg.Rules {
			handle := Handle{Code: r.Code, Callable: define, Sink: key.SinkHandle}

			switch cfg.Mode {
			case LineageAnalysis:
				issues = append(issues, generateLineageIssues(r, handle, key.Location, define, sourcePartition, sinkPartition)...)
			default:
				if iss, ok := generateMergedIssue(r, handle, key.Location, define, sourcePartition, sinkPartition); ok {
					issues = append(issues, iss)
				}
			}
		}
	}

	if cfg.Mode == LineageAnalysis {
		return issues, nil
	}
	return groupByHandle(issues), nil
}

func generateMergedIssue(r Rule, handle Handle, loc model.Location, define model.Target, sourcePartition map[string]taintdom.ForwardTaint, sinkPartition map[string]taintdom.BackwardTaint) (Issue, bool) {
	sourceTaint := sourcesTaintFor(r.Sources, sourcePartition)
	sinkTaint := sinksTaintFor(r.Sinks, sinkPartition)
	if sourceTaint.IsBottom() || sinkTaint.IsBottom() {
		return Issue{}, false
	}

	flow := transformsplit.Apply(r.Transforms, taintdom.Flow{Source: sourceTaint, Sink: sinkTaint})
	if flow.IsBottom() {
		return Issue{}, false
	}

	return Issue{Flow: flow, Handle: handle, Locations: []model.Location{loc}, Define: define}, true
}

// generateLineageIssues emits one issue per (source-kind, sink-kind)
// partition pair that survives the transform split, preserving
// per-access-path provenance instead of merging across all of a rule's
// sources/sinks up front.
func generateLineageIssues(r Rule, handle Handle, loc model.Location, define model.Target, sourcePartition map[string]taintdom.ForwardTaint, sinkPartition map[string]taintdom.BackwardTaint) []Issue {
	var out []Issue
	for _, s := range r.Sources {
		sourceTaint, ok := sourcePartition[projectKey(s)]
		if !ok || sourceTaint.IsBottom() {
			continue
		}
		for _, t := range r.Sinks {
			sinkTaint, ok := sinkPartition[projectKey(t)]
			if !ok || sinkTaint.IsBottom() {
				continue
			}
			flow := transformsplit.Apply(r.Transforms, taintdom.Flow{Source: sourceTaint, Sink: sinkTaint})
			if flow.IsBottom() {
				continue
			}
			out = append(out, Issue{Flow: flow, Handle: handle, Locations: []model.Location{loc}, Define: define})
		}
	}
	return out
}

// groupByHandle merges issues sharing a handle (§4.E: "group all rule
// outputs by handle via join"), guaranteeing at most one issue per handle
// in merge-access-path mode.
func groupByHandle(issues []Issue) []Issue {
	order := make([]string, 0, len(issues))
	byKey := map[string]Issue{}
	for _, iss := range issues {
		key := iss.Handle.Key()
		if existing, ok := byKey[key]; ok {
			byKey[key] = existing.join(iss)
		} else {
			byKey[key] = iss
			order = append(order, key)
		}
	}
	out := make([]Issue, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out
}
