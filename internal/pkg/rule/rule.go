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

// Package rule implements the Rule Engine (§4.E): per candidate, it
// partitions the joined flow by discard-subkind-discard-transforms,
// matches each configured rule's declared sources/sinks against the
// partitions, runs the transform splitter, and emits Issues keyed by a
// stable Handle.
package rule

import (
	"github.com/taintflow/engine/internal/pkg/kind"
	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/taintdom"
)

// Mode selects between the two rule-engine evaluation strategies.
type Mode int

const (
	// MergeAccessPath is the default: a rule's matching source/sink
	// partitions are joined into one flow before the transform split,
	// and the final issue list is grouped by handle so that each handle
	// produces at most one issue.
	MergeAccessPath Mode = iota
	// LineageAnalysis emits a separate issue per matching
	// (source-partition, sink-partition) pair, preserving per-access-path
	// provenance at the cost of allowing multiple issues per handle.
	LineageAnalysis
)

// Rule is one configured source-to-sink policy.
type Rule struct {
	Code             string
	Sources          []kind.Kind
	Sinks            []kind.Kind
	Transforms       []string
	Name             string
	MessageFormat    string
	ExpectedModels   []string
	UnexpectedModels []string
}

// Configuration is the set of rules an evaluation run checks candidates
// against, plus the evaluation Mode.
type Configuration struct {
	Rules               []Rule
	Mode                Mode
	CombinedSourceRules []CombinedSourceRule
}

// RuleByCode returns the configured rule with the given code.
func (c *Configuration) RuleByCode(code string) (Rule, bool) {
	for _, r := range c.Rules {
		if r.Code == code {
			return r, true
		}
	}
	return Rule{}, false
}

// Handle stably identifies an issue for downstream deduplication: the
// rule that matched, the callable it was found in, and the sink it
// flowed to.
type Handle struct {
	Code     string
	Callable model.Target
	Sink     model.SinkHandle
}

// Equal reports whether h and other denote the same handle.
func (h Handle) Equal(other Handle) bool {
	return h.Code == other.Code &&
		h.Callable.FullyQualifiedName == other.Callable.FullyQualifiedName &&
		h.Sink.Equal(other.Sink)
}

// Key returns a canonical string uniquely identifying h, for use as a map
// key when grouping issues.
func (h Handle) Key() string {
	return h.Code + "\x00" + h.Callable.FullyQualifiedName + "\x00" + h.Sink.String()
}

// Issue is a flow that matched a rule.
type Issue struct {
	Flow      taintdom.Flow
	Handle    Handle
	Locations []model.Location
	Define    model.Target
}

// join merges two issues known to share a handle: flows join, the handle
// and define target are unchanged, and locations are unioned.
func (i Issue) join(other Issue) Issue {
	return Issue{
		Flow:      i.Flow.Join(other.Flow),
		Handle:    i.Handle,
		Locations: unionLocations(i.Locations, other.Locations),
		Define:    i.Define,
	}
}

func unionLocations(a, b []model.Location) []model.Location {
	seen := map[model.Location]bool{}
	out := make([]model.Location, 0, len(a)+len(b))
	for _, l := range a {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	for _, l := range b {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

func projectForRuleMatch(k kind.Kind) kind.Kind {
	return k.DiscardSubkindAndTransforms()
}

func projectKey(k kind.Kind) string {
	return projectForRuleMatch(k).Key()
}
