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

import "github.com/taintflow/engine/internal/pkg/kind"

// PartialSinkSide is one half of a combined-source rule: the partial sink
// that represents it, and the name of the source kind that completes it.
type PartialSinkSide struct {
	Sink       kind.PartialSink
	SourceName string
}

// CombinedSourceRule configures a pair of complementary partial sinks:
// a flow is only an issue once both sides have each seen their triggering
// source (§4.F).
type CombinedSourceRule struct {
	SideA PartialSinkSide
	SideB PartialSinkSide
}

// GetTriggeredSink implements §4.F's get_triggered_sink(partial_sink,
// source): if source's name is configured to trigger partial, it returns
// the resulting TriggeredPartialSink.
func (c *Configuration) GetTriggeredSink(partial kind.PartialSink, source kind.Kind) (kind.TriggeredPartialSink, bool) {
	for _, r := range c.CombinedSourceRules {
		for _, side := range [...]PartialSinkSide{r.SideA, r.SideB} {
			if side.Sink.Key == partial.Key && side.SourceName == source.Name {
				return kind.TriggeredPartialSink{PartialSink: partial}, true
			}
		}
	}
	return kind.TriggeredPartialSink{}, false
}

// Complement returns the other half of partial's combined-source rule, if
// configured.
func (c *Configuration) Complement(partial kind.PartialSink) (kind.PartialSink, bool) {
	for _, r := range c.CombinedSourceRules {
		if r.SideA.Sink.Key == partial.Key {
			return r.SideB.Sink, true
		}
		if r.SideB.Sink.Key == partial.Key {
			return r.SideA.Sink, true
		}
	}
	return kind.PartialSink{}, false
}
