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

package taintdom

import (
	"sort"

	"github.com/taintflow/engine/internal/pkg/model"
)

// CallInfoKind discriminates the provenance of a Frame's call-info.
type CallInfoKind int

const (
	// Origin marks a frame minted directly at the location it was
	// observed (a source read, a sink call, a synthesized triggered-sink
	// leaf).
	Origin CallInfoKind = iota
	// PropagatedThrough marks a frame whose taint passed through an
	// intermediate call.
	PropagatedThrough
)

// CallInfo records where a Frame's taint was attributed.
type CallInfo struct {
	Kind     CallInfoKind
	Location model.Location
	Callee   model.Target
}

// ExtraTraceFrame is an auxiliary hop recorded on a Frame, e.g. the
// ExtraTraceFirstHop appended when a triggered sink records the source
// half that triggered it (§4.F).
type ExtraTraceFrame struct {
	CallInfo CallInfo
	LeafKind string
	Message  string
}

// Frame is the leaf payload of a taint tree path: features, breadcrumbs,
// call-info, trace-length, extra-traces and the issue-handle set
// accumulated against this taint element so far.
type Frame struct {
	Features     []string
	Breadcrumbs  []string
	CallInfo     CallInfo
	TraceLength  int
	ExtraTraces  []ExtraTraceFrame
	IssueHandles map[string]bool
}

// NewFrame builds a Frame with a single origin call-info and no
// decoration.
func NewFrame(ci CallInfo) Frame {
	return Frame{CallInfo: ci}
}

// Join computes the domain's meet/join of two frames attributed to the
// same kind at the same tree position: breadcrumbs and issue-handle sets
// union, extra-traces concatenate, and trace length takes the shorter
// (more precise) of the two.
func (f Frame) Join(other Frame) Frame {
	out := Frame{
		Features:    unionStrings(f.Features, other.Features),
		Breadcrumbs: unionStrings(f.Breadcrumbs, other.Breadcrumbs),
		CallInfo:    f.CallInfo,
		TraceLength: minTraceLength(f.TraceLength, other.TraceLength),
		ExtraTraces: append(append([]ExtraTraceFrame(nil), f.ExtraTraces...), other.ExtraTraces...),
	}
	out.IssueHandles = unionHandleSets(f.IssueHandles, other.IssueHandles)
	return out
}

// WithExtraTrace returns a copy of f with et appended to its extra
// traces.
func (f Frame) WithExtraTrace(et ExtraTraceFrame) Frame {
	f.ExtraTraces = append(append([]ExtraTraceFrame(nil), f.ExtraTraces...), et)
	return f
}

// WithIssueHandle returns a copy of f with handleKey recorded in its
// issue-handle set.
func (f Frame) WithIssueHandle(handleKey string) Frame {
	handles := make(map[string]bool, len(f.IssueHandles)+1)
	for k := range f.IssueHandles {
		handles[k] = true
	}
	handles[handleKey] = true
	f.IssueHandles = handles
	return f
}

func minTraceLength(a, b int) int {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	if a < b {
		return a
	}
	return b
}

func unionStrings(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		set[s] = true
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func unionHandleSets(a, b map[string]bool) map[string]bool {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}
