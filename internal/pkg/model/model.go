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

// Package model defines the host-agnostic entities the engine consumes
// and produces: program locations, callable/attribute/global targets,
// and the sink-handle discriminator that distinguishes call sites within
// one definition.
package model

import "fmt"

// Location is a single position in source, the unit the host analysis
// reports alongside every candidate flow.
type Location struct {
	File   string
	Line   int
	Column int
}

// Less defines the total order over locations that determines an
// Issue's canonical location (the minimum under this order).
func (l Location) Less(other Location) bool {
	if l.File != other.File {
		return l.File < other.File
	}
	if l.Line != other.Line {
		return l.Line < other.Line
	}
	return l.Column < other.Column
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Min returns the smallest Location in locs under Less. Panics if locs is
// empty: an Issue always has at least one location.
func Min(locs []Location) Location {
	if len(locs) == 0 {
		panic("model.Min: empty location set")
	}
	min := locs[0]
	for _, l := range locs[1:] {
		if l.Less(min) {
			min = l
		}
	}
	return min
}

// Target identifies a callable, attribute, or global the host resolver
// knows about. FullyQualifiedName is the stable string the host bridge
// commits to (e.g. "pkg.Class.method" or "pkg.global"); Object is an
// opaque handle the host may use to look up further detail (signature,
// decorators, ...) and is not interpreted by the core.
type Target struct {
	FullyQualifiedName string
	Object             interface{}
}

func (t Target) String() string { return t.FullyQualifiedName }

// SinkHandleKind discriminates the concrete shape of a SinkHandle.
type SinkHandleKind int

const (
	// CallSiteHandle distinguishes a call site by callee, ordinal index
	// of that callee's calls within the definition, and parameter port.
	CallSiteHandle SinkHandleKind = iota
	// GlobalHandle identifies a sink that is a global/attribute rather
	// than a call argument, discriminated by kind name.
	GlobalHandle
	// ReturnHandle identifies the definition's own return value as sink.
	ReturnHandle
)

// SinkHandle distinguishes call sites at a definition: callee x
// call-index x parameter port, or a global kind, or the return slot.
type SinkHandle struct {
	Handle SinkHandleKind

	Callee    Target
	CallIndex int
	Port      int

	GlobalKind string
}

// Show returns a stable textual key for the handle, used by Equal and
// String (and so inside rule.Handle.Key) and to order candidates.
func (h SinkHandle) Show() string {
	switch h.Handle {
	case CallSiteHandle:
		return fmt.Sprintf("call:%s#%d:%d", h.Callee.FullyQualifiedName, h.CallIndex, h.Port)
	case GlobalHandle:
		return "global:" + h.GlobalKind
	case ReturnHandle:
		return "return"
	default:
		return "unknown"
	}
}

// Equal reports whether two sink handles denote the same call site.
func (h SinkHandle) Equal(other SinkHandle) bool {
	return h.Show() == other.Show()
}

func (h SinkHandle) String() string { return h.Show() }

// ModelableKind discriminates the four kinds of query target (§3,
// §4.G): a target a query's `find` clause can match.
type ModelableKind int

const (
	Function ModelableKind = iota
	Method
	Attribute
	Global
)

func (k ModelableKind) String() string {
	switch k {
	case Function:
		return "Function"
	case Method:
		return "Method"
	case Attribute:
		return "Attribute"
	case Global:
		return "Global"
	default:
		return "Unknown"
	}
}
