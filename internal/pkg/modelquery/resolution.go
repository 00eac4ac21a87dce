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

// Package modelquery implements the Query Executor (§4.G): matching a
// Query's where-Constraint against a host-resolved modelable, then
// projecting matched models clauses into taint annotations.
package modelquery

import "github.com/taintflow/engine/internal/pkg/model"

// GlobalParameter is the sentinel parameter name a ViaTypeOf/ViaValueOf
// production targets to mean "the parameter under consideration";
// RewriteGlobalParameter replaces it with that parameter's name (or with
// "" for a Return clause).
const GlobalParameter = "$global"

// Parameter is one formal parameter of a resolved callable, as surfaced
// by the host bridge.
type Parameter struct {
	Name       string
	Index      int
	Annotation string
}

// Decorator is one decorator/annotation applied to a resolved callable,
// as surfaced by the host bridge.
type Decorator struct {
	Name           string
	PositionalArgs []string
	KeywordArgs    map[string]string
}

// Resolution exposes the structural facts a query's Constraint and
// ModelClause evaluation need about one modelable target. The host
// bridge implements it; the core never inspects the host's AST
// directly.
type Resolution interface {
	Kind(t model.Target) model.ModelableKind
	Name(t model.Target) string
	FullyQualifiedName(t model.Target) string
	Class(t model.Target) (string, bool)
	ReturnAnnotation(t model.Target) (string, bool)
	Parameters(t model.Target) []Parameter
	Decorators(t model.Target) []Decorator
	// Attribute/Global targets project directly to an annotation.
	Annotation(t model.Target) (string, bool)
}
