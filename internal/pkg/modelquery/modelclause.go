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

package modelquery

import (
	"github.com/taintflow/engine/internal/pkg/kind"
	"github.com/taintflow/engine/internal/pkg/model"
)

// SiteKind discriminates where on a callable a model clause's
// productions apply.
type SiteKind int

const (
	// ReturnSite is the callable's own return value.
	ReturnSite SiteKind = iota
	// ParameterSite is one parameter, identified by ParameterIndex.
	ParameterSite
	// SelfSite is an attribute or global projecting directly.
	SelfSite
	// CacheWriteSite carries a write-to-cache key rather than taint
	// Kinds; consumed by the read/write cache pipeline (§4.H).
	CacheWriteSite
)

func (s SiteKind) String() string {
	switch s {
	case ReturnSite:
		return "Return"
	case ParameterSite:
		return "Parameter"
	case SelfSite:
		return "Self"
	case CacheWriteSite:
		return "CacheWrite"
	default:
		return "Unknown"
	}
}

// CacheWrite is the expanded (kind, name) pair a WriteToCache clause
// produced for one target.
type CacheWrite struct {
	Kind string
	Name string
}

// TaintSite is one (location, kinds) pair a models clause produced, or
// (for CacheWriteSite) a cache key to write the matched target under.
type TaintSite struct {
	Site           SiteKind
	ParameterIndex int
	ParameterName  string
	Kinds          []kind.Kind
	CacheWrite     *CacheWrite
}

func applyProductions(productions []Production, annotation string, params []Parameter) []kind.Kind {
	var out []kind.Kind
	for i := range productions {
		if k, ok := productions[i].apply(annotation, params); ok {
			out = append(out, k)
		}
	}
	return out
}

// ModelClause projects a callable's return/parameters (or an
// attribute/global's own annotation) through a set of Productions.
// Exactly one field is set.
type ModelClause struct {
	Return          *ReturnClause
	NamedParameter  *NamedParameterClause
	PositionalParam *PositionalParameterClause
	AllParameters   *AllParametersClause
	Parameter       *ParameterClause
	// Attribute/Global targets use Self instead of the callable clauses
	// above; it permits only TaintAnnotation productions (§4.G).
	Self *SelfClause
	// WriteToCache records the matched target into the read/write cache
	// under an expanded name-template key (§4.H) rather than producing
	// taint Kinds.
	WriteToCache *WriteToCacheClause
}

// WriteToCacheClause is a models-clause entry that, instead of
// projecting taint, registers the matched target into the cache under
// {Kind, Name.Expand(...)}.
type WriteToCacheClause struct {
	Kind string
	Name NameTemplate
}

// ReturnClause maps every production over the return annotation.
type ReturnClause struct {
	Productions []Production
}

// NamedParameterClause looks up the parameter by sanitized name.
type NamedParameterClause struct {
	Name        string
	Productions []Production
}

// PositionalParameterClause matches by positional index.
type PositionalParameterClause struct {
	Index       int
	Productions []Production
}

// AllParametersClause iterates every parameter not named in Excludes.
type AllParametersClause struct {
	Excludes    []string
	Productions []Production
}

// ParameterClause iterates parameters whose Where constraint (evaluated
// against the parameter's own annotation) matches.
type ParameterClause struct {
	Where       *Constraint
	Productions []Production
}

// SelfClause projects an attribute/global's own annotation; only
// TaintAnnotation productions are permitted here (§4.G).
type SelfClause struct {
	Productions []Production
}

func excluded(name string, excludes []string) bool {
	for _, e := range excludes {
		if e == name {
			return true
		}
	}
	return false
}

// Apply runs m against a resolved callable's return/parameters, or (for
// Self) an attribute/global's own annotation, returning every TaintSite
// the clause produced.
func (m *ModelClause) Apply(ctx *EvalContext, t ResolvedCallable) []TaintSite {
	switch {
	case m.Return != nil:
		ann, ok := t.ReturnAnnotation()
		if !ok {
			return nil
		}
		productions := RewriteGlobalParameter(m.Return.Productions, "")
		kinds := applyProductions(productions, ann, t.Parameters())
		if len(kinds) == 0 {
			return nil
		}
		return []TaintSite{{Site: ReturnSite, Kinds: kinds}}

	case m.NamedParameter != nil:
		for _, p := range t.Parameters() {
			if sanitizeIdent(p.Name) == sanitizeIdent(m.NamedParameter.Name) {
				productions := RewriteGlobalParameter(m.NamedParameter.Productions, p.Name)
				kinds := applyProductions(productions, p.Annotation, t.Parameters())
				if len(kinds) == 0 {
					return nil
				}
				return []TaintSite{{Site: ParameterSite, ParameterIndex: p.Index, ParameterName: p.Name, Kinds: kinds}}
			}
		}
		return nil

	case m.PositionalParam != nil:
		for _, p := range t.Parameters() {
			if p.Index == m.PositionalParam.Index {
				productions := RewriteGlobalParameter(m.PositionalParam.Productions, p.Name)
				kinds := applyProductions(productions, p.Annotation, t.Parameters())
				if len(kinds) == 0 {
					return nil
				}
				return []TaintSite{{Site: ParameterSite, ParameterIndex: p.Index, ParameterName: p.Name, Kinds: kinds}}
			}
		}
		return nil

	case m.AllParameters != nil:
		var out []TaintSite
		for _, p := range t.Parameters() {
			if excluded(p.Name, m.AllParameters.Excludes) {
				continue
			}
			productions := RewriteGlobalParameter(m.AllParameters.Productions, p.Name)
			kinds := applyProductions(productions, p.Annotation, t.Parameters())
			if len(kinds) == 0 {
				continue
			}
			out = append(out, TaintSite{Site: ParameterSite, ParameterIndex: p.Index, ParameterName: p.Name, Kinds: kinds})
		}
		return out

	case m.Parameter != nil:
		var out []TaintSite
		for _, p := range t.Parameters() {
			if m.Parameter.Where != nil && !m.Parameter.Where.evalString(ctx, p.Annotation) {
				continue
			}
			productions := RewriteGlobalParameter(m.Parameter.Productions, p.Name)
			kinds := applyProductions(productions, p.Annotation, t.Parameters())
			if len(kinds) == 0 {
				continue
			}
			out = append(out, TaintSite{Site: ParameterSite, ParameterIndex: p.Index, ParameterName: p.Name, Kinds: kinds})
		}
		return out

	case m.Self != nil:
		ann, ok := t.SelfAnnotation()
		if !ok {
			return nil
		}
		kinds := applyProductions(onlyTaintAnnotation(m.Self.Productions), ann, nil)
		if len(kinds) == 0 {
			return nil
		}
		return []TaintSite{{Site: SelfSite, Kinds: kinds}}

	case m.WriteToCache != nil:
		name := m.WriteToCache.Name.Expand(ctx, t)
		return []TaintSite{{Site: CacheWriteSite, CacheWrite: &CacheWrite{Kind: m.WriteToCache.Kind, Name: name}}}

	default:
		return nil
	}
}

// onlyTaintAnnotation filters out any production other than
// TaintAnnotation, enforcing the §4.G restriction that attribute/global
// models clauses permit only that production.
func onlyTaintAnnotation(productions []Production) []Production {
	out := make([]Production, 0, len(productions))
	for _, p := range productions {
		if p.TaintAnnotation != nil {
			out = append(out, p)
		}
	}
	return out
}

// ResolvedCallable is the narrow view of Resolution a ModelClause needs,
// already bound to one target.
type ResolvedCallable interface {
	ReturnAnnotation() (string, bool)
	Parameters() []Parameter
	SelfAnnotation() (string, bool)
	Name() string
	Class() (string, bool)
}

// BindTarget adapts a Resolution + model.Target pair to ResolvedCallable
// for use with ModelClause.Apply.
func BindTarget(res Resolution, t model.Target) ResolvedCallable {
	return boundTarget{res: res, t: t}
}

type boundTarget struct {
	res Resolution
	t   model.Target
}

func (b boundTarget) ReturnAnnotation() (string, bool) { return b.res.ReturnAnnotation(b.t) }
func (b boundTarget) Parameters() []Parameter          { return b.res.Parameters(b.t) }
func (b boundTarget) SelfAnnotation() (string, bool)   { return b.res.Annotation(b.t) }
func (b boundTarget) Name() string                     { return b.res.Name(b.t) }
func (b boundTarget) Class() (string, bool)            { return b.res.Class(b.t) }
