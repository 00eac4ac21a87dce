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
	"regexp"

	"github.com/taintflow/engine/internal/pkg/kind"
)

// Production turns a resolved annotation string (or, for ViaTypeOf/
// ViaValueOf, a referenced parameter) into at most one taint Kind.
// Exactly one field is set.
type Production struct {
	TaintAnnotation           *string
	ParametricSourceFromAnnot *ParametricFromAnnotation
	ParametricSinkFromAnnot   *ParametricFromAnnotation
	ViaTypeOf                 *ViaFeature
	ViaValueOf                *ViaFeature
}

// ParametricFromAnnotation parses `Annotated[..., pattern(subkind)]` out
// of a resolved annotation expression: Pattern must contain exactly one
// capturing group around the subkind text, matched anywhere in the
// annotation string.
type ParametricFromAnnotation struct {
	Pattern string
	Kind    string

	compiled *regexp.Regexp
}

func (p *ParametricFromAnnotation) compile() *regexp.Regexp {
	if p.compiled == nil {
		p.compiled = regexp.MustCompile(p.Pattern)
	}
	return p.compiled
}

func (p *ParametricFromAnnotation) apply(annotation string) (kind.Kind, bool) {
	groups := p.compile().FindStringSubmatch(annotation)
	if groups == nil {
		return kind.Kind{}, false
	}
	subkind := ""
	if len(groups) > 1 {
		subkind = groups[1]
	}
	return kind.Kind{Name: p.Kind, Subkind: subkind}, true
}

// ViaFeature names a parameter whose type (ViaTypeOf) or value
// (ViaValueOf) taint should be read through. Parameter may be the
// sentinel GlobalParameter, rewritten by RewriteGlobalParameter to the
// parameter actually under consideration before Apply runs.
type ViaFeature struct {
	Parameter string
}

// RewriteGlobalParameter returns p's productions with every ViaTypeOf/
// ViaValueOf targeting GlobalParameter rewritten to target actual.
func RewriteGlobalParameter(productions []Production, actual string) []Production {
	out := make([]Production, len(productions))
	for i, p := range productions {
		out[i] = p
		if p.ViaTypeOf != nil && p.ViaTypeOf.Parameter == GlobalParameter {
			rewritten := ViaFeature{Parameter: actual}
			out[i].ViaTypeOf = &rewritten
		}
		if p.ViaValueOf != nil && p.ViaValueOf.Parameter == GlobalParameter {
			rewritten := ViaFeature{Parameter: actual}
			out[i].ViaValueOf = &rewritten
		}
	}
	return out
}

// apply produces the Kind(s) the production contributes for annotation,
// given the resolved parameter set (needed by ViaTypeOf/ViaValueOf to
// look up the referenced parameter's own annotation).
func (p *Production) apply(annotation string, params []Parameter) (kind.Kind, bool) {
	switch {
	case p.TaintAnnotation != nil:
		if annotation == "" {
			return kind.Kind{}, false
		}
		return kind.New(*p.TaintAnnotation), true
	case p.ParametricSourceFromAnnot != nil:
		return p.ParametricSourceFromAnnot.apply(annotation)
	case p.ParametricSinkFromAnnot != nil:
		return p.ParametricSinkFromAnnot.apply(annotation)
	case p.ViaTypeOf != nil:
		return viaFeatureKind("ViaTypeOf", p.ViaTypeOf.Parameter, params)
	case p.ViaValueOf != nil:
		return viaFeatureKind("ViaValueOf", p.ViaValueOf.Parameter, params)
	default:
		return kind.Kind{}, false
	}
}

func viaFeatureKind(name, parameter string, params []Parameter) (kind.Kind, bool) {
	for _, p := range params {
		if p.Name == parameter {
			return kind.Kind{Name: name, Subkind: p.Annotation}, true
		}
	}
	return kind.Kind{}, false
}
