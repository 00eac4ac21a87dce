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

package config

import (
	"encoding/json"
	"fmt"

	configregexp "github.com/taintflow/engine/internal/pkg/config/regexp"
	"github.com/taintflow/engine/internal/pkg/engerr"
	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/modelquery"
)

// queryDoc is the YAML shape of one entry in a queries file. It mirrors
// modelquery.Query field-for-field but with JSON-friendly names and the
// recursive constraint/model trees spelled out so sigs.k8s.io/yaml can
// decode them without custom UnmarshalYAML methods.
type queryDoc struct {
	Name             string         `json:"name"`
	Find             string         `json:"find"`
	Where            *constraintDoc `json:"where"`
	Models           []modelDoc     `json:"models"`
	ExpectedModels   []string       `json:"expectedModels,omitempty"`
	UnexpectedModels []string       `json:"unexpectedModels,omitempty"`
}

type nameConstraintDoc struct {
	Equals  string `json:"equals,omitempty"`
	Matches string `json:"matches,omitempty"`
}

type argSpecDoc struct {
	Positional []string          `json:"positional,omitempty"`
	Keyword    map[string]string `json:"keyword,omitempty"`
}

type argumentsConstraintDoc struct {
	Contains *argSpecDoc `json:"contains,omitempty"`
	Equals   *argSpecDoc `json:"equals,omitempty"`
}

type decoratorConstraintDoc struct {
	Name      *nameConstraintDoc      `json:"name,omitempty"`
	Arguments *argumentsConstraintDoc `json:"arguments,omitempty"`
}

type extendsConstraintDoc struct {
	Class        string `json:"class"`
	Transitive   bool   `json:"transitive,omitempty"`
	IncludesSelf bool   `json:"includesSelf,omitempty"`
}

type anyChildConstraintDoc struct {
	Class        string `json:"class"`
	Transitive   bool   `json:"transitive,omitempty"`
	IncludesSelf bool   `json:"includesSelf,omitempty"`
}

type classConstraintDoc struct {
	Extends  *extendsConstraintDoc  `json:"extends,omitempty"`
	AnyChild *anyChildConstraintDoc `json:"anyChild,omitempty"`
}

type readFromCacheConstraintDoc struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// constraintDoc is the YAML shape of modelquery.Constraint. Exactly one
// field should be set per the closed where-clause algebra (§4.G);
// toConstraint does not itself enforce that, it just wires whatever is
// present.
type constraintDoc struct {
	AnyOf []constraintDoc `json:"anyOf,omitempty"`
	AllOf []constraintDoc `json:"allOf,omitempty"`
	Not   *constraintDoc  `json:"not,omitempty"`

	Name               *nameConstraintDoc          `json:"name,omitempty"`
	FullyQualifiedName *nameConstraintDoc          `json:"fullyQualifiedName,omitempty"`
	Annotation         *nameConstraintDoc          `json:"annotation,omitempty"`
	Return             *constraintDoc              `json:"return,omitempty"`
	AnyParameter       *constraintDoc              `json:"anyParameter,omitempty"`
	AnyDecorator       *decoratorConstraintDoc     `json:"anyDecorator,omitempty"`
	Class              *classConstraintDoc         `json:"class,omitempty"`
	ReadFromCache      *readFromCacheConstraintDoc `json:"readFromCache,omitempty"`
}

type viaFeatureDoc struct {
	Parameter string `json:"parameter"`
}

type parametricFromAnnotationDoc struct {
	Pattern string `json:"pattern"`
	Kind    string `json:"kind"`
}

type productionDoc struct {
	TaintAnnotation           *string                      `json:"taintAnnotation,omitempty"`
	ParametricSourceFromAnnot *parametricFromAnnotationDoc `json:"parametricSourceFromAnnotation,omitempty"`
	ParametricSinkFromAnnot   *parametricFromAnnotationDoc `json:"parametricSinkFromAnnotation,omitempty"`
	ViaTypeOf                 *viaFeatureDoc               `json:"viaTypeOf,omitempty"`
	ViaValueOf                *viaFeatureDoc               `json:"viaValueOf,omitempty"`
}

type returnClauseDoc struct {
	Productions []productionDoc `json:"productions"`
}

type namedParameterClauseDoc struct {
	Name        string          `json:"name"`
	Productions []productionDoc `json:"productions"`
}

type positionalParameterClauseDoc struct {
	Index       int             `json:"index"`
	Productions []productionDoc `json:"productions"`
}

type allParametersClauseDoc struct {
	Excludes    []string        `json:"excludes,omitempty"`
	Productions []productionDoc `json:"productions"`
}

type parameterClauseDoc struct {
	Where       *constraintDoc  `json:"where"`
	Productions []productionDoc `json:"productions"`
}

type selfClauseDoc struct {
	Productions []productionDoc `json:"productions"`
}

type nameTemplatePartDoc struct {
	Literal      *string `json:"literal,omitempty"`
	FunctionName bool    `json:"functionName,omitempty"`
	MethodName   bool    `json:"methodName,omitempty"`
	ClassName    bool    `json:"className,omitempty"`
	Capture      *int    `json:"capture,omitempty"`
}

type writeToCacheClauseDoc struct {
	Kind string                `json:"kind"`
	Name []nameTemplatePartDoc `json:"name"`
}

// modelDoc is the YAML shape of modelquery.ModelClause.
type modelDoc struct {
	Return          *returnClauseDoc              `json:"return,omitempty"`
	NamedParameter  *namedParameterClauseDoc      `json:"namedParameter,omitempty"`
	PositionalParam *positionalParameterClauseDoc `json:"positionalParameter,omitempty"`
	AllParameters   *allParametersClauseDoc       `json:"allParameters,omitempty"`
	Parameter       *parameterClauseDoc           `json:"parameter,omitempty"`
	Self            *selfClauseDoc                `json:"self,omitempty"`
	WriteToCache    *writeToCacheClauseDoc        `json:"writeToCache,omitempty"`
}

func findKindOf(s string) (model.ModelableKind, error) {
	switch s {
	case "Function":
		return model.Function, nil
	case "Method":
		return model.Method, nil
	case "Attribute":
		return model.Attribute, nil
	case "Global":
		return model.Global, nil
	default:
		return 0, engerr.NewConfigError("unknown find kind %q", s)
	}
}

func (d *nameConstraintDoc) toConstraint() *modelquery.NameConstraint {
	if d == nil {
		return nil
	}
	return &modelquery.NameConstraint{Equals: d.Equals, Matches: d.Matches}
}

// validate rejects an unparsable Matches pattern at load time, before it
// can reach modelquery.NameConstraint's lazy regexp.MustCompile and panic
// mid-query.
func (d *nameConstraintDoc) validate() error {
	if d == nil || d.Matches == "" {
		return nil
	}
	encoded, err := json.Marshal(d.Matches)
	if err != nil {
		return engerr.NewConfigError("invalid matches pattern %q: %v", d.Matches, err)
	}
	var re configregexp.Regexp
	if err := re.UnmarshalJSON(encoded); err != nil {
		return engerr.NewConfigError("invalid matches pattern %q: %v", d.Matches, err)
	}
	return nil
}

func (d *argSpecDoc) toSpec() *modelquery.ArgSpec {
	if d == nil {
		return nil
	}
	return &modelquery.ArgSpec{Positional: d.Positional, Keyword: d.Keyword}
}

func (d *argumentsConstraintDoc) toConstraint() *modelquery.ArgumentsConstraint {
	if d == nil {
		return nil
	}
	return &modelquery.ArgumentsConstraint{Contains: d.Contains.toSpec(), Equals: d.Equals.toSpec()}
}

func (d *decoratorConstraintDoc) toConstraint() *modelquery.DecoratorConstraint {
	if d == nil {
		return nil
	}
	return &modelquery.DecoratorConstraint{Name: d.Name.toConstraint(), Arguments: d.Arguments.toConstraint()}
}

func (d *classConstraintDoc) toConstraint() *modelquery.ClassConstraint {
	if d == nil {
		return nil
	}
	c := &modelquery.ClassConstraint{}
	if d.Extends != nil {
		c.Extends = &modelquery.ExtendsConstraint{
			Class:        d.Extends.Class,
			Transitive:   d.Extends.Transitive,
			IncludesSelf: d.Extends.IncludesSelf,
		}
	}
	if d.AnyChild != nil {
		c.AnyChild = &modelquery.AnyChildConstraint{
			Class:        d.AnyChild.Class,
			Transitive:   d.AnyChild.Transitive,
			IncludesSelf: d.AnyChild.IncludesSelf,
		}
	}
	return c
}

func (d *readFromCacheConstraintDoc) toConstraint() *modelquery.ReadFromCacheConstraint {
	if d == nil {
		return nil
	}
	return &modelquery.ReadFromCacheConstraint{Kind: d.Kind, Name: d.Name}
}

// validate walks the constraint tree, validating every Matches pattern
// it reaches.
func (d *constraintDoc) validate() error {
	if d == nil {
		return nil
	}
	for i := range d.AnyOf {
		if err := d.AnyOf[i].validate(); err != nil {
			return err
		}
	}
	for i := range d.AllOf {
		if err := d.AllOf[i].validate(); err != nil {
			return err
		}
	}
	if err := d.Not.validate(); err != nil {
		return err
	}
	if err := d.Name.validate(); err != nil {
		return err
	}
	if err := d.FullyQualifiedName.validate(); err != nil {
		return err
	}
	if err := d.Annotation.validate(); err != nil {
		return err
	}
	if err := d.Return.validate(); err != nil {
		return err
	}
	if err := d.AnyParameter.validate(); err != nil {
		return err
	}
	if d.AnyDecorator != nil {
		if err := d.AnyDecorator.Name.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (d *constraintDoc) toConstraint() *modelquery.Constraint {
	if d == nil {
		return nil
	}
	c := &modelquery.Constraint{
		Name:               d.Name.toConstraint(),
		FullyQualifiedName: d.FullyQualifiedName.toConstraint(),
		Annotation:         d.Annotation.toConstraint(),
		Return:             d.Return.toConstraint(),
		AnyParameter:       d.AnyParameter.toConstraint(),
		AnyDecorator:       d.AnyDecorator.toConstraint(),
		Class:              d.Class.toConstraint(),
		ReadFromCache:      d.ReadFromCache.toConstraint(),
		Not:                d.Not.toConstraint(),
	}
	if len(d.AnyOf) > 0 {
		c.AnyOf = make([]modelquery.Constraint, len(d.AnyOf))
		for i := range d.AnyOf {
			c.AnyOf[i] = *d.AnyOf[i].toConstraint()
		}
	}
	if len(d.AllOf) > 0 {
		c.AllOf = make([]modelquery.Constraint, len(d.AllOf))
		for i := range d.AllOf {
			c.AllOf[i] = *d.AllOf[i].toConstraint()
		}
	}
	return c
}

func (d *parametricFromAnnotationDoc) toParametric() *modelquery.ParametricFromAnnotation {
	if d == nil {
		return nil
	}
	return &modelquery.ParametricFromAnnotation{Pattern: d.Pattern, Kind: d.Kind}
}

func (d *viaFeatureDoc) toFeature() *modelquery.ViaFeature {
	if d == nil {
		return nil
	}
	return &modelquery.ViaFeature{Parameter: d.Parameter}
}

func (d productionDoc) toProduction() modelquery.Production {
	return modelquery.Production{
		TaintAnnotation:           d.TaintAnnotation,
		ParametricSourceFromAnnot: d.ParametricSourceFromAnnot.toParametric(),
		ParametricSinkFromAnnot:   d.ParametricSinkFromAnnot.toParametric(),
		ViaTypeOf:                 d.ViaTypeOf.toFeature(),
		ViaValueOf:                d.ViaValueOf.toFeature(),
	}
}

func toProductions(docs []productionDoc) []modelquery.Production {
	out := make([]modelquery.Production, len(docs))
	for i, d := range docs {
		out[i] = d.toProduction()
	}
	return out
}

func toNameTemplate(parts []nameTemplatePartDoc) modelquery.NameTemplate {
	out := make(modelquery.NameTemplate, len(parts))
	for i, p := range parts {
		out[i] = modelquery.NameTemplatePart{
			Literal:      p.Literal,
			FunctionName: p.FunctionName,
			MethodName:   p.MethodName,
			ClassName:    p.ClassName,
			Capture:      p.Capture,
		}
	}
	return out
}

func (d modelDoc) toModelClause() modelquery.ModelClause {
	m := modelquery.ModelClause{}
	switch {
	case d.Return != nil:
		m.Return = &modelquery.ReturnClause{Productions: toProductions(d.Return.Productions)}
	case d.NamedParameter != nil:
		m.NamedParameter = &modelquery.NamedParameterClause{
			Name:        d.NamedParameter.Name,
			Productions: toProductions(d.NamedParameter.Productions),
		}
	case d.PositionalParam != nil:
		m.PositionalParam = &modelquery.PositionalParameterClause{
			Index:       d.PositionalParam.Index,
			Productions: toProductions(d.PositionalParam.Productions),
		}
	case d.AllParameters != nil:
		m.AllParameters = &modelquery.AllParametersClause{
			Excludes:    d.AllParameters.Excludes,
			Productions: toProductions(d.AllParameters.Productions),
		}
	case d.Parameter != nil:
		m.Parameter = &modelquery.ParameterClause{
			Where:       d.Parameter.Where.toConstraint(),
			Productions: toProductions(d.Parameter.Productions),
		}
	case d.Self != nil:
		m.Self = &modelquery.SelfClause{Productions: toProductions(d.Self.Productions)}
	case d.WriteToCache != nil:
		m.WriteToCache = &modelquery.WriteToCacheClause{
			Kind: d.WriteToCache.Kind,
			Name: toNameTemplate(d.WriteToCache.Name),
		}
	}
	return m
}

func (d queryDoc) toQuery() (modelquery.Query, error) {
	find, err := findKindOf(d.Find)
	if err != nil {
		return modelquery.Query{}, fmt.Errorf("query %q: %w", d.Name, err)
	}
	if err := d.Where.validate(); err != nil {
		return modelquery.Query{}, fmt.Errorf("query %q: %w", d.Name, err)
	}
	models := make([]modelquery.ModelClause, len(d.Models))
	for i, m := range d.Models {
		if m.Parameter != nil {
			if err := m.Parameter.Where.validate(); err != nil {
				return modelquery.Query{}, fmt.Errorf("query %q: %w", d.Name, err)
			}
		}
		models[i] = m.toModelClause()
	}
	return modelquery.Query{
		Name:             d.Name,
		Find:             find,
		Where:            d.Where.toConstraint(),
		Models:           models,
		ExpectedModels:   d.ExpectedModels,
		UnexpectedModels: d.UnexpectedModels,
	}, nil
}

// queriesFile is the top-level shape of a queries YAML document.
type queriesFile struct {
	Queries []queryDoc `json:"queries"`
}

// decodeQueries converts a parsed queries document into the Query slice
// the rwcache pipeline and model-generation pass consume.
func decodeQueries(doc queriesFile) ([]modelquery.Query, error) {
	out := make([]modelquery.Query, 0, len(doc.Queries))
	for _, qd := range doc.Queries {
		q, err := qd.toQuery()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}
