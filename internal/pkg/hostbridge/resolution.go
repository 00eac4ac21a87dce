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

// Package hostbridge is the reference host bridge (§6): it reads the
// build-system's JSON description of resolvable targets and a class
// hierarchy, and exposes them through modelquery.Resolution and
// classhierarchy.Graph so the core never has to know how a real host
// (a compiler frontend, a language server, ...) represents programs.
package hostbridge

import (
	"encoding/json"
	"os"

	"github.com/taintflow/engine/internal/pkg/classhierarchy"
	"github.com/taintflow/engine/internal/pkg/engerr"
	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/modelquery"
)

// parameterDoc is one declared parameter of a target, as the host
// bridge's JSON format represents it.
type parameterDoc struct {
	Name       string `json:"name"`
	Index      int    `json:"index"`
	Annotation string `json:"annotation"`
}

// decoratorDoc is one decorator/annotation applied to a target.
type decoratorDoc struct {
	Name           string            `json:"name"`
	PositionalArgs []string          `json:"positionalArgs,omitempty"`
	KeywordArgs    map[string]string `json:"keywordArgs,omitempty"`
}

// targetDoc is the host bridge's JSON representation of one modelable
// (§3): a Callable (Function/Method), Attribute, or Global.
type targetDoc struct {
	FullyQualifiedName string         `json:"fullyQualifiedName"`
	Kind               string         `json:"kind"`
	Name               string         `json:"name"`
	Class              string         `json:"class,omitempty"`
	HasClass           bool           `json:"hasClass,omitempty"`
	ReturnAnnotation   string         `json:"returnAnnotation,omitempty"`
	HasReturn          bool           `json:"hasReturn,omitempty"`
	Annotation         string         `json:"annotation,omitempty"`
	HasAnnotation      bool           `json:"hasAnnotation,omitempty"`
	Parameters         []parameterDoc `json:"parameters,omitempty"`
	Decorators         []decoratorDoc `json:"decorators,omitempty"`
}

// targetsFile is the top-level shape of a targets JSON document.
type targetsFile struct {
	ClassHierarchy map[string]string `json:"classHierarchy,omitempty"`
	Targets        []targetDoc       `json:"targets"`
}

// TargetSet is everything LoadTargets read: the resolvable targets
// themselves, a Resolution exposing their structural facts, and the
// class hierarchy graph they sit in.
type TargetSet struct {
	Targets []model.Target
	Resolve modelquery.Resolution
	Classes classhierarchy.Graph
}

type jsonResolution struct {
	byName map[string]targetDoc
}

func (r *jsonResolution) doc(t model.Target) targetDoc {
	return r.byName[t.FullyQualifiedName]
}

func (r *jsonResolution) Kind(t model.Target) model.ModelableKind {
	switch r.doc(t).Kind {
	case "Method":
		return model.Method
	case "Attribute":
		return model.Attribute
	case "Global":
		return model.Global
	default:
		return model.Function
	}
}

func (r *jsonResolution) Name(t model.Target) string { return r.doc(t).Name }

func (r *jsonResolution) FullyQualifiedName(t model.Target) string { return t.FullyQualifiedName }

func (r *jsonResolution) Class(t model.Target) (string, bool) {
	d := r.doc(t)
	return d.Class, d.HasClass
}

func (r *jsonResolution) ReturnAnnotation(t model.Target) (string, bool) {
	d := r.doc(t)
	return d.ReturnAnnotation, d.HasReturn
}

func (r *jsonResolution) Parameters(t model.Target) []modelquery.Parameter {
	d := r.doc(t)
	out := make([]modelquery.Parameter, len(d.Parameters))
	for i, p := range d.Parameters {
		out[i] = modelquery.Parameter{Name: p.Name, Index: p.Index, Annotation: p.Annotation}
	}
	return out
}

func (r *jsonResolution) Decorators(t model.Target) []modelquery.Decorator {
	d := r.doc(t)
	out := make([]modelquery.Decorator, len(d.Decorators))
	for i, dec := range d.Decorators {
		out[i] = modelquery.Decorator{Name: dec.Name, PositionalArgs: dec.PositionalArgs, KeywordArgs: dec.KeywordArgs}
	}
	return out
}

func (r *jsonResolution) Annotation(t model.Target) (string, bool) {
	d := r.doc(t)
	return d.Annotation, d.HasAnnotation
}

// LoadTargets reads a targets JSON document from path.
func LoadTargets(path string) (*TargetSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, engerr.NewConfigError("reading targets file %q: %v", path, err)
	}
	var doc targetsFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, engerr.NewConfigError("decoding targets file %q: %v", path, err)
	}

	byName := make(map[string]targetDoc, len(doc.Targets))
	targets := make([]model.Target, 0, len(doc.Targets))
	for _, td := range doc.Targets {
		if _, dup := byName[td.FullyQualifiedName]; dup {
			return nil, engerr.NewConfigError("targets file %q: duplicate target %q", path, td.FullyQualifiedName)
		}
		byName[td.FullyQualifiedName] = td
		targets = append(targets, model.Target{FullyQualifiedName: td.FullyQualifiedName})
	}

	return &TargetSet{
		Targets: targets,
		Resolve: &jsonResolution{byName: byName},
		Classes: classhierarchy.NewStaticGraph(doc.ClassHierarchy),
	}, nil
}
