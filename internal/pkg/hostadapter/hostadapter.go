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

// Package hostadapter is a second, test-only host bridge (§6): instead
// of reading a JSON targets document like internal/pkg/hostbridge, it
// adapts a real *ast.FuncDecl stream from a go/analysis pass directly
// into modelquery.Resolution. It exists so the query executor can be
// exercised end to end against real parsed Go source via
// golang.org/x/tools' analysistest, not just hand-authored fixtures.
package hostadapter

import (
	"go/ast"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/modelquery"
)

// magicComment marks a function's doc comment as a declared taint
// source.
const magicComment = "taint:source"

// sourceKind is the Kind every declared source is modeled with; the
// query executor's TaintAnnotation production always emits a fixed
// Kind name once the gating annotation is present (§4.G), so a single
// shared Kind is the correct model here rather than one varying per
// function.
const sourceKind = "AnalysisTestSource"

// Analyzer reports every function whose doc comment declares it a taint
// source, by actually running it through modelquery.Evaluate against a
// Resolution built from the package's own AST.
var Analyzer = &analysis.Analyzer{
	Name:     "taintsource",
	Doc:      "reports functions declared `taint:source` in their doc comment as generated taint sources",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

type astResolution struct {
	declared map[string]bool
}

func (r astResolution) Kind(model.Target) model.ModelableKind          { return model.Function }
func (r astResolution) Name(t model.Target) string                     { return t.FullyQualifiedName }
func (r astResolution) FullyQualifiedName(t model.Target) string       { return t.FullyQualifiedName }
func (r astResolution) Class(model.Target) (string, bool)              { return "", false }
func (r astResolution) Parameters(model.Target) []modelquery.Parameter { return nil }
func (r astResolution) Decorators(model.Target) []modelquery.Decorator { return nil }
func (r astResolution) Annotation(model.Target) (string, bool)         { return "", false }

func (r astResolution) ReturnAnnotation(t model.Target) (string, bool) {
	if r.declared[t.FullyQualifiedName] {
		return sourceKind, true
	}
	return "", false
}

func isDeclaredSource(decl *ast.FuncDecl) bool {
	if decl.Doc == nil {
		return false
	}
	for _, c := range decl.Doc.List {
		text := strings.TrimPrefix(strings.TrimPrefix(c.Text, "//"), " ")
		if strings.HasPrefix(text, magicComment) {
			return true
		}
	}
	return false
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	declared := map[string]bool{}
	positions := map[string]ast.Node{}
	var targets []model.Target

	insp.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
		decl := n.(*ast.FuncDecl)
		if !isDeclaredSource(decl) {
			return
		}
		fqn := pass.Pkg.Path() + "." + decl.Name.Name
		declared[fqn] = true
		positions[fqn] = decl
		targets = append(targets, model.Target{FullyQualifiedName: fqn})
	})

	taint := sourceKind
	query := modelquery.Query{
		Name: "ast-declared-source",
		Find: model.Function,
		Models: []modelquery.ModelClause{
			{Return: &modelquery.ReturnClause{Productions: []modelquery.Production{{TaintAnnotation: &taint}}}},
		},
	}

	ctx := &modelquery.EvalContext{Resolution: astResolution{declared: declared}}
	for _, result := range modelquery.Evaluate(ctx, query, targets) {
		node := positions[result.Target.FullyQualifiedName]
		for _, site := range result.Sites {
			for _, k := range site.Kinds {
				pass.Reportf(node.Pos(), "taint source: %s", k.Name)
			}
		}
	}

	return nil, nil
}
