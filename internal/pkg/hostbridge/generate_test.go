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

package hostbridge

import (
	"context"
	"testing"

	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/modelquery"
	"github.com/taintflow/engine/internal/pkg/scheduler"
)

func TestGenerateModelsFromQueriesRegularQuery(t *testing.T) {
	doc := `{
      "targets": [
        {"fullyQualifiedName": "os.Getenv", "kind": "Function", "name": "Getenv",
         "returnAnnotation": "UserControlled", "hasReturn": true},
        {"fullyQualifiedName": "fmt.Println", "kind": "Function", "name": "Println"}
      ]
    }`
	path := writeTargets(t, doc)
	ts, err := LoadTargets(path)
	if err != nil {
		t.Fatalf("unexpected error loading targets: %v", err)
	}

	taint := "UserControlled"
	queries := []modelquery.Query{
		{
			Name:  "getenv-source",
			Find:  model.Function,
			Where: &modelquery.Constraint{FullyQualifiedName: &modelquery.NameConstraint{Equals: "os.Getenv"}},
			Models: []modelquery.ModelClause{
				{Return: &modelquery.ReturnClause{Productions: []modelquery.Production{{TaintAnnotation: &taint}}}},
			},
		},
	}

	registry, errs := GenerateModelsFromQueries(context.Background(), scheduler.Policy{Workers: 2}, ts, queries)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	m, ok := registry.Get("os.Getenv")
	if !ok || len(m.Sites) != 1 {
		t.Fatalf("expected one site recorded for os.Getenv, got %+v ok=%v", m, ok)
	}
	if m.Sites[0].Kinds[0].Name != "UserControlled" {
		t.Fatalf("expected UserControlled kind, got %+v", m.Sites[0].Kinds)
	}
	if _, ok := registry.Get("fmt.Println"); ok {
		t.Fatalf("expected fmt.Println to produce no model")
	}
}
