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

import "github.com/taintflow/engine/internal/pkg/model"

// Query is one configured model-generating rule: find a modelable kind
// whose where-Constraint matches, then project it through models.
type Query struct {
	Name             string
	Find             model.ModelableKind
	Where            *Constraint
	Models           []ModelClause
	ExpectedModels   []string
	UnexpectedModels []string
	Location         model.Location
}

// Result is everything one query produced for one matched target.
type Result struct {
	Target model.Target
	Sites  []TaintSite
}

// Evaluate runs q against every candidate in targets, returning a
// Result for each that matched find+where and produced at least one
// TaintSite.
func Evaluate(ctx *EvalContext, q Query, targets []model.Target) []Result {
	var out []Result
	for _, t := range targets {
		if !Matches(ctx, q.Find, q.Where, t) {
			continue
		}
		var sites []TaintSite
		callable := BindTarget(ctx.Resolution, t)
		for i := range q.Models {
			sites = append(sites, q.Models[i].Apply(ctx, callable)...)
		}
		if len(sites) == 0 {
			continue
		}
		out = append(out, Result{Target: t, Sites: sites})
	}
	return out
}
