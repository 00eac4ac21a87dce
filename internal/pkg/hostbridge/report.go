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
	"encoding/json"

	"github.com/taintflow/engine/internal/pkg/kind"
	"github.com/taintflow/engine/internal/pkg/modelquery"
)

// siteReport is the JSON shape of one modelquery.TaintSite.
type siteReport struct {
	Site           string                 `json:"site"`
	ParameterIndex int                    `json:"parameterIndex,omitempty"`
	ParameterName  string                 `json:"parameterName,omitempty"`
	Kinds          []kind.Kind            `json:"kinds,omitempty"`
	CacheWrite     *modelquery.CacheWrite `json:"cacheWrite,omitempty"`
}

// modelReport is the JSON shape of one target's generated Model.
type modelReport struct {
	Target string       `json:"target"`
	Sites  []siteReport `json:"sites"`
}

// ModelsToJSON is the §6 to_json entry point for generated models: it
// renders registry as a deterministically ordered (by target name) JSON
// array, one entry per modeled target.
func ModelsToJSON(registry *modelquery.RegistryMap) ([]byte, error) {
	names := registry.Names()
	reports := make([]modelReport, 0, len(names))
	for _, name := range names {
		m, ok := registry.Get(name)
		if !ok {
			continue
		}
		sites := make([]siteReport, len(m.Sites))
		for i, s := range m.Sites {
			sites[i] = siteReport{
				Site:           s.Site.String(),
				ParameterIndex: s.ParameterIndex,
				ParameterName:  s.ParameterName,
				Kinds:          s.Kinds,
				CacheWrite:     s.CacheWrite,
			}
		}
		reports = append(reports, modelReport{Target: name, Sites: sites})
	}
	return json.MarshalIndent(reports, "", "  ")
}
