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

package rule

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/taintflow/engine/internal/pkg/kind"
	"github.com/taintflow/engine/internal/pkg/model"
)

// issueReport is the §6 to_json shape for one Issue.
type issueReport struct {
	MasterHandle string           `json:"masterHandle"`
	Code         string           `json:"code"`
	Define       string           `json:"define"`
	Sink         string           `json:"sink"`
	Locations    []model.Location `json:"locations"`
	SourceKinds  []kind.Kind      `json:"sourceKinds"`
	SinkKinds    []kind.Kind      `json:"sinkKinds"`
}

// masterHandle derives a stable id identifying an issue's handle, so the
// same underlying finding gets the same id across runs: a version-3
// (MD5 namespace) UUID over a canonical string, content-derived rather
// than random.
func masterHandle(h Handle) string {
	canonical := fmt.Sprintf("%s|%s|%d", h.Code, h.Callable.FullyQualifiedName, h.Sink.Handle)
	switch h.Sink.Handle {
	case model.CallSiteHandle:
		canonical += fmt.Sprintf("|%s|%d|%d", h.Sink.Callee.FullyQualifiedName, h.Sink.CallIndex, h.Sink.Port)
	case model.GlobalHandle:
		canonical += "|" + h.Sink.GlobalKind
	}
	return uuid.NewMD5(uuid.Nil, []byte(canonical)).String()
}

func sinkString(s model.SinkHandle) string {
	switch s.Handle {
	case model.GlobalHandle:
		return s.GlobalKind
	default:
		return fmt.Sprintf("%s#%d@%d", s.Callee.FullyQualifiedName, s.CallIndex, s.Port)
	}
}

// ToJSON is the §6 to_json entry point for one generated Issue.
func ToJSON(issue Issue) ([]byte, error) {
	locs := append([]model.Location(nil), issue.Locations...)
	sort.Slice(locs, func(i, j int) bool { return locs[i].Less(locs[j]) })

	report := issueReport{
		MasterHandle: masterHandle(issue.Handle),
		Code:         issue.Handle.Code,
		Define:       issue.Define.FullyQualifiedName,
		Sink:         sinkString(issue.Handle.Sink),
		Locations:    locs,
		SourceKinds:  issue.Flow.Source.Kinds(),
		SinkKinds:    issue.Flow.Sink.Kinds(),
	}
	return json.MarshalIndent(report, "", "  ")
}
