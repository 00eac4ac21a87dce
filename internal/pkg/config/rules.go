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
	"strings"

	"github.com/taintflow/engine/internal/pkg/engerr"
	"github.com/taintflow/engine/internal/pkg/kind"
	"github.com/taintflow/engine/internal/pkg/rule"
)

// ruleDoc is the YAML shape of one configured rule.Rule. Sources and
// Sinks are written as "Name" or "Name:Subkind".
type ruleDoc struct {
	Code             string   `json:"code"`
	Sources          []string `json:"sources"`
	Sinks            []string `json:"sinks"`
	Transforms       []string `json:"transforms,omitempty"`
	Name             string   `json:"name,omitempty"`
	MessageFormat    string   `json:"messageFormat,omitempty"`
	ExpectedModels   []string `json:"expectedModels,omitempty"`
	UnexpectedModels []string `json:"unexpectedModels,omitempty"`
}

type partialSinkSideDoc struct {
	Sink       string `json:"sink"`
	SourceName string `json:"sourceName"`
}

type combinedSourceRuleDoc struct {
	SideA partialSinkSideDoc `json:"sideA"`
	SideB partialSinkSideDoc `json:"sideB"`
}

// rulesFile is the top-level shape of a rules YAML document.
type rulesFile struct {
	Mode                string                  `json:"mode,omitempty"`
	Rules               []ruleDoc               `json:"rules"`
	CombinedSourceRules []combinedSourceRuleDoc `json:"combinedSourceRules,omitempty"`
}

// parseKind splits "Name:Subkind" into a bare kind.Kind; "Name" alone
// leaves Subkind empty.
func parseKind(s string) kind.Kind {
	if name, sub, ok := strings.Cut(s, ":"); ok {
		return kind.Kind{Name: name, Subkind: sub}
	}
	return kind.New(s)
}

func parseKinds(ss []string) []kind.Kind {
	out := make([]kind.Kind, len(ss))
	for i, s := range ss {
		out[i] = parseKind(s)
	}
	return out
}

func (d ruleDoc) toRule() rule.Rule {
	return rule.Rule{
		Code:             d.Code,
		Sources:          parseKinds(d.Sources),
		Sinks:            parseKinds(d.Sinks),
		Transforms:       d.Transforms,
		Name:             d.Name,
		MessageFormat:    d.MessageFormat,
		ExpectedModels:   d.ExpectedModels,
		UnexpectedModels: d.UnexpectedModels,
	}
}

func parseMode(s string) (rule.Mode, error) {
	switch s {
	case "", "MergeAccessPath":
		return rule.MergeAccessPath, nil
	case "LineageAnalysis":
		return rule.LineageAnalysis, nil
	default:
		return 0, engerr.NewConfigError("unknown mode %q", s)
	}
}

func (d partialSinkSideDoc) toSide() rule.PartialSinkSide {
	return rule.PartialSinkSide{
		Sink:       kind.PartialSink{Key: d.Sink},
		SourceName: d.SourceName,
	}
}

func (d combinedSourceRuleDoc) toCombined() rule.CombinedSourceRule {
	return rule.CombinedSourceRule{SideA: d.SideA.toSide(), SideB: d.SideB.toSide()}
}

// decodeRules converts a parsed rules document into the Configuration
// the rule engine evaluates candidates against.
func decodeRules(doc rulesFile) (*rule.Configuration, error) {
	mode, err := parseMode(doc.Mode)
	if err != nil {
		return nil, err
	}
	cfg := &rule.Configuration{Mode: mode}
	for _, rd := range doc.Rules {
		cfg.Rules = append(cfg.Rules, rd.toRule())
	}
	for _, cd := range doc.CombinedSourceRules {
		cfg.CombinedSourceRules = append(cfg.CombinedSourceRules, cd.toCombined())
	}
	return cfg, nil
}
