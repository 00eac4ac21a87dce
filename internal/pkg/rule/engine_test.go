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
	"testing"

	"github.com/taintflow/engine/internal/pkg/flowmatch"
	"github.com/taintflow/engine/internal/pkg/kind"
	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/taintdom"
)

func testDefine() model.Target { return model.Target{FullyQualifiedName: "pkg.handler"} }

func testSinkHandle() model.SinkHandle {
	return model.SinkHandle{Handle: model.CallSiteHandle, Callee: model.Target{FullyQualifiedName: "db.execute"}}
}

func candidatesWithOneFlow(loc model.Location, sinkHandle model.SinkHandle, source kind.Kind, sink kind.Kind) *flowmatch.Candidates {
	flow := taintdom.Flow{
		Source: taintdom.SingletonForward(taintdom.CallInfo{}, source, taintdom.Frame{}),
		Sink:   taintdom.SingletonBackward(taintdom.CallInfo{}, sink, taintdom.Frame{}),
	}
	candidates := flowmatch.NewCandidates()
	candidates.Add(flowmatch.Key{Location: loc, SinkHandle: sinkHandle}, flow)
	return candidates
}

func TestGenerateIssuesMatchesConfiguredRule(t *testing.T) {
	uc := kind.New("UserControlled")
	sql := kind.New("Sql")
	loc := model.Location{File: "f.py", Line: 1}
	sinkHandle := testSinkHandle()

	candidates := candidatesWithOneFlow(loc, sinkHandle, uc, sql)
	cfg := &Configuration{Rules: []Rule{{Code: "SQLI", Sources: []kind.Kind{uc}, Sinks: []kind.Kind{sql}}}}

	issues, err := GenerateIssues(candidates, cfg, testDefine())
	if err != nil {
		t.Fatalf("GenerateIssues returned error: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected exactly one issue, got %d", len(issues))
	}
	if issues[0].Handle.Code != "SQLI" {
		t.Fatalf("issue handle code = %q, want SQLI", issues[0].Handle.Code)
	}
}

func TestGenerateIssuesSkipsUnmatchedRule(t *testing.T) {
	uc := kind.New("UserControlled")
	sql := kind.New("Sql")
	loc := model.Location{File: "f.py", Line: 1}

	candidates := candidatesWithOneFlow(loc, testSinkHandle(), uc, sql)
	cfg := &Configuration{Rules: []Rule{{Code: "XSS", Sources: []kind.Kind{kind.New("Other")}, Sinks: []kind.Kind{sql}}}}

	issues, err := GenerateIssues(candidates, cfg, testDefine())
	if err != nil {
		t.Fatalf("GenerateIssues returned error: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no issues when no rule source matches, got %d", len(issues))
	}
}

func TestGenerateIssuesMergeAccessPathGroupsByHandle(t *testing.T) {
	uc := kind.New("UserControlled")
	sql := kind.New("Sql")
	loc1 := model.Location{File: "f.py", Line: 1}
	loc2 := model.Location{File: "f.py", Line: 2}
	sinkHandle := testSinkHandle()

	candidates := flowmatch.NewCandidates()
	flow := taintdom.Flow{
		Source: taintdom.SingletonForward(taintdom.CallInfo{}, uc, taintdom.Frame{}),
		Sink:   taintdom.SingletonBackward(taintdom.CallInfo{}, sql, taintdom.Frame{}),
	}
	candidates.Add(flowmatch.Key{Location: loc1, SinkHandle: sinkHandle}, flow)
	candidates.Add(flowmatch.Key{Location: loc2, SinkHandle: sinkHandle}, flow)

	cfg := &Configuration{Rules: []Rule{{Code: "SQLI", Sources: []kind.Kind{uc}, Sinks: []kind.Kind{sql}}}}

	issues, err := GenerateIssues(candidates, cfg, testDefine())
	if err != nil {
		t.Fatalf("GenerateIssues returned error: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected issues at two locations sharing a handle to be grouped into one, got %d", len(issues))
	}
	if len(issues[0].Locations) != 2 {
		t.Fatalf("expected grouped issue to union both locations, got %v", issues[0].Locations)
	}
}

func TestGenerateIssuesLineageAnalysisAllowsMultiplePerHandle(t *testing.T) {
	uc := kind.New("UserControlled")
	sql := kind.New("Sql")
	xss := kind.New("Xss")
	loc := model.Location{File: "f.py", Line: 1}
	sinkHandle := testSinkHandle()

	candidates := flowmatch.NewCandidates()
	flow := taintdom.Flow{
		Source: taintdom.SingletonForward(taintdom.CallInfo{}, uc, taintdom.Frame{}),
		Sink: taintdom.SingletonBackward(taintdom.CallInfo{}, sql, taintdom.Frame{}).
			Join(taintdom.SingletonBackward(taintdom.CallInfo{}, xss, taintdom.Frame{})),
	}
	candidates.Add(flowmatch.Key{Location: loc, SinkHandle: sinkHandle}, flow)

	cfg := &Configuration{
		Mode:  LineageAnalysis,
		Rules: []Rule{{Code: "INJECTION", Sources: []kind.Kind{uc}, Sinks: []kind.Kind{sql, xss}}},
	}

	issues, err := GenerateIssues(candidates, cfg, testDefine())
	if err != nil {
		t.Fatalf("GenerateIssues returned error: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("lineage-analysis mode should emit one issue per matching sink partition, got %d", len(issues))
	}
}

func TestFormatMessageSubstitutesPlaceholders(t *testing.T) {
	uc := kind.New("UserControlled")
	sql := kind.New("Sql")
	cfg := &Configuration{Rules: []Rule{{
		Code:          "SQLI",
		Sources:       []kind.Kind{uc},
		Sinks:         []kind.Kind{sql},
		MessageFormat: "data from {$sources} flows to {$sinks}",
	}}}
	issue := Issue{Handle: Handle{Code: "SQLI"}}

	got, err := FormatMessage(cfg, issue)
	if err != nil {
		t.Fatalf("FormatMessage returned error: %v", err)
	}
	want := "data from UserControlled flows to Sql"
	if got != want {
		t.Fatalf("FormatMessage() = %q, want %q", got, want)
	}
}

func TestFormatMessageUnknownRuleCodeIsConfigError(t *testing.T) {
	cfg := &Configuration{}
	_, err := FormatMessage(cfg, Issue{Handle: Handle{Code: "MISSING"}})
	if err == nil {
		t.Fatalf("expected an error for an issue referencing an unconfigured rule code")
	}
}
