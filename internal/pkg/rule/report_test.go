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
	"testing"

	"github.com/taintflow/engine/internal/pkg/kind"
	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/taintdom"
)

func testIssue() Issue {
	loc := model.Location{File: "a.go", Line: 10, Column: 2}
	sinkHandle := testSinkHandle()
	return Issue{
		Flow: taintdom.Flow{
			Source: taintdom.SingletonForward(taintdom.CallInfo{}, kind.New("UserControlled"), taintdom.Frame{}),
			Sink:   taintdom.SingletonBackward(taintdom.CallInfo{}, kind.New("SqlQuery"), taintdom.Frame{}),
		},
		Handle:    Handle{Code: "SQLI", Callable: testDefine(), Sink: sinkHandle},
		Locations: []model.Location{loc},
		Define:    testDefine(),
	}
}

func TestToJSONIsStableAcrossCalls(t *testing.T) {
	issue := testIssue()

	first, err := ToJSON(issue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ToJSON(issue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("expected ToJSON to be deterministic, got %s vs %s", first, second)
	}

	var decoded issueReport
	if err := json.Unmarshal(first, &decoded); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if len(decoded.MasterHandle) != 36 {
		t.Fatalf("expected a canonical UUID master handle, got %q", decoded.MasterHandle)
	}
	if decoded.Code != "SQLI" {
		t.Fatalf("expected code SQLI, got %q", decoded.Code)
	}
}

func TestMasterHandleDistinguishesSinkPort(t *testing.T) {
	a := Handle{Code: "SQLI", Callable: testDefine(), Sink: model.SinkHandle{
		Handle: model.CallSiteHandle, Callee: model.Target{FullyQualifiedName: "db.execute"}, Port: 0,
	}}
	b := a
	b.Sink.Port = 1

	if masterHandle(a) == masterHandle(b) {
		t.Fatalf("expected distinct master handles for distinct sink ports")
	}
}
