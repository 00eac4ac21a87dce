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

package sanitize

import (
	"testing"

	"github.com/taintflow/engine/internal/pkg/kind"
	"github.com/taintflow/engine/internal/pkg/taintdom"
)

func flowOf(sourceKinds, sinkKinds []kind.Kind) taintdom.Flow {
	source := taintdom.BottomForward()
	for _, k := range sourceKinds {
		source = source.Join(taintdom.SingletonForward(taintdom.CallInfo{}, k, taintdom.Frame{}))
	}
	sink := taintdom.BottomBackward()
	for _, k := range sinkKinds {
		sink = sink.Join(taintdom.SingletonBackward(taintdom.CallInfo{}, k, taintdom.Frame{}))
	}
	return taintdom.Flow{Source: source, Sink: sink}
}

// TestSingleFlowUnaffectedBySanitizers is the spec's first seed scenario:
// a plain UserControlled -> Sql flow with no sanitize transforms on
// either side passes through the fixpoint unchanged.
func TestSingleFlowUnaffectedBySanitizers(t *testing.T) {
	uc := kind.New("UserControlled")
	sql := kind.New("Sql")
	flow := flowOf([]kind.Kind{uc}, []kind.Kind{sql})

	got := ApplySanitizers(flow)
	if got.IsBottom() {
		t.Fatalf("an unsanitized flow should survive the fixpoint")
	}
	if len(got.Source.Kinds()) != 1 || len(got.Sink.Kinds()) != 1 {
		t.Fatalf("fixpoint should not drop kinds absent any sanitizer, got source=%v sink=%v", got.Source.Kinds(), got.Sink.Kinds())
	}
}

// TestSanitizerEliminatesFlow is the spec's second seed scenario: a source
// kind carries a sanitize-transform naming the sink's base kind, which
// should drop the sink entirely and collapse the flow to bottom.
func TestSanitizerEliminatesFlow(t *testing.T) {
	uc := kind.Kind{
		Name:               "UserControlled",
		SanitizeTransforms: kind.SanitizeTransforms{SanitizedSinks: []string{"Sql"}},
	}
	sql := kind.New("Sql")
	flow := flowOf([]kind.Kind{uc}, []kind.Kind{sql})

	got := ApplySanitizers(flow)
	if !got.Sink.IsBottom() {
		t.Fatalf("sink kind named by the source's sanitize-transform should be removed, got %v", got.Sink.Kinds())
	}
	if got.IsBottom() != true {
		t.Fatalf("Flow.IsBottom should follow the sink going bottom")
	}
}

// TestFixpointIteratesUntilStable is the spec's third seed scenario: the
// sink side is reduced by the intersection step in the first round (both
// source kinds agree on sanitizing "T2"), and the fixpoint needs a
// second round over the shrunk sink set before the tracked quantities
// stop changing.
func TestFixpointIteratesUntilStable(t *testing.T) {
	a := kind.Kind{
		Name:               "A",
		SanitizeTransforms: kind.SanitizeTransforms{SanitizedSinks: []string{"T2"}},
	}
	b := kind.Kind{
		Name:               "B",
		SanitizeTransforms: kind.SanitizeTransforms{SanitizedSinks: []string{"T2"}},
	}
	t1 := kind.New("T1")
	t2 := kind.Kind{
		Name:               "T2",
		SanitizeTransforms: kind.SanitizeTransforms{SanitizedSources: []string{"A"}},
	}

	flow := flowOf([]kind.Kind{a, b}, []kind.Kind{t1, t2})
	got := ApplySanitizers(flow)

	sinkKinds := got.Sink.Kinds()
	if len(sinkKinds) != 1 || sinkKinds[0].Name != "T1" {
		t.Fatalf("both source kinds agreeing on sanitizing T2 should remove it, leaving T1, got %v", sinkKinds)
	}
	if len(got.Source.Kinds()) != 2 {
		t.Fatalf("neither source kind is individually named by T1's sanitize-transform, so both survive, got %v", got.Source.Kinds())
	}
}

func TestApplySanitizersIsIdempotent(t *testing.T) {
	uc := kind.Kind{
		Name:               "UserControlled",
		SanitizeTransforms: kind.SanitizeTransforms{SanitizedSinks: []string{"Xss"}},
	}
	sql := kind.New("Sql")
	xss := kind.New("Xss")
	flow := flowOf([]kind.Kind{uc}, []kind.Kind{sql, xss})

	once := ApplySanitizers(flow)
	twice := ApplySanitizers(once)

	if len(once.Source.Kinds()) != len(twice.Source.Kinds()) || len(once.Sink.Kinds()) != len(twice.Sink.Kinds()) {
		t.Fatalf("ApplySanitizers should be idempotent: once=%v/%v twice=%v/%v",
			once.Source.Kinds(), once.Sink.Kinds(), twice.Source.Kinds(), twice.Sink.Kinds())
	}
}

func TestApplySanitizersMonotone(t *testing.T) {
	uc := kind.Kind{
		Name:               "UserControlled",
		SanitizeTransforms: kind.SanitizeTransforms{SanitizedSinks: []string{"Sql"}},
	}
	sql := kind.New("Sql")
	xss := kind.New("Xss")
	flow := flowOf([]kind.Kind{uc}, []kind.Kind{sql, xss})

	got := ApplySanitizers(flow)
	sinkKinds := got.Sink.Kinds()
	if len(sinkKinds) != 1 || sinkKinds[0].Name != "Xss" {
		t.Fatalf("fixpoint should only remove the sanitized kind, leaving Xss, got %v", sinkKinds)
	}
}
