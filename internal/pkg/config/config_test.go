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
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/taintflow/engine/internal/pkg/model"
)

const sampleRulesYAML = `
mode: MergeAccessPath
rules:
  - code: SQLI
    sources: ["UserControlled"]
    sinks: ["SqlQuery"]
    transforms: ["sanitize.Escape"]
    name: "SQL injection"
    messageFormat: "tainted value from {$sources} reaches {$sinks}"
combinedSourceRules:
  - sideA: {sink: "UC_and_VC[uc]", sourceName: "UserControlled"}
    sideB: {sink: "UC_and_VC[vc]", sourceName: "VendorControlled"}
`

const sampleQueriesYAML = `
queries:
  - name: getenv-is-source
    find: Function
    where:
      fullyQualifiedName:
        equals: "os.Getenv"
    models:
      - return:
          productions:
            - taintAnnotation: "UserControlled"
`

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoadRulesDecodesConfiguration(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.yaml", sampleRulesYAML)

	cfg, err := LoadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Rules) != 1 || cfg.Rules[0].Code != "SQLI" {
		t.Fatalf("expected one SQLI rule, got %+v", cfg.Rules)
	}
	if cfg.Rules[0].Sources[0].Name != "UserControlled" {
		t.Fatalf("expected parsed source kind UserControlled, got %+v", cfg.Rules[0].Sources)
	}
	if len(cfg.CombinedSourceRules) != 1 {
		t.Fatalf("expected one combined source rule, got %d", len(cfg.CombinedSourceRules))
	}
}

func TestLoadRulesRejectsUnknownMode(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.yaml", "mode: Bogus\nrules: []\n")

	if _, err := LoadRules(path); err == nil {
		t.Fatalf("expected an error for an unknown mode")
	}
}

func TestLoadRulesRejectsSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	// missing required "sinks" on the rule entry
	path := writeFile(t, dir, "rules.yaml", "rules:\n  - code: X\n    sources: [\"A\"]\n")

	if _, err := LoadRules(path); err == nil {
		t.Fatalf("expected a schema validation error")
	}
}

func TestLoadQueriesDecodesAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "queries.yaml", sampleQueriesYAML)

	queries, err := LoadQueries(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queries) != 1 || queries[0].Find != model.Function {
		t.Fatalf("expected one Function query, got %+v", queries)
	}
	if queries[0].Where.FullyQualifiedName == nil || queries[0].Where.FullyQualifiedName.Equals != "os.Getenv" {
		t.Fatalf("expected a fullyQualifiedName equals constraint, got %+v", queries[0].Where)
	}
}

func TestLoadQueriesRejectsMixedWriteToCacheModels(t *testing.T) {
	dir := t.TempDir()
	bad := `
queries:
  - name: bad
    find: Function
    where:
      name: {equals: "x"}
    models:
      - writeToCache:
          kind: parent
          name: [{literal: "x"}]
      - return:
          productions:
            - taintAnnotation: "Foo"
`
	path := writeFile(t, dir, "queries.yaml", bad)
	if _, err := LoadQueries(path); err == nil {
		t.Fatalf("expected a ConfigError for mixing WriteToCache with other model clauses")
	}
}

func TestLoadQueriesRejectsReadFromCacheInWriteToCacheWhere(t *testing.T) {
	dir := t.TempDir()
	bad := `
queries:
  - name: bad
    find: Function
    where:
      readFromCache: {kind: parent, name: x}
    models:
      - writeToCache:
          kind: parent
          name: [{literal: "x"}]
`
	path := writeFile(t, dir, "queries.yaml", bad)
	if _, err := LoadQueries(path); err == nil {
		t.Fatalf("expected a ConfigError for a write-to-cache query referencing ReadFromCache")
	}
}

func TestLoadQueriesRejectsInvalidMatchesPattern(t *testing.T) {
	dir := t.TempDir()
	bad := `
queries:
  - name: bad-pattern
    find: Function
    where:
      name: {matches: "("}
    models:
      - return:
          productions:
            - taintAnnotation: "Foo"
`
	path := writeFile(t, dir, "queries.yaml", bad)
	if _, err := LoadQueries(path); err == nil {
		t.Fatalf("expected a ConfigError for an unparsable matches pattern")
	}
}

func TestReadConfigCachesAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	rulesFilePath = writeFile(t, dir, "rules.yaml", sampleRulesYAML)
	queriesFilePath = writeFile(t, dir, "queries.yaml", sampleQueriesYAML)
	readOnce = sync.Once{}
	readConfigCached = nil
	readConfigErr = nil

	cfg1, err := ReadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg2, err := ReadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg1 != cfg2 {
		t.Fatalf("expected ReadConfig to return the cached pointer on the second call")
	}
}
