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

// Package config loads the two configuration documents the engine needs
// to run: a rules file (source/sink/transform policy, §4.E/F) and a
// queries file (the model-generation query set, §4.G/H). Both are YAML,
// validated against an embedded JSON Schema before being decoded into
// the rule and modelquery packages' own types.
package config

import (
	"flag"
	"fmt"
	"os"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/taintflow/engine/internal/pkg/engerr"
	"github.com/taintflow/engine/internal/pkg/modelquery"
	"github.com/taintflow/engine/internal/pkg/rule"
	"github.com/taintflow/engine/internal/pkg/rwcache"
)

// FlagSet should be used by binaries that want the engine's standard
// -rules/-queries flags.
var FlagSet flag.FlagSet

var rulesFilePath, queriesFilePath string

func init() {
	FlagSet.StringVar(&rulesFilePath, "rules", "rules.yaml", "path to the rule configuration file")
	FlagSet.StringVar(&queriesFilePath, "queries", "queries.yaml", "path to the model-generation query file")
}

// Config bundles the two documents a run needs.
type Config struct {
	Rules   *rule.Configuration
	Queries []modelquery.Query
}

var (
	readOnce         sync.Once
	readConfigCached *Config
	readConfigErr    error
)

// ReadConfig loads and validates the rules and queries files named by
// the -rules/-queries flags, caching the result for the process
// lifetime.
func ReadConfig() (*Config, error) {
	readOnce.Do(func() {
		readConfigCached, readConfigErr = load(rulesFilePath, queriesFilePath)
	})
	return readConfigCached, readConfigErr
}

// load reads rulesPath and queriesPath from disk and decodes them; it is
// the non-cached worker behind ReadConfig, split out so tests can load
// arbitrary paths without touching the package-level cache.
func load(rulesPath, queriesPath string) (*Config, error) {
	rules, err := LoadRules(rulesPath)
	if err != nil {
		return nil, err
	}
	queries, err := LoadQueries(queriesPath)
	if err != nil {
		return nil, err
	}
	return &Config{Rules: rules, Queries: queries}, nil
}

// LoadRules reads, schema-validates, and decodes a rules file.
func LoadRules(path string) (*rule.Configuration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, engerr.NewConfigError("reading rules file %q: %v", path, err)
	}
	data, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, engerr.NewConfigError("parsing rules file %q: %v", path, err)
	}
	schema, err := getRulesSchema()
	if err != nil {
		return nil, engerr.NewConfigError("compiling rules schema: %v", err)
	}
	if err := validateAgainst(schema, data); err != nil {
		return nil, fmt.Errorf("rules file %q: %w", path, err)
	}
	var doc rulesFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, engerr.NewConfigError("decoding rules file %q: %v", path, err)
	}
	cfg, err := decodeRules(doc)
	if err != nil {
		return nil, fmt.Errorf("rules file %q: %w", path, err)
	}
	return cfg, nil
}

// LoadQueries reads, schema-validates, decodes, and cross-validates a
// queries file.
func LoadQueries(path string) ([]modelquery.Query, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, engerr.NewConfigError("reading queries file %q: %v", path, err)
	}
	data, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, engerr.NewConfigError("parsing queries file %q: %v", path, err)
	}
	schema, err := getQueriesSchema()
	if err != nil {
		return nil, engerr.NewConfigError("compiling queries schema: %v", err)
	}
	if err := validateAgainst(schema, data); err != nil {
		return nil, fmt.Errorf("queries file %q: %w", path, err)
	}
	var doc queriesFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, engerr.NewConfigError("decoding queries file %q: %v", path, err)
	}
	queries, err := decodeQueries(doc)
	if err != nil {
		return nil, fmt.Errorf("queries file %q: %w", path, err)
	}
	if err := ValidateQueries(queries); err != nil {
		return nil, fmt.Errorf("queries file %q: %w", path, err)
	}
	return queries, nil
}

// ValidateQueries checks the two read/write-cache invariants from §4.H
// and §7 that aren't expressible in the JSON Schema: a write-to-cache
// query's models must be entirely WriteToCache clauses, and its where
// must not itself reference ReadFromCache.
func ValidateQueries(queries []modelquery.Query) error {
	for _, q := range queries {
		if rwcache.Classify(q) != rwcache.WriteToCache {
			continue
		}
		if !rwcache.AllModelsAreWriteToCache(q.Models) {
			return engerr.NewConfigError("query %q: a write-to-cache query may only have WriteToCache models", q.Name)
		}
		if rwcache.ReferencesReadFromCache(q.Where) {
			return engerr.NewConfigError("query %q: a write-to-cache query's where may not reference ReadFromCache", q.Name)
		}
	}
	return nil
}
