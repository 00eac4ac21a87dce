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
	"bytes"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/taintflow/engine/internal/pkg/engerr"
)

// rulesSchemaJSON and queriesSchemaJSON validate the document shape
// before it is decoded into rule.Configuration / []modelquery.Query,
// catching wrong types and missing required keys with a readable message
// instead of a generic decode error. Unknown keys are not rejected.
const rulesSchemaJSON = `{
  "$id": "mem://taintflow/rules.schema.json",
  "type": "object",
  "required": ["rules"],
  "properties": {
    "mode": {"type": "string", "enum": ["MergeAccessPath", "LineageAnalysis"]},
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["code", "sources", "sinks"],
        "properties": {
          "code": {"type": "string"},
          "sources": {"type": "array", "items": {"type": "string"}},
          "sinks": {"type": "array", "items": {"type": "string"}},
          "transforms": {"type": "array", "items": {"type": "string"}},
          "name": {"type": "string"},
          "messageFormat": {"type": "string"},
          "expectedModels": {"type": "array", "items": {"type": "string"}},
          "unexpectedModels": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "combinedSourceRules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["sideA", "sideB"],
        "properties": {
          "sideA": {"$ref": "#/$defs/partialSinkSide"},
          "sideB": {"$ref": "#/$defs/partialSinkSide"}
        }
      }
    }
  },
  "$defs": {
    "partialSinkSide": {
      "type": "object",
      "required": ["sink", "sourceName"],
      "properties": {
        "sink": {"type": "string"},
        "sourceName": {"type": "string"}
      }
    }
  }
}`

const queriesSchemaJSON = `{
  "$id": "mem://taintflow/queries.schema.json",
  "type": "object",
  "required": ["queries"],
  "properties": {
    "queries": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["find", "models"],
        "properties": {
          "name": {"type": "string"},
          "find": {"type": "string", "enum": ["Function", "Method", "Attribute", "Global"]},
          "where": {"type": "object"},
          "models": {"type": "array", "items": {"type": "object"}},
          "expectedModels": {"type": "array", "items": {"type": "string"}},
          "unexpectedModels": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var (
	rulesSchemaOnce sync.Once
	rulesSchema     *jsonschema.Schema
	rulesSchemaErr  error

	queriesSchemaOnce sync.Once
	queriesSchema     *jsonschema.Schema
	queriesSchemaErr  error
)

func compileSchema(url, src string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(src)))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

func getRulesSchema() (*jsonschema.Schema, error) {
	rulesSchemaOnce.Do(func() {
		rulesSchema, rulesSchemaErr = compileSchema("mem://taintflow/rules.schema.json", rulesSchemaJSON)
	})
	return rulesSchema, rulesSchemaErr
}

func getQueriesSchema() (*jsonschema.Schema, error) {
	queriesSchemaOnce.Do(func() {
		queriesSchema, queriesSchemaErr = compileSchema("mem://taintflow/queries.schema.json", queriesSchemaJSON)
	})
	return queriesSchema, queriesSchemaErr
}

// validateAgainst decodes data (already YAML-to-JSON normalized) and
// validates it against schema, wrapping any failure as a ConfigError.
func validateAgainst(schema *jsonschema.Schema, data []byte) error {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return engerr.NewConfigError("malformed document: %v", err)
	}
	if err := schema.Validate(instance); err != nil {
		return engerr.NewConfigError("schema validation failed: %v", err)
	}
	return nil
}
