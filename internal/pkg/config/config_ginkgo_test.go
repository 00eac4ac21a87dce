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

package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/taintflow/engine/internal/pkg/config"
	"github.com/taintflow/engine/internal/pkg/model"
)

const rulesYAML = `
mode: MergeAccessPath
rules:
  - code: SQLI
    sources: ["UserControlled"]
    sinks: ["SqlQuery"]
    name: "SQL injection"
    messageFormat: "tainted value from {$sources} reaches {$sinks}"
`

const queriesYAML = `
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

func writeToDir(dir, name, contents string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(contents), 0o644)).To(Succeed())
	return path
}

var _ = Describe("Configuration", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "config-ginkgo")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	Context("when loading a rules file from disk", func() {
		It("should decode a well-formed document", func() {
			path := writeToDir(dir, "rules.yaml", rulesYAML)

			rules, err := config.LoadRules(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(rules.Rules).To(HaveLen(1))
			Expect(rules.Rules[0].Code).To(Equal("SQLI"))
		})

		It("should reject a document with an unknown merge mode", func() {
			path := writeToDir(dir, "rules.yaml", "mode: NotAMode\nrules: []\n")

			_, err := config.LoadRules(path)

			Expect(err).To(HaveOccurred())
		})
	})

	Context("when loading a queries file from disk", func() {
		It("should decode a well-formed document into a Function query", func() {
			path := writeToDir(dir, "queries.yaml", queriesYAML)

			queries, err := config.LoadQueries(path)

			Expect(err).NotTo(HaveOccurred())
			Expect(queries).To(HaveLen(1))
			Expect(queries[0].Find).To(Equal(model.Function))
		})

		It("should reject a write-to-cache query whose where references ReadFromCache", func() {
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
			path := writeToDir(dir, "queries.yaml", bad)

			_, err := config.LoadQueries(path)

			Expect(err).To(HaveOccurred())
		})
	})
})
