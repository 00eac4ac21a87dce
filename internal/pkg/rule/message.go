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
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/taintflow/engine/internal/pkg/engerr"
	"github.com/taintflow/engine/internal/pkg/kind"
)

var messageCollator = collate.New(language.Und)

// FormatMessage renders rule.MessageFormat for issue, substituting
// {$sources}, {$sinks} and {$transforms} with the rule's own configured
// kind/transform names, sorted for reproducible output across locales.
// Returns a ConfigError if issue's handle names a rule not present in
// cfg.
func FormatMessage(cfg *Configuration, issue Issue) (string, error) {
	r, ok := cfg.RuleByCode(issue.Handle.Code)
	if !ok {
		return "", engerr.NewConfigError("issue handle references unknown rule code %q", issue.Handle.Code)
	}

	out := r.MessageFormat
	out = strings.ReplaceAll(out, "{$sources}", joinSortedKindNames(r.Sources))
	out = strings.ReplaceAll(out, "{$sinks}", joinSortedKindNames(r.Sinks))
	out = strings.ReplaceAll(out, "{$transforms}", joinSortedStrings(r.Transforms))
	return out, nil
}

func joinSortedKindNames(kinds []kind.Kind) string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.Name)
	}
	return joinSortedStrings(names)
}

func joinSortedStrings(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	cp := append([]string(nil), ss...)
	messageCollator.SortStrings(cp)
	return strings.Join(cp, ", ")
}
