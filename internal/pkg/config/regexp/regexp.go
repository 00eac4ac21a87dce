// Copyright 2020 Google LLC
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

// Package regexp wraps regexp.Regexp so that it can be unmarshalled
// directly from the rule/query configuration files.
package regexp

import (
	"encoding/json"
	"regexp"
)

// Regexp delegates to a regexp.Regexp while enabling unmarshalling.
// A zero-value Regexp (no pattern set) matches every string, so an
// omitted field in a configuration is vacuously satisfied rather than
// rejecting everything.
type Regexp struct {
	r *regexp.Regexp
}

// MatchString reports whether s matches the wrapped pattern.
func (re *Regexp) MatchString(s string) bool {
	return re.r == nil || re.r.MatchString(s)
}

// FindStringSubmatch delegates to the wrapped pattern, returning nil if
// no pattern was set or the string doesn't match.
func (re *Regexp) FindStringSubmatch(s string) []string {
	if re.r == nil {
		return nil
	}
	return re.r.FindStringSubmatch(s)
}

// SubexpNames delegates to the wrapped pattern.
func (re *Regexp) SubexpNames() []string {
	if re.r == nil {
		return nil
	}
	return re.r.SubexpNames()
}

func (re *Regexp) UnmarshalJSON(data []byte) error {
	var pattern string
	if err := json.Unmarshal(data, &pattern); err != nil {
		return err
	}

	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	re.r = compiled
	return nil
}
