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

package engerr

import (
	"errors"
	"testing"
)

func TestJSONErrorUnwraps(t *testing.T) {
	cause := errors.New("unexpected token")
	err := &JSONError{Msg: "build output", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("JSONError should unwrap to its cause")
	}
}

func TestNewConfigErrorFormats(t *testing.T) {
	err := NewConfigError("rule code %q is not configured", "SQLI")
	want := `config error: rule code "SQLI" is not configured`
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestVerificationErrorKindString(t *testing.T) {
	cases := []struct {
		kind VerificationErrorKind
		want string
	}{
		{VerificationExpected, "Expected"},
		{VerificationUnexpected, "Unexpected"},
		{VerificationNoOutput, "NoOutput"},
	}
	for _, c := range cases {
		if got := c.kind.String(); got != c.want {
			t.Fatalf("String() = %q, want %q", got, c.want)
		}
	}
}
