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

package modelquery

import "strings"

// NameTemplatePart is one substring of a write-to-cache key template
// (§4.H). Exactly one field is set.
type NameTemplatePart struct {
	Literal      *string
	FunctionName bool
	MethodName   bool
	ClassName    bool
	Capture      *int
}

// NameTemplate concatenates its parts to form a cache key name.
type NameTemplate []NameTemplatePart

// Expand builds the cache key name for t under ctx, reading Capture
// parts from ctx.LastCapture (populated during this target's where-clause
// matching) and FunctionName/MethodName/ClassName from t itself.
func (nt NameTemplate) Expand(ctx *EvalContext, t ResolvedCallable) string {
	var sb strings.Builder
	for _, part := range nt {
		switch {
		case part.Literal != nil:
			sb.WriteString(*part.Literal)
		case part.FunctionName || part.MethodName:
			sb.WriteString(t.Name())
		case part.ClassName:
			if class, ok := t.Class(); ok {
				sb.WriteString(class)
			}
		case part.Capture != nil:
			idx := *part.Capture
			if idx >= 0 && idx < len(ctx.LastCapture.Groups) {
				sb.WriteString(ctx.LastCapture.Groups[idx])
			}
		}
	}
	return sb.String()
}
