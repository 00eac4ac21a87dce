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

package taintdom

// Flow is a pair (forward-taint, backward-taint) representing one
// potential data-leak path at a site. A Flow is bottom iff either side
// is bottom.
type Flow struct {
	Source ForwardTaint
	Sink   BackwardTaint
}

// IsBottom reports whether either side of the flow is bottom.
func (f Flow) IsBottom() bool {
	return f.Source.IsBottom() || f.Sink.IsBottom()
}

// Join is defined pointwise over the two sides.
func (f Flow) Join(other Flow) Flow {
	return Flow{Source: f.Source.Join(other.Source), Sink: f.Sink.Join(other.Sink)}
}

// BottomFlow is the bottom element of the Flow lattice.
func BottomFlow() Flow {
	return Flow{Source: BottomForward(), Sink: BottomBackward()}
}
