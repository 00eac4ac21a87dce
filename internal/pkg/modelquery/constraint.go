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

import (
	"regexp"
	"strings"

	"github.com/taintflow/engine/internal/pkg/classhierarchy"
	"github.com/taintflow/engine/internal/pkg/model"
)

// CacheReader answers a ReadFromCache constraint: the set of targets the
// read/write cache (§4.H) has recorded under a kind/name pair. It is
// satisfied structurally by the rwcache package's ReadWriteCache, kept
// as a narrow interface here to avoid a dependency cycle.
type CacheReader interface {
	Read(kind, name string) []model.Target
}

// Captures is the per-query name-captures buffer (§4.G): regex
// sub-captures recorded on a NameConstraint match during write-to-cache
// execution, replayed later to expand a cache-key template.
type Captures struct {
	Groups []string
}

// EvalContext carries everything Constraint evaluation needs beyond the
// target itself: the host's structural facts, the class hierarchy
// resolver, the read/write cache, and whether this is a write-to-cache
// pass (which gates name-capture recording).
type EvalContext struct {
	Resolution  Resolution
	Classes     classhierarchy.Graph
	Cache       CacheReader
	WritePhase  bool
	LastCapture Captures
}

func (ctx *EvalContext) recordCapture(groups []string) {
	if ctx.WritePhase {
		ctx.LastCapture = Captures{Groups: groups}
	}
}

// NameConstraint matches a string by exact equality or regex. Exactly
// one of Equals/Matches is set.
type NameConstraint struct {
	Equals  string
	Matches string

	compiled *regexp.Regexp
}

// compile lazily compiles Matches; called on every evaluation since
// Constraint values are typically built once and reused.
func (n *NameConstraint) compile() *regexp.Regexp {
	if n.compiled == nil && n.Matches != "" {
		n.compiled = regexp.MustCompile(n.Matches)
	}
	return n.compiled
}

// eval reports whether s satisfies the constraint, recording regex
// sub-captures into ctx when a Matches pattern is used.
func (n *NameConstraint) eval(ctx *EvalContext, s string) bool {
	if n.Matches != "" {
		re := n.compile()
		groups := re.FindStringSubmatch(s)
		if groups == nil {
			return false
		}
		ctx.recordCapture(groups)
		return true
	}
	return s == n.Equals
}

// ArgSpec is one side of an ArgumentsConstraint comparison.
type ArgSpec struct {
	Positional []string
	Keyword    map[string]string
}

// ArgumentsConstraint matches a Decorator's call arguments against C
// by containment or full equality, up to identifier sanitization.
type ArgumentsConstraint struct {
	Contains *ArgSpec
	Equals   *ArgSpec
}

func sanitizeIdent(s string) string {
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

func sanitizedEqual(a, b string) bool {
	return sanitizeIdent(a) == sanitizeIdent(b)
}

func (a *ArgumentsConstraint) eval(d Decorator) bool {
	if a.Contains != nil {
		return argsContain(*a.Contains, d)
	}
	if a.Equals != nil {
		return argsEqual(*a.Equals, d)
	}
	return true
}

// argsContain requires every keyword arg in c to be present (up to
// sanitization) in d's keyword args, and c's positional args to be an
// order-preserving prefix of d's positional args.
func argsContain(c ArgSpec, d Decorator) bool {
	for k, v := range c.Keyword {
		dv, ok := d.KeywordArgs[k]
		if !ok || !sanitizedEqual(v, dv) {
			return false
		}
	}
	if len(c.Positional) > len(d.PositionalArgs) {
		return false
	}
	for i, v := range c.Positional {
		if !sanitizedEqual(v, d.PositionalArgs[i]) {
			return false
		}
	}
	return true
}

func argsEqual(c ArgSpec, d Decorator) bool {
	if len(c.Positional) != len(d.PositionalArgs) {
		return false
	}
	for i, v := range c.Positional {
		if !sanitizedEqual(v, d.PositionalArgs[i]) {
			return false
		}
	}
	if len(c.Keyword) != len(d.KeywordArgs) {
		return false
	}
	for k, v := range c.Keyword {
		dv, ok := d.KeywordArgs[k]
		if !ok || !sanitizedEqual(v, dv) {
			return false
		}
	}
	return true
}

// DecoratorConstraint matches one of a target's decorators by name and
// optionally by arguments.
type DecoratorConstraint struct {
	Name      *NameConstraint
	Arguments *ArgumentsConstraint
}

func (d *DecoratorConstraint) eval(ctx *EvalContext, dec Decorator) bool {
	if d.Name != nil && !d.Name.eval(ctx, dec.Name) {
		return false
	}
	if d.Arguments != nil && !d.Arguments.eval(dec) {
		return false
	}
	return true
}

// ExtendsConstraint tests whether the target's own class is (possibly
// transitively) a subclass of Class.
type ExtendsConstraint struct {
	Class        string
	Transitive   bool
	IncludesSelf bool
}

func (e *ExtendsConstraint) eval(chg classhierarchy.Graph, class string) bool {
	if e.IncludesSelf && class == e.Class {
		return true
	}
	if e.Transitive {
		return chg.IsTransitiveSuccessor(class, e.Class)
	}
	for _, child := range chg.Children(e.Class) {
		if child == class {
			return true
		}
	}
	return false
}

// AnyChildConstraint tests whether Class is (possibly transitively) a
// subclass of the target's own class, i.e. whether the target's class
// has Class somewhere among its descendants.
type AnyChildConstraint struct {
	Class        string
	Transitive   bool
	IncludesSelf bool
}

func (a *AnyChildConstraint) eval(chg classhierarchy.Graph, class string) bool {
	if a.IncludesSelf && class == a.Class {
		return true
	}
	if a.Transitive {
		return chg.IsTransitiveSuccessor(a.Class, class)
	}
	for _, child := range chg.Children(class) {
		if child == a.Class {
			return true
		}
	}
	return false
}

// ClassConstraint is its own algebra over the target's class; exactly
// one of Extends/AnyChild is set.
type ClassConstraint struct {
	Extends  *ExtendsConstraint
	AnyChild *AnyChildConstraint
}

func (c *ClassConstraint) eval(ctx *EvalContext, t model.Target) bool {
	class, ok := ctx.Resolution.Class(t)
	if !ok {
		return false
	}
	if c.Extends != nil {
		return c.Extends.eval(ctx.Classes, class)
	}
	if c.AnyChild != nil {
		return c.AnyChild.eval(ctx.Classes, class)
	}
	return true
}

// ReadFromCacheConstraint matches when the target itself appears among
// the cache's recorded targets under {Kind, Name}.
type ReadFromCacheConstraint struct {
	Kind string
	Name string
}

func (r *ReadFromCacheConstraint) eval(ctx *EvalContext, t model.Target) bool {
	if ctx.Cache == nil {
		return false
	}
	for _, candidate := range ctx.Cache.Read(r.Kind, r.Name) {
		if candidate.FullyQualifiedName == t.FullyQualifiedName {
			return true
		}
	}
	return false
}

// Constraint is a node in the closed where-clause algebra (§4.G).
// Exactly one field (or one of AnyOf/AllOf/Not) is populated.
type Constraint struct {
	AnyOf []Constraint
	AllOf []Constraint
	Not   *Constraint

	Name               *NameConstraint
	FullyQualifiedName *NameConstraint
	Annotation         *NameConstraint
	Return             *Constraint
	AnyParameter       *Constraint
	AnyDecorator       *DecoratorConstraint
	Class              *ClassConstraint
	ReadFromCache      *ReadFromCacheConstraint
}

// Eval reports whether target satisfies c under ctx.
func (c *Constraint) Eval(ctx *EvalContext, t model.Target) bool {
	switch {
	case c.AnyOf != nil:
		for i := range c.AnyOf {
			if c.AnyOf[i].Eval(ctx, t) {
				return true
			}
		}
		return false
	case c.AllOf != nil:
		for i := range c.AllOf {
			if !c.AllOf[i].Eval(ctx, t) {
				return false
			}
		}
		return true
	case c.Not != nil:
		return !c.Not.Eval(ctx, t)
	case c.Name != nil:
		return c.Name.eval(ctx, ctx.Resolution.Name(t))
	case c.FullyQualifiedName != nil:
		return c.FullyQualifiedName.eval(ctx, ctx.Resolution.FullyQualifiedName(t))
	case c.Annotation != nil:
		ann, ok := resolveAnnotation(ctx, t)
		return ok && c.Annotation.eval(ctx, ann)
	case c.Return != nil:
		ann, ok := ctx.Resolution.ReturnAnnotation(t)
		return ok && c.Return.evalString(ctx, ann)
	case c.AnyParameter != nil:
		for _, p := range ctx.Resolution.Parameters(t) {
			if c.AnyParameter.evalString(ctx, p.Annotation) {
				return true
			}
		}
		return false
	case c.AnyDecorator != nil:
		for _, d := range ctx.Resolution.Decorators(t) {
			if c.AnyDecorator.eval(ctx, d) {
				return true
			}
		}
		return false
	case c.Class != nil:
		return c.Class.eval(ctx, t)
	case c.ReadFromCache != nil:
		return c.ReadFromCache.eval(ctx, t)
	default:
		// An empty Constraint is vacuously satisfied.
		return true
	}
}

// evalString lets a Return/AnyParameter sub-constraint reuse the Name/
// FullyQualifiedName/Annotation leaves against a bare annotation string
// rather than a resolved Target; Class and ReadFromCache never appear
// beneath these productions since they require a Target.
func (c *Constraint) evalString(ctx *EvalContext, s string) bool {
	switch {
	case c.AnyOf != nil:
		for i := range c.AnyOf {
			if c.AnyOf[i].evalString(ctx, s) {
				return true
			}
		}
		return false
	case c.AllOf != nil:
		for i := range c.AllOf {
			if !c.AllOf[i].evalString(ctx, s) {
				return false
			}
		}
		return true
	case c.Not != nil:
		return !c.Not.evalString(ctx, s)
	case c.Annotation != nil:
		return c.Annotation.eval(ctx, s)
	case c.Name != nil:
		return c.Name.eval(ctx, s)
	case c.FullyQualifiedName != nil:
		return c.FullyQualifiedName.eval(ctx, s)
	default:
		return true
	}
}

func resolveAnnotation(ctx *EvalContext, t model.Target) (string, bool) {
	return ctx.Resolution.Annotation(t)
}

// Matches reports whether a query's find clause and where constraint
// both accept t.
func Matches(ctx *EvalContext, find model.ModelableKind, where *Constraint, t model.Target) bool {
	if ctx.Resolution.Kind(t) != find {
		return false
	}
	if where == nil {
		return true
	}
	return where.Eval(ctx, t)
}
