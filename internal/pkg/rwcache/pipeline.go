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

package rwcache

import (
	"github.com/taintflow/engine/internal/pkg/classhierarchy"
	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/modelquery"
)

// Phase is the bin a query is partitioned into ahead of execution.
type Phase int

const (
	Regular Phase = iota
	WriteToCache
	ReadFromCache
)

func containsWriteToCache(models []modelquery.ModelClause) bool {
	for i := range models {
		if models[i].WriteToCache != nil {
			return true
		}
	}
	return false
}

func containsReadFromCache(c *modelquery.Constraint) bool {
	if c == nil {
		return false
	}
	if c.ReadFromCache != nil {
		return true
	}
	for i := range c.AllOf {
		if containsReadFromCache(&c.AllOf[i]) {
			return true
		}
	}
	for i := range c.AnyOf {
		if containsReadFromCache(&c.AnyOf[i]) {
			return true
		}
	}
	if c.Not != nil {
		return containsReadFromCache(c.Not)
	}
	return false
}

// Classify partitions q into its execution bin (§4.H).
func Classify(q modelquery.Query) Phase {
	if containsWriteToCache(q.Models) {
		return WriteToCache
	}
	if containsReadFromCache(q.Where) {
		return ReadFromCache
	}
	return Regular
}

// ReferencesReadFromCache reports whether c contains a ReadFromCache
// leaf anywhere in its tree.
func ReferencesReadFromCache(c *modelquery.Constraint) bool {
	return containsReadFromCache(c)
}

// AllModelsAreWriteToCache reports whether every clause in models is a
// WriteToCache clause — the invariant a write-to-cache query must
// satisfy (§7: "a write-to-cache query has a non-WriteToCache model" is
// a ConfigError).
func AllModelsAreWriteToCache(models []modelquery.ModelClause) bool {
	for i := range models {
		if models[i].WriteToCache == nil {
			return false
		}
	}
	return true
}

// Partition splits queries into their three execution bins, preserving
// relative order within each bin.
func Partition(queries []modelquery.Query) (write, read, regular []modelquery.Query) {
	for _, q := range queries {
		switch Classify(q) {
		case WriteToCache:
			write = append(write, q)
		case ReadFromCache:
			read = append(read, q)
		default:
			regular = append(regular, q)
		}
	}
	return write, read, regular
}

// WritePhaseShard evaluates every write-to-cache query against one
// shard of targets, returning the Cache that shard produced; this is
// the scheduler's per-shard map unit for phase 1 (reduced across shards
// via Cache.Merge).
func WritePhaseShard(res modelquery.Resolution, chg classhierarchy.Graph, queries []modelquery.Query, targets []model.Target) *Cache {
	cache := NewCache()
	for _, q := range queries {
		ctx := &modelquery.EvalContext{Resolution: res, Classes: chg, WritePhase: true}
		for _, t := range targets {
			ctx.LastCapture = modelquery.Captures{}
			if !modelquery.Matches(ctx, q.Find, q.Where, t) {
				continue
			}
			callable := modelquery.BindTarget(res, t)
			for i := range q.Models {
				for _, site := range q.Models[i].Apply(ctx, callable) {
					if site.CacheWrite != nil {
						cache.Write(site.CacheWrite.Kind, site.CacheWrite.Name, t)
					}
				}
			}
		}
	}
	return cache
}

// ReadPhaseResults runs q (already classified ReadFromCache) by
// deriving its candidate target set from cache via FromConstraint, then
// evaluating the query against exactly that set.
func ReadPhaseResults(res modelquery.Resolution, chg classhierarchy.Graph, cache *Cache, q modelquery.Query) ([]modelquery.Result, error) {
	targets, err := FromConstraint(cache, q.Where)
	if err != nil {
		return nil, err
	}
	ctx := &modelquery.EvalContext{Resolution: res, Classes: chg, Cache: cache}
	return modelquery.Evaluate(ctx, q, targets.List()), nil
}

// RegularPhaseResults runs q (already classified Regular) against the
// full, unrestricted target universe.
func RegularPhaseResults(res modelquery.Resolution, chg classhierarchy.Graph, cache *Cache, q modelquery.Query, targets []model.Target) []modelquery.Result {
	ctx := &modelquery.EvalContext{Resolution: res, Classes: chg, Cache: cache}
	return modelquery.Evaluate(ctx, q, targets)
}
