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

package hostbridge

import (
	"context"

	"github.com/taintflow/engine/internal/pkg/model"
	"github.com/taintflow/engine/internal/pkg/modelquery"
	"github.com/taintflow/engine/internal/pkg/rwcache"
	"github.com/taintflow/engine/internal/pkg/scheduler"
)

// GenerateModelsFromQueries is the §6 external entry point: it
// partitions queries into the three read/write-cache bins, runs the
// write phase across sharded targets via the map-reduce scheduler,
// merges the resulting cache, then evaluates the read and regular
// phases, folding every query's results into one RegistryMap. A
// read-from-cache query whose candidate set cannot be derived from the
// cache fails with a ConfigError that aborts the run; a nil registry is
// returned in that case, and when ctx is cancelled mid-write-phase.
func GenerateModelsFromQueries(ctx context.Context, policy scheduler.Policy, ts *TargetSet, queries []modelquery.Query) (*modelquery.RegistryMap, []error) {
	write, read, regular := rwcache.Partition(queries)
	registry := modelquery.NewRegistryMap()

	cache, err := scheduler.MapReduce(ctx, policy, rwcache.NewCache(),
		func(shard []model.Target) (*rwcache.Cache, error) {
			return rwcache.WritePhaseShard(ts.Resolve, ts.Classes, write, shard), nil
		},
		func(acc, next *rwcache.Cache) *rwcache.Cache { return acc.Merge(next) },
		ts.Targets,
	)
	if err != nil {
		return nil, []error{err}
	}

	var errs []error
	for _, q := range read {
		results, err := rwcache.ReadPhaseResults(ts.Resolve, ts.Classes, cache, q)
		if err != nil {
			return nil, []error{err}
		}
		registry.Add(results)
	}
	for _, q := range regular {
		results := rwcache.RegularPhaseResults(ts.Resolve, ts.Classes, cache, q, ts.Targets)
		registry.Add(results)
	}

	return registry, errs
}
