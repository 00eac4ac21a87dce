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

// Package scheduler implements the map-reduce scheduler (§5): the flow
// and rule engine runs single-threaded per definition, but independent
// definitions are sharded across bounded worker goroutines and their
// results folded with a commutative-associative reduce, so the merged
// output never depends on shard or completion order.
package scheduler

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Policy bounds scheduler concurrency. Workers <= 0 means unlimited
// (one goroutine per shard).
type Policy struct {
	Workers int
}

// shard splits items into up to n roughly-equal contiguous slices. n<=0
// or n>=len(items) yields one shard per item.
func shard[T any](items []T, n int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if n <= 0 || n > len(items) {
		n = len(items)
	}
	out := make([][]T, 0, n)
	base := len(items) / n
	rem := len(items) % n
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		if size == 0 {
			continue
		}
		out = append(out, items[start:start+size])
		start += size
	}
	return out
}

// MapReduce shards inputs per policy, runs mapFn over each shard
// concurrently (bounded by policy.Workers), and folds the per-shard
// outputs into one value via reduce, seeded at initial. reduce must be
// commutative and associative: fold order follows shard index, not
// completion order, but a caller relying only on the algebraic
// properties gets the same result either way. If ctx is cancelled (or
// any mapFn returns an error), MapReduce discards partial results and
// returns the first error; cancellation never corrupts the zero value
// already folded.
func MapReduce[In any, Out any](
	ctx context.Context,
	policy Policy,
	initial Out,
	mapFn func(shard []In) (Out, error),
	reduce func(acc, next Out) Out,
	inputs []In,
) (Out, error) {
	shards := shard(inputs, policy.Workers)
	results := make([]Out, len(shards))

	g, gctx := errgroup.WithContext(ctx)
	if policy.Workers > 0 {
		g.SetLimit(policy.Workers)
	}
	for i, s := range shards {
		i, s := i, s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := mapFn(s)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var zero Out
		return zero, err
	}

	acc := initial
	for _, r := range results {
		acc = reduce(acc, r)
	}
	return acc, nil
}
