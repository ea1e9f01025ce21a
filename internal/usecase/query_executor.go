package usecase

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"TickVault/internal/domain/models"
	domrepo "TickVault/internal/domain/repository"
)

// executorWorkers bounds the fan-out of exact-timestamp lookups.
const executorWorkers = 4

// minShardSize is the grid size below which sharding is not worth the
// goroutines.
const minShardSize = 64

// ExecMeta describes how a query was answered.
type ExecMeta struct {
	Tier      domrepo.Tier
	TierWidth time.Duration
	Rows      int
	Duration  time.Duration
}

// QueryExecutor performs the final read against the selected tier.
//
// Retrieval mode: exact-timestamp lookup against the generated grid. Only
// buckets whose bucket_start matches a grid instant are returned. When the
// grid is contiguous at the tier width, every aligned instant in the window is
// on the grid, so a single range read returns the identical row set and is
// taken as a fast path.
type QueryExecutor struct {
	buckets domrepo.BucketStore
	metrics domrepo.Metrics
}

func NewQueryExecutor(buckets domrepo.BucketStore, metrics domrepo.Metrics) *QueryExecutor {
	return &QueryExecutor{buckets: buckets, metrics: metrics}
}

// Execute fetches the buckets for the grid instants, sharding large grids
// across a bounded worker pool. Workers fetch disjoint sub-lists; the merged
// result is sorted by time so the chronological contract holds regardless of
// completion order. Cancelling ctx stops in-flight fetches; no partial result
// is returned.
func (e *QueryExecutor) Execute(ctx context.Context, symbol string, tier domrepo.Tier, grid []time.Time) ([]models.Bucket, ExecMeta, error) {
	start := time.Now()
	meta := ExecMeta{Tier: tier, TierWidth: tier.Width()}
	if len(grid) == 0 {
		meta.Duration = time.Since(start)
		return nil, meta, nil
	}

	var rows []models.Bucket
	if contiguousGrid(grid, tier.Width()) {
		fetched, err := e.buckets.FetchRange(ctx, tier, symbol, grid[0], grid[len(grid)-1])
		if err != nil {
			if e.metrics != nil {
				e.metrics.RecordError("fetch")
			}
			return nil, meta, err
		}
		rows = fetched
	} else if len(grid) < minShardSize {
		fetched, err := e.buckets.FetchAt(ctx, tier, symbol, grid)
		if err != nil {
			if e.metrics != nil {
				e.metrics.RecordError("fetch")
			}
			return nil, meta, err
		}
		rows = fetched
	} else {
		shards := shardInstants(grid, executorWorkers)
		results := make([][]models.Bucket, len(shards))
		g, gctx := errgroup.WithContext(ctx)
		for i, shard := range shards {
			g.Go(func() error {
				fetched, err := e.buckets.FetchAt(gctx, tier, symbol, shard)
				if err != nil {
					return err
				}
				results[i] = fetched
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			if e.metrics != nil {
				e.metrics.RecordError("fetch")
			}
			return nil, meta, err
		}
		for _, part := range results {
			rows = append(rows, part...)
		}
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].BucketStart.Before(rows[j].BucketStart)
		})
	}

	meta.Rows = len(rows)
	meta.Duration = time.Since(start)
	if e.metrics != nil {
		e.metrics.RecordLatency("execute", meta.Duration.Seconds())
	}
	return rows, meta, nil
}

// contiguousGrid reports whether every consecutive pair of instants is
// exactly width apart. Grid instants and bucket starts are both multiples of
// the width, so a contiguous grid covers every possible bucket_start in
// [grid[0], grid[last]].
func contiguousGrid(grid []time.Time, width time.Duration) bool {
	if len(grid) < 2 {
		return len(grid) == 1
	}
	for i := 1; i < len(grid); i++ {
		if grid[i].Sub(grid[i-1]) != width {
			return false
		}
	}
	return true
}

// shardInstants splits instants into at most workers contiguous sub-lists.
func shardInstants(instants []time.Time, workers int) [][]time.Time {
	if workers < 1 {
		workers = 1
	}
	if len(instants) <= workers {
		shards := make([][]time.Time, 0, len(instants))
		for i := range instants {
			shards = append(shards, instants[i:i+1])
		}
		return shards
	}
	size := (len(instants) + workers - 1) / workers
	shards := make([][]time.Time, 0, workers)
	for begin := 0; begin < len(instants); begin += size {
		end := begin + size
		if end > len(instants) {
			end = len(instants)
		}
		shards = append(shards, instants[begin:end])
	}
	return shards
}
