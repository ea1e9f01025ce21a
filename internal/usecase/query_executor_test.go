package usecase

import (
	"context"
	"testing"
	"time"

	"TickVault/internal/domain/models"
	domrepo "TickVault/internal/domain/repository"
)

func seedBuckets(t *testing.T, store *fakeBucketStore, tier domrepo.Tier, starts []time.Time) {
	t.Helper()
	buckets := make([]models.Bucket, 0, len(starts))
	for _, s := range starts {
		buckets = append(buckets, models.Bucket{
			Symbol: "AAPL", BucketStart: s,
			Min: 1, Max: 2, MinTime: s, MaxTime: s,
		})
	}
	if _, err := store.Upsert(context.Background(), tier, buckets); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestExecuteExactMatchOnly(t *testing.T) {
	store := newFakeBucketStore()
	seedBuckets(t, store, domrepo.Tier10ms, []time.Time{at(0), at(10), at(20), at(30)})
	e := NewQueryExecutor(store, nil)

	// 15ms is not a stored bucket_start; it must not appear.
	grid := []time.Time{at(0), at(15), at(30)}
	rows, meta, err := e.Execute(context.Background(), "AAPL", domrepo.Tier10ms, grid)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if !rows[0].BucketStart.Equal(at(0)) || !rows[1].BucketStart.Equal(at(30)) {
		t.Fatalf("rows %v", rows)
	}
	if meta.TierWidth != 10*time.Millisecond || meta.Rows != 2 {
		t.Fatalf("meta %+v", meta)
	}
	if store.fetchRangeCalls != 0 {
		t.Fatalf("gappy grid must not use a range read, got %d", store.fetchRangeCalls)
	}
}

func TestExecuteContiguousGridUsesRangeRead(t *testing.T) {
	store := newFakeBucketStore()
	seedBuckets(t, store, domrepo.Tier10ms, []time.Time{at(0), at(10), at(20), at(30), at(40)})
	e := NewQueryExecutor(store, nil)

	// Stride equals the tier width: every aligned instant in the window is on
	// the grid, so one range read answers it.
	grid := []time.Time{at(10), at(20), at(30)}
	rows, _, err := e.Execute(context.Background(), "AAPL", domrepo.Tier10ms, grid)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if !rows[0].BucketStart.Equal(at(10)) || !rows[2].BucketStart.Equal(at(30)) {
		t.Fatalf("rows %v", rows)
	}
	if store.fetchRangeCalls != 1 || store.fetchAtCalls != 0 {
		t.Fatalf("calls: range=%d at=%d, want 1/0", store.fetchRangeCalls, store.fetchAtCalls)
	}
}

func TestExecuteShardedGridStaysChronological(t *testing.T) {
	store := newFakeBucketStore()
	seeded := make([]time.Time, 0, 400)
	for i := 0; i < 400; i++ {
		seeded = append(seeded, at(i*10))
	}
	seedBuckets(t, store, domrepo.Tier10ms, seeded)
	e := NewQueryExecutor(store, nil)

	// Stride of two widths keeps the grid off the range-read fast path.
	grid := make([]time.Time, 0, 200)
	for i := 0; i < 200; i++ {
		grid = append(grid, at(i*20))
	}
	rows, _, err := e.Execute(context.Background(), "AAPL", domrepo.Tier10ms, grid)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rows) != 200 {
		t.Fatalf("rows = %d, want 200", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].BucketStart.Before(rows[i].BucketStart) {
			t.Fatalf("rows out of order at %d: %v >= %v", i, rows[i-1].BucketStart, rows[i].BucketStart)
		}
	}
	if store.fetchAtCalls < 2 || store.fetchRangeCalls != 0 {
		t.Fatalf("calls: at=%d range=%d, want sharded FetchAt only", store.fetchAtCalls, store.fetchRangeCalls)
	}
}

func TestExecuteEmptyGrid(t *testing.T) {
	e := NewQueryExecutor(newFakeBucketStore(), nil)
	rows, meta, err := e.Execute(context.Background(), "AAPL", domrepo.Tier1s, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rows != nil || meta.Rows != 0 {
		t.Fatalf("expected empty result, got %v %+v", rows, meta)
	}
}

func TestShardInstants(t *testing.T) {
	instants := make([]time.Time, 10)
	for i := range instants {
		instants[i] = at(i)
	}

	shards := shardInstants(instants, 4)
	if len(shards) != 4 {
		t.Fatalf("shards = %d, want 4", len(shards))
	}
	total := 0
	prev := time.Time{}
	for _, shard := range shards {
		for _, s := range shard {
			if !prev.Before(s) && total > 0 {
				t.Fatalf("shards not contiguous at %v", s)
			}
			prev = s
			total++
		}
	}
	if total != 10 {
		t.Fatalf("total = %d, want 10", total)
	}

	if got := shardInstants(instants[:2], 4); len(got) != 2 {
		t.Fatalf("small input shards = %d, want 2", len(got))
	}
}
