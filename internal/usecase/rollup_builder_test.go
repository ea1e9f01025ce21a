package usecase

import (
	"context"
	"math"
	"testing"

	"TickVault/internal/domain/models"
	domrepo "TickVault/internal/domain/repository"
)

func newTestBuilder(raw *fakeRawStore, buckets *fakeBucketStore, chunkSize int) *RollupBuilder {
	return NewRollupBuilder(raw, buckets, &fakeMetrics{}, nil, chunkSize)
}

func TestBuildTierFromRaw(t *testing.T) {
	raw := &fakeRawStore{points: []models.RawPoint{
		{Symbol: "AAPL", Time: at(2), Price: 101.5},
		{Symbol: "AAPL", Time: at(5), Price: 99.0},
		{Symbol: "AAPL", Time: at(8), Price: 103.25},
	}}
	buckets := newFakeBucketStore()
	b := newTestBuilder(raw, buckets, 0)

	res, err := b.BuildTier(context.Background(), BuildSource{Raw: true}, domrepo.Tier10ms, []string{"AAPL"})
	if err != nil {
		t.Fatalf("BuildTier: %v", err)
	}
	if res.Processed != 3 || res.Written != 1 || res.Skipped != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	bk, ok := buckets.get(domrepo.Tier10ms, "AAPL", at(0))
	if !ok {
		t.Fatal("bucket at 0 not found")
	}
	if bk.Min != 99.0 || !bk.MinTime.Equal(at(5)) {
		t.Fatalf("min = %v at %v", bk.Min, bk.MinTime)
	}
	if bk.Max != 103.25 || !bk.MaxTime.Equal(at(8)) {
		t.Fatalf("max = %v at %v", bk.Max, bk.MaxTime)
	}
}

func TestBuildTierTieKeepsEarliestExtremumTime(t *testing.T) {
	raw := &fakeRawStore{points: []models.RawPoint{
		{Symbol: "AAPL", Time: at(1), Price: 10},
		{Symbol: "AAPL", Time: at(7), Price: 10},
	}}
	buckets := newFakeBucketStore()
	b := newTestBuilder(raw, buckets, 0)

	if _, err := b.BuildTier(context.Background(), BuildSource{Raw: true}, domrepo.Tier10ms, []string{"AAPL"}); err != nil {
		t.Fatalf("BuildTier: %v", err)
	}

	bk, ok := buckets.get(domrepo.Tier10ms, "AAPL", at(0))
	if !ok {
		t.Fatal("bucket not found")
	}
	if !bk.MinTime.Equal(at(1)) || !bk.MaxTime.Equal(at(1)) {
		t.Fatalf("tie must keep earliest time, got min_time=%v max_time=%v", bk.MinTime, bk.MaxTime)
	}
}

func TestBuildTierIdempotent(t *testing.T) {
	raw := &fakeRawStore{points: []models.RawPoint{
		{Symbol: "AAPL", Time: at(1), Price: 50},
		{Symbol: "AAPL", Time: at(3), Price: 40},
		{Symbol: "AAPL", Time: at(6), Price: 60},
	}}
	buckets := newFakeBucketStore()
	b := newTestBuilder(raw, buckets, 0)

	ctx := context.Background()
	if _, err := b.BuildTier(ctx, BuildSource{Raw: true}, domrepo.Tier10ms, []string{"AAPL"}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	first, _ := buckets.get(domrepo.Tier10ms, "AAPL", at(0))

	if _, err := b.BuildTier(ctx, BuildSource{Raw: true}, domrepo.Tier10ms, []string{"AAPL"}); err != nil {
		t.Fatalf("second build: %v", err)
	}
	second, _ := buckets.get(domrepo.Tier10ms, "AAPL", at(0))

	if first != second {
		t.Fatalf("rebuild changed bucket: %+v vs %+v", first, second)
	}
	if buckets.size(domrepo.Tier10ms) != 1 {
		t.Fatalf("expected 1 bucket, got %d", buckets.size(domrepo.Tier10ms))
	}
}

// A chunk boundary falling inside a bucket must not change the outcome: the
// second flush merges into the partial bucket from the first.
func TestBuildTierChunkSplitMidBucket(t *testing.T) {
	points := []models.RawPoint{
		{Symbol: "AAPL", Time: at(1), Price: 30},
		{Symbol: "AAPL", Time: at(4), Price: 10},
		{Symbol: "AAPL", Time: at(7), Price: 20},
		{Symbol: "AAPL", Time: at(9), Price: 45},
	}
	ctx := context.Background()

	whole := newFakeBucketStore()
	if _, err := newTestBuilder(&fakeRawStore{points: points}, whole, 0).
		BuildTier(ctx, BuildSource{Raw: true}, domrepo.Tier10ms, []string{"AAPL"}); err != nil {
		t.Fatalf("whole build: %v", err)
	}

	split := newFakeBucketStore()
	if _, err := newTestBuilder(&fakeRawStore{points: points}, split, 1).
		BuildTier(ctx, BuildSource{Raw: true}, domrepo.Tier10ms, []string{"AAPL"}); err != nil {
		t.Fatalf("split build: %v", err)
	}

	want, _ := whole.get(domrepo.Tier10ms, "AAPL", at(0))
	got, _ := split.get(domrepo.Tier10ms, "AAPL", at(0))
	if want != got {
		t.Fatalf("chunk split changed bucket: %+v vs %+v", got, want)
	}
}

func TestBuildTierSkipsMalformedRaw(t *testing.T) {
	raw := &fakeRawStore{points: []models.RawPoint{
		{Symbol: "AAPL", Time: at(1), Price: 10},
		{Symbol: "AAPL", Time: at(2), Price: math.NaN()},
		{Symbol: "AAPL", Time: at(3), Price: math.Inf(1)},
	}}
	buckets := newFakeBucketStore()
	b := newTestBuilder(raw, buckets, 0)

	res, err := b.BuildTier(context.Background(), BuildSource{Raw: true}, domrepo.Tier1ms, []string{"AAPL"})
	if err != nil {
		t.Fatalf("BuildTier: %v", err)
	}
	if res.Processed != 1 || res.Skipped != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestBuildTierFromFinerTierPreservesExtremumTimes(t *testing.T) {
	buckets := newFakeBucketStore()
	ctx := context.Background()

	// Two 10ms buckets inside one 100ms bucket.
	seed := []models.Bucket{
		{Symbol: "AAPL", BucketStart: at(0), Min: 9, Max: 12, MinTime: at(3), MaxTime: at(6)},
		{Symbol: "AAPL", BucketStart: at(10), Min: 8, Max: 15, MinTime: at(12), MaxTime: at(17)},
	}
	if _, err := buckets.Upsert(ctx, domrepo.Tier10ms, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	b := newTestBuilder(&fakeRawStore{}, buckets, 0)
	res, err := b.BuildTier(ctx, BuildSource{Tier: domrepo.Tier10ms}, domrepo.Tier100ms, []string{"AAPL"})
	if err != nil {
		t.Fatalf("BuildTier: %v", err)
	}
	if res.Processed != 2 {
		t.Fatalf("processed = %d", res.Processed)
	}

	bk, ok := buckets.get(domrepo.Tier100ms, "AAPL", at(0))
	if !ok {
		t.Fatal("coarse bucket not found")
	}
	if bk.Min != 8 || !bk.MinTime.Equal(at(12)) {
		t.Fatalf("min = %v at %v", bk.Min, bk.MinTime)
	}
	if bk.Max != 15 || !bk.MaxTime.Equal(at(17)) {
		t.Fatalf("max = %v at %v", bk.Max, bk.MaxTime)
	}
	if bk.Min > bk.Max || bk.MinTime.Before(bk.BucketStart) {
		t.Fatalf("invariant violated: %+v", bk)
	}
}

func TestBuildTierRejectsNonFinerSource(t *testing.T) {
	b := newTestBuilder(&fakeRawStore{}, newFakeBucketStore(), 0)
	ctx := context.Background()

	cases := []struct {
		source domrepo.Tier
		target domrepo.Tier
	}{
		{domrepo.Tier10ms, domrepo.Tier10ms},
		{domrepo.Tier1s, domrepo.Tier10ms},
	}
	for _, tc := range cases {
		if _, err := b.BuildTier(ctx, BuildSource{Tier: tc.source}, tc.target, []string{"AAPL"}); err == nil {
			t.Fatalf("expected error for source %s target %s", tc.source, tc.target)
		}
	}

	if _, err := b.BuildTier(ctx, BuildSource{Raw: true}, domrepo.Tier1ms, nil); err == nil {
		t.Fatal("expected error for empty symbols")
	}
}

func TestParseBuildSource(t *testing.T) {
	src, err := ParseBuildSource("raw")
	if err != nil || !src.Raw {
		t.Fatalf("raw parse: %+v %v", src, err)
	}
	src, err = ParseBuildSource("10ms")
	if err != nil || src.Raw || src.Tier != domrepo.Tier10ms {
		t.Fatalf("tier parse: %+v %v", src, err)
	}
	if _, err := ParseBuildSource("2ms"); err == nil {
		t.Fatal("expected error for unknown source")
	}
}
