package repository

import (
	"context"
	"time"

	"TickVault/internal/domain/models"
)

// RawStore is the append-only collection of raw observations, queryable by
// symbol and ordered by time. Ingestion writes it; the rollup builder and the
// extent lookup read it.
type RawStore interface {
	StoreBatch(ctx context.Context, points []models.RawPoint) error
	// Scan streams raw points for the given symbols ordered by time. fn
	// returning an error stops the scan and propagates it.
	Scan(ctx context.Context, symbols []string, fn func(models.RawPoint) error) error
	// Extent returns the first/last recorded time for a symbol, or
	// models.NotFoundError if the symbol has no data.
	Extent(ctx context.Context, symbol string) (models.Extent, error)
	Health(ctx context.Context) error
}

// BucketStore persists one bucket collection per tier, keyed by
// (tier, symbol, bucket_start).
type BucketStore interface {
	// Scan streams a tier's buckets for the given symbols ordered by
	// bucket_start. Used as the source of the next-coarser build.
	Scan(ctx context.Context, tier Tier, symbols []string, fn func(models.Bucket) error) error
	// Upsert applies a batch of buckets. Existing keys are widened via the
	// strict-inequality min/max rule, never overwritten or duplicated. The
	// batch is applied whole; on error nothing in it is considered applied.
	Upsert(ctx context.Context, tier Tier, buckets []models.Bucket) (int64, error)
	// Count returns the number of buckets for symbol with bucket_start in
	// [start, end].
	Count(ctx context.Context, tier Tier, symbol string, start, end time.Time) (int64, error)
	// FetchAt returns buckets whose bucket_start exactly matches one of the
	// given instants, ordered by bucket_start.
	FetchAt(ctx context.Context, tier Tier, symbol string, instants []time.Time) ([]models.Bucket, error)
	// FetchRange returns every bucket with bucket_start in [start, end],
	// ordered by bucket_start.
	FetchRange(ctx context.Context, tier Tier, symbol string, start, end time.Time) ([]models.Bucket, error)
}

// ExtentSource resolves a symbol's recorded data range. RawStore satisfies it;
// a caching decorator may wrap it.
type ExtentSource interface {
	Extent(ctx context.Context, symbol string) (models.Extent, error)
}

// Notifier publishes rollup lifecycle events for downstream consumers.
type Notifier interface {
	RollupCompleted(ctx context.Context, ev models.RollupEvent) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordRollupRows(source, target string, processed, written, skipped int64)
	RecordTierSelected(width string)
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
}
