package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"TickVault/internal/domain/models"
	domrepo "TickVault/internal/domain/repository"
	applogger "TickVault/pkg/logger"
)

// DefaultChunkSize bounds how many source rows are folded in memory before the
// accumulator is flushed to the bucket store.
const DefaultChunkSize = 10000

// BuildSource selects the builder input: the raw store or a finer tier.
type BuildSource struct {
	Raw  bool
	Tier domrepo.Tier
}

func (s BuildSource) String() string {
	if s.Raw {
		return "raw"
	}
	return s.Tier.String()
}

// ParseBuildSource parses "raw" or a tier width label.
func ParseBuildSource(s string) (BuildSource, error) {
	if s == "raw" {
		return BuildSource{Raw: true}, nil
	}
	t, err := domrepo.ParseTier(s)
	if err != nil {
		return BuildSource{}, err
	}
	return BuildSource{Tier: t}, nil
}

// RollupBuilder derives one tier's buckets from the next-finer tier or from
// raw data. One generic fold parameterized by target width replaces the
// per-tier aggregation routines the system started with.
type RollupBuilder struct {
	raw       domrepo.RawStore
	buckets   domrepo.BucketStore
	metrics   domrepo.Metrics
	logger    *applogger.Logger
	chunkSize int
}

// NewRollupBuilder creates a builder. chunkSize <= 0 falls back to
// DefaultChunkSize.
func NewRollupBuilder(raw domrepo.RawStore, buckets domrepo.BucketStore, metrics domrepo.Metrics, logger *applogger.Logger, chunkSize int) *RollupBuilder {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &RollupBuilder{
		raw:       raw,
		buckets:   buckets,
		metrics:   metrics,
		logger:    logger,
		chunkSize: chunkSize,
	}
}

type accumKey struct {
	symbol string
	start  int64 // bucket_start unix nanos
}

// BuildTier consumes the source in time order and upserts the target tier's
// buckets. Memory use is bounded by the chunk size regardless of input size.
// Running it twice over the same source yields identical buckets.
func (b *RollupBuilder) BuildTier(ctx context.Context, source BuildSource, target domrepo.Tier, symbols []string) (models.BuildResult, error) {
	if !target.Valid() {
		return models.BuildResult{}, fmt.Errorf("invalid target tier %d", int(target))
	}
	if !source.Raw && source.Tier.Width() >= target.Width() {
		return models.BuildResult{}, fmt.Errorf("source tier %s is not finer than target %s", source.Tier, target)
	}
	if len(symbols) == 0 {
		return models.BuildResult{}, fmt.Errorf("no symbols provided")
	}

	start := time.Now()
	var res models.BuildResult
	acc := make(map[accumKey]*models.Bucket, b.chunkSize)
	sinceFlush := 0

	flush := func() error {
		if len(acc) == 0 {
			return nil
		}
		batch := make([]models.Bucket, 0, len(acc))
		for _, bk := range acc {
			batch = append(batch, *bk)
		}
		sort.Slice(batch, func(i, j int) bool {
			if batch[i].Symbol != batch[j].Symbol {
				return batch[i].Symbol < batch[j].Symbol
			}
			return batch[i].BucketStart.Before(batch[j].BucketStart)
		})
		written, err := b.buckets.Upsert(ctx, target, batch)
		if err != nil {
			return fmt.Errorf("upsert %s buckets: %w", target, err)
		}
		res.Written += written
		acc = make(map[accumKey]*models.Bucket, b.chunkSize)
		sinceFlush = 0
		return nil
	}

	// fold applies one source value pair to its target bucket. Strict
	// inequality only: a later value equal to the current extremum never
	// replaces the recorded extremum time.
	fold := func(symbol string, at time.Time, minV float64, minT time.Time, maxV float64, maxT time.Time) error {
		bucketStart := target.BucketStart(at)
		key := accumKey{symbol: symbol, start: bucketStart.UnixNano()}
		bk, ok := acc[key]
		if !ok {
			acc[key] = &models.Bucket{
				Symbol:      symbol,
				BucketStart: bucketStart,
				Min:         minV,
				Max:         maxV,
				MinTime:     minT,
				MaxTime:     maxT,
			}
		} else {
			if minV < bk.Min {
				bk.Min = minV
				bk.MinTime = minT
			}
			if maxV > bk.Max {
				bk.Max = maxV
				bk.MaxTime = maxT
			}
		}
		res.Processed++
		sinceFlush++
		if sinceFlush >= b.chunkSize {
			return flush()
		}
		return nil
	}

	var scanErr error
	if source.Raw {
		scanErr = b.raw.Scan(ctx, symbols, func(p models.RawPoint) error {
			if p.Time.IsZero() || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
				res.Skipped++
				return nil
			}
			return fold(p.Symbol, p.Time, p.Price, p.Time, p.Price, p.Time)
		})
	} else {
		scanErr = b.buckets.Scan(ctx, source.Tier, symbols, func(bk models.Bucket) error {
			if bk.BucketStart.IsZero() || math.IsNaN(bk.Min) || math.IsNaN(bk.Max) || bk.Min > bk.Max {
				res.Skipped++
				return nil
			}
			return fold(bk.Symbol, bk.BucketStart, bk.Min, bk.MinTime, bk.Max, bk.MaxTime)
		})
	}
	if scanErr != nil {
		if b.metrics != nil {
			b.metrics.RecordError("rollup_scan")
		}
		return res, fmt.Errorf("scan %s: %w", source, scanErr)
	}

	if err := flush(); err != nil {
		if b.metrics != nil {
			b.metrics.RecordError("rollup_upsert")
		}
		return res, err
	}

	if b.metrics != nil {
		b.metrics.RecordRollupRows(source.String(), target.String(), res.Processed, res.Written, res.Skipped)
		b.metrics.RecordLatency("build_tier", time.Since(start).Seconds())
	}
	if b.logger != nil {
		b.logger.Info("build tier done",
			applogger.String("source", source.String()),
			applogger.String("target", target.String()),
			applogger.Strings("symbols", symbols),
			applogger.Int64("processed", res.Processed),
			applogger.Int64("written", res.Written),
			applogger.Int64("skipped", res.Skipped),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return res, nil
}
