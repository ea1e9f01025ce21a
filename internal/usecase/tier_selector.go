package usecase

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	domrepo "TickVault/internal/domain/repository"
	applogger "TickVault/pkg/logger"
)

// TierSelector picks the finest tier whose stored row count inside the window
// fits the caller's point budget. Probing actual counts keeps the choice
// robust on sparse and irregular data; the duration-based estimate is a legacy
// variant and is deliberately not implemented here.
type TierSelector struct {
	buckets domrepo.BucketStore
	metrics domrepo.Metrics
	logger  *applogger.Logger
}

func NewTierSelector(buckets domrepo.BucketStore, metrics domrepo.Metrics, logger *applogger.Logger) *TierSelector {
	return &TierSelector{buckets: buckets, metrics: metrics, logger: logger}
}

// SelectTier returns the first tier, finest to coarsest, whose bucket count
// for symbol in [start, end] is <= n. When even the coarsest tier exceeds the
// budget it is returned anyway, best effort. The per-tier count probes are
// independent reads and run concurrently; the decision depends only on tier
// order, never on arrival order.
func (s *TierSelector) SelectTier(ctx context.Context, symbol string, start, end time.Time, n int) (domrepo.Tier, []int64, error) {
	if n <= 0 {
		return 0, nil, fmt.Errorf("point budget must be positive, got %d", n)
	}

	began := time.Now()
	tiers := domrepo.AllTiers()
	counts := make([]int64, len(tiers))

	g, gctx := errgroup.WithContext(ctx)
	for i, tier := range tiers {
		g.Go(func() error {
			c, err := s.buckets.Count(gctx, tier, symbol, start, end)
			if err != nil {
				return fmt.Errorf("count tier %s: %w", tier, err)
			}
			counts[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if s.metrics != nil {
			s.metrics.RecordError("tier_count")
		}
		return 0, nil, err
	}

	chosen := domrepo.Coarsest()
	for i, tier := range tiers {
		if counts[i] <= int64(n) {
			chosen = tier
			break
		}
	}

	if s.metrics != nil {
		s.metrics.RecordTierSelected(chosen.String())
		s.metrics.RecordLatency("select_tier", time.Since(began).Seconds())
	}
	if s.logger != nil {
		s.logger.Debug("tier selected",
			applogger.String("symbol", symbol),
			applogger.String("tier", chosen.String()),
			applogger.Int("budget", n),
			applogger.Any("counts", counts),
		)
	}
	return chosen, counts, nil
}
