package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"TickVault/internal/domain/models"
	domrepo "TickVault/internal/domain/repository"
	applogger "TickVault/pkg/logger"
)

// RollupRunner is the batch trigger surface around the builder. It holds a
// lease per (target tier, symbol) so at most one build mutates a bucket key at
// a time, and publishes a completion event after each run.
type RollupRunner struct {
	builder  *RollupBuilder
	notifier domrepo.Notifier
	logger   *applogger.Logger

	mu     sync.Mutex
	leases map[string]struct{}
}

func NewRollupRunner(builder *RollupBuilder, notifier domrepo.Notifier, logger *applogger.Logger) *RollupRunner {
	return &RollupRunner{
		builder:  builder,
		notifier: notifier,
		logger:   logger,
		leases:   make(map[string]struct{}),
	}
}

func leaseKey(tier domrepo.Tier, symbol string) string {
	return tier.String() + "|" + symbol
}

// acquire takes leases for every (target, symbol) pair or none.
func (r *RollupRunner) acquire(target domrepo.Tier, symbols []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range symbols {
		if _, busy := r.leases[leaseKey(target, s)]; busy {
			return fmt.Errorf("rollup already in progress for tier %s symbol %s", target, s)
		}
	}
	for _, s := range symbols {
		r.leases[leaseKey(target, s)] = struct{}{}
	}
	return nil
}

func (r *RollupRunner) release(target domrepo.Tier, symbols []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range symbols {
		delete(r.leases, leaseKey(target, s))
	}
}

// RunRollup builds one tier from its source for the given symbols. A second
// run against a (tier, symbol) pair that is still building is rejected, not
// queued; the scheduler retries.
func (r *RollupRunner) RunRollup(ctx context.Context, source BuildSource, target domrepo.Tier, symbols []string) (models.RunResult, error) {
	if err := r.acquire(target, symbols); err != nil {
		return models.RunResult{}, err
	}
	defer r.release(target, symbols)

	began := time.Now()
	res, err := r.builder.BuildTier(ctx, source, target, symbols)
	if err != nil {
		return models.RunResult{Processed: res.Processed, Written: res.Written}, err
	}

	if r.notifier != nil {
		ev := models.RollupEvent{
			Source:     source.String(),
			Target:     target.String(),
			Symbols:    symbols,
			Processed:  res.Processed,
			Written:    res.Written,
			Skipped:    res.Skipped,
			DurationMS: time.Since(began).Milliseconds(),
			FinishedAt: time.Now().UTC(),
		}
		if nerr := r.notifier.RollupCompleted(ctx, ev); nerr != nil && r.logger != nil {
			// Event delivery is best effort; the build itself succeeded.
			r.logger.Warn("rollup event publish failed", applogger.Error(nerr))
		}
	}
	return models.RunResult{Processed: res.Processed, Written: res.Written}, nil
}

// RunChain rebuilds every tier leaf to root: raw -> 1ms -> ... -> 60s.
func (r *RollupRunner) RunChain(ctx context.Context, symbols []string) (models.RunResult, error) {
	var total models.RunResult

	source := BuildSource{Raw: true}
	for _, target := range domrepo.AllTiers() {
		res, err := r.RunRollup(ctx, source, target, symbols)
		total.Processed += res.Processed
		total.Written += res.Written
		if err != nil {
			return total, fmt.Errorf("chain stopped at tier %s: %w", target, err)
		}
		source = BuildSource{Tier: target}
	}
	return total, nil
}
