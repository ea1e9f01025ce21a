package repository

import (
	"context"
	"fmt"

	"TickVault/internal/domain/models"
	domrepo "TickVault/internal/domain/repository"
	pkgcache "TickVault/pkg/cache"
)

// InvalidatingNotifier drops cached extents for the symbols touched by a
// rollup before forwarding the event. A rebuild can extend a symbol's data
// range, so stale extents must not outlive the build that moved them.
type InvalidatingNotifier struct {
	next  domrepo.Notifier
	cache pkgcache.Service
}

func NewInvalidatingNotifier(next domrepo.Notifier, cache pkgcache.Service) domrepo.Notifier {
	return &InvalidatingNotifier{next: next, cache: cache}
}

func (n *InvalidatingNotifier) RollupCompleted(ctx context.Context, ev models.RollupEvent) error {
	if n.cache != nil && len(ev.Symbols) > 0 {
		keys := make([]string, 0, len(ev.Symbols))
		for _, sym := range ev.Symbols {
			keys = append(keys, fmt.Sprintf("extent:%s", sym))
		}
		_ = n.cache.Delete(ctx, keys...)
	}
	if n.next == nil {
		return nil
	}
	return n.next.RollupCompleted(ctx, ev)
}

func (n *InvalidatingNotifier) Close() error {
	if n.next == nil {
		return nil
	}
	return n.next.Close()
}
