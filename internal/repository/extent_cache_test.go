package repository

import (
	"context"
	"testing"
	"time"

	"TickVault/internal/domain/models"
	pkgcache "TickVault/pkg/cache"
)

type countingExtentSource struct {
	calls int
	ext   models.Extent
	err   error
}

func (c *countingExtentSource) Extent(context.Context, string) (models.Extent, error) {
	c.calls++
	if c.err != nil {
		return models.Extent{}, c.err
	}
	return c.ext, nil
}

func fixedExtent() models.Extent {
	return models.Extent{
		First: time.Unix(0, 0).UTC(),
		Last:  time.Unix(10, 0).UTC(),
	}
}

func TestCachedExtentSourceServesFromCache(t *testing.T) {
	src := &countingExtentSource{ext: fixedExtent()}
	mem := pkgcache.NewMemoryCache()
	defer mem.Close()
	cached := NewCachedExtentSource(src, mem, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ext, err := cached.Extent(ctx, "AAPL")
		if err != nil {
			t.Fatalf("Extent: %v", err)
		}
		if !ext.First.Equal(fixedExtent().First) || !ext.Last.Equal(fixedExtent().Last) {
			t.Fatalf("extent %+v", ext)
		}
	}
	if src.calls != 1 {
		t.Fatalf("source hit %d times, want 1", src.calls)
	}
}

func TestCachedExtentSourceNotFoundPassesThrough(t *testing.T) {
	src := &countingExtentSource{err: &models.NotFoundError{Symbol: "NOPE"}}
	mem := pkgcache.NewMemoryCache()
	defer mem.Close()
	cached := NewCachedExtentSource(src, mem, time.Minute)

	if _, err := cached.Extent(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected NotFound to pass through")
	}
	// Errors are never cached.
	if _, err := cached.Extent(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected NotFound again")
	}
	if src.calls != 2 {
		t.Fatalf("source hit %d times, want 2", src.calls)
	}
}

func TestCachedExtentSourceNilCache(t *testing.T) {
	src := &countingExtentSource{ext: fixedExtent()}
	cached := NewCachedExtentSource(src, nil, time.Minute)

	if _, err := cached.Extent(context.Background(), "AAPL"); err != nil {
		t.Fatalf("Extent: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("source hit %d times, want 1", src.calls)
	}
}

func TestInvalidatingNotifierDropsExtentKeys(t *testing.T) {
	src := &countingExtentSource{ext: fixedExtent()}
	mem := pkgcache.NewMemoryCache()
	defer mem.Close()
	cached := NewCachedExtentSource(src, mem, time.Minute)
	notifier := NewInvalidatingNotifier(nil, mem)
	ctx := context.Background()

	if _, err := cached.Extent(ctx, "AAPL"); err != nil {
		t.Fatalf("Extent: %v", err)
	}

	ev := models.RollupEvent{Source: "raw", Target: "1ms", Symbols: []string{"AAPL"}}
	if err := notifier.RollupCompleted(ctx, ev); err != nil {
		t.Fatalf("RollupCompleted: %v", err)
	}

	if _, err := cached.Extent(ctx, "AAPL"); err != nil {
		t.Fatalf("Extent after invalidation: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("source hit %d times, want 2 after invalidation", src.calls)
	}
}
