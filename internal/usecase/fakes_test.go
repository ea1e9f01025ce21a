package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"TickVault/internal/domain/models"
	domrepo "TickVault/internal/domain/repository"
)

// fakeRawStore is an in-memory RawStore for tests. Scan yields points in time
// order regardless of insertion order.
type fakeRawStore struct {
	mu     sync.Mutex
	points []models.RawPoint

	scanStarted chan struct{} // optional, closed once on first Scan
	scanBlock   chan struct{} // optional, Scan waits on it before reading
}

func (f *fakeRawStore) StoreBatch(_ context.Context, points []models.RawPoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, points...)
	return nil
}

func (f *fakeRawStore) Scan(ctx context.Context, symbols []string, fn func(models.RawPoint) error) error {
	if f.scanStarted != nil {
		select {
		case <-f.scanStarted:
		default:
			close(f.scanStarted)
		}
	}
	if f.scanBlock != nil {
		select {
		case <-f.scanBlock:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}

	f.mu.Lock()
	ordered := make([]models.RawPoint, 0, len(f.points))
	for _, p := range f.points {
		if want[p.Symbol] {
			ordered = append(ordered, p)
		}
	}
	f.mu.Unlock()

	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Time.Before(ordered[j].Time) })
	for _, p := range ordered {
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRawStore) Extent(_ context.Context, symbol string) (models.Extent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ext models.Extent
	found := false
	for _, p := range f.points {
		if p.Symbol != symbol {
			continue
		}
		if !found {
			ext.First, ext.Last = p.Time, p.Time
			found = true
			continue
		}
		if p.Time.Before(ext.First) {
			ext.First = p.Time
		}
		if p.Time.After(ext.Last) {
			ext.Last = p.Time
		}
	}
	if !found {
		return models.Extent{}, &models.NotFoundError{Symbol: symbol}
	}
	return ext, nil
}

func (f *fakeRawStore) Health(context.Context) error { return nil }

// fakeBucketStore is an in-memory BucketStore whose Upsert applies the same
// widen-on-strict-inequality merge as the ClickHouse store.
type fakeBucketStore struct {
	mu   sync.Mutex
	data map[domrepo.Tier]map[string]models.Bucket // key symbol|startNano

	countOverride map[domrepo.Tier]int64 // when set, Count returns this

	fetchAtCalls    int
	fetchRangeCalls int
}

func newFakeBucketStore() *fakeBucketStore {
	return &fakeBucketStore{data: make(map[domrepo.Tier]map[string]models.Bucket)}
}

func fakeKey(symbol string, start time.Time) string {
	return symbol + "|" + start.UTC().Format(time.RFC3339Nano)
}

func (f *fakeBucketStore) tierMap(tier domrepo.Tier) map[string]models.Bucket {
	m, ok := f.data[tier]
	if !ok {
		m = make(map[string]models.Bucket)
		f.data[tier] = m
	}
	return m
}

func (f *fakeBucketStore) sorted(tier domrepo.Tier, filter func(models.Bucket) bool) []models.Bucket {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.Bucket, 0, len(f.data[tier]))
	for _, b := range f.data[tier] {
		if filter == nil || filter(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BucketStart.Before(out[j].BucketStart) })
	return out
}

func (f *fakeBucketStore) Scan(_ context.Context, tier domrepo.Tier, symbols []string, fn func(models.Bucket) error) error {
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}
	for _, b := range f.sorted(tier, func(b models.Bucket) bool { return want[b.Symbol] }) {
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeBucketStore) Upsert(_ context.Context, tier domrepo.Tier, buckets []models.Bucket) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m := f.tierMap(tier)
	for _, b := range buckets {
		key := fakeKey(b.Symbol, b.BucketStart)
		if cur, ok := m[key]; ok {
			if cur.Min < b.Min || (cur.Min == b.Min && cur.MinTime.Before(b.MinTime)) {
				b.Min, b.MinTime = cur.Min, cur.MinTime
			}
			if cur.Max > b.Max || (cur.Max == b.Max && cur.MaxTime.Before(b.MaxTime)) {
				b.Max, b.MaxTime = cur.Max, cur.MaxTime
			}
		}
		m[key] = b
	}
	return int64(len(buckets)), nil
}

func (f *fakeBucketStore) Count(_ context.Context, tier domrepo.Tier, symbol string, start, end time.Time) (int64, error) {
	if f.countOverride != nil {
		return f.countOverride[tier], nil
	}
	var count int64
	for _, b := range f.sorted(tier, nil) {
		if b.Symbol != symbol {
			continue
		}
		if !b.BucketStart.Before(start) && !b.BucketStart.After(end) {
			count++
		}
	}
	return count, nil
}

func (f *fakeBucketStore) FetchAt(_ context.Context, tier domrepo.Tier, symbol string, instants []time.Time) ([]models.Bucket, error) {
	f.mu.Lock()
	f.fetchAtCalls++
	f.mu.Unlock()

	want := make(map[int64]bool, len(instants))
	for _, at := range instants {
		want[at.UnixNano()] = true
	}
	return f.sorted(tier, func(b models.Bucket) bool {
		return b.Symbol == symbol && want[b.BucketStart.UnixNano()]
	}), nil
}

func (f *fakeBucketStore) FetchRange(_ context.Context, tier domrepo.Tier, symbol string, start, end time.Time) ([]models.Bucket, error) {
	f.mu.Lock()
	f.fetchRangeCalls++
	f.mu.Unlock()

	return f.sorted(tier, func(b models.Bucket) bool {
		return b.Symbol == symbol && !b.BucketStart.Before(start) && !b.BucketStart.After(end)
	}), nil
}

func (f *fakeBucketStore) get(tier domrepo.Tier, symbol string, start time.Time) (models.Bucket, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.tierMap(tier)[fakeKey(symbol, start)]
	return b, ok
}

func (f *fakeBucketStore) size(tier domrepo.Tier) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data[tier])
}

// fakeMetrics counts recorder calls.
type fakeMetrics struct {
	mu           sync.Mutex
	rollupCalls  int
	tierSelected []string
	errors       []string
}

func (m *fakeMetrics) RecordRollupRows(_, _ string, _, _, _ int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollupCalls++
}

func (m *fakeMetrics) RecordTierSelected(width string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tierSelected = append(m.tierSelected, width)
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

// fakeNotifier captures published rollup events.
type fakeNotifier struct {
	mu     sync.Mutex
	events []models.RollupEvent
	err    error
}

func (n *fakeNotifier) RollupCompleted(_ context.Context, ev models.RollupEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, ev)
	return nil
}

func (n *fakeNotifier) Close() error { return nil }

// staticExtent is an ExtentSource with fixed bounds.
type staticExtent struct {
	ext models.Extent
	err error
}

func (s staticExtent) Extent(context.Context, string) (models.Extent, error) {
	if s.err != nil {
		return models.Extent{}, s.err
	}
	return s.ext, nil
}

func at(ms int) time.Time {
	return time.Unix(0, int64(ms)*int64(time.Millisecond)).UTC()
}

func atNano(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
