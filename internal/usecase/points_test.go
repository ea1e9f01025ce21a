package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"TickVault/internal/domain/models"
)

// buildFixture ingests one raw point per millisecond over [0, 1s) with price
// cycling 0..99, then rolls up the full chain. Every 100ms bucket therefore
// has min 0 at its first millisecond and max 99 at its last.
func buildFixture(t *testing.T) (*fakeRawStore, *fakeBucketStore) {
	t.Helper()
	raw := &fakeRawStore{}
	for ms := 0; ms < 1000; ms++ {
		raw.points = append(raw.points, models.RawPoint{
			Symbol: "AAPL",
			Time:   at(ms),
			Price:  float64(ms % 100),
		})
	}
	buckets := newFakeBucketStore()
	runner := NewRollupRunner(newTestBuilder(raw, buckets, 0), nil, nil)
	if _, err := runner.RunChain(context.Background(), []string{"AAPL"}); err != nil {
		t.Fatalf("RunChain: %v", err)
	}
	return raw, buckets
}

func newPointsUseCase(raw *fakeRawStore, buckets *fakeBucketStore) *PointsUseCase {
	m := &fakeMetrics{}
	return NewPointsUseCase(
		NewTierSelector(buckets, m, nil),
		NewTimeGridAligner(raw),
		NewQueryExecutor(buckets, m),
		nil,
	)
}

func TestGetPointsAdaptiveResolution(t *testing.T) {
	raw, buckets := buildFixture(t)
	uc := newPointsUseCase(raw, buckets)

	res, err := uc.GetPoints(context.Background(), GetPointsParams{
		Symbol: "AAPL",
		Start:  at(0),
		End:    at(1000),
		N:      50,
	})
	if err != nil {
		t.Fatalf("GetPoints: %v", err)
	}

	// 1ms holds 1000 buckets, 10ms holds 100; 100ms is the finest tier whose
	// 10 buckets fit the budget of 50.
	if res.TierWidthMS != 100 {
		t.Fatalf("tier width = %dms, want 100ms", res.TierWidthMS)
	}
	if res.Count == 0 || res.Count > 50 {
		t.Fatalf("count = %d, want within budget", res.Count)
	}
	for i, row := range res.Data {
		if i > 0 && !res.Data[i-1].Time.Before(row.Time) {
			t.Fatalf("rows out of order at %d", i)
		}
		if row.Min != 0 || row.Max != 99 {
			t.Fatalf("row %d: min=%v max=%v", i, row.Min, row.Max)
		}
		if row.MinTime.Before(row.Time) || !row.MaxTime.Equal(row.Time.Add(99*time.Millisecond)) {
			t.Fatalf("row %d extremum times: %v %v", i, row.MinTime, row.MaxTime)
		}
	}
}

func TestGetPointsSmallBudgetUsesCoarserTier(t *testing.T) {
	raw, buckets := buildFixture(t)
	uc := newPointsUseCase(raw, buckets)

	res, err := uc.GetPoints(context.Background(), GetPointsParams{
		Symbol: "AAPL",
		Start:  at(0),
		End:    at(1000),
		N:      5,
	})
	if err != nil {
		t.Fatalf("GetPoints: %v", err)
	}
	// 100ms holds 10 buckets (> 5); 1s holds 1.
	if res.TierWidthMS != 1000 {
		t.Fatalf("tier width = %dms, want 1000ms", res.TierWidthMS)
	}
}

func TestGetPointsClampsToExtent(t *testing.T) {
	raw, buckets := buildFixture(t)
	uc := newPointsUseCase(raw, buckets)

	// Requested window reaches far past the recorded data.
	res, err := uc.GetPoints(context.Background(), GetPointsParams{
		Symbol: "AAPL",
		Start:  at(0),
		End:    at(60000),
		N:      100,
	})
	if err != nil {
		t.Fatalf("GetPoints: %v", err)
	}
	last := res.Data[len(res.Data)-1].Time
	if last.After(at(1000)) {
		t.Fatalf("row at %v beyond recorded extent", last)
	}
}

func TestGetPointsValidation(t *testing.T) {
	raw, buckets := buildFixture(t)
	uc := newPointsUseCase(raw, buckets)
	ctx := context.Background()

	cases := []GetPointsParams{
		{Symbol: "", Start: at(0), End: at(100), N: 10},
		{Symbol: "AAPL", Start: at(0), End: at(100), N: 0},
		{Symbol: "AAPL", Start: at(100), End: at(100), N: 10},
		{Symbol: "AAPL", Start: at(200), End: at(100), N: 10},
		{Symbol: "AAPL", N: 10},
	}
	for i, p := range cases {
		_, err := uc.GetPoints(ctx, p)
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
	}
}

func TestGetPointsUnknownSymbol(t *testing.T) {
	raw, buckets := buildFixture(t)
	uc := newPointsUseCase(raw, buckets)

	_, err := uc.GetPoints(context.Background(), GetPointsParams{
		Symbol: "NOPE",
		Start:  at(0),
		End:    at(1000),
		N:      50,
	})
	var nferr *models.NotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestGetPointsWindowOutsideData(t *testing.T) {
	raw, buckets := buildFixture(t)
	uc := newPointsUseCase(raw, buckets)

	_, err := uc.GetPoints(context.Background(), GetPointsParams{
		Symbol: "AAPL",
		Start:  at(5000),
		End:    at(6000),
		N:      50,
	})
	var rerr *models.RangeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RangeError, got %v", err)
	}
}
