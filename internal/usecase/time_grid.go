package usecase

import (
	"context"
	"fmt"
	"time"

	"TickVault/internal/domain/models"
	domrepo "TickVault/internal/domain/repository"
)

// TimeGridAligner clamps a requested window to the symbol's recorded extent
// and snaps both bounds onto a tier's bucket grid.
type TimeGridAligner struct {
	extents domrepo.ExtentSource
}

func NewTimeGridAligner(extents domrepo.ExtentSource) *TimeGridAligner {
	return &TimeGridAligner{extents: extents}
}

// roundHalfUp snaps t to the nearest multiple of w:
// floor(t/w + 0.5) * w. Bucket assignment uses floor instead; the two
// policies are never mixed.
func roundHalfUp(t time.Time, w time.Duration) time.Time {
	if w <= 0 {
		return t
	}
	ns := t.UnixNano()
	wns := int64(w)
	return time.Unix(0, ((ns+wns/2)/wns)*wns).UTC()
}

// AlignAndClamp resolves the effective query window. It fails with
// models.NotFoundError when the symbol has no data and models.RangeError when
// the window collapses after clamping or alignment.
func (a *TimeGridAligner) AlignAndClamp(ctx context.Context, symbol string, reqStart, reqEnd time.Time, width time.Duration) (time.Time, time.Time, models.Extent, error) {
	ext, err := a.extents.Extent(ctx, symbol)
	if err != nil {
		return time.Time{}, time.Time{}, models.Extent{}, err
	}

	clampedStart := reqStart
	if ext.First.After(clampedStart) {
		clampedStart = ext.First
	}
	clampedEnd := reqEnd
	if ext.Last.Before(clampedEnd) {
		clampedEnd = ext.Last
	}
	if clampedStart.After(clampedEnd) {
		return time.Time{}, time.Time{}, ext, models.NewRangeError(
			"after clamping to the available data range, start exceeds end",
			map[string]interface{}{
				"requested_start": reqStart.Format(time.RFC3339Nano),
				"requested_end":   reqEnd.Format(time.RFC3339Nano),
				"clamped_start":   clampedStart.Format(time.RFC3339Nano),
				"clamped_end":     clampedEnd.Format(time.RFC3339Nano),
				"available_start": ext.First.Format(time.RFC3339Nano),
				"available_end":   ext.Last.Format(time.RFC3339Nano),
			})
	}

	alignedStart := roundHalfUp(clampedStart, width)
	alignedEnd := roundHalfUp(clampedEnd, width)
	if alignedStart.After(alignedEnd) {
		return time.Time{}, time.Time{}, ext, models.NewRangeError(
			"aligned start exceeds aligned end after grid rounding",
			map[string]interface{}{
				"aligned_start": alignedStart.Format(time.RFC3339Nano),
				"aligned_end":   alignedEnd.Format(time.RFC3339Nano),
				"grid_width_ms": width.Milliseconds(),
			})
	}
	return alignedStart, alignedEnd, ext, nil
}

// GenerateGrid emits up to n instants spaced by an integer stride of grid
// units across [alignedStart, alignedEnd]. n is capped to the number of
// distinct grid points the window holds; generation stops early rather than
// step past the end.
func GenerateGrid(alignedStart, alignedEnd time.Time, n int, width time.Duration) ([]time.Time, error) {
	if width <= 0 {
		return nil, fmt.Errorf("grid width must be positive")
	}
	if n < 1 {
		return nil, fmt.Errorf("point count must be >= 1, got %d", n)
	}
	if n == 1 || alignedStart.Equal(alignedEnd) {
		return []time.Time{alignedStart}, nil
	}

	units := alignedEnd.Sub(alignedStart).Nanoseconds() / int64(width)
	if maxPoints := units + 1; int64(n) > maxPoints {
		n = int(maxPoints)
	}
	if n == 1 {
		return []time.Time{alignedStart}, nil
	}

	stride := units / int64(n-1)
	step := time.Duration(stride * int64(width))
	grid := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		at := alignedStart.Add(time.Duration(i) * step)
		if at.After(alignedEnd) {
			break
		}
		grid = append(grid, at)
	}
	return grid, nil
}
