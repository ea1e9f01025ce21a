package usecase

import (
	"context"
	"time"

	"TickVault/internal/domain/models"
	applogger "TickVault/pkg/logger"
)

// PointsUseCase answers "about N representative points between A and B" by
// composing tier selection, grid alignment and the executor.
type PointsUseCase struct {
	selector *TierSelector
	aligner  *TimeGridAligner
	executor *QueryExecutor
	logger   *applogger.Logger
}

func NewPointsUseCase(selector *TierSelector, aligner *TimeGridAligner, executor *QueryExecutor, logger *applogger.Logger) *PointsUseCase {
	return &PointsUseCase{selector: selector, aligner: aligner, executor: executor, logger: logger}
}

// GetPointsParams is the validated query input.
type GetPointsParams struct {
	Symbol string
	Start  time.Time
	End    time.Time
	N      int
}

func (p GetPointsParams) validate() error {
	if p.Symbol == "" {
		return models.NewValidationError("symbol", "symbol is required")
	}
	if p.N <= 0 {
		return models.NewValidationError("n", "n must be a positive integer")
	}
	if p.Start.IsZero() || p.End.IsZero() {
		return models.NewValidationError("start", "start and end are required")
	}
	if !p.Start.Before(p.End) {
		return models.NewValidationError("start", "start must be strictly before end")
	}
	return nil
}

// GetPoints runs the adaptive-resolution query. Validation fails before any
// store access; NotFound and Range errors are expected outcomes and pass
// through untouched.
func (uc *PointsUseCase) GetPoints(ctx context.Context, p GetPointsParams) (*models.PointsResponse, error) {
	began := time.Now()
	if err := p.validate(); err != nil {
		return nil, err
	}

	tier, counts, err := uc.selector.SelectTier(ctx, p.Symbol, p.Start, p.End, p.N)
	if err != nil {
		return nil, err
	}

	alignedStart, alignedEnd, ext, err := uc.aligner.AlignAndClamp(ctx, p.Symbol, p.Start, p.End, tier.Width())
	if err != nil {
		return nil, err
	}

	grid, err := GenerateGrid(alignedStart, alignedEnd, p.N, tier.Width())
	if err != nil {
		return nil, err
	}

	rows, meta, err := uc.executor.Execute(ctx, p.Symbol, tier, grid)
	if err != nil {
		return nil, err
	}

	data := make([]models.PointRow, 0, len(rows))
	for _, b := range rows {
		data = append(data, models.PointRow{
			Time:    b.BucketStart,
			Symbol:  b.Symbol,
			Min:     b.Min,
			Max:     b.Max,
			MinTime: b.MinTime,
			MaxTime: b.MaxTime,
		})
	}

	if uc.logger != nil {
		uc.logger.Info("points query",
			applogger.String("symbol", p.Symbol),
			applogger.String("tier", tier.String()),
			applogger.Int("budget", p.N),
			applogger.Int("grid", len(grid)),
			applogger.Int("rows", len(data)),
			applogger.Any("tier_counts", counts),
			applogger.String("aligned_start", alignedStart.Format(time.RFC3339Nano)),
			applogger.String("aligned_end", alignedEnd.Format(time.RFC3339Nano)),
			applogger.String("extent_first", ext.First.Format(time.RFC3339Nano)),
			applogger.String("extent_last", ext.Last.Format(time.RFC3339Nano)),
			applogger.Duration("duration_ms", time.Since(began)),
		)
	}

	return &models.PointsResponse{
		Data:        data,
		TierWidthMS: meta.TierWidth.Milliseconds(),
		Count:       len(data),
		DurationMS:  time.Since(began).Milliseconds(),
	}, nil
}
