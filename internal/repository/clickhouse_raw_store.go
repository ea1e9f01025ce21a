package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"TickVault/internal/domain/models"
	domrepo "TickVault/internal/domain/repository"
	applogger "TickVault/pkg/logger"
)

// CHRawStore implements RawStore backed by ClickHouse.
type CHRawStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewCHRawStore creates ClickHouse raw storage over the given table
// (e.g. "tickvault.ticks_raw").
func NewCHRawStore(db *sql.DB, table string) domrepo.RawStore {
	return &CHRawStore{db: db, table: table}
}

// SetLogger injects a structured logger.
func (s *CHRawStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHRawStore) StoreBatch(ctx context.Context, points []models.RawPoint) error {
	if len(points) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips. Chunk size tuned to
	// 2000 rows per statement.
	const chunkSize = 2000
	for start := 0; start < len(points); start += chunkSize {
		end := start + chunkSize
		if end > len(points) {
			end = len(points)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*3)
		for _, p := range points[start:end] {
			if p.Symbol == "" || p.Time.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?)")
			args = append(args, p.Symbol, p.Time, p.Price)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, ts, price) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store raw batch: %w", err)
		}
	}
	return nil
}

func (s *CHRawStore) Scan(ctx context.Context, symbols []string, fn func(models.RawPoint) error) error {
	if len(symbols) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(symbols)), ",")
	q := fmt.Sprintf(
		"SELECT symbol, ts, price FROM %s WHERE symbol IN (%s) ORDER BY ts ASC",
		s.table, placeholders,
	)
	args := make([]interface{}, 0, len(symbols))
	for _, sym := range symbols {
		args = append(args, sym)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse raw scan query error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("scan raw: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.RawPoint
		if err := rows.Scan(&p.Symbol, &p.Time, &p.Price); err != nil {
			return fmt.Errorf("scan raw row: %w", err)
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *CHRawStore) Extent(ctx context.Context, symbol string) (models.Extent, error) {
	q := fmt.Sprintf("SELECT min(ts), max(ts), count() FROM %s WHERE symbol = ?", s.table)

	var ext models.Extent
	var count uint64
	if err := s.db.QueryRowContext(ctx, q, symbol).Scan(&ext.First, &ext.Last, &count); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse extent query error",
				applogger.String("table", s.table),
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return models.Extent{}, fmt.Errorf("extent: %w", err)
	}
	if count == 0 {
		return models.Extent{}, &models.NotFoundError{Symbol: symbol}
	}
	return ext, nil
}

func (s *CHRawStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
