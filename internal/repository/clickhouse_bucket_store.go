package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TickVault/internal/domain/models"
	domrepo "TickVault/internal/domain/repository"
	applogger "TickVault/pkg/logger"
)

// CHBucketStore implements BucketStore backed by ClickHouse, one
// ReplacingMergeTree table per tier keyed (symbol, bucket_start). Upserts read
// the current row set for the touched keys, widen in memory and insert a
// fresh version; reads use FINAL so the latest version wins.
type CHBucketStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHBucketStore(db *sql.DB, database string) domrepo.BucketStore {
	return &CHBucketStore{db: db, database: database}
}

// SetLogger injects a structured logger.
func (s *CHBucketStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHBucketStore) table(tier domrepo.Tier) string {
	return fmt.Sprintf("%s.buckets_%s", s.database, tier)
}

func (s *CHBucketStore) Scan(ctx context.Context, tier domrepo.Tier, symbols []string, fn func(models.Bucket) error) error {
	if len(symbols) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(symbols)), ",")
	q := fmt.Sprintf(
		"SELECT symbol, bucket_start, min, max, min_time, max_time FROM %s FINAL WHERE symbol IN (%s) ORDER BY bucket_start ASC",
		s.table(tier), placeholders,
	)
	args := make([]interface{}, 0, len(symbols))
	for _, sym := range symbols {
		args = append(args, sym)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logErr("scan", tier, err)
		return fmt.Errorf("scan %s buckets: %w", tier, err)
	}
	defer rows.Close()

	for rows.Next() {
		var b models.Bucket
		if err := rows.Scan(&b.Symbol, &b.BucketStart, &b.Min, &b.Max, &b.MinTime, &b.MaxTime); err != nil {
			return fmt.Errorf("scan bucket row: %w", err)
		}
		if err := fn(b); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *CHBucketStore) Upsert(ctx context.Context, tier domrepo.Tier, buckets []models.Bucket) (int64, error) {
	if len(buckets) == 0 {
		return 0, nil
	}

	existing, err := s.fetchExisting(ctx, tier, buckets)
	if err != nil {
		return 0, err
	}

	// Widen against what is already stored. Strict inequality keeps the
	// earliest extremum time on ties, so replaying a batch is a no-op.
	merged := make([]models.Bucket, len(buckets))
	for i, b := range buckets {
		if cur, ok := existing[bucketKey(b.Symbol, b.BucketStart)]; ok {
			if cur.Min < b.Min || (cur.Min == b.Min && cur.MinTime.Before(b.MinTime)) {
				b.Min, b.MinTime = cur.Min, cur.MinTime
			}
			if cur.Max > b.Max || (cur.Max == b.Max && cur.MaxTime.Before(b.MaxTime)) {
				b.Max, b.MaxTime = cur.Max, cur.MaxTime
			}
		}
		merged[i] = b
	}

	version := time.Now().UnixNano()
	values := make([]string, 0, len(merged))
	args := make([]interface{}, 0, len(merged)*7)
	for _, b := range merged {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, b.Symbol, b.BucketStart, b.Min, b.Max, b.MinTime, b.MaxTime, uint64(version))
	}
	q := fmt.Sprintf(
		"INSERT INTO %s (symbol, bucket_start, min, max, min_time, max_time, version) VALUES %s",
		s.table(tier), strings.Join(values, ","),
	)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.logErr("upsert", tier, err)
		return 0, fmt.Errorf("upsert %s buckets: %w", tier, err)
	}
	return int64(len(merged)), nil
}

// fetchExisting loads the stored buckets for the batch keys.
func (s *CHBucketStore) fetchExisting(ctx context.Context, tier domrepo.Tier, buckets []models.Bucket) (map[string]models.Bucket, error) {
	tuples := make([]string, 0, len(buckets))
	args := make([]interface{}, 0, len(buckets)*2)
	for _, b := range buckets {
		tuples = append(tuples, "(?, ?)")
		args = append(args, b.Symbol, b.BucketStart)
	}
	q := fmt.Sprintf(
		"SELECT symbol, bucket_start, min, max, min_time, max_time FROM %s FINAL WHERE (symbol, bucket_start) IN (%s)",
		s.table(tier), strings.Join(tuples, ","),
	)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logErr("fetch_existing", tier, err)
		return nil, fmt.Errorf("fetch existing %s buckets: %w", tier, err)
	}
	defer rows.Close()

	out := make(map[string]models.Bucket, len(buckets))
	for rows.Next() {
		var b models.Bucket
		if err := rows.Scan(&b.Symbol, &b.BucketStart, &b.Min, &b.Max, &b.MinTime, &b.MaxTime); err != nil {
			return nil, fmt.Errorf("scan existing bucket: %w", err)
		}
		out[bucketKey(b.Symbol, b.BucketStart)] = b
	}
	return out, rows.Err()
}

func (s *CHBucketStore) Count(ctx context.Context, tier domrepo.Tier, symbol string, start, end time.Time) (int64, error) {
	q := fmt.Sprintf(
		"SELECT count() FROM %s FINAL WHERE symbol = ? AND bucket_start >= ? AND bucket_start <= ?",
		s.table(tier),
	)
	var count uint64
	if err := s.db.QueryRowContext(ctx, q, symbol, start, end).Scan(&count); err != nil {
		s.logErr("count", tier, err)
		return 0, fmt.Errorf("count %s buckets: %w", tier, err)
	}
	return int64(count), nil
}

func (s *CHBucketStore) FetchAt(ctx context.Context, tier domrepo.Tier, symbol string, instants []time.Time) ([]models.Bucket, error) {
	if len(instants) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(instants)), ",")
	q := fmt.Sprintf(
		"SELECT symbol, bucket_start, min, max, min_time, max_time FROM %s FINAL WHERE symbol = ? AND bucket_start IN (%s) ORDER BY bucket_start ASC",
		s.table(tier), placeholders,
	)
	args := make([]interface{}, 0, len(instants)+1)
	args = append(args, symbol)
	for _, at := range instants {
		args = append(args, at)
	}
	return s.query(ctx, tier, "fetch_at", q, args...)
}

func (s *CHBucketStore) FetchRange(ctx context.Context, tier domrepo.Tier, symbol string, start, end time.Time) ([]models.Bucket, error) {
	q := fmt.Sprintf(
		"SELECT symbol, bucket_start, min, max, min_time, max_time FROM %s FINAL WHERE symbol = ? AND bucket_start >= ? AND bucket_start <= ? ORDER BY bucket_start ASC",
		s.table(tier),
	)
	return s.query(ctx, tier, "fetch_range", q, symbol, start, end)
}

func (s *CHBucketStore) query(ctx context.Context, tier domrepo.Tier, op, q string, args ...interface{}) ([]models.Bucket, error) {
	began := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.logErr(op, tier, err)
		return nil, fmt.Errorf("%s %s buckets: %w", op, tier, err)
	}
	defer rows.Close()

	out := make([]models.Bucket, 0, 256)
	for rows.Next() {
		var b models.Bucket
		if err := rows.Scan(&b.Symbol, &b.BucketStart, &b.Min, &b.Max, &b.MinTime, &b.MaxTime); err != nil {
			return nil, fmt.Errorf("scan bucket row: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse bucket query ok",
			applogger.String("op", op),
			applogger.String("tier", tier.String()),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(began)),
		)
	}
	return out, nil
}

func (s *CHBucketStore) logErr(op string, tier domrepo.Tier, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("clickhouse bucket store error",
		applogger.String("op", op),
		applogger.String("tier", tier.String()),
		applogger.Error(err),
	)
}

func bucketKey(symbol string, start time.Time) string {
	return symbol + "|" + start.UTC().Format(time.RFC3339Nano)
}
