package repository

import (
	"fmt"

	domrepo "TickVault/internal/domain/repository"
)

// SchemaStatements returns the idempotent DDL for the raw tick table and the
// six bucket tables, one ReplacingMergeTree per tier. Upserts insert a fresh
// version row; reads use FINAL so the newest version wins after merges.
func SchemaStatements(database string) []string {
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.ticks_raw (
			symbol LowCardinality(String),
			ts DateTime64(9, 'UTC'),
			price Float64
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(ts)
		ORDER BY (symbol, ts)`, database),
	}

	for _, tier := range domrepo.AllTiers() {
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.buckets_%s (
			symbol LowCardinality(String),
			bucket_start DateTime64(9, 'UTC'),
			min Float64,
			max Float64,
			min_time DateTime64(9, 'UTC'),
			max_time DateTime64(9, 'UTC'),
			version UInt64
		) ENGINE = ReplacingMergeTree(version)
		PARTITION BY toYYYYMM(bucket_start)
		ORDER BY (symbol, bucket_start)`, database, tier))
	}
	return stmts
}
