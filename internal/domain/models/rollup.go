package models

import "time"

// BuildResult summarizes one BuildTier run.
type BuildResult struct {
	Processed int64 // source rows consumed
	Written   int64 // buckets inserted or widened
	Skipped   int64 // malformed source rows dropped
}

// RunResult summarizes a rollup trigger over one or more tier pairs.
type RunResult struct {
	Processed int64 `json:"processed"`
	Written   int64 `json:"written"`
}

// RollupRequest triggers a rollup build over HTTP. When All is set the whole
// chain is rebuilt and Source/Target are ignored.
type RollupRequest struct {
	Source  string   `json:"source" validate:"omitempty,oneof=raw 1ms 10ms 100ms 1s 10s 60s"`
	Target  string   `json:"target" validate:"omitempty,oneof=1ms 10ms 100ms 1s 10s 60s"`
	Symbols []string `json:"symbols" validate:"required,min=1,dive,required"`
	All     bool     `json:"all"`
}

// RollupEvent is published after a completed rollup run.
type RollupEvent struct {
	Source     string    `json:"source"`
	Target     string    `json:"target"`
	Symbols    []string  `json:"symbols"`
	Processed  int64     `json:"processed"`
	Written    int64     `json:"written"`
	Skipped    int64     `json:"skipped"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}
