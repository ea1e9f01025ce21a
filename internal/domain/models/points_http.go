package models

import "time"

// Requests and responses for the points HTTP endpoint. Defined in domain for
// consistency and reuse.

type PointsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Start  string `query:"start" json:"start" validate:"required"`
	End    string `query:"end" json:"end" validate:"required"`
	N      int    `query:"n" json:"n" validate:"omitempty,gte=1"`
}

// IngestTick is one raw observation in an ingest request. Time accepts
// RFC3339, RFC3339Nano or unix seconds.
type IngestTick struct {
	Symbol string  `json:"symbol" validate:"required"`
	Time   string  `json:"time" validate:"required"`
	Price  float64 `json:"price"`
}

// IngestRequest is a batch of raw ticks.
type IngestRequest struct {
	Ticks []IngestTick `json:"ticks" validate:"required,min=1,dive"`
}

// IngestResponse reports how many ticks were stored.
type IngestResponse struct {
	Stored int `json:"stored"`
}

// PointRow is one bucket row in a query response.
type PointRow struct {
	Time    time.Time `json:"time"`
	Symbol  string    `json:"symbol"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	MinTime time.Time `json:"min_time"`
	MaxTime time.Time `json:"max_time"`
}

// PointsResponse is the query surface success payload.
type PointsResponse struct {
	Data        []PointRow `json:"data"`
	TierWidthMS int64      `json:"tier_width_ms"`
	Count       int        `json:"count"`
	DurationMS  int64      `json:"duration_ms"`
}
