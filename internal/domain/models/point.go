package models

import "time"

// RawPoint is a single high-frequency observation. Immutable once written;
// owned by the raw store.
type RawPoint struct {
	Time   time.Time
	Symbol string
	Price  float64
}

// Bucket is the min/max summary of all finer-grained values that fall within
// one tier window for one symbol. MinTime/MaxTime carry the earliest observed
// time among source values equal to Min/Max (first-wins on ties).
type Bucket struct {
	Symbol      string
	BucketStart time.Time
	Min         float64
	Max         float64
	MinTime     time.Time
	MaxTime     time.Time
}

// Extent is the actual data range recorded for a symbol.
type Extent struct {
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}
