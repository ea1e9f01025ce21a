package repository

import (
	"fmt"
	"time"
)

// Tier identifies one resolution level of pre-aggregated buckets.
// Tiers are ordered ascending by bucket width; the zero value is the finest.
type Tier int

const (
	Tier1ms Tier = iota
	Tier10ms
	Tier100ms
	Tier1s
	Tier10s
	Tier60s
)

// TierSpec is the static configuration of one tier.
type TierSpec struct {
	Tier  Tier
	Width time.Duration
}

// tierSpecs is the fixed ordered registry. Immutable at runtime; selection is
// index lookup and iteration, never dynamic dispatch.
var tierSpecs = [...]TierSpec{
	{Tier1ms, time.Millisecond},
	{Tier10ms, 10 * time.Millisecond},
	{Tier100ms, 100 * time.Millisecond},
	{Tier1s, time.Second},
	{Tier10s, 10 * time.Second},
	{Tier60s, 60 * time.Second},
}

// AllTiers returns all tiers ordered finest to coarsest.
func AllTiers() []Tier {
	out := make([]Tier, 0, len(tierSpecs))
	for _, s := range tierSpecs {
		out = append(out, s.Tier)
	}
	return out
}

// Specs returns the full ordered registry.
func Specs() []TierSpec {
	out := make([]TierSpec, len(tierSpecs))
	copy(out, tierSpecs[:])
	return out
}

// Coarsest returns the widest tier.
func Coarsest() Tier { return tierSpecs[len(tierSpecs)-1].Tier }

// Finest returns the narrowest tier.
func Finest() Tier { return tierSpecs[0].Tier }

// Valid reports whether t is a registered tier.
func (t Tier) Valid() bool {
	return t >= 0 && int(t) < len(tierSpecs)
}

// Width returns the bucket width for this tier.
func (t Tier) Width() time.Duration {
	if !t.Valid() {
		return 0
	}
	return tierSpecs[t].Width
}

func (t Tier) String() string {
	switch t {
	case Tier1ms:
		return "1ms"
	case Tier10ms:
		return "10ms"
	case Tier100ms:
		return "100ms"
	case Tier1s:
		return "1s"
	case Tier10s:
		return "10s"
	case Tier60s:
		return "60s"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Previous returns the next-finer tier, or the same tier if already finest.
func (t Tier) Previous() Tier {
	if t <= Tier1ms {
		return Tier1ms
	}
	return t - 1
}

// Next returns the next-coarser tier, or the same tier if already coarsest.
func (t Tier) Next() Tier {
	if t >= Coarsest() {
		return Coarsest()
	}
	return t + 1
}

// IsCoarsest reports whether this is the widest tier.
func (t Tier) IsCoarsest() bool { return t == Coarsest() }

// BucketStart floors ts onto this tier's grid:
// bucket_start = floor(ts / width) * width.
func (t Tier) BucketStart(ts time.Time) time.Time {
	w := t.Width()
	if w <= 0 {
		return ts
	}
	ns := ts.UnixNano()
	return time.Unix(0, (ns/int64(w))*int64(w)).UTC()
}

// ParseTier parses a width label ("1ms".."60s") into a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "1ms":
		return Tier1ms, nil
	case "10ms":
		return Tier10ms, nil
	case "100ms":
		return Tier100ms, nil
	case "1s":
		return Tier1s, nil
	case "10s":
		return Tier10s, nil
	case "60s", "1min":
		return Tier60s, nil
	default:
		return Tier1ms, fmt.Errorf("unknown tier: %s", s)
	}
}
