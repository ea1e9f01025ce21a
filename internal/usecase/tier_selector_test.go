package usecase

import (
	"context"
	"testing"

	domrepo "TickVault/internal/domain/repository"
)

func TestSelectTierFinestWithinBudget(t *testing.T) {
	buckets := newFakeBucketStore()
	buckets.countOverride = map[domrepo.Tier]int64{
		domrepo.Tier1ms:   5000,
		domrepo.Tier10ms:  600,
		domrepo.Tier100ms: 80,
		domrepo.Tier1s:    9,
		domrepo.Tier10s:   2,
		domrepo.Tier60s:   1,
	}
	m := &fakeMetrics{}
	s := NewTierSelector(buckets, m, nil)

	tier, counts, err := s.SelectTier(context.Background(), "AAPL", at(0), at(10000), 100)
	if err != nil {
		t.Fatalf("SelectTier: %v", err)
	}
	if tier != domrepo.Tier100ms {
		t.Fatalf("tier = %s, want 100ms", tier)
	}
	if len(counts) != len(domrepo.AllTiers()) || counts[0] != 5000 {
		t.Fatalf("counts %v", counts)
	}
	if len(m.tierSelected) != 1 || m.tierSelected[0] != "100ms" {
		t.Fatalf("metrics %v", m.tierSelected)
	}
}

func TestSelectTierFallsBackToCoarsest(t *testing.T) {
	buckets := newFakeBucketStore()
	buckets.countOverride = map[domrepo.Tier]int64{
		domrepo.Tier1ms:   900000,
		domrepo.Tier10ms:  90000,
		domrepo.Tier100ms: 9000,
		domrepo.Tier1s:    900,
		domrepo.Tier10s:   90,
		domrepo.Tier60s:   15,
	}
	s := NewTierSelector(buckets, nil, nil)

	tier, _, err := s.SelectTier(context.Background(), "AAPL", at(0), at(10000), 10)
	if err != nil {
		t.Fatalf("SelectTier: %v", err)
	}
	if tier != domrepo.Coarsest() {
		t.Fatalf("tier = %s, want coarsest", tier)
	}
}

func TestSelectTierEmptyWindowPicksFinest(t *testing.T) {
	s := NewTierSelector(newFakeBucketStore(), nil, nil)

	tier, _, err := s.SelectTier(context.Background(), "AAPL", at(0), at(10000), 100)
	if err != nil {
		t.Fatalf("SelectTier: %v", err)
	}
	if tier != domrepo.Finest() {
		t.Fatalf("tier = %s, want finest", tier)
	}
}

func TestSelectTierRejectsNonPositiveBudget(t *testing.T) {
	s := NewTierSelector(newFakeBucketStore(), nil, nil)
	if _, _, err := s.SelectTier(context.Background(), "AAPL", at(0), at(100), 0); err == nil {
		t.Fatal("expected error for n=0")
	}
}
