package domain

import (
	"testing"
	"time"
)

func TestPointsBalanceApply(t *testing.T) {
	b := PointsBalance{Body: 10, Mind: 5, Soul: 0}
	got := b.Apply(PointsDelta{Body: -3, Mind: 2, Soul: 1})
	want := PointsBalance{Body: 7, Mind: 7, Soul: 1}
	if got != want {
		t.Errorf("Apply = %+v, want %+v", got, want)
	}
}

func TestPointsBalanceCanApply(t *testing.T) {
	tests := []struct {
		name  string
		bal   PointsBalance
		delta PointsDelta
		want  bool
	}{
		{"credit always fits", PointsBalance{}, PointsDelta{Body: 5}, true},
		{"exact drain to zero", PointsBalance{Body: 3}, PointsDelta{Body: -3}, true},
		{"one past zero", PointsBalance{Body: 3}, PointsDelta{Body: -4}, false},
		{"one dimension short", PointsBalance{Body: 5, Mind: 1, Soul: 5}, PointsDelta{Body: -3, Mind: -2}, false},
		{"zero delta", PointsBalance{}, PointsDelta{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bal.CanApply(tt.delta); got != tt.want {
				t.Errorf("CanApply(%+v, %+v) = %v, want %v", tt.bal, tt.delta, got, tt.want)
			}
		})
	}
}

func TestPointsDeltaNegate(t *testing.T) {
	d := PointsDelta{Body: 5, Mind: -2, Soul: 0}
	got := d.Negate()
	if got != (PointsDelta{Body: -5, Mind: 2, Soul: 0}) {
		t.Errorf("Negate = %+v", got)
	}
	if d.Negate().Negate() != d {
		t.Error("double negation changed the delta")
	}
}

func TestQuestRewardDeltaClampsNegatives(t *testing.T) {
	q := Quest{RewardBody: 5, RewardMind: -3, RewardSoul: 1}
	got := q.RewardDelta()
	if got != (PointsDelta{Body: 5, Mind: 0, Soul: 1}) {
		t.Errorf("RewardDelta = %+v, want negative component floored", got)
	}
}

func TestItemPriceDeltaIsDebit(t *testing.T) {
	i := Item{PriceBody: 3, PriceMind: 0, PriceSoul: -7}
	got := i.PriceDelta()
	// Prices debit, and a corrupt negative price never becomes a credit.
	if got != (PointsDelta{Body: -3, Mind: 0, Soul: 0}) {
		t.Errorf("PriceDelta = %+v", got)
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Error("future expiry reported expired")
	}
	if !s.Expired(now.Add(2 * time.Minute)) {
		t.Error("past expiry reported live")
	}
}
