// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of the application — it depends on nothing.
package domain

import "time"

// ─── User & Ledger Types ────────────────────────────────────────────────────

// User is a registered account. The point ledger is embedded: the three
// counters live on the user row and are mutated only by the rewards engine.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PointsBalance is the three-counter ledger owned by a user.
// Invariant: every counter is >= 0 at all times.
type PointsBalance struct {
	Body int64 `json:"pointsBody"`
	Mind int64 `json:"pointsMind"`
	Soul int64 `json:"pointsSoul"`
}

// PointsDelta is a signed change to apply to a ledger. Credits are positive,
// debits negative.
type PointsDelta struct {
	Body int64
	Mind int64
	Soul int64
}

// IsZero reports whether the delta touches no counter.
func (d PointsDelta) IsZero() bool {
	return d.Body == 0 && d.Mind == 0 && d.Soul == 0
}

// Negate flips the sign of every component.
func (d PointsDelta) Negate() PointsDelta {
	return PointsDelta{Body: -d.Body, Mind: -d.Mind, Soul: -d.Soul}
}

// Apply returns the balance after the delta. Callers must check CanApply
// first; Apply itself does not guard the non-negativity invariant.
func (b PointsBalance) Apply(d PointsDelta) PointsBalance {
	return PointsBalance{
		Body: b.Body + d.Body,
		Mind: b.Mind + d.Mind,
		Soul: b.Soul + d.Soul,
	}
}

// CanApply reports whether applying the delta keeps all counters >= 0.
func (b PointsBalance) CanApply(d PointsDelta) bool {
	next := b.Apply(d)
	return next.Body >= 0 && next.Mind >= 0 && next.Soul >= 0
}

// ─── Quest Types ────────────────────────────────────────────────────────────

// Quest is a user-defined task with a fixed one-time reward.
// The reward triple and reward item set are assigned at creation and never
// change; Completed is the only field mutated afterwards.
type Quest struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	Title         string    `json:"title"`
	Details       string    `json:"details,omitempty"`
	Group         string    `json:"group"`
	Completed     bool      `json:"completed"`
	RewardBody    int64     `json:"rewardBody"`
	RewardMind    int64     `json:"rewardMind"`
	RewardSoul    int64     `json:"rewardSoul"`
	RewardItemIDs []int64   `json:"rewardItemIds,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// RewardDelta returns the ledger credit granted when the quest is completed.
func (q Quest) RewardDelta() PointsDelta {
	return PointsDelta{
		Body: clampNonNegative(q.RewardBody),
		Mind: clampNonNegative(q.RewardMind),
		Soul: clampNonNegative(q.RewardSoul),
	}
}

// ─── Item Types ─────────────────────────────────────────────────────────────

// Item is a user-defined inventory entry with stock quantity and a fixed
// purchase price in points.
type Item struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Title       string    `json:"title"`
	Icon        string    `json:"icon,omitempty"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Quantity    int64     `json:"quantity"`
	PriceBody   int64     `json:"priceBody"`
	PriceMind   int64     `json:"priceMind"`
	PriceSoul   int64     `json:"priceSoul"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PriceDelta returns the ledger debit charged when the item is bought.
// Stored prices should already be non-negative integers; components are
// re-floored at zero so a corrupt row can never turn a debit into a credit.
func (i Item) PriceDelta() PointsDelta {
	return PointsDelta{
		Body: -clampNonNegative(i.PriceBody),
		Mind: -clampNonNegative(i.PriceMind),
		Soul: -clampNonNegative(i.PriceSoul),
	}
}

func clampNonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// ─── Session Types ──────────────────────────────────────────────────────────

// Session is an authenticated browser session resolved from the session cookie.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// DefaultGroup is applied to quests and items created without a group/category.
const DefaultGroup = "General"
