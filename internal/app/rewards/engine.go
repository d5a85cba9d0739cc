// Package rewards implements the points-and-rewards transaction engine.
//
// Three operations mutate a user's three-dimensional ledger (Body/Mind/Soul)
// in lockstep with quest-completion toggles and item purchases:
//
//	ToggleQuestCompletion — credit on complete, debit on un-complete
//	UseItem               — consume one unit of stock, no ledger effect
//	BuyItem               — debit the price triple, grant one unit of stock
//
// Every ledger-affecting operation runs as one store transaction:
// Validate → Read → ComputeDelta → CheckInvariant → Commit | Reject.
// A rejected operation leaves all persisted state exactly as it was.
package rewards

import (
	"context"
	"errors"

	"github.com/questkeep/questkeep/internal/domain"
	"github.com/questkeep/questkeep/internal/infra/observability"
	"github.com/questkeep/questkeep/internal/infra/sqlite"
)

// Engine orchestrates atomic state transitions across quests, items, and the
// point ledger. The store handle is injected explicitly; the engine holds no
// other state.
type Engine struct {
	db *sqlite.DB
}

// NewEngine creates a rewards engine backed by the given store.
func NewEngine(db *sqlite.DB) *Engine {
	return &Engine{db: db}
}

// Points returns the user's current ledger.
func (e *Engine) Points(ctx context.Context, userID int64) (domain.PointsBalance, error) {
	return e.db.Points(ctx, userID)
}

// ─── ToggleQuestCompletion ──────────────────────────────────────────────────

// ToggleQuestCompletion sets a quest's completed flag and settles the ledger.
//
// Completing credits the quest's fixed reward triple and grants one unit of
// each reward item. Un-completing debits the same triple and revokes the
// grants; if any counter would go negative the whole operation is rejected
// with domain.ErrInsufficientPoints (the quest stays completed, the ledger is
// untouched). Setting the flag to its current value is a no-op on the ledger.
func (e *Engine) ToggleQuestCompletion(ctx context.Context, userID, questID int64, completed bool) (*domain.Quest, error) {
	var updated *domain.Quest
	err := e.db.Update(ctx, func(tx *sqlite.Tx) error {
		quest, err := tx.QuestByID(userID, questID)
		if err != nil {
			return err
		}

		if quest.Completed == completed {
			// Idempotent: rewrite the flag, leave the ledger alone.
			if err := tx.SetQuestCompleted(quest.ID, completed); err != nil {
				return err
			}
			updated = quest
			return nil
		}

		delta := quest.RewardDelta()
		if !completed {
			delta = delta.Negate()
		}

		if err := e.settleRewardItems(tx, userID, quest.RewardItemIDs, completed); err != nil {
			return err
		}

		if !delta.IsZero() {
			balance, err := tx.Points(userID)
			if err != nil {
				return err
			}
			if !balance.CanApply(delta) {
				return domain.ErrInsufficientPoints
			}
			if err := tx.SetPoints(userID, balance.Apply(delta)); err != nil {
				return err
			}
			recordDelta(delta)
		}

		if err := tx.SetQuestCompleted(quest.ID, completed); err != nil {
			return err
		}
		quest.Completed = completed
		updated = quest
		return nil
	})
	observe("toggle_quest", err)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// settleRewardItems grants (+1) or revokes (−1) the quest's reward items.
// Revoking an item whose stock is already zero rejects the whole toggle:
// the granted unit has been consumed, so the completion cannot be undone.
func (e *Engine) settleRewardItems(tx *sqlite.Tx, userID int64, itemIDs []int64, granting bool) error {
	for _, itemID := range itemIDs {
		item, err := tx.ItemByID(userID, itemID)
		if errors.Is(err, domain.ErrItemNotFound) {
			// Reward item deleted after quest creation: nothing to settle.
			continue
		}
		if err != nil {
			return err
		}
		if granting {
			if err := tx.SetItemQuantity(item.ID, item.Quantity+1); err != nil {
				return err
			}
			continue
		}
		if item.Quantity <= 0 {
			return domain.ErrNoRemainingQuantity
		}
		if err := tx.SetItemQuantity(item.ID, item.Quantity-1); err != nil {
			return err
		}
	}
	return nil
}

// ─── UseItem ────────────────────────────────────────────────────────────────

// UseItem consumes one unit of the item's stock. The ledger is not involved.
// Returns domain.ErrNoRemainingQuantity when the stock is already zero.
func (e *Engine) UseItem(ctx context.Context, userID, itemID int64) (*domain.Item, error) {
	var updated *domain.Item
	err := e.db.Update(ctx, func(tx *sqlite.Tx) error {
		item, err := tx.ItemByID(userID, itemID)
		if err != nil {
			return err
		}
		if item.Quantity <= 0 {
			return domain.ErrNoRemainingQuantity
		}
		if err := tx.SetItemQuantity(item.ID, item.Quantity-1); err != nil {
			return err
		}
		item.Quantity--
		updated = item
		return nil
	})
	observe("use_item", err)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ─── BuyItem ────────────────────────────────────────────────────────────────

// BuyItem debits the item's price triple from the ledger and increments its
// stock by one, as one atomic unit. A free item (all price components zero)
// skips the ledger read and write entirely. If any dimension of the balance
// is insufficient the whole purchase is rejected: no partial debit, no item
// granted.
func (e *Engine) BuyItem(ctx context.Context, userID, itemID int64) (*domain.Item, error) {
	var updated *domain.Item
	err := e.db.Update(ctx, func(tx *sqlite.Tx) error {
		item, err := tx.ItemByID(userID, itemID)
		if err != nil {
			return err
		}

		cost := item.PriceDelta()
		if !cost.IsZero() {
			balance, err := tx.Points(userID)
			if err != nil {
				return err
			}
			if !balance.CanApply(cost) {
				return domain.ErrInsufficientPoints
			}
			if err := tx.SetPoints(userID, balance.Apply(cost)); err != nil {
				return err
			}
			recordDelta(cost)
		}

		if err := tx.SetItemQuantity(item.ID, item.Quantity+1); err != nil {
			return err
		}
		item.Quantity++
		updated = item
		return nil
	})
	observe("buy_item", err)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ─── Metrics ────────────────────────────────────────────────────────────────

func observe(op string, err error) {
	switch {
	case err == nil:
		observability.LedgerTransactions.WithLabelValues(op, "committed").Inc()
	case errors.Is(err, domain.ErrInsufficientPoints):
		observability.LedgerTransactions.WithLabelValues(op, "rejected").Inc()
		observability.LedgerRejections.WithLabelValues("insufficient_points").Inc()
	case errors.Is(err, domain.ErrNoRemainingQuantity):
		observability.LedgerTransactions.WithLabelValues(op, "rejected").Inc()
		observability.LedgerRejections.WithLabelValues("no_remaining_quantity").Inc()
	case errors.Is(err, domain.ErrQuestNotFound), errors.Is(err, domain.ErrItemNotFound):
		observability.LedgerTransactions.WithLabelValues(op, "rejected").Inc()
		observability.LedgerRejections.WithLabelValues("not_found").Inc()
	default:
		observability.LedgerTransactions.WithLabelValues(op, "failed").Inc()
	}
}

func recordDelta(d domain.PointsDelta) {
	for _, c := range []struct {
		dim string
		n   int64
	}{{"body", d.Body}, {"mind", d.Mind}, {"soul", d.Soul}} {
		if c.n > 0 {
			observability.PointsGranted.WithLabelValues(c.dim).Add(float64(c.n))
		} else if c.n < 0 {
			observability.PointsSpent.WithLabelValues(c.dim).Add(float64(-c.n))
		}
	}
}
