package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/questkeep/questkeep/internal/domain"
)

// ─── Transactional Updates ──────────────────────────────────────────────────
// The rewards engine composes the operations below inside a single Update
// call. The connection is opened with _txlock=immediate, so the write lock is
// held for the whole read-check-write sequence: a concurrent reader never
// observes a ledger that reflects only part of a delta, and two racing debits
// against the same ledger are fully serialized.

// Tx is an open write transaction.
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
}

// Update runs fn inside one transaction, committing on nil and rolling back
// on error. The returned error is fn's own error whenever fn fails, so
// domain sentinels pass through unchanged.
func (db *DB) Update(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{ctx: ctx, tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// QuestByID reads a quest (with reward item links) inside the transaction,
// scoped by owner.
func (t *Tx) QuestByID(userID, questID int64) (*domain.Quest, error) {
	q, err := scanQuestFrom(t.tx.QueryRowContext(t.ctx, `
		SELECT id, user_id, title, details, group_name, completed,
		       reward_body, reward_mind, reward_soul, created_at
		FROM quests WHERE id = ? AND user_id = ?
	`, questID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrQuestNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT item_id FROM quest_reward_items WHERE quest_id = ? ORDER BY item_id
	`, q.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		q.RewardItemIDs = append(q.RewardItemIDs, id)
	}
	return q, rows.Err()
}

// SetQuestCompleted flips the completion flag.
func (t *Tx) SetQuestCompleted(questID int64, completed bool) error {
	flag := 0
	if completed {
		flag = 1
	}
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE quests SET completed = ? WHERE id = ?
	`, flag, questID)
	return err
}

// ItemByID reads an item inside the transaction, scoped by owner.
func (t *Tx) ItemByID(userID, itemID int64) (*domain.Item, error) {
	i, err := scanItemFrom(t.tx.QueryRowContext(t.ctx, `
		SELECT id, user_id, title, icon, description, category, quantity,
		       price_body, price_mind, price_soul, created_at
		FROM items WHERE id = ? AND user_id = ?
	`, itemID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	return i, err
}

// SetItemQuantity writes an item's quantity. The schema CHECK rejects
// negative values as a last line of defense.
func (t *Tx) SetItemQuantity(itemID, quantity int64) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE items SET quantity = ? WHERE id = ?
	`, quantity, itemID)
	return err
}

// Points reads the user's ledger inside the transaction.
func (t *Tx) Points(userID int64) (domain.PointsBalance, error) {
	var b domain.PointsBalance
	err := t.tx.QueryRowContext(t.ctx, `
		SELECT points_body, points_mind, points_soul FROM users WHERE id = ?
	`, userID).Scan(&b.Body, &b.Mind, &b.Soul)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PointsBalance{}, domain.ErrUserNotFound
	}
	return b, err
}

// SetPoints writes the user's ledger. All three counters land in one UPDATE,
// so no partial delta is ever persisted.
func (t *Tx) SetPoints(userID int64, b domain.PointsBalance) error {
	_, err := t.tx.ExecContext(t.ctx, `
		UPDATE users SET points_body = ?, points_mind = ?, points_soul = ? WHERE id = ?
	`, b.Body, b.Mind, b.Soul, userID)
	return err
}
