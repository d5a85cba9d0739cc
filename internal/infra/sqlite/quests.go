package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/questkeep/questkeep/internal/domain"
)

// ─── Quest Operations ───────────────────────────────────────────────────────

// CreateQuest inserts a quest and its reward item links in one transaction.
// Reward item references must belong to the same user; a foreign reference
// fails the whole insert with domain.ErrItemNotFound.
func (db *DB) CreateQuest(ctx context.Context, q *domain.Quest) (*domain.Quest, error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO quests (user_id, title, details, group_name, reward_body, reward_mind, reward_soul)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, q.UserID, q.Title, q.Details, q.Group, q.RewardBody, q.RewardMind, q.RewardSoul)
	if err != nil {
		return nil, err
	}
	questID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	for _, itemID := range q.RewardItemIDs {
		var owner int64
		err := tx.QueryRowContext(ctx, `SELECT user_id FROM items WHERE id = ?`, itemID).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != q.UserID) {
			return nil, domain.ErrItemNotFound
		}
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO quest_reward_items (quest_id, item_id) VALUES (?, ?)
		`, questID, itemID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.QuestByID(ctx, q.UserID, questID)
}

// QuestByID retrieves a quest scoped by owner. A quest owned by another user
// reports domain.ErrQuestNotFound, never its existence.
func (db *DB) QuestByID(ctx context.Context, userID, questID int64) (*domain.Quest, error) {
	q, err := scanQuest(db.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, details, group_name, completed,
		       reward_body, reward_mind, reward_soul, created_at
		FROM quests WHERE id = ? AND user_id = ?
	`, questID, userID))
	if err != nil {
		return nil, err
	}
	q.RewardItemIDs, err = db.rewardItemIDs(ctx, db.db, q.ID)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// QuestsByUser lists a user's quests, newest first.
func (db *DB) QuestsByUser(ctx context.Context, userID int64) ([]domain.Quest, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, user_id, title, details, group_name, completed,
		       reward_body, reward_mind, reward_soul, created_at
		FROM quests WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quests []domain.Quest
	for rows.Next() {
		q, err := scanQuestRows(rows)
		if err != nil {
			return nil, err
		}
		quests = append(quests, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range quests {
		quests[i].RewardItemIDs, err = db.rewardItemIDs(ctx, db.db, quests[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return quests, nil
}

// DeleteQuest removes a quest scoped by owner. Already-granted rewards are
// intentionally not reversed (rewards are consumed permanently).
func (db *DB) DeleteQuest(ctx context.Context, userID, questID int64) error {
	res, err := db.db.ExecContext(ctx, `
		DELETE FROM quests WHERE id = ? AND user_id = ?
	`, questID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrQuestNotFound
	}
	return nil
}

// ─── Row Scanning ───────────────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuest(row *sql.Row) (*domain.Quest, error) {
	q, err := scanQuestFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrQuestNotFound
	}
	return q, err
}

func scanQuestRows(rows *sql.Rows) (*domain.Quest, error) {
	return scanQuestFrom(rows)
}

func scanQuestFrom(s rowScanner) (*domain.Quest, error) {
	var q domain.Quest
	var completed int
	var createdStr string
	err := s.Scan(&q.ID, &q.UserID, &q.Title, &q.Details, &q.Group, &completed,
		&q.RewardBody, &q.RewardMind, &q.RewardSoul, &createdStr)
	if err != nil {
		return nil, err
	}
	q.Completed = completed == 1
	q.CreatedAt = parseSQLiteTime(createdStr)
	return &q, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (db *DB) rewardItemIDs(ctx context.Context, q querier, questID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT item_id FROM quest_reward_items WHERE quest_id = ? ORDER BY item_id
	`, questID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
