package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/questkeep/questkeep/internal/domain"
)

// ─── Item Operations ────────────────────────────────────────────────────────

// CreateItem inserts an inventory item and returns the stored row.
func (db *DB) CreateItem(ctx context.Context, i *domain.Item) (*domain.Item, error) {
	res, err := db.db.ExecContext(ctx, `
		INSERT INTO items (user_id, title, icon, description, category, quantity, price_body, price_mind, price_soul)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, i.UserID, i.Title, i.Icon, i.Description, i.Category, i.Quantity, i.PriceBody, i.PriceMind, i.PriceSoul)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.ItemByID(ctx, i.UserID, id)
}

// ItemByID retrieves an item scoped by owner. An item owned by another user
// reports domain.ErrItemNotFound, never its existence.
func (db *DB) ItemByID(ctx context.Context, userID, itemID int64) (*domain.Item, error) {
	i, err := scanItemFrom(db.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, icon, description, category, quantity,
		       price_body, price_mind, price_soul, created_at
		FROM items WHERE id = ? AND user_id = ?
	`, itemID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	return i, err
}

// ItemsByUser lists a user's items, newest first.
func (db *DB) ItemsByUser(ctx context.Context, userID int64) ([]domain.Item, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, user_id, title, icon, description, category, quantity,
		       price_body, price_mind, price_soul, created_at
		FROM items WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		i, err := scanItemFrom(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *i)
	}
	return items, rows.Err()
}

// DeleteItem removes an item scoped by owner. Quests referencing it as a
// reward keep working; the link row goes away with the item.
func (db *DB) DeleteItem(ctx context.Context, userID, itemID int64) error {
	res, err := db.db.ExecContext(ctx, `
		DELETE FROM items WHERE id = ? AND user_id = ?
	`, itemID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func scanItemFrom(s rowScanner) (*domain.Item, error) {
	var i domain.Item
	var createdStr string
	err := s.Scan(&i.ID, &i.UserID, &i.Title, &i.Icon, &i.Description, &i.Category,
		&i.Quantity, &i.PriceBody, &i.PriceMind, &i.PriceSoul, &createdStr)
	if err != nil {
		return nil, err
	}
	i.CreatedAt = parseSQLiteTime(createdStr)
	return &i, nil
}
