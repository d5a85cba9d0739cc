package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/questkeep/questkeep/internal/domain"
)

// ─── User Operations ────────────────────────────────────────────────────────

// CreateUser inserts a new account with an all-zero ledger and returns it.
// Returns domain.ErrUsernameTaken when the username is already registered.
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	res, err := db.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash) VALUES (?, ?)
	`, username, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.UserByID(ctx, id)
}

// UserByID retrieves a user by primary key.
func (db *DB) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	return db.scanUser(db.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM users WHERE id = ?
	`, id))
}

// UserByUsername retrieves a user by username.
func (db *DB) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return db.scanUser(db.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM users WHERE username = ?
	`, username))
}

func (db *DB) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var createdStr string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = parseSQLiteTime(createdStr)
	return &u, nil
}

// Points reads a user's current ledger outside any transaction.
func (db *DB) Points(ctx context.Context, userID int64) (domain.PointsBalance, error) {
	var b domain.PointsBalance
	err := db.db.QueryRowContext(ctx, `
		SELECT points_body, points_mind, points_soul FROM users WHERE id = ?
	`, userID).Scan(&b.Body, &b.Mind, &b.Soul)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PointsBalance{}, domain.ErrUserNotFound
	}
	return b, err
}

// isUniqueViolation detects a UNIQUE constraint failure without depending on
// driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
