package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/questkeep/questkeep/internal/domain"
	"github.com/questkeep/questkeep/internal/infra/observability"
)

// ─── Session Operations ─────────────────────────────────────────────────────
// The active-sessions gauge is maintained here, where every insert and delete
// knows exactly how many rows it touched.

// InsertSession stores a new session token.
func (db *DB) InsertSession(ctx context.Context, s domain.Session) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)
	`, s.Token, s.UserID, s.ExpiresAt.UTC().Format(time.RFC3339))
	if err == nil {
		observability.ActiveSessions.Inc()
	}
	return err
}

// SessionByToken resolves a token to a session. Expired rows are deleted on
// sight and reported as missing.
func (db *DB) SessionByToken(ctx context.Context, token string) (*domain.Session, error) {
	var s domain.Session
	var expiresStr string
	err := db.db.QueryRowContext(ctx, `
		SELECT token, user_id, expires_at FROM sessions WHERE token = ?
	`, token).Scan(&s.Token, &s.UserID, &expiresStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	s.ExpiresAt, _ = time.Parse(time.RFC3339, expiresStr)
	if s.Expired(time.Now()) {
		_ = db.DeleteSession(ctx, token)
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

// DeleteSession removes a session token. Missing tokens are not an error,
// so logout stays idempotent.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	res, err := db.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		observability.ActiveSessions.Sub(float64(n))
	}
	return nil
}

// PurgeExpiredSessions removes all sessions past their expiry.
func (db *DB) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at <= ?
	`, now.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err == nil {
		observability.ActiveSessions.Sub(float64(n))
	}
	return n, err
}
