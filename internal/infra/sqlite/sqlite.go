// Package sqlite persists users, quests, items, and sessions.
// All writes that touch the point ledger go through Update, which wraps the
// work in a single immediate transaction so the composite check-then-write
// of the rewards engine is serialized against concurrent writers.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the sqlite connection pool.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
// _txlock=immediate makes every write transaction take the write lock up
// front, so two racing ledger transactions never deadlock mid-flight.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db := &DB{db: sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.db.Close()
}

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Accounts. The point ledger is embedded on the user row; CHECK
		// constraints back up the engine's non-negativity invariant.
		`CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			points_body   INTEGER NOT NULL DEFAULT 0 CHECK(points_body >= 0),
			points_mind   INTEGER NOT NULL DEFAULT 0 CHECK(points_mind >= 0),
			points_soul   INTEGER NOT NULL DEFAULT 0 CHECK(points_soul >= 0),
			created_at    TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Quests. Reward columns are fixed at creation; only completed flips.
		`CREATE TABLE IF NOT EXISTS quests (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title       TEXT NOT NULL,
			details     TEXT NOT NULL DEFAULT '',
			group_name  TEXT NOT NULL DEFAULT 'General',
			completed   INTEGER NOT NULL DEFAULT 0,
			reward_body INTEGER NOT NULL DEFAULT 0 CHECK(reward_body >= 0),
			reward_mind INTEGER NOT NULL DEFAULT 0 CHECK(reward_mind >= 0),
			reward_soul INTEGER NOT NULL DEFAULT 0 CHECK(reward_soul >= 0),
			created_at  TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quests_user ON quests(user_id, created_at DESC)`,

		// Inventory items.
		`CREATE TABLE IF NOT EXISTS items (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title       TEXT NOT NULL,
			icon        TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT 'General',
			quantity    INTEGER NOT NULL DEFAULT 0 CHECK(quantity >= 0),
			price_body  INTEGER NOT NULL DEFAULT 0 CHECK(price_body >= 0),
			price_mind  INTEGER NOT NULL DEFAULT 0 CHECK(price_mind >= 0),
			price_soul  INTEGER NOT NULL DEFAULT 0 CHECK(price_soul >= 0),
			created_at  TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_user ON items(user_id, created_at DESC)`,

		// Optional reward items granted when a quest completes.
		`CREATE TABLE IF NOT EXISTS quest_reward_items (
			quest_id INTEGER NOT NULL REFERENCES quests(id) ON DELETE CASCADE,
			item_id  INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
			PRIMARY KEY (quest_id, item_id)
		)`,

		// Browser sessions (opaque token cookie).
		`CREATE TABLE IF NOT EXISTS sessions (
			token      TEXT PRIMARY KEY,
			user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expiry ON sessions(expires_at)`,
	}
}

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ─── Time Helpers ───────────────────────────────────────────────────────────

const sqliteTimeLayout = "2006-01-02 15:04:05"

func parseSQLiteTime(s string) time.Time {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}
