// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage. For a
// single-process service like this one it covers everything the document
// store in the original deployment did, and adds real constraints: UNIQUE
// indexes enforce "one reaction per (user, subject)" and "one share per
// (user, post)" at the schema level instead of ad hoc per-route checks.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// SQLite — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
// One DB value implements every repository interface; the service layer
// only ever sees the interfaces.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway database.
func New(dbPath string) (*DB, error) {
	// foreign_keys and journal_mode are per-connection state, and
	// foreign_keys defaults to OFF. The delete-post cascade depends on it,
	// so the pragmas ride in the DSN: the driver replays them on every
	// connection the pool opens, not just the one a startup Exec happens
	// to land on. WAL allows concurrent reads while a write is in
	// progress; busy_timeout keeps pooled writers from failing fast on
	// SQLITE_BUSY.
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	dsn := dbPath + sep +
		"_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" is a distinct empty database;
	// pin the pool to one connection so tests see a single store.
	if strings.Contains(dbPath, ":memory:") {
		conn.SetMaxOpenConns(1)
	}

	// Force an immediate connection so a bad path fails here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent
// so it is safe to run on every startup.
func (db *DB) migrate() error {
	statements := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				name          TEXT NOT NULL,
				username      TEXT NOT NULL UNIQUE,
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL DEFAULT '',
				bio           TEXT NOT NULL DEFAULT '',
				location      TEXT NOT NULL DEFAULT '',
				website       TEXT NOT NULL DEFAULT '',
				avatar        TEXT NOT NULL DEFAULT '',
				github_id     INTEGER UNIQUE,
				created_at    DATETIME NOT NULL,
				updated_at    DATETIME NOT NULL
			);
		`},
		{"posts", `
			CREATE TABLE IF NOT EXISTS posts (
				id         TEXT PRIMARY KEY,
				author_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				content    TEXT NOT NULL,
				visibility TEXT NOT NULL DEFAULT 'public',
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
			CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id, created_at);
		`},
		{"post_images", `
			CREATE TABLE IF NOT EXISTS post_images (
				id      TEXT PRIMARY KEY,
				post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				url     TEXT NOT NULL,
				alt     TEXT NOT NULL DEFAULT ''
			);
			CREATE INDEX IF NOT EXISTS idx_post_images_post ON post_images(post_id);
		`},
		{"comments", `
			CREATE TABLE IF NOT EXISTS comments (
				id         TEXT PRIMARY KEY,
				post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				text       TEXT NOT NULL,
				parent_id  TEXT REFERENCES comments(id),
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id, created_at);
		`},
		{"reactions", `
			CREATE TABLE IF NOT EXISTS reactions (
				id           TEXT PRIMARY KEY,
				subject_type TEXT NOT NULL,
				subject_id   TEXT NOT NULL,
				user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				kind         TEXT NOT NULL,
				created_at   DATETIME NOT NULL,
				UNIQUE(subject_type, subject_id, user_id)
			);
			CREATE INDEX IF NOT EXISTS idx_reactions_subject
				ON reactions(subject_type, subject_id);
		`},
		{"shares", `
			CREATE TABLE IF NOT EXISTS shares (
				id         TEXT PRIMARY KEY,
				post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL,
				UNIQUE(post_id, user_id)
			);
		`},
		{"follows", `
			CREATE TABLE IF NOT EXISTS follows (
				follower_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				followee_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at  DATETIME NOT NULL,
				PRIMARY KEY (follower_id, followee_id)
			);
			CREATE INDEX IF NOT EXISTS idx_follows_followee ON follows(followee_id);
		`},
		{"sessions", `
			CREATE TABLE IF NOT EXISTS sessions (
				token      TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL,
				expires_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
		`},
		{"notifications", `
			CREATE TABLE IF NOT EXISTS notifications (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				actor_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				type       TEXT NOT NULL,
				post_id    TEXT,
				read       INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_notifications_user
				ON notifications(user_id, created_at);
		`},
		{"messages", `
			CREATE TABLE IF NOT EXISTS messages (
				id           TEXT PRIMARY KEY,
				sender_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				recipient_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				body         TEXT NOT NULL,
				read         INTEGER NOT NULL DEFAULT 0,
				created_at   DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_messages_pair
				ON messages(sender_id, recipient_id, created_at);
			CREATE INDEX IF NOT EXISTS idx_messages_recipient
				ON messages(recipient_id, read);
		`},
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", stmt.name, err)
		}
	}

	return nil
}
