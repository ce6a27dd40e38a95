package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

// CreateSession stores an opaque session token for a user.
func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		session.Token, session.UserID, session.CreatedAt, session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session: %w", err)
	}
	return nil
}

// GetSession looks up a session by token. Expiry is enforced by the caller,
// which knows the current time; this is a plain lookup.
func (db *DB) GetSession(ctx context.Context, token string) (*model.Session, error) {
	var s model.Session
	err := db.conn.QueryRowContext(ctx,
		`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?`,
		token,
	).Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session")
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}
	return &s, nil
}

// DeleteSession removes a session (logout).
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE token = ?`, token,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("session")
	}

	return nil
}

// ExtendSession pushes the expiry forward (sliding window).
func (db *DB) ExtendSession(ctx context.Context, token string, expiresAt time.Time) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE sessions SET expires_at = ? WHERE token = ?`,
		expiresAt, token,
	)
	if err != nil {
		return fmt.Errorf("sqlite: extending session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("session")
	}

	return nil
}

// DeleteExpiredSessions purges sessions whose expiry is before now.
func (db *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, now,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: purging expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return int(n), nil
}
