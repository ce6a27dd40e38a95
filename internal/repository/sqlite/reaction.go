package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

var _ repository.ReactionRepository = (*DB)(nil)

// GetReaction returns the user's reaction to a subject, or ErrNotFound.
func (db *DB) GetReaction(ctx context.Context, subject model.SubjectType, subjectID, userID string) (*model.Reaction, error) {
	var r model.Reaction
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, subject_type, subject_id, user_id, kind, created_at
		 FROM reactions
		 WHERE subject_type = ? AND subject_id = ? AND user_id = ?`,
		subject, subjectID, userID,
	).Scan(&r.ID, &r.SubjectType, &r.SubjectID, &r.UserID, &r.Kind, &r.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("reaction")
		}
		return nil, fmt.Errorf("sqlite: getting reaction: %w", err)
	}
	return &r, nil
}

// SetReaction inserts the reaction or, if the (subject, user) pair already
// has one, overwrites its kind and timestamp. ON CONFLICT rides the UNIQUE
// index, so two concurrent toggles by the same user collapse to last-write-
// wins instead of leaving two rows.
func (db *DB) SetReaction(ctx context.Context, reaction *model.Reaction) error {
	if reaction.ID == "" {
		reaction.ID = xid.New().String()
	}
	reaction.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO reactions (id, subject_type, subject_id, user_id, kind, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(subject_type, subject_id, user_id)
		 DO UPDATE SET kind = excluded.kind, created_at = excluded.created_at`,
		reaction.ID, reaction.SubjectType, reaction.SubjectID,
		reaction.UserID, reaction.Kind, reaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting reaction: %w", err)
	}

	return nil
}

// DeleteReaction removes the user's reaction to a subject.
func (db *DB) DeleteReaction(ctx context.Context, subject model.SubjectType, subjectID, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM reactions
		 WHERE subject_type = ? AND subject_id = ? AND user_id = ?`,
		subject, subjectID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting reaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("reaction")
	}

	return nil
}

// ReactionCounts returns per-kind totals for one subject.
func (db *DB) ReactionCounts(ctx context.Context, subject model.SubjectType, subjectID string) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM reactions
		 WHERE subject_type = ? AND subject_id = ?
		 GROUP BY kind`,
		subject, subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting reactions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning reaction count: %w", err)
		}
		counts[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reaction counts: %w", err)
	}

	return counts, nil
}
