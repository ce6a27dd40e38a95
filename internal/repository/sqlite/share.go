package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

var _ repository.ShareRepository = (*DB)(nil)

// CreateShare records one user sharing a post. The UNIQUE(post_id, user_id)
// constraint makes repeat shares a conflict rather than a duplicate row.
func (db *DB) CreateShare(ctx context.Context, share *model.Share) error {
	share.ID = xid.New().String()
	share.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO shares (id, post_id, user_id, created_at) VALUES (?, ?, ?, ?)`,
		share.ID, share.PostID, share.UserID, share.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("post already shared")
		}
		return fmt.Errorf("sqlite: inserting share: %w", err)
	}

	return nil
}

// DeleteShare removes the user's share of a post.
func (db *DB) DeleteShare(ctx context.Context, postID, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM shares WHERE post_id = ? AND user_id = ?`,
		postID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting share: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("share")
	}

	return nil
}

// CountShares returns how many users have shared the post.
func (db *DB) CountShares(ctx context.Context, postID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shares WHERE post_id = ?`, postID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting shares: %w", err)
	}
	return count, nil
}
