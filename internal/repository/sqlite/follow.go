package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

var _ repository.FollowRepository = (*DB)(nil)

// CreateFollow records follower → followee. A repeat follow hits the
// composite primary key and comes back as a conflict.
func (db *DB) CreateFollow(ctx context.Context, followerID, followeeID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)`,
		followerID, followeeID, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("already following this user")
		}
		return fmt.Errorf("sqlite: inserting follow: %w", err)
	}
	return nil
}

// DeleteFollow removes the follow edge.
func (db *DB) DeleteFollow(ctx context.Context, followerID, followeeID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`,
		followerID, followeeID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting follow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("follow")
	}

	return nil
}

// FollowExists reports whether followerID follows followeeID.
func (db *DB) FollowExists(ctx context.Context, followerID, followeeID string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id = ? AND followee_id = ?`,
		followerID, followeeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow existence: %w", err)
	}
	return count > 0, nil
}

// Followers pages the users following userID, most recent first.
func (db *DB) Followers(ctx context.Context, userID string, opts repository.ListOptions) ([]model.UserSummary, int, error) {
	return db.followEdge(ctx,
		`SELECT COUNT(*) FROM follows WHERE followee_id = ?`,
		`SELECT u.id, u.name, u.username, u.avatar, u.bio
		 FROM follows f JOIN users u ON u.id = f.follower_id
		 WHERE f.followee_id = ?
		 ORDER BY f.created_at DESC
		 LIMIT ? OFFSET ?`,
		userID, opts)
}

// Following pages the users userID follows, most recent first.
func (db *DB) Following(ctx context.Context, userID string, opts repository.ListOptions) ([]model.UserSummary, int, error) {
	return db.followEdge(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id = ?`,
		`SELECT u.id, u.name, u.username, u.avatar, u.bio
		 FROM follows f JOIN users u ON u.id = f.followee_id
		 WHERE f.follower_id = ?
		 ORDER BY f.created_at DESC
		 LIMIT ? OFFSET ?`,
		userID, opts)
}

func (db *DB) followEdge(ctx context.Context, countQuery, pageQuery, userID string, opts repository.ListOptions) ([]model.UserSummary, int, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting follows: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, pageQuery, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing follows: %w", err)
	}
	defer rows.Close()

	users := make([]model.UserSummary, 0, limit)
	for rows.Next() {
		var s model.UserSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Username, &s.Avatar, &s.Bio); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning follow row: %w", err)
		}
		users = append(users, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating follows: %w", err)
	}

	return users, total, nil
}

// FollowingIDs returns the set of user IDs that userID follows, for
// annotating isFollowing across a page of profiles in one query.
func (db *DB) FollowingIDs(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT followee_id FROM follows WHERE follower_id = ?`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading following ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning following id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating following ids: %w", err)
	}

	return ids, nil
}
