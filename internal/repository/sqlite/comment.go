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

var _ repository.CommentRepository = (*DB)(nil)

// CreateComment inserts a comment. The comments count on the post is not
// stored anywhere — it is computed on read, so this single INSERT is the
// whole operation and there is no second write to get out of sync with.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, user_id, text, parent_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		comment.ID, comment.PostID, comment.UserID, comment.Text,
		comment.ParentID, comment.CreatedAt, comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting comment: %w", err)
	}

	return nil
}

// GetCommentByID returns one comment with its author summary. Reaction
// annotations are left to ListCommentsByPost; callers here only need ownership and
// post linkage (delete authorization, notification targets).
func (db *DB) GetCommentByID(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	err := db.conn.QueryRowContext(ctx,
		`SELECT c.id, c.post_id, c.user_id, c.text, c.parent_id,
		        c.created_at, c.updated_at,
		        u.name, u.username, u.avatar
		 FROM comments c JOIN users u ON u.id = c.user_id
		 WHERE c.id = ?`,
		id,
	).Scan(
		&c.ID, &c.PostID, &c.UserID, &c.Text, &c.ParentID,
		&c.CreatedAt, &c.UpdatedAt,
		&c.Author.Name, &c.Author.Username, &c.Author.Avatar,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("comment")
		}
		return nil, fmt.Errorf("sqlite: getting comment %s: %w", id, err)
	}
	c.Author.ID = c.UserID

	return &c, nil
}

// ListCommentsByPost pages a post's comments oldest-first with the viewer's reaction
// kind resolved in the same query.
func (db *DB) ListCommentsByPost(ctx context.Context, postID string, opts repository.ListOptions, viewerID string) ([]model.Comment, int, error) {
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
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting comments: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.post_id, c.user_id, c.text, c.parent_id,
		        c.created_at, c.updated_at,
		        u.name, u.username, u.avatar,
		        COALESCE((SELECT r.kind FROM reactions r
		          WHERE r.subject_type = 'comment' AND r.subject_id = c.id
		            AND r.user_id = ?), '')
		 FROM comments c JOIN users u ON u.id = c.user_id
		 WHERE c.post_id = ?
		 ORDER BY c.created_at ASC, c.id ASC
		 LIMIT ? OFFSET ?`,
		viewerID, postID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing comments: %w", err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0, limit)
	for rows.Next() {
		var c model.Comment
		var myReaction string
		if err := rows.Scan(
			&c.ID, &c.PostID, &c.UserID, &c.Text, &c.ParentID,
			&c.CreatedAt, &c.UpdatedAt,
			&c.Author.Name, &c.Author.Username, &c.Author.Avatar,
			&myReaction,
		); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		c.Author.ID = c.UserID
		c.MyReaction = myReaction
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	// Per-kind reaction counts, one query across the page.
	if err := db.loadCommentReactionCounts(ctx, comments); err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

func (db *DB) loadCommentReactionCounts(ctx context.Context, comments []model.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	byID := make(map[string]*model.Comment, len(comments))
	placeholders := ""
	args := []any{}
	for i := range comments {
		byID[comments[i].ID] = &comments[i]
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, comments[i].ID)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT subject_id, kind, COUNT(*) FROM reactions
		 WHERE subject_type = 'comment' AND subject_id IN (`+placeholders+`)
		 GROUP BY subject_id, kind`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading comment reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var subjectID, kind string
		var count int
		if err := rows.Scan(&subjectID, &kind, &count); err != nil {
			return fmt.Errorf("sqlite: scanning comment reaction count: %w", err)
		}
		if c, ok := byID[subjectID]; ok {
			if c.Reactions == nil {
				c.Reactions = make(map[string]int)
			}
			c.Reactions[kind] = count
		}
	}
	return rows.Err()
}

// DeleteComment removes one comment and its reactions.
func (db *DB) DeleteComment(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM reactions WHERE subject_type = 'comment' AND subject_id = ?`, id,
	); err != nil {
		return fmt.Errorf("sqlite: deleting comment reactions: %w", err)
	}

	result, err := db.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("comment")
	}

	return nil
}
