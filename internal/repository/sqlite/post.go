package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

// postColumns selects a post with its author summary, aggregate counts and
// the viewer's current reaction, all in one statement. The viewer ID is
// bound twice (liked flag + reaction kind); an empty viewer ID matches no
// rows, so anonymous requests naturally get liked=false and no kind.
const postColumns = `
	p.id, p.author_id, p.content, p.visibility, p.created_at, p.updated_at,
	u.name, u.username, u.avatar,
	(SELECT COUNT(*) FROM reactions r
	  WHERE r.subject_type = 'post' AND r.subject_id = p.id AND r.kind = 'like'),
	(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
	(SELECT COUNT(*) FROM shares s WHERE s.post_id = p.id),
	COALESCE((SELECT r.kind FROM reactions r
	  WHERE r.subject_type = 'post' AND r.subject_id = p.id AND r.user_id = ?), '')`

func scanPost(scan func(...any) error) (*model.Post, error) {
	var p model.Post
	var myReaction string
	err := scan(
		&p.ID, &p.AuthorID, &p.Content, &p.Visibility, &p.CreatedAt, &p.UpdatedAt,
		&p.Author.Name, &p.Author.Username, &p.Author.Avatar,
		&p.Likes, &p.Comments, &p.Shares, &myReaction,
	)
	if err != nil {
		return nil, err
	}
	p.Author.ID = p.AuthorID
	p.Images = []model.Image{}
	if myReaction != "" {
		p.MyReaction = myReaction
		p.Liked = myReaction == string(model.ReactionLike)
	}
	return &p, nil
}

// CreatePost inserts the post and its image rows. ID and timestamps are filled
// in on the passed struct.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Visibility == "" {
		post.Visibility = model.VisibilityPublic
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, content, visibility, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		post.ID, post.AuthorID, post.Content, post.Visibility,
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting post: %w", err)
	}

	if err := db.insertImages(ctx, post.ID, post.Images); err != nil {
		return err
	}

	return nil
}

func (db *DB) insertImages(ctx context.Context, postID string, images []model.Image) error {
	for _, img := range images {
		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO post_images (id, post_id, url, alt) VALUES (?, ?, ?, ?)`,
			xid.New().String(), postID, img.URL, img.Alt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting post image: %w", err)
		}
	}
	return nil
}

// GetPostByID returns one annotated post. viewerID may be empty for anonymous
// requests.
func (db *DB) GetPostByID(ctx context.Context, id, viewerID string) (*model.Post, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+`
		 FROM posts p JOIN users u ON u.id = p.author_id
		 WHERE p.id = ?`,
		viewerID, id,
	)
	post, err := scanPost(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post")
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}

	if err := db.loadImages(ctx, []*model.Post{post}); err != nil {
		return nil, err
	}

	return post, nil
}

// buildPostFilter renders the WHERE clause for a post listing. All listings
// are restricted to public posts, matching the source behaviour where even
// per-user pages only show public content.
func buildPostFilter(filter repository.PostFilter) (string, []any) {
	where := []string{`p.visibility = 'public'`}
	var args []any

	if filter.AuthorID != "" {
		where = append(where, `p.author_id = ?`)
		args = append(args, filter.AuthorID)
	}
	if filter.LikedBy != "" {
		where = append(where, `EXISTS (SELECT 1 FROM reactions r
			WHERE r.subject_type = 'post' AND r.subject_id = p.id
			  AND r.user_id = ? AND r.kind = 'like')`)
		args = append(args, filter.LikedBy)
	}
	if filter.WithImages {
		where = append(where, `EXISTS (SELECT 1 FROM post_images i WHERE i.post_id = p.id)`)
	}

	return strings.Join(where, " AND "), args
}

// ListPosts returns one page of annotated posts, newest first, plus the total
// count matching the filter for pagination metadata.
func (db *DB) ListPosts(ctx context.Context, filter repository.PostFilter, opts repository.ListOptions, viewerID string) ([]model.Post, int, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	where, filterArgs := buildPostFilter(filter)

	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts p WHERE `+where, filterArgs...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting posts: %w", err)
	}

	args := append([]any{viewerID}, filterArgs...)
	args = append(args, limit, offset)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+`
		 FROM posts p JOIN users u ON u.id = p.author_id
		 WHERE `+where+`
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, limit)
	for rows.Next() {
		p, err := scanPost(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	refs := make([]*model.Post, len(posts))
	for i := range posts {
		refs[i] = &posts[i]
	}
	if err := db.loadImages(ctx, refs); err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

// loadImages attaches image rows to the given posts in a single query.
func (db *DB) loadImages(ctx context.Context, posts []*model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	byID := make(map[string]*model.Post, len(posts))
	placeholders := make([]string, 0, len(posts))
	args := make([]any, 0, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
		placeholders = append(placeholders, "?")
		args = append(args, p.ID)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT post_id, url, alt FROM post_images
		 WHERE post_id IN (`+strings.Join(placeholders, ",")+`)
		 ORDER BY id`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: loading post images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID string
		var img model.Image
		if err := rows.Scan(&postID, &img.URL, &img.Alt); err != nil {
			return fmt.Errorf("sqlite: scanning post image: %w", err)
		}
		if p, ok := byID[postID]; ok {
			p.Images = append(p.Images, img)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating post images: %w", err)
	}

	return nil
}

// UpdatePost persists content and visibility changes.
func (db *DB) UpdatePost(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts SET content = ?, visibility = ?, updated_at = ? WHERE id = ?`,
		post.Content, post.Visibility, post.UpdatedAt, post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", post.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post")
	}

	return nil
}

// ReplacePostImages swaps the post's image set for the given one.
func (db *DB) ReplacePostImages(ctx context.Context, postID string, images []model.Image) error {
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM post_images WHERE post_id = ?`, postID,
	); err != nil {
		return fmt.Errorf("sqlite: clearing post images: %w", err)
	}
	return db.insertImages(ctx, postID, images)
}

// DeletePost removes the post. Comments, reactions on the post, shares and image
// rows cascade through the schema's foreign keys; reactions on the post's
// comments cascade through the comments. Reactions reference subjects by
// (type, id) rather than a foreign key, so post reactions are swept
// explicitly.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	// Sweep reactions on the post and on its comments before the cascade
	// removes the comment rows.
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM reactions
		 WHERE (subject_type = 'post' AND subject_id = ?)
		    OR (subject_type = 'comment' AND subject_id IN
		        (SELECT id FROM comments WHERE post_id = ?))`,
		id, id,
	); err != nil {
		return fmt.Errorf("sqlite: deleting post reactions: %w", err)
	}

	result, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post")
	}

	return nil
}

// MediaByUser flattens every image on the user's public posts, newest post first.
func (db *DB) MediaByUser(ctx context.Context, userID string) ([]model.MediaItem, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.id, i.url, i.alt, p.created_at
		 FROM post_images i
		 JOIN posts p ON p.id = i.post_id
		 WHERE p.author_id = ? AND p.visibility = 'public'
		 ORDER BY p.created_at DESC, i.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing media: %w", err)
	}
	defer rows.Close()

	media := []model.MediaItem{}
	for rows.Next() {
		var m model.MediaItem
		if err := rows.Scan(&m.PostID, &m.URL, &m.Alt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning media row: %w", err)
		}
		media = append(media, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating media: %w", err)
	}

	return media, nil
}

// AuthorStats aggregates likes, comments, shares and media posts across one
// author's posts for the profile stats endpoint.
func (db *DB) AuthorStats(ctx context.Context, authorID string) (*repository.AuthorStats, error) {
	var stats repository.AuthorStats
	err := db.conn.QueryRowContext(ctx,
		`SELECT
		  (SELECT COUNT(*) FROM reactions r
		    WHERE r.subject_type = 'post' AND r.kind = 'like'
		      AND r.subject_id IN (SELECT id FROM posts WHERE author_id = ?)),
		  (SELECT COUNT(*) FROM comments c
		    WHERE c.post_id IN (SELECT id FROM posts WHERE author_id = ?)),
		  (SELECT COUNT(*) FROM shares s
		    WHERE s.post_id IN (SELECT id FROM posts WHERE author_id = ?)),
		  (SELECT COUNT(DISTINCT p.id) FROM posts p
		    JOIN post_images i ON i.post_id = p.id
		    WHERE p.author_id = ?)`,
		authorID, authorID, authorID, authorID,
	).Scan(&stats.TotalLikes, &stats.TotalComments, &stats.TotalShares, &stats.MediaPosts)
	if err != nil {
		return nil, fmt.Errorf("sqlite: computing author stats: %w", err)
	}
	return &stats, nil
}
