package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

// Post validation constants.
const (
	MaxPostLength    = 5000
	MaxPostImages    = 4
	DefaultFeedLimit = 10
	MaxFeedLimit     = 100
)

// Pagination is the page metadata returned alongside every list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func paginate(page, limit, total int) (Pagination, repository.ListOptions) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	pages := (total + limit - 1) / limit
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages},
		repository.ListOptions{Limit: limit, Offset: (page - 1) * limit}
}

// PostService handles creating, reading, updating and deleting posts.
type PostService struct {
	posts     repository.PostRepository
	users     repository.UserRepository
	reactions repository.ReactionRepository
	logger    *slog.Logger
	now       func() time.Time
}

// NewPostService creates a PostService.
func NewPostService(posts repository.PostRepository, users repository.UserRepository, reactions repository.ReactionRepository, logger *slog.Logger) *PostService {
	return &PostService{
		posts:     posts,
		users:     users,
		reactions: reactions,
		logger:    logger,
		now:       time.Now,
	}
}

// annotate fills the display fields computed at read time.
func (s *PostService) annotate(post *model.Post) {
	post.Timestamp = model.TimeAgo(post.CreatedAt, s.now())
}

// Create validates and saves a new post. A post needs text or at least one
// image; an entirely empty post is rejected before anything is written.
func (s *PostService) Create(ctx context.Context, authorID, content string, images []model.Image, visibility model.Visibility) (*model.Post, error) {
	content = strings.TrimSpace(content)

	if content == "" && len(images) == 0 {
		return nil, apperror.ValidationFailed("content", "Post content is required")
	}
	if len(content) > MaxPostLength {
		return nil, apperror.ValidationFailed("content", "Post content is too long")
	}
	if len(images) > MaxPostImages {
		return nil, apperror.ValidationFailed("images", "Too many images on one post")
	}
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	if !model.ValidVisibility(visibility) {
		return nil, apperror.ValidationFailed("visibility", "Unknown visibility level")
	}

	post := &model.Post{
		AuthorID:   authorID,
		Content:    content,
		Images:     images,
		Visibility: visibility,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post created",
		slog.String("post_id", post.ID),
		slog.String("author_id", authorID))

	// Re-read so the author summary and counts come back populated.
	created, err := s.posts.GetPostByID(ctx, post.ID, authorID)
	if err != nil {
		return nil, err
	}
	s.annotate(created)
	return created, nil
}

// Get returns one post with viewer annotations and the per-kind reaction
// breakdown.
func (s *PostService) Get(ctx context.Context, id, viewerID string) (*model.Post, error) {
	post, err := s.posts.GetPostByID(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}

	counts, err := s.reactions.ReactionCounts(ctx, model.SubjectPost, id)
	if err != nil {
		return nil, err
	}
	if len(counts) > 0 {
		post.Reactions = counts
	}

	s.annotate(post)
	return post, nil
}

// Feed returns one page of the public feed, newest first.
func (s *PostService) Feed(ctx context.Context, page, limit int, viewerID string) ([]model.Post, Pagination, error) {
	return s.list(ctx, repository.PostFilter{}, page, limit, viewerID)
}

// PostsByUser pages one user's posts for the profile posts tab.
func (s *PostService) PostsByUser(ctx context.Context, username string, page, limit int, viewerID string) ([]model.Post, Pagination, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, Pagination{}, err
	}
	return s.list(ctx, repository.PostFilter{AuthorID: user.ID}, page, limit, viewerID)
}

// LikedByUser pages the posts a user has liked for the profile likes tab.
func (s *PostService) LikedByUser(ctx context.Context, username string, page, limit int, viewerID string) ([]model.Post, Pagination, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, Pagination{}, err
	}
	return s.list(ctx, repository.PostFilter{LikedBy: user.ID}, page, limit, viewerID)
}

func (s *PostService) list(ctx context.Context, filter repository.PostFilter, page, limit int, viewerID string) ([]model.Post, Pagination, error) {
	// Probe pagination bounds first so the offset is computed from the
	// normalized page/limit.
	meta, opts := paginate(page, limit, 0)

	posts, total, err := s.posts.ListPosts(ctx, filter, opts, viewerID)
	if err != nil {
		return nil, Pagination{}, err
	}

	meta, _ = paginate(meta.Page, meta.Limit, total)
	for i := range posts {
		s.annotate(&posts[i])
	}

	return posts, meta, nil
}

// Update edits a post's content or visibility. A non-nil images slice
// replaces the post's image set. Only the author may edit.
func (s *PostService) Update(ctx context.Context, postID, userID, content string, visibility model.Visibility, images []model.Image) (*model.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, apperror.Forbidden("Not authorized to update this post")
	}

	if images != nil {
		if len(images) > MaxPostImages {
			return nil, apperror.ValidationFailed("images", "Too many images")
		}
		post.Images = images
	}

	content = strings.TrimSpace(content)
	if content == "" && len(post.Images) == 0 {
		return nil, apperror.ValidationFailed("content", "Post content is required")
	}
	if len(content) > MaxPostLength {
		return nil, apperror.ValidationFailed("content", "Post content is too long")
	}
	if visibility == "" {
		visibility = post.Visibility
	}
	if !model.ValidVisibility(visibility) {
		return nil, apperror.ValidationFailed("visibility", "Unknown visibility level")
	}

	post.Content = content
	post.Visibility = visibility
	if err := s.posts.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	if images != nil {
		if err := s.posts.ReplacePostImages(ctx, postID, images); err != nil {
			return nil, err
		}
	}

	s.annotate(post)
	return post, nil
}

// Delete removes a post and everything hanging off it. Only the author may
// delete.
func (s *PostService) Delete(ctx context.Context, postID, userID string) error {
	post, err := s.posts.GetPostByID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return apperror.Forbidden("Not authorized to delete this post")
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return err
	}

	s.logger.Info("post deleted",
		slog.String("post_id", postID),
		slog.String("author_id", userID))

	return nil
}

// MediaByUser returns every image across a user's public posts for the
// profile media grid.
func (s *PostService) MediaByUser(ctx context.Context, username string) ([]model.MediaItem, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.posts.MediaByUser(ctx, user.ID)
}

// Stats aggregates engagement across a user's posts for the profile stats
// panel.
func (s *PostService) Stats(ctx context.Context, username string) (*repository.AuthorStats, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.posts.AuthorStats(ctx, user.ID)
}
