package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

// MaxCommentLength bounds a single comment.
const MaxCommentLength = 2000

// EngagementService handles likes, reactions, comments and shares — the
// write paths around a post — plus the notifications those writes fan out.
type EngagementService struct {
	posts         repository.PostRepository
	comments      repository.CommentRepository
	reactions     repository.ReactionRepository
	shares        repository.ShareRepository
	notifications repository.NotificationRepository
	logger        *slog.Logger
	now           func() time.Time
}

// NewEngagementService creates an EngagementService.
func NewEngagementService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	reactions repository.ReactionRepository,
	shares repository.ShareRepository,
	notifications repository.NotificationRepository,
	logger *slog.Logger,
) *EngagementService {
	return &EngagementService{
		posts:         posts,
		comments:      comments,
		reactions:     reactions,
		shares:        shares,
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

// notify records a notification unless the actor is acting on their own
// content. A failed notification is logged, not returned — the user's
// action already succeeded.
func (s *EngagementService) notify(ctx context.Context, ownerID, actorID string, typ model.NotificationType, postID *string) {
	if ownerID == actorID {
		return
	}
	n := &model.Notification{
		UserID:  ownerID,
		ActorID: actorID,
		Type:    typ,
		PostID:  postID,
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		s.logger.Error("creating notification",
			slog.String("type", string(typ)),
			slog.String("error", err.Error()))
	}
}

// Like adds a like to a post. Liking a post twice is an error; liking a post
// the user has another reaction on upgrades that reaction to a like.
func (s *EngagementService) Like(ctx context.Context, postID, userID string) (*model.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.reactions.GetReaction(ctx, model.SubjectPost, postID, userID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Kind == model.ReactionLike {
		return nil, apperror.ValidationFailed("", "Post already liked")
	}

	err = s.reactions.SetReaction(ctx, &model.Reaction{
		SubjectType: model.SubjectPost,
		SubjectID:   postID,
		UserID:      userID,
		Kind:        model.ReactionLike,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, post.AuthorID, userID, model.NotificationLike, &postID)

	return s.refreshPost(ctx, postID, userID)
}

// Unlike removes the user's like from a post. Unliking a post that isn't
// liked is an error.
func (s *EngagementService) Unlike(ctx context.Context, postID, userID string) (*model.Post, error) {
	if _, err := s.posts.GetPostByID(ctx, postID, userID); err != nil {
		return nil, err
	}

	existing, err := s.reactions.GetReaction(ctx, model.SubjectPost, postID, userID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	if existing == nil || existing.Kind != model.ReactionLike {
		return nil, apperror.ValidationFailed("", "Post not liked yet")
	}

	if err := s.reactions.DeleteReaction(ctx, model.SubjectPost, postID, userID); err != nil {
		return nil, err
	}

	return s.refreshPost(ctx, postID, userID)
}

// React toggles a reaction on a post or comment:
//   - no current reaction  → set the given kind
//   - same kind again      → remove it
//   - a different kind     → overwrite in place
//
// The returned reaction is nil when the toggle removed it.
func (s *EngagementService) React(ctx context.Context, subject model.SubjectType, subjectID, userID string, kind model.ReactionKind) (*model.Reaction, error) {
	if !model.ValidReactionKind(kind) {
		return nil, apperror.ValidationFailed("type", "Unknown reaction type")
	}

	ownerID, postID, err := s.subjectOwner(ctx, subject, subjectID, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.reactions.GetReaction(ctx, subject, subjectID, userID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	if existing != nil && existing.Kind == kind {
		if err := s.reactions.DeleteReaction(ctx, subject, subjectID, userID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	reaction := &model.Reaction{
		SubjectType: subject,
		SubjectID:   subjectID,
		UserID:      userID,
		Kind:        kind,
	}
	if err := s.reactions.SetReaction(ctx, reaction); err != nil {
		return nil, err
	}

	// Only a fresh reaction notifies; switching kinds doesn't ping again.
	if existing == nil {
		s.notify(ctx, ownerID, userID, model.NotificationLike, postID)
	}

	return reaction, nil
}

// RemoveReaction clears whatever reaction the user has on a subject.
// Removing a reaction that doesn't exist is a no-op, not an error.
func (s *EngagementService) RemoveReaction(ctx context.Context, subject model.SubjectType, subjectID, userID string) error {
	if _, _, err := s.subjectOwner(ctx, subject, subjectID, userID); err != nil {
		return err
	}
	if err := s.reactions.DeleteReaction(ctx, subject, subjectID, userID); err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	return nil
}

// subjectOwner resolves who owns the reacted-to thing and, for comments,
// which post it hangs off. Validates the subject exists.
func (s *EngagementService) subjectOwner(ctx context.Context, subject model.SubjectType, subjectID, viewerID string) (string, *string, error) {
	switch subject {
	case model.SubjectPost:
		post, err := s.posts.GetPostByID(ctx, subjectID, viewerID)
		if err != nil {
			return "", nil, err
		}
		return post.AuthorID, &post.ID, nil
	case model.SubjectComment:
		comment, err := s.comments.GetCommentByID(ctx, subjectID)
		if err != nil {
			return "", nil, err
		}
		return comment.UserID, &comment.PostID, nil
	}
	return "", nil, apperror.ValidationFailed("subject", "Unknown reaction subject")
}

// ReactionSummary returns the per-kind counts for a subject.
func (s *EngagementService) ReactionSummary(ctx context.Context, subject model.SubjectType, subjectID string) (map[string]int, error) {
	return s.reactions.ReactionCounts(ctx, subject, subjectID)
}

// AddComment validates and saves a comment on a post. Blank comments are
// rejected before anything touches the database.
func (s *EngagementService) AddComment(ctx context.Context, postID, userID, text string, parentID *string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("content", "Comment content is required")
	}
	if len(text) > MaxCommentLength {
		return nil, apperror.ValidationFailed("content", "Comment is too long")
	}

	post, err := s.posts.GetPostByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		parent, err := s.comments.GetCommentByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, apperror.ValidationFailed("parentId", "Parent comment belongs to a different post")
		}
	}

	comment := &model.Comment{
		PostID:   postID,
		UserID:   userID,
		Text:     text,
		ParentID: parentID,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	s.notify(ctx, post.AuthorID, userID, model.NotificationComment, &postID)

	created, err := s.comments.GetCommentByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	created.Timestamp = model.TimeAgo(created.CreatedAt, s.now())
	return created, nil
}

// Comments pages a post's comments, oldest first.
func (s *EngagementService) Comments(ctx context.Context, postID string, page, limit int, viewerID string) ([]model.Comment, Pagination, error) {
	if _, err := s.posts.GetPostByID(ctx, postID, viewerID); err != nil {
		return nil, Pagination{}, err
	}

	meta, opts := paginate(page, limit, 0)
	comments, total, err := s.comments.ListCommentsByPost(ctx, postID, opts, viewerID)
	if err != nil {
		return nil, Pagination{}, err
	}

	meta, _ = paginate(meta.Page, meta.Limit, total)
	now := s.now()
	for i := range comments {
		comments[i].Timestamp = model.TimeAgo(comments[i].CreatedAt, now)
	}

	return comments, meta, nil
}

// DeleteComment removes a comment. The comment's author and the post's
// author may both delete it; anyone else gets a 403.
func (s *EngagementService) DeleteComment(ctx context.Context, commentID, userID string) error {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}

	if comment.UserID != userID {
		post, err := s.posts.GetPostByID(ctx, comment.PostID, userID)
		if err != nil {
			return err
		}
		if post.AuthorID != userID {
			return apperror.Forbidden("Not authorized to delete this comment")
		}
	}

	return s.comments.DeleteComment(ctx, commentID)
}

// Share records the user sharing a post. Sharing a post twice is an error,
// like the like/follow pairs.
func (s *EngagementService) Share(ctx context.Context, postID, userID string) (*model.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	err = s.shares.CreateShare(ctx, &model.Share{PostID: postID, UserID: userID})
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("", "Post already shared")
		}
		return nil, err
	}
	s.notify(ctx, post.AuthorID, userID, model.NotificationShare, &postID)

	return s.refreshPost(ctx, postID, userID)
}

// Unshare removes the user's share of a post.
func (s *EngagementService) Unshare(ctx context.Context, postID, userID string) (*model.Post, error) {
	if _, err := s.posts.GetPostByID(ctx, postID, userID); err != nil {
		return nil, err
	}

	if err := s.shares.DeleteShare(ctx, postID, userID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("", "Post not shared yet")
		}
		return nil, err
	}

	return s.refreshPost(ctx, postID, userID)
}

// refreshPost re-reads a post so the response carries up-to-date counts and
// viewer annotations.
func (s *EngagementService) refreshPost(ctx context.Context, postID, viewerID string) (*model.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	post.Timestamp = model.TimeAgo(post.CreatedAt, s.now())
	return post, nil
}
