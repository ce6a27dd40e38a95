// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation; tests
// substitute in-memory mocks.
//
// Method names carry the entity (CreatePost, not Create) because a single
// storage type implements every interface here.
package repository

import (
	"context"
	"time"

	"github.com/socialnet-app/socialnet/internal/model"
)

// ListOptions is offset/limit pagination, shared by every listing method.
type ListOptions struct {
	Limit  int
	Offset int
}

// PostFilter narrows post listings. Zero value means "all public posts"
// (the main feed). Exactly one of AuthorID/LikedBy is set for the per-user
// listings.
type PostFilter struct {
	AuthorID   string // posts written by this user
	LikedBy    string // posts this user reacted "like" to
	WithImages bool   // only posts that have at least one image
}

// AuthorStats aggregates engagement across one author's posts for the
// profile stats endpoint.
type AuthorStats struct {
	TotalLikes    int
	TotalComments int
	TotalShares   int
	MediaPosts    int
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UserExists reports whether any account already holds either value.
	// Registration rejects duplicates before hashing the password.
	UserExists(ctx context.Context, email, username string) (bool, error)
	UpdateUser(ctx context.Context, user *model.User) error
	// UpsertGitHubUser creates or refreshes the account linked to
	// user.GitHubID.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
	// UserSummaries resolves user IDs to their embeddable form in one query.
	UserSummaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error)
}

type PostRepository interface {
	// CreatePost inserts the post and its image rows. ID and timestamps
	// are filled in on the passed struct.
	CreatePost(ctx context.Context, post *model.Post) error
	// GetPostByID returns the post annotated with author, aggregates and
	// the viewer's like/reaction flags. viewerID may be empty (anonymous).
	GetPostByID(ctx context.Context, id, viewerID string) (*model.Post, error)
	// ListPosts returns a page of annotated posts newest-first plus the
	// total matching count for pagination metadata.
	ListPosts(ctx context.Context, filter PostFilter, opts ListOptions, viewerID string) ([]model.Post, int, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	ReplacePostImages(ctx context.Context, postID string, images []model.Image) error
	// DeletePost removes the post; comments, reactions, shares and image
	// rows go with it.
	DeletePost(ctx context.Context, id string) error
	// MediaByUser lists every image attached to the user's public posts,
	// newest post first.
	MediaByUser(ctx context.Context, userID string) ([]model.MediaItem, error)
	AuthorStats(ctx context.Context, authorID string) (*AuthorStats, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetCommentByID(ctx context.Context, id string) (*model.Comment, error)
	// ListCommentsByPost pages a post's comments oldest-first, annotated
	// with author summaries, reaction counts and the viewer's reaction.
	ListCommentsByPost(ctx context.Context, postID string, opts ListOptions, viewerID string) ([]model.Comment, int, error)
	DeleteComment(ctx context.Context, id string) error
}

type ReactionRepository interface {
	// GetReaction returns the user's reaction to the subject, or
	// ErrNotFound.
	GetReaction(ctx context.Context, subject model.SubjectType, subjectID, userID string) (*model.Reaction, error)
	// SetReaction inserts the reaction, or overwrites kind and timestamp
	// if the (subject, user) pair already has one.
	SetReaction(ctx context.Context, reaction *model.Reaction) error
	DeleteReaction(ctx context.Context, subject model.SubjectType, subjectID, userID string) error
	// ReactionCounts returns per-kind totals for the subject; kinds with
	// zero reactions are absent from the map.
	ReactionCounts(ctx context.Context, subject model.SubjectType, subjectID string) (map[string]int, error)
}

type ShareRepository interface {
	// CreateShare records the share; ErrConflict if the user already
	// shared the post.
	CreateShare(ctx context.Context, share *model.Share) error
	DeleteShare(ctx context.Context, postID, userID string) error
	CountShares(ctx context.Context, postID string) (int, error)
}

type FollowRepository interface {
	CreateFollow(ctx context.Context, followerID, followeeID string) error
	DeleteFollow(ctx context.Context, followerID, followeeID string) error
	FollowExists(ctx context.Context, followerID, followeeID string) (bool, error)
	// Followers and Following page user summaries, most recent edge first,
	// returning the total edge count for pagination metadata.
	Followers(ctx context.Context, userID string, opts ListOptions) ([]model.UserSummary, int, error)
	Following(ctx context.Context, userID string, opts ListOptions) ([]model.UserSummary, int, error)
	// FollowingIDs returns the set of user IDs the user follows; used to
	// compute isFollowing flags relative to a viewer.
	FollowingIDs(ctx context.Context, userID string) (map[string]bool, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
	// ExtendSession pushes the expiry forward (sliding sessions).
	ExtendSession(ctx context.Context, token string, expiresAt time.Time) error
	// DeleteExpiredSessions purges sessions past their expiry and reports
	// how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, userID string, opts ListOptions) ([]model.Notification, int, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
	// MarkNotificationRead flags one notification; ErrNotFound if it does
	// not exist or belongs to someone else.
	MarkNotificationRead(ctx context.Context, id, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
}

type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *model.Message) error
	// MessageThread pages the two users' messages oldest-first, returning
	// the thread's total length.
	MessageThread(ctx context.Context, userID, peerID string, opts ListOptions) ([]model.Message, int, error)
	// Conversations summarizes the user's threads, latest activity first.
	Conversations(ctx context.Context, userID string) ([]model.Conversation, error)
	// MarkThreadRead marks everything peerID sent to userID as read.
	MarkThreadRead(ctx context.Context, userID, peerID string) error
}
