package model

import "time"

// NotificationType says what happened to trigger a notification.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationShare   NotificationType = "share"
	NotificationFollow  NotificationType = "follow"
	NotificationMessage NotificationType = "message"
)

// Notification tells a user that someone acted on them or their content.
// Actor is who did it; PostID is set for post-scoped events (like, comment,
// share) and nil for follows and messages.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"-"`
	ActorID   string           `json:"-"`
	Actor     UserSummary      `json:"actor"`
	Type      NotificationType `json:"type"`
	PostID    *string          `json:"postId,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
	Timestamp string           `json:"timestamp"`
}
