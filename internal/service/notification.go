package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

// NotificationService serves a user's notification feed. Creation happens in
// the services that own the triggering events; this one only reads and
// flips read flags.
type NotificationService struct {
	notifications repository.NotificationRepository
	logger        *slog.Logger
	now           func() time.Time
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(notifications repository.NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

// List pages the user's notifications, newest first, with relative
// timestamps filled in.
func (s *NotificationService) List(ctx context.Context, userID string, page, limit int) ([]model.Notification, Pagination, error) {
	meta, opts := paginate(page, limit, 0)
	notifications, total, err := s.notifications.ListNotifications(ctx, userID, opts)
	if err != nil {
		return nil, Pagination{}, err
	}
	meta, _ = paginate(meta.Page, meta.Limit, total)

	now := s.now()
	for i := range notifications {
		notifications[i].Timestamp = model.TimeAgo(notifications[i].CreatedAt, now)
	}

	return notifications, meta, nil
}

// UnreadCount returns the badge number.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notifications.CountUnreadNotifications(ctx, userID)
}

// MarkRead flips one of the user's notifications to read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.notifications.MarkNotificationRead(ctx, id, userID)
}

// MarkAllRead flips every unread notification the user has.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.notifications.MarkAllNotificationsRead(ctx, userID)
}
