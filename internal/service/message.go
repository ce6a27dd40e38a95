package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

// MaxMessageLength bounds one direct message.
const MaxMessageLength = 2000

// Thread is one page of a conversation plus who it's with.
type Thread struct {
	Peer     model.UserSummary `json:"user"`
	Messages []model.Message   `json:"messages"`
}

// MessageService handles direct messages between users.
type MessageService struct {
	messages      repository.MessageRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	logger        *slog.Logger
}

// NewMessageService creates a MessageService.
func NewMessageService(messages repository.MessageRepository, users repository.UserRepository, notifications repository.NotificationRepository, logger *slog.Logger) *MessageService {
	return &MessageService{
		messages:      messages,
		users:         users,
		notifications: notifications,
		logger:        logger,
	}
}

// Send delivers a message from the viewer to the named user. Blank bodies
// and messaging yourself are rejected before anything is written.
func (s *MessageService) Send(ctx context.Context, senderID, recipientUsername, body string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperror.ValidationFailed("content", "Message content is required")
	}
	if len(body) > MaxMessageLength {
		return nil, apperror.ValidationFailed("content", "Message is too long")
	}

	recipient, err := s.users.GetUserByUsername(ctx, recipientUsername)
	if err != nil {
		return nil, err
	}
	if recipient.ID == senderID {
		return nil, apperror.ValidationFailed("", "You cannot message yourself")
	}

	message := &model.Message{
		SenderID:    senderID,
		RecipientID: recipient.ID,
		Body:        body,
	}
	if err := s.messages.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	notification := &model.Notification{
		UserID:  recipient.ID,
		ActorID: senderID,
		Type:    model.NotificationMessage,
	}
	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		s.logger.Error("creating message notification", slog.String("error", err.Error()))
	}

	return message, nil
}

// Thread pages the conversation with the named user, oldest first. Opening
// a thread marks the peer's messages as read — reading is what "read"
// means here.
func (s *MessageService) Thread(ctx context.Context, userID, peerUsername string, page, limit int) (*Thread, Pagination, error) {
	peer, err := s.users.GetUserByUsername(ctx, peerUsername)
	if err != nil {
		return nil, Pagination{}, err
	}

	meta, opts := paginate(page, limit, 0)
	messages, total, err := s.messages.MessageThread(ctx, userID, peer.ID, opts)
	if err != nil {
		return nil, Pagination{}, err
	}
	meta, _ = paginate(meta.Page, meta.Limit, total)

	if err := s.messages.MarkThreadRead(ctx, userID, peer.ID); err != nil {
		return nil, Pagination{}, err
	}

	return &Thread{Peer: peer.Summary(), Messages: messages}, meta, nil
}

// Conversations returns the viewer's inbox, most recent first.
func (s *MessageService) Conversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	conversations, err := s.messages.Conversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if conversations == nil {
		conversations = []model.Conversation{}
	}
	return conversations, nil
}
