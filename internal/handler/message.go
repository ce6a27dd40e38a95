package handler

import (
	"log/slog"
	"net/http"

	"github.com/socialnet-app/socialnet/internal/auth"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/service"
)

// MessageHandler serves direct messages: the conversation list, individual
// threads and sending.
type MessageHandler struct {
	messages *service.MessageService
	logger   *slog.Logger
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(messages *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

type conversationListResponse struct {
	Conversations []model.Conversation `json:"conversations"`
}

// HandleConversations lists the viewer's conversations, newest first, with
// the latest message and unread count per peer.
//
// HTTP: GET /api/messages
func (h *MessageHandler) HandleConversations(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	conversations, err := h.messages.Conversations(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, conversationListResponse{Conversations: conversations})
}

type threadResponse struct {
	User       model.UserSummary  `json:"user"`
	Messages   []model.Message    `json:"messages"`
	Pagination service.Pagination `json:"pagination"`
}

// HandleThread returns the conversation with one peer, oldest first, and
// marks the received half read.
//
// HTTP: GET /api/messages/{username}?page&limit
func (h *MessageHandler) HandleThread(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	page, limit := pageParams(r)

	thread, meta, err := h.messages.Thread(r.Context(), userID, r.PathValue("username"), page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, threadResponse{
		User:       thread.Peer,
		Messages:   thread.Messages,
		Pagination: meta,
	})
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type sendMessageResponse struct {
	Message string         `json:"message"`
	Sent    *model.Message `json:"sent"`
}

// HandleSend sends a direct message to a user.
//
// HTTP: POST /api/messages/{username}
func (h *MessageHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messages.Send(r.Context(), userID, r.PathValue("username"), req.Content)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sendMessageResponse{Message: "Message sent", Sent: msg})
}
