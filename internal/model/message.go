package model

import "time"

// Message is one direct message between two users.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Body        string    `json:"content"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Conversation summarizes a message thread with one peer for the inbox
// listing: who the peer is, the latest message, and how many of their
// messages the viewer hasn't read yet.
type Conversation struct {
	Peer        UserSummary `json:"user"`
	LastMessage Message     `json:"lastMessage"`
	UnreadCount int         `json:"unread"`
}
