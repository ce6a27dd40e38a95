package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

var _ repository.MessageRepository = (*DB)(nil)

// CreateMessage stores a direct message.
func (db *DB) CreateMessage(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	msg.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, recipient_id, body, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SenderID, msg.RecipientID, msg.Body, msg.Read, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting message: %w", err)
	}

	return nil
}

// MessageThread pages the conversation between two users, oldest-first so
// the client can render it top to bottom.
func (db *DB) MessageThread(ctx context.Context, userID, peerID string, opts repository.ListOptions) ([]model.Message, int, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages
		 WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)`,
		userID, peerID, peerID, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting messages: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, sender_id, recipient_id, body, read, created_at
		 FROM messages
		 WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)
		 ORDER BY created_at ASC, id ASC
		 LIMIT ? OFFSET ?`,
		userID, peerID, peerID, userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing messages: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0, limit)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.Read, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating messages: %w", err)
	}

	return messages, total, nil
}

// Conversations returns the user's inbox: one entry per peer, carrying the
// latest message and the unread count, ordered by recency. The grouping runs
// in SQL so a busy inbox doesn't pull every message into memory.
func (db *DB) Conversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT peer.id, peer.name, peer.username, peer.avatar, peer.bio,
		        m.id, m.sender_id, m.recipient_id, m.body, m.read, m.created_at,
		        (SELECT COUNT(*) FROM messages
		         WHERE sender_id = peer.id AND recipient_id = ? AND read = 0)
		 FROM messages m
		 JOIN users peer ON peer.id = CASE WHEN m.sender_id = ? THEN m.recipient_id ELSE m.sender_id END
		 WHERE m.id IN (
		   SELECT id FROM messages m2
		   WHERE m2.sender_id = ? OR m2.recipient_id = ?
		   GROUP BY CASE WHEN m2.sender_id = ? THEN m2.recipient_id ELSE m2.sender_id END
		   HAVING m2.created_at = MAX(m2.created_at)
		 )
		 ORDER BY m.created_at DESC`,
		userID, userID, userID, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing conversations: %w", err)
	}
	defer rows.Close()

	var conversations []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(
			&c.Peer.ID, &c.Peer.Name, &c.Peer.Username, &c.Peer.Avatar, &c.Peer.Bio,
			&c.LastMessage.ID, &c.LastMessage.SenderID, &c.LastMessage.RecipientID,
			&c.LastMessage.Body, &c.LastMessage.Read, &c.LastMessage.CreatedAt,
			&c.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning conversation row: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating conversations: %w", err)
	}

	return conversations, nil
}

// MarkThreadRead marks every message from peerID to userID as read.
func (db *DB) MarkThreadRead(ctx context.Context, userID, peerID string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE messages SET read = 1
		 WHERE sender_id = ? AND recipient_id = ? AND read = 0`,
		peerID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking thread read: %w", err)
	}
	return nil
}
