package model

import "time"

// Comment is a reply to a post. Comments are a separate entity (not an array
// embedded in the post) so they can carry their own reactions and be paged
// independently of the post record.
type Comment struct {
	ID        string      `json:"id"`
	PostID    string      `json:"postId"`
	UserID    string      `json:"-"`
	Author    UserSummary `json:"author"`
	Text      string      `json:"content"`
	ParentID  *string     `json:"parentId,omitempty"` // set when replying to another comment
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"-"`

	Reactions  map[string]int `json:"reactions,omitempty"`
	MyReaction string         `json:"myReaction,omitempty"`
	Timestamp  string         `json:"timestamp"`
}
