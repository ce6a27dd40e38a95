package model

import (
	"fmt"
	"time"
)

// Visibility controls who can see a post.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityFriends Visibility = "friends"
	VisibilityPrivate Visibility = "private"
)

// ValidVisibility reports whether v is one of the known visibility levels.
func ValidVisibility(v Visibility) bool {
	switch v {
	case VisibilityPublic, VisibilityFriends, VisibilityPrivate:
		return true
	}
	return false
}

// Image is a picture attached to a post, stored on local disk and served
// back by relative URL (e.g. "/uploads/posts/post-cv37rs3pp9olc6atsptg.png").
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Post is a feed entry. Likes, reaction breakdowns, comment and share counts
// are aggregates over separate tables, filled in when the post is loaded.
type Post struct {
	ID         string      `json:"id"`
	AuthorID   string      `json:"-"`
	Author     UserSummary `json:"author"`
	Content    string      `json:"content"`
	Images     []Image     `json:"images"`
	Visibility Visibility  `json:"visibility"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"-"`

	// Aggregates and viewer annotations, computed on read.
	Likes      int            `json:"likes"`
	Reactions  map[string]int `json:"reactions,omitempty"` // kind → count
	Comments   int            `json:"comments"`
	Shares     int            `json:"shares"`
	Liked      bool           `json:"liked"`
	MyReaction string         `json:"myReaction,omitempty"`
	Timestamp  string         `json:"timestamp"` // relative, e.g. "3h ago"
}

// MediaItem is one image from a user's posts, flattened for the profile
// media grid.
type MediaItem struct {
	PostID    string    `json:"id"`
	URL       string    `json:"url"`
	Alt       string    `json:"alt,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Share records one user sharing a post, one row per (post, user).
type Share struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"sharedAt"`
}

// TimeAgo renders t relative to now the way the feed displays timestamps:
// "Just now", "5m ago", "3h ago", "2d ago", "1w ago", then the date.
func TimeAgo(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	case diff < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(diff.Hours()/(24*7)))
	}
	return t.Format("Jan 2, 2006")
}
