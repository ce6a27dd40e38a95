package client

import "time"

// The types below mirror the server's JSON wire format. They're defined
// here rather than shared with the server so that importing the client
// never drags in server internals.

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// User is a full account record as the API returns it.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio"`
	Location  string    `json:"location"`
	Website   string    `json:"website"`
	Avatar    string    `json:"avatar"`
	GitHubID  *int64    `json:"githubId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Followers int `json:"followers"`
	Following int `json:"following"`
	Posts     int `json:"posts"`
}

// UserSummary is the slim author block embedded in posts, comments and
// conversations.
type UserSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Bio      string `json:"bio,omitempty"`
}

// Profile is a user plus the viewer-relative profile-page annotations.
type Profile struct {
	User
	IsFollowing bool   `json:"isFollowing"`
	Joined      string `json:"joined"`
}

// FollowListEntry is one row of a followers/following list.
type FollowListEntry struct {
	UserSummary
	IsFollowing bool `json:"isFollowing"`
}

// Image is a picture attached to a post.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Post is one feed entry with its counts and viewer annotations.
type Post struct {
	ID         string      `json:"id"`
	Author     UserSummary `json:"author"`
	Content    string      `json:"content"`
	Images     []Image     `json:"images"`
	Visibility string      `json:"visibility"`
	CreatedAt  time.Time   `json:"createdAt"`

	Likes      int            `json:"likes"`
	Reactions  map[string]int `json:"reactions,omitempty"`
	Comments   int            `json:"comments"`
	Shares     int            `json:"shares"`
	Liked      bool           `json:"liked"`
	MyReaction string         `json:"myReaction,omitempty"`
	Timestamp  string         `json:"timestamp"`
}

// MediaItem is one image from a user's posts.
type MediaItem struct {
	PostID    string    `json:"id"`
	URL       string    `json:"url"`
	Alt       string    `json:"alt,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a reply to a post.
type Comment struct {
	ID        string      `json:"id"`
	PostID    string      `json:"postId"`
	Author    UserSummary `json:"author"`
	Content   string      `json:"content"`
	ParentID  *string     `json:"parentId,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`

	Reactions  map[string]int `json:"reactions,omitempty"`
	MyReaction string         `json:"myReaction,omitempty"`
	Timestamp  string         `json:"timestamp"`
}

// Stats is the profile statistics block.
type Stats struct {
	Posts      int `json:"posts"`
	Followers  int `json:"followers"`
	Following  int `json:"following"`
	Likes      int `json:"likes"`
	Comments   int `json:"comments"`
	Shares     int `json:"shares"`
	MediaPosts int `json:"mediaPosts"`
}

// Notification is one entry in the notification dropdown.
type Notification struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Actor     UserSummary `json:"actor"`
	PostID    *string     `json:"postId,omitempty"`
	Read      bool        `json:"read"`
	CreatedAt time.Time   `json:"createdAt"`
	Timestamp string      `json:"timestamp"`
}

// Message is one direct message.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Content     string    `json:"content"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Conversation is one row of the conversation list.
type Conversation struct {
	Peer        UserSummary `json:"user"`
	LastMessage Message     `json:"lastMessage"`
	Unread      int         `json:"unread"`
}

// ThreadPage is one page of a direct-message thread.
type ThreadPage struct {
	User       UserSummary `json:"user"`
	Messages   []Message   `json:"messages"`
	Pagination Pagination  `json:"pagination"`
}
