// Package client is a typed Go client for the socialnet REST API.
//
// The client keeps a cookie jar, so logging in once via Login or Register is
// enough: the session cookie rides along on every later call, exactly as a
// browser would send it. All methods take a context and return typed values;
// non-2xx responses come back as an *APIError carrying the server's message
// and status code.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// Client talks to one socialnet server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("client: creating cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// do sends one request and decodes the JSON response into out (when out is
// non-nil). Error bodies are decoded into an APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("client: encoding request: %w", err)
		}
		reqBody = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(res.Body).Decode(&msg); err != nil || msg.Message == "" {
			msg.Message = res.Status
		}
		return &APIError{StatusCode: res.StatusCode, Message: msg.Message}
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("client: decoding response: %w", err)
		}
	}
	return nil
}

// pageQuery renders optional pagination parameters. Zero means "server
// default".
func pageQuery(page, limit int) string {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ---------------------------------------------------------------- auth

// Register creates an account and signs the client in.
func (c *Client) Register(ctx context.Context, name, username, email, password string) (*User, error) {
	req := map[string]string{"name": name, "username": username, "email": email, "password": password}
	var res struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Login signs the client in with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	req := map[string]string{"email": email, "password": password}
	var res struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Logout destroys the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Check reports whether the client's session is still live, and for whom.
func (c *Client) Check(ctx context.Context) (*User, error) {
	var res struct {
		Authenticated bool  `json:"authenticated"`
		User          *User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/api/auth/check", nil, &res)
	if err != nil {
		var apiErr *APIError
		// A 401 here just means "not logged in".
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			return nil, nil
		}
		return nil, err
	}
	return res.User, nil
}

// ---------------------------------------------------------------- posts

// Feed returns a page of the public feed.
func (c *Client) Feed(ctx context.Context, page, limit int) ([]Post, Pagination, error) {
	var res postList
	if err := c.do(ctx, http.MethodGet, "/api/posts"+pageQuery(page, limit), nil, &res); err != nil {
		return nil, Pagination{}, err
	}
	return res.Posts, res.Pagination, nil
}

// Post fetches one post by ID.
func (c *Client) Post(ctx context.Context, id string) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+id, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// PostsByUser lists a user's posts.
func (c *Client) PostsByUser(ctx context.Context, username string, page, limit int) ([]Post, Pagination, error) {
	var res postList
	if err := c.do(ctx, http.MethodGet, "/api/posts/user/"+username+pageQuery(page, limit), nil, &res); err != nil {
		return nil, Pagination{}, err
	}
	return res.Posts, res.Pagination, nil
}

// LikedByUser lists the posts a user has liked.
func (c *Client) LikedByUser(ctx context.Context, username string, page, limit int) ([]Post, Pagination, error) {
	var res postList
	if err := c.do(ctx, http.MethodGet, "/api/posts/user/"+username+"/likes"+pageQuery(page, limit), nil, &res); err != nil {
		return nil, Pagination{}, err
	}
	return res.Posts, res.Pagination, nil
}

// MediaByUser lists the images across a user's posts.
func (c *Client) MediaByUser(ctx context.Context, username string) ([]MediaItem, error) {
	var res struct {
		Media []MediaItem `json:"media"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/posts/user/"+username+"/media", nil, &res); err != nil {
		return nil, err
	}
	return res.Media, nil
}

// CreatePost publishes a text post.
func (c *Client) CreatePost(ctx context.Context, content, visibility string) (*Post, error) {
	req := map[string]string{"content": content}
	if visibility != "" {
		req["visibility"] = visibility
	}
	var res struct {
		Post *Post `json:"post"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/posts", req, &res); err != nil {
		return nil, err
	}
	return res.Post, nil
}

// CreatePostWithImage publishes a post with an attached image via multipart
// upload. filename decides the stored extension; r streams the image bytes.
func (c *Client) CreatePostWithImage(ctx context.Context, content, filename string, r io.Reader) (*Post, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if err := mw.WriteField("content", content); err != nil {
		return nil, fmt.Errorf("client: writing form field: %w", err)
	}
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("client: creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("client: copying image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client: closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/posts", buf)
	if err != nil {
		return nil, fmt.Errorf("client: building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var res struct {
		Post *Post `json:"post"`
	}
	if err := c.send(req, &res); err != nil {
		return nil, err
	}
	return res.Post, nil
}

// UpdatePost edits a post's content and visibility. Author-only.
func (c *Client) UpdatePost(ctx context.Context, id, content, visibility string) (*Post, error) {
	req := map[string]string{"content": content}
	if visibility != "" {
		req["visibility"] = visibility
	}
	var res struct {
		Post *Post `json:"post"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/posts/"+id, req, &res); err != nil {
		return nil, err
	}
	return res.Post, nil
}

// DeletePost removes a post. Author-only.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/posts/"+id, nil, nil)
}

// Like likes a post and returns the new like count.
func (c *Client) Like(ctx context.Context, postID string) (int, error) {
	var res struct {
		Likes int `json:"likes"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/posts/"+postID+"/like", nil, &res); err != nil {
		return 0, err
	}
	return res.Likes, nil
}

// Unlike removes a like and returns the new like count.
func (c *Client) Unlike(ctx context.Context, postID string) (int, error) {
	var res struct {
		Likes int `json:"likes"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/posts/"+postID+"/like", nil, &res); err != nil {
		return 0, err
	}
	return res.Likes, nil
}

// React toggles a reaction on a post and returns the per-kind counts plus
// the caller's current kind ("" when the toggle removed it).
func (c *Client) React(ctx context.Context, postID, kind string) (map[string]int, string, error) {
	return c.react(ctx, "/api/posts/"+postID+"/react", kind)
}

// ReactToComment runs the same toggle against a comment.
func (c *Client) ReactToComment(ctx context.Context, commentID, kind string) (map[string]int, string, error) {
	return c.react(ctx, "/api/comments/"+commentID+"/react", kind)
}

func (c *Client) react(ctx context.Context, path, kind string) (map[string]int, string, error) {
	var res struct {
		Reactions  map[string]int `json:"reactions"`
		MyReaction string         `json:"myReaction"`
	}
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"type": kind}, &res); err != nil {
		return nil, "", err
	}
	return res.Reactions, res.MyReaction, nil
}

// RemoveReaction clears the caller's reaction on a post.
func (c *Client) RemoveReaction(ctx context.Context, postID string) (map[string]int, error) {
	var res struct {
		Reactions map[string]int `json:"reactions"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/posts/"+postID+"/react", nil, &res); err != nil {
		return nil, err
	}
	return res.Reactions, nil
}

// Share shares a post and returns the new share count.
func (c *Client) Share(ctx context.Context, postID string) (int, error) {
	var res struct {
		Shares int `json:"shares"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/posts/"+postID+"/share", nil, &res); err != nil {
		return 0, err
	}
	return res.Shares, nil
}

// Unshare removes the caller's share and returns the new count.
func (c *Client) Unshare(ctx context.Context, postID string) (int, error) {
	var res struct {
		Shares int `json:"shares"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/posts/"+postID+"/share", nil, &res); err != nil {
		return 0, err
	}
	return res.Shares, nil
}

// ------------------------------------------------------------- comments

// AddComment comments on a post. parentID may be empty for a top-level
// comment.
func (c *Client) AddComment(ctx context.Context, postID, content, parentID string) (*Comment, error) {
	req := map[string]interface{}{"content": content}
	if parentID != "" {
		req["parentId"] = parentID
	}
	var res struct {
		Comment *Comment `json:"comment"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/posts/"+postID+"/comment", req, &res); err != nil {
		return nil, err
	}
	return res.Comment, nil
}

// Comments lists a post's comments, oldest first.
func (c *Client) Comments(ctx context.Context, postID string, page, limit int) ([]Comment, Pagination, error) {
	var res struct {
		Comments   []Comment  `json:"comments"`
		Pagination Pagination `json:"pagination"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/posts/"+postID+"/comments"+pageQuery(page, limit), nil, &res); err != nil {
		return nil, Pagination{}, err
	}
	return res.Comments, res.Pagination, nil
}

// DeleteComment removes a comment. Allowed for the comment's author and the
// post's author.
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.do(ctx, http.MethodDelete, "/api/comments/"+commentID, nil, nil)
}

// ------------------------------------------------------------- profiles

// MyProfile returns the signed-in user's own profile.
func (c *Client) MyProfile(ctx context.Context) (*Profile, error) {
	var res struct {
		User *Profile `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Profile returns a public profile by username.
func (c *Client) Profile(ctx context.Context, username string) (*Profile, error) {
	var res struct {
		User *Profile `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/profile/"+username, nil, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

// UpdateProfile edits the signed-in user's profile. Empty strings clear bio,
// location and website.
func (c *Client) UpdateProfile(ctx context.Context, name, bio, location, website string) (*User, error) {
	req := map[string]string{"name": name, "bio": bio, "location": location, "website": website}
	var res struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/profile/update", req, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Follow follows a user and returns their refreshed profile.
func (c *Client) Follow(ctx context.Context, username string) (*Profile, error) {
	var res struct {
		User *Profile `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/profile/follow/"+username, nil, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Unfollow removes a follow edge and returns the refreshed profile.
func (c *Client) Unfollow(ctx context.Context, username string) (*Profile, error) {
	var res struct {
		User *Profile `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/profile/unfollow/"+username, nil, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Followers lists who follows a user.
func (c *Client) Followers(ctx context.Context, username string, page, limit int) ([]FollowListEntry, Pagination, error) {
	return c.followList(ctx, "/api/profile/"+username+"/followers"+pageQuery(page, limit))
}

// Following lists who a user follows.
func (c *Client) Following(ctx context.Context, username string, page, limit int) ([]FollowListEntry, Pagination, error) {
	return c.followList(ctx, "/api/profile/"+username+"/following"+pageQuery(page, limit))
}

func (c *Client) followList(ctx context.Context, path string) ([]FollowListEntry, Pagination, error) {
	var res struct {
		Users      []FollowListEntry `json:"users"`
		Pagination Pagination        `json:"pagination"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, Pagination{}, err
	}
	return res.Users, res.Pagination, nil
}

// Stats returns a user's profile statistics.
func (c *Client) Stats(ctx context.Context, username string) (*Stats, error) {
	var stats Stats
	if err := c.do(ctx, http.MethodGet, "/api/profile/"+username+"/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// -------------------------------------------------------- notifications

// Notifications returns a page of the caller's notifications plus the
// unread count.
func (c *Client) Notifications(ctx context.Context, page, limit int) ([]Notification, int, error) {
	var res struct {
		Notifications []Notification `json:"notifications"`
		Unread        int            `json:"unread"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications"+pageQuery(page, limit), nil, &res); err != nil {
		return nil, 0, err
	}
	return res.Notifications, res.Unread, nil
}

// MarkNotificationRead marks one notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/"+id+"/read", nil, nil)
}

// MarkAllNotificationsRead clears the unread badge.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/read", nil, nil)
}

// ------------------------------------------------------------- messages

// Conversations lists the caller's direct-message conversations.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var res struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/messages", nil, &res); err != nil {
		return nil, err
	}
	return res.Conversations, nil
}

// Thread returns the conversation with one user, oldest first, marking the
// received half read.
func (c *Client) Thread(ctx context.Context, username string, page, limit int) (*ThreadPage, error) {
	var res ThreadPage
	if err := c.do(ctx, http.MethodGet, "/api/messages/"+username+pageQuery(page, limit), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SendMessage sends a direct message to a user.
func (c *Client) SendMessage(ctx context.Context, username, content string) (*Message, error) {
	var res struct {
		Sent *Message `json:"sent"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/messages/"+username, map[string]string{"content": content}, &res); err != nil {
		return nil, err
	}
	return res.Sent, nil
}

type postList struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}
