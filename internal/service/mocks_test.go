package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

// In-memory repository fakes. Each one implements just enough of its
// interface for the services under test, with deterministic IDs so tests
// can assert on them.

// ---------------------------------------------------------------- users

type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return apperror.Conflict("user with this email or username already exists")
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == strings.ToLower(username) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user")
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user")
}

func (m *mockUserRepo) UserExists(_ context.Context, email, username string) (bool, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) || u.Username == strings.ToLower(username) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) UpdateUser(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user")
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserRepo) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.GitHubID != nil && user.GitHubID != nil && *u.GitHubID == *user.GitHubID {
			user.ID = u.ID
			u.Name = user.Name
			u.Avatar = user.Avatar
			return nil
		}
	}
	return m.CreateUser(ctx, user)
}

func (m *mockUserRepo) UserSummaries(_ context.Context, ids []string) (map[string]model.UserSummary, error) {
	result := make(map[string]model.UserSummary)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result[id] = u.Summary()
		}
	}
	return result, nil
}

// ---------------------------------------------------------------- posts

type mockPostRepo struct {
	posts   map[string]*model.Post
	order   []string // creation order for deterministic listings
	nextID  int
	deleted []string
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{posts: make(map[string]*model.Post)}
}

func (m *mockPostRepo) CreatePost(_ context.Context, post *model.Post) error {
	m.nextID++
	post.ID = fmt.Sprintf("post-%d", m.nextID)
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Visibility == "" {
		post.Visibility = model.VisibilityPublic
	}
	copied := *post
	m.posts[post.ID] = &copied
	m.order = append(m.order, post.ID)
	return nil
}

func (m *mockPostRepo) GetPostByID(_ context.Context, id, _ string) (*model.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, apperror.NotFound("post")
	}
	copied := *p
	return &copied, nil
}

func (m *mockPostRepo) ListPosts(_ context.Context, filter repository.PostFilter, opts repository.ListOptions, _ string) ([]model.Post, int, error) {
	var matched []model.Post
	// Newest first: walk creation order backwards.
	for i := len(m.order) - 1; i >= 0; i-- {
		p := m.posts[m.order[i]]
		if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
			continue
		}
		matched = append(matched, *p)
	}

	total := len(matched)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *mockPostRepo) UpdatePost(_ context.Context, post *model.Post) error {
	if _, ok := m.posts[post.ID]; !ok {
		return apperror.NotFound("post")
	}
	copied := *post
	m.posts[post.ID] = &copied
	return nil
}

func (m *mockPostRepo) ReplacePostImages(_ context.Context, postID string, images []model.Image) error {
	p, ok := m.posts[postID]
	if !ok {
		return apperror.NotFound("post")
	}
	p.Images = images
	return nil
}

func (m *mockPostRepo) DeletePost(_ context.Context, id string) error {
	if _, ok := m.posts[id]; !ok {
		return apperror.NotFound("post")
	}
	delete(m.posts, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockPostRepo) MediaByUser(_ context.Context, userID string) ([]model.MediaItem, error) {
	var media []model.MediaItem
	for _, id := range m.order {
		p, ok := m.posts[id]
		if !ok || p.AuthorID != userID {
			continue
		}
		for _, img := range p.Images {
			media = append(media, model.MediaItem{PostID: p.ID, URL: img.URL, Alt: img.Alt, CreatedAt: p.CreatedAt})
		}
	}
	return media, nil
}

func (m *mockPostRepo) AuthorStats(_ context.Context, _ string) (*repository.AuthorStats, error) {
	return &repository.AuthorStats{}, nil
}

// ------------------------------------------------------------- comments

type mockCommentRepo struct {
	comments map[string]*model.Comment
	order    []string
	nextID   int
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{comments: make(map[string]*model.Comment)}
}

func (m *mockCommentRepo) CreateComment(_ context.Context, comment *model.Comment) error {
	m.nextID++
	comment.ID = fmt.Sprintf("comment-%d", m.nextID)
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	copied := *comment
	m.comments[comment.ID] = &copied
	m.order = append(m.order, comment.ID)
	return nil
}

func (m *mockCommentRepo) GetCommentByID(_ context.Context, id string) (*model.Comment, error) {
	c, ok := m.comments[id]
	if !ok {
		return nil, apperror.NotFound("comment")
	}
	copied := *c
	return &copied, nil
}

func (m *mockCommentRepo) ListCommentsByPost(_ context.Context, postID string, opts repository.ListOptions, _ string) ([]model.Comment, int, error) {
	var matched []model.Comment
	for _, id := range m.order {
		c, ok := m.comments[id]
		if ok && c.PostID == postID {
			matched = append(matched, *c)
		}
	}

	total := len(matched)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *mockCommentRepo) DeleteComment(_ context.Context, id string) error {
	if _, ok := m.comments[id]; !ok {
		return apperror.NotFound("comment")
	}
	delete(m.comments, id)
	return nil
}

// ------------------------------------------------------------ reactions

type reactionKey struct {
	subject   model.SubjectType
	subjectID string
	userID    string
}

type mockReactionRepo struct {
	reactions map[reactionKey]*model.Reaction
	getErr    error // when set, GetReaction fails with it
}

func newMockReactionRepo() *mockReactionRepo {
	return &mockReactionRepo{reactions: make(map[reactionKey]*model.Reaction)}
}

func (m *mockReactionRepo) GetReaction(_ context.Context, subject model.SubjectType, subjectID, userID string) (*model.Reaction, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.reactions[reactionKey{subject, subjectID, userID}]
	if !ok {
		return nil, apperror.NotFound("reaction")
	}
	copied := *r
	return &copied, nil
}

func (m *mockReactionRepo) SetReaction(_ context.Context, reaction *model.Reaction) error {
	reaction.CreatedAt = time.Now().UTC()
	copied := *reaction
	m.reactions[reactionKey{reaction.SubjectType, reaction.SubjectID, reaction.UserID}] = &copied
	return nil
}

func (m *mockReactionRepo) DeleteReaction(_ context.Context, subject model.SubjectType, subjectID, userID string) error {
	key := reactionKey{subject, subjectID, userID}
	if _, ok := m.reactions[key]; !ok {
		return apperror.NotFound("reaction")
	}
	delete(m.reactions, key)
	return nil
}

func (m *mockReactionRepo) ReactionCounts(_ context.Context, subject model.SubjectType, subjectID string) (map[string]int, error) {
	counts := make(map[string]int)
	for key, r := range m.reactions {
		if key.subject == subject && key.subjectID == subjectID {
			counts[string(r.Kind)]++
		}
	}
	return counts, nil
}

// --------------------------------------------------------------- shares

type shareKey struct{ postID, userID string }

type mockShareRepo struct {
	shares map[shareKey]bool
}

func newMockShareRepo() *mockShareRepo {
	return &mockShareRepo{shares: make(map[shareKey]bool)}
}

func (m *mockShareRepo) CreateShare(_ context.Context, share *model.Share) error {
	key := shareKey{share.PostID, share.UserID}
	if m.shares[key] {
		return apperror.Conflict("post already shared")
	}
	m.shares[key] = true
	return nil
}

func (m *mockShareRepo) DeleteShare(_ context.Context, postID, userID string) error {
	key := shareKey{postID, userID}
	if !m.shares[key] {
		return apperror.NotFound("share")
	}
	delete(m.shares, key)
	return nil
}

func (m *mockShareRepo) CountShares(_ context.Context, postID string) (int, error) {
	n := 0
	for key := range m.shares {
		if key.postID == postID {
			n++
		}
	}
	return n, nil
}

// -------------------------------------------------------------- follows

type followKey struct{ follower, followee string }

type mockFollowRepo struct {
	follows map[followKey]bool
	users   *mockUserRepo // for summaries in Followers/Following
}

func newMockFollowRepo(users *mockUserRepo) *mockFollowRepo {
	return &mockFollowRepo{follows: make(map[followKey]bool), users: users}
}

func (m *mockFollowRepo) CreateFollow(_ context.Context, followerID, followeeID string) error {
	key := followKey{followerID, followeeID}
	if m.follows[key] {
		return apperror.Conflict("already following this user")
	}
	m.follows[key] = true
	return nil
}

func (m *mockFollowRepo) DeleteFollow(_ context.Context, followerID, followeeID string) error {
	key := followKey{followerID, followeeID}
	if !m.follows[key] {
		return apperror.NotFound("follow")
	}
	delete(m.follows, key)
	return nil
}

func (m *mockFollowRepo) FollowExists(_ context.Context, followerID, followeeID string) (bool, error) {
	return m.follows[followKey{followerID, followeeID}], nil
}

func (m *mockFollowRepo) Followers(_ context.Context, userID string, _ repository.ListOptions) ([]model.UserSummary, int, error) {
	var result []model.UserSummary
	for key := range m.follows {
		if key.followee == userID {
			if u, ok := m.users.users[key.follower]; ok {
				result = append(result, u.Summary())
			}
		}
	}
	return result, len(result), nil
}

func (m *mockFollowRepo) Following(_ context.Context, userID string, _ repository.ListOptions) ([]model.UserSummary, int, error) {
	var result []model.UserSummary
	for key := range m.follows {
		if key.follower == userID {
			if u, ok := m.users.users[key.followee]; ok {
				result = append(result, u.Summary())
			}
		}
	}
	return result, len(result), nil
}

func (m *mockFollowRepo) FollowingIDs(_ context.Context, userID string) (map[string]bool, error) {
	ids := make(map[string]bool)
	for key := range m.follows {
		if key.follower == userID {
			ids[key.followee] = true
		}
	}
	return ids, nil
}

// -------------------------------------------------------- notifications

type mockNotificationRepo struct {
	notifications []*model.Notification
	nextID        int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) CreateNotification(_ context.Context, n *model.Notification) error {
	m.nextID++
	n.ID = fmt.Sprintf("notification-%d", m.nextID)
	n.CreatedAt = time.Now().UTC()
	copied := *n
	m.notifications = append(m.notifications, &copied)
	return nil
}

func (m *mockNotificationRepo) ListNotifications(_ context.Context, userID string, opts repository.ListOptions) ([]model.Notification, int, error) {
	var matched []model.Notification
	for i := len(m.notifications) - 1; i >= 0; i-- {
		if m.notifications[i].UserID == userID {
			matched = append(matched, *m.notifications[i])
		}
	}

	total := len(matched)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *mockNotificationRepo) CountUnreadNotifications(_ context.Context, userID string) (int, error) {
	n := 0
	for _, notification := range m.notifications {
		if notification.UserID == userID && !notification.Read {
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) MarkNotificationRead(_ context.Context, id, userID string) error {
	for _, notification := range m.notifications {
		if notification.ID == id && notification.UserID == userID {
			notification.Read = true
			return nil
		}
	}
	return apperror.NotFound("notification")
}

func (m *mockNotificationRepo) MarkAllNotificationsRead(_ context.Context, userID string) error {
	for _, notification := range m.notifications {
		if notification.UserID == userID {
			notification.Read = true
		}
	}
	return nil
}

// byUser filters recorded notifications for assertions.
func (m *mockNotificationRepo) byUser(userID string) []*model.Notification {
	var result []*model.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result
}

// ------------------------------------------------------------- messages

type mockMessageRepo struct {
	messages []*model.Message
	nextID   int
	users    *mockUserRepo
}

func newMockMessageRepo(users *mockUserRepo) *mockMessageRepo {
	return &mockMessageRepo{users: users}
}

func (m *mockMessageRepo) CreateMessage(_ context.Context, msg *model.Message) error {
	m.nextID++
	msg.ID = fmt.Sprintf("message-%d", m.nextID)
	msg.CreatedAt = time.Now().UTC()
	copied := *msg
	m.messages = append(m.messages, &copied)
	return nil
}

func (m *mockMessageRepo) MessageThread(_ context.Context, userID, peerID string, opts repository.ListOptions) ([]model.Message, int, error) {
	var matched []model.Message
	for _, msg := range m.messages {
		if (msg.SenderID == userID && msg.RecipientID == peerID) ||
			(msg.SenderID == peerID && msg.RecipientID == userID) {
			matched = append(matched, *msg)
		}
	}

	total := len(matched)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *mockMessageRepo) Conversations(_ context.Context, userID string) ([]model.Conversation, error) {
	latest := make(map[string]*model.Message)
	unread := make(map[string]int)
	for _, msg := range m.messages {
		var peerID string
		switch {
		case msg.SenderID == userID:
			peerID = msg.RecipientID
		case msg.RecipientID == userID:
			peerID = msg.SenderID
		default:
			continue
		}
		latest[peerID] = msg
		if msg.SenderID == peerID && !msg.Read {
			unread[peerID]++
		}
	}

	var result []model.Conversation
	for peerID, msg := range latest {
		peer := model.UserSummary{ID: peerID}
		if u, ok := m.users.users[peerID]; ok {
			peer = u.Summary()
		}
		result = append(result, model.Conversation{Peer: peer, LastMessage: *msg, UnreadCount: unread[peerID]})
	}
	return result, nil
}

func (m *mockMessageRepo) MarkThreadRead(_ context.Context, userID, peerID string) error {
	for _, msg := range m.messages {
		if msg.SenderID == peerID && msg.RecipientID == userID {
			msg.Read = true
		}
	}
	return nil
}
