package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
)

func newTestPostService() (*PostService, *mockPostRepo, *mockUserRepo) {
	posts := newMockPostRepo()
	users := newMockUserRepo()
	return NewPostService(posts, users, newMockReactionRepo(), testLogger()), posts, users
}

func seedUser(t *testing.T, users *mockUserRepo, username string) *model.User {
	t.Helper()
	user := &model.User{
		Name:     "Test " + username,
		Username: username,
		Email:    username + "@example.com",
	}
	if err := users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user
}

func TestCreatePostService(t *testing.T) {
	svc, _, users := newTestPostService()
	author := seedUser(t, users, "author")

	post, err := svc.Create(context.Background(), author.ID, "  hello world  ", nil, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if post.Content != "hello world" {
		t.Errorf("Content = %q, want trimmed", post.Content)
	}
	if post.Visibility != model.VisibilityPublic {
		t.Errorf("Visibility = %q, want default public", post.Visibility)
	}
	if post.Timestamp != "Just now" {
		t.Errorf("Timestamp = %q, want Just now", post.Timestamp)
	}
}

func TestCreatePost_EmptyRejectedBeforeWrite(t *testing.T) {
	svc, posts, users := newTestPostService()
	author := seedUser(t, users, "author")

	_, err := svc.Create(context.Background(), author.ID, "   ", nil, "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Create() error = %v, want ErrValidation", err)
	}
	if len(posts.posts) != 0 {
		t.Errorf("store holds %d posts after rejected create, want 0", len(posts.posts))
	}
}

func TestCreatePost_ImageOnly(t *testing.T) {
	svc, _, users := newTestPostService()
	author := seedUser(t, users, "author")

	// An image with no text is a valid post.
	post, err := svc.Create(context.Background(), author.ID, "",
		[]model.Image{{URL: "/uploads/posts/post-a.png"}}, "")
	if err != nil {
		t.Fatalf("Create() with image only error = %v", err)
	}
	if len(post.Images) != 1 {
		t.Errorf("got %d images, want 1", len(post.Images))
	}
}

func TestCreatePost_TooLong(t *testing.T) {
	svc, _, users := newTestPostService()
	author := seedUser(t, users, "author")

	_, err := svc.Create(context.Background(), author.ID, strings.Repeat("x", MaxPostLength+1), nil, "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() error = %v, want ErrValidation", err)
	}
}

func TestFeed_Pagination(t *testing.T) {
	svc, _, users := newTestPostService()
	author := seedUser(t, users, "author")
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		if _, err := svc.Create(ctx, author.ID, "post", nil, ""); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	page1, meta1, err := svc.Feed(ctx, 1, 10, "")
	if err != nil {
		t.Fatalf("Feed() page 1 error = %v", err)
	}
	page2, meta2, err := svc.Feed(ctx, 2, 10, "")
	if err != nil {
		t.Fatalf("Feed() page 2 error = %v", err)
	}

	if len(page1) != 10 {
		t.Errorf("page 1: got %d posts, want 10", len(page1))
	}
	if len(page2) != 5 {
		t.Errorf("page 2: got %d posts, want 5", len(page2))
	}
	if meta1.Total != 15 || meta1.Pages != 2 {
		t.Errorf("page 1 meta = %+v, want total 15 pages 2", meta1)
	}
	if meta2.Page != 2 {
		t.Errorf("page 2 meta.Page = %d, want 2", meta2.Page)
	}

	// The two pages partition the feed — no overlap.
	seen := make(map[string]bool)
	for _, p := range page1 {
		seen[p.ID] = true
	}
	for _, p := range page2 {
		if seen[p.ID] {
			t.Errorf("post %s appears on both pages", p.ID)
		}
	}
}

func TestFeed_DefaultsAndCaps(t *testing.T) {
	svc, _, users := newTestPostService()
	author := seedUser(t, users, "author")
	ctx := context.Background()

	if _, err := svc.Create(ctx, author.ID, "post", nil, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, meta, err := svc.Feed(ctx, 0, 0, "")
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if meta.Page != 1 || meta.Limit != DefaultFeedLimit {
		t.Errorf("meta = %+v, want page 1 limit %d", meta, DefaultFeedLimit)
	}

	_, meta, err = svc.Feed(ctx, 1, 9999, "")
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if meta.Limit != MaxFeedLimit {
		t.Errorf("limit = %d, want capped at %d", meta.Limit, MaxFeedLimit)
	}
}

func TestUpdatePostService_OnlyAuthor(t *testing.T) {
	svc, _, users := newTestPostService()
	author := seedUser(t, users, "author")
	intruder := seedUser(t, users, "intruder")
	ctx := context.Background()

	post, err := svc.Create(ctx, author.ID, "original", nil, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.Update(ctx, post.ID, intruder.ID, "hijacked", "", nil)
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Update() by non-author error = %v, want ErrForbidden", err)
	}

	updated, err := svc.Update(ctx, post.ID, author.ID, "revised", model.VisibilityPrivate, nil)
	if err != nil {
		t.Fatalf("Update() by author error = %v", err)
	}
	if updated.Content != "revised" {
		t.Errorf("Content = %q, want revised", updated.Content)
	}
	if updated.Visibility != model.VisibilityPrivate {
		t.Errorf("Visibility = %q, want private", updated.Visibility)
	}
}

func TestDeletePostService_OnlyAuthor(t *testing.T) {
	svc, posts, users := newTestPostService()
	author := seedUser(t, users, "author")
	intruder := seedUser(t, users, "intruder")
	ctx := context.Background()

	post, err := svc.Create(ctx, author.ID, "doomed", nil, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, post.ID, intruder.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Delete() by non-author error = %v, want ErrForbidden", err)
	}
	if len(posts.deleted) != 0 {
		t.Error("post was deleted by a non-author")
	}

	if err := svc.Delete(ctx, post.ID, author.ID); err != nil {
		t.Fatalf("Delete() by author error = %v", err)
	}
	if _, err := svc.Get(ctx, post.ID, ""); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestDeletePost_NotFoundPost(t *testing.T) {
	svc, _, users := newTestPostService()
	user := seedUser(t, users, "someone")

	err := svc.Delete(context.Background(), "no-such-post", user.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestPostsByUser_UnknownUser(t *testing.T) {
	svc, _, _ := newTestPostService()

	_, _, err := svc.PostsByUser(context.Background(), "ghost", 1, 10, "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("PostsByUser() error = %v, want ErrNotFound", err)
	}
}
