package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
)

// mockSessionRepo is an in-memory SessionRepository for testing the manager
// without a database.
type mockSessionRepo struct {
	sessions map[string]*model.Session
	extended int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.Session)}
}

func (m *mockSessionRepo) CreateSession(_ context.Context, s *model.Session) error {
	copied := *s
	m.sessions[s.Token] = &copied
	return nil
}

func (m *mockSessionRepo) GetSession(_ context.Context, token string) (*model.Session, error) {
	s, ok := m.sessions[token]
	if !ok {
		return nil, apperror.NotFound("session")
	}
	copied := *s
	return &copied, nil
}

func (m *mockSessionRepo) DeleteSession(_ context.Context, token string) error {
	if _, ok := m.sessions[token]; !ok {
		return apperror.NotFound("session")
	}
	delete(m.sessions, token)
	return nil
}

func (m *mockSessionRepo) ExtendSession(_ context.Context, token string, expiresAt time.Time) error {
	s, ok := m.sessions[token]
	if !ok {
		return apperror.NotFound("session")
	}
	s.ExpiresAt = expiresAt
	m.extended++
	return nil
}

func (m *mockSessionRepo) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	n := 0
	for token, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

func TestSessionManager_IssueAndResolve(t *testing.T) {
	repo := newMockSessionRepo()
	manager := NewSessionManager(repo)
	ctx := context.Background()

	session, err := manager.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if session.Token == "" {
		t.Fatal("Issue() returned an empty token")
	}
	if len(session.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(session.Token))
	}

	userID, err := manager.Resolve(ctx, session.Token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if userID != "user-1" {
		t.Errorf("Resolve() = %q, want user-1", userID)
	}
}

func TestSessionManager_TokensAreUnique(t *testing.T) {
	repo := newMockSessionRepo()
	manager := NewSessionManager(repo)
	ctx := context.Background()

	a, err := manager.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	b, err := manager.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if a.Token == b.Token {
		t.Error("two sessions for the same user got the same token")
	}
}

func TestSessionManager_ResolveUnknownToken(t *testing.T) {
	manager := NewSessionManager(newMockSessionRepo())

	_, err := manager.Resolve(context.Background(), "no-such-token")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Resolve() error = %v, want ErrUnauthorized", err)
	}
}

func TestSessionManager_ResolveExpired(t *testing.T) {
	repo := newMockSessionRepo()

	// Clock starts at issue time, then jumps past the TTL.
	current := time.Now().UTC()
	manager := NewSessionManagerWithClock(repo, func() time.Time { return current })

	session, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	current = current.Add(sessionTTL + time.Minute)

	_, err = manager.Resolve(context.Background(), session.Token)
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Resolve() after expiry error = %v, want ErrUnauthorized", err)
	}

	// The expired row was cleaned up on the way out.
	if _, ok := repo.sessions[session.Token]; ok {
		t.Error("expired session left in store after Resolve")
	}
}

func TestSessionManager_SlidingExpiry(t *testing.T) {
	repo := newMockSessionRepo()
	current := time.Now().UTC()
	manager := NewSessionManagerWithClock(repo, func() time.Time { return current })

	session, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Early in the window: no extension write.
	current = current.Add(time.Hour)
	if _, err := manager.Resolve(context.Background(), session.Token); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if repo.extended != 0 {
		t.Errorf("session extended %d times in the first half of the TTL, want 0", repo.extended)
	}

	// Past the halfway point: expiry slides forward.
	current = current.Add(4 * 24 * time.Hour)
	if _, err := manager.Resolve(context.Background(), session.Token); err != nil {
		t.Fatalf("Resolve() late in window error = %v", err)
	}
	if repo.extended != 1 {
		t.Errorf("session extended %d times, want 1", repo.extended)
	}
	if got := repo.sessions[session.Token].ExpiresAt; !got.Equal(current.Add(sessionTTL)) {
		t.Errorf("ExpiresAt = %v, want %v", got, current.Add(sessionTTL))
	}
}

func TestSessionManager_Destroy(t *testing.T) {
	repo := newMockSessionRepo()
	manager := NewSessionManager(repo)
	ctx := context.Background()

	session, err := manager.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if err := manager.Destroy(ctx, session.Token); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if _, err := manager.Resolve(ctx, session.Token); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Resolve() after destroy error = %v, want ErrUnauthorized", err)
	}

	// Destroying a token that's already gone is fine.
	if err := manager.Destroy(ctx, session.Token); err != nil {
		t.Errorf("Destroy() repeat error = %v, want nil", err)
	}
}

func TestSessionManager_PurgeExpired(t *testing.T) {
	repo := newMockSessionRepo()
	current := time.Now().UTC()
	manager := NewSessionManagerWithClock(repo, func() time.Time { return current })
	ctx := context.Background()

	stale, _ := manager.Issue(ctx, "user-1")
	current = current.Add(sessionTTL + time.Hour)
	fresh, _ := manager.Issue(ctx, "user-2")

	n, err := manager.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired() error = %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d sessions, want 1", n)
	}
	if _, ok := repo.sessions[stale.Token]; ok {
		t.Error("stale session survived the purge")
	}
	if _, ok := repo.sessions[fresh.Token]; !ok {
		t.Error("fresh session was purged")
	}
}
