package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session token.
const SessionCookie = "session"

// sessionTTL is how long a session lives without activity. Any authenticated
// request made in the second half of the window slides the expiry forward,
// so active users stay logged in indefinitely.
const sessionTTL = 7 * 24 * time.Hour

// SessionManager issues, resolves and revokes server-side sessions.
//
// Unlike a signed stateless token, the session row in the database is the
// single source of truth: deleting it logs the user out everywhere, and an
// expired row cannot be replayed no matter what the client still holds.
type SessionManager struct {
	sessions repository.SessionRepository
	now      func() time.Time
}

// NewSessionManager creates a SessionManager backed by the given store.
func NewSessionManager(sessions repository.SessionRepository) *SessionManager {
	return &SessionManager{sessions: sessions, now: time.Now}
}

// NewSessionManagerWithClock injects a clock for expiry tests.
func NewSessionManagerWithClock(sessions repository.SessionRepository, now func() time.Time) *SessionManager {
	return &SessionManager{sessions: sessions, now: now}
}

// Issue creates a new session for userID and returns it. The token is 32
// bytes from crypto/rand — unguessable, and meaningless without the row.
func (m *SessionManager) Issue(ctx context.Context, userID string) (*model.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	session := &model.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}
	if err := m.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// Resolve validates a token and returns the user ID it belongs to. An
// unknown or expired token yields ErrUnauthorized. Resolving a session in
// the second half of its lifetime extends it by the full TTL.
func (m *SessionManager) Resolve(ctx context.Context, token string) (string, error) {
	session, err := m.sessions.GetSession(ctx, token)
	if err != nil {
		return "", apperror.Unauthorized("Not authenticated")
	}

	now := m.now().UTC()
	if session.Expired(now) {
		// Lazy cleanup: the purge loop will catch the rest.
		_ = m.sessions.DeleteSession(ctx, token)
		return "", apperror.Unauthorized("Session expired")
	}

	if session.ExpiresAt.Sub(now) < sessionTTL/2 {
		if err := m.sessions.ExtendSession(ctx, token, now.Add(sessionTTL)); err != nil {
			return "", err
		}
	}

	return session.UserID, nil
}

// Destroy revokes a session (logout). Revoking an unknown token is not an
// error — the outcome the caller wanted already holds.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	err := m.sessions.DeleteSession(ctx, token)
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// PurgeExpired deletes sessions past their expiry. The server calls this
// periodically from a background goroutine.
func (m *SessionManager) PurgeExpired(ctx context.Context) (int, error) {
	return m.sessions.DeleteExpiredSessions(ctx, m.now().UTC())
}

// SetCookie writes the session cookie on a response. HttpOnly keeps it away
// from page scripts; SameSite=Lax stops cross-site POSTs from riding it.
func (m *SessionManager) SetCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on a response.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("auth: generating session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
