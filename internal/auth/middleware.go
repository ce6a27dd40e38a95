package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type for context keys. A package-private type
// means only this package can read or write the userID value, so another
// package using the string "userID" as a key cannot collide with it.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth enforces authentication on protected routes. It reads the
// session cookie, resolves it against the session store, and puts the user
// ID in the request context. Missing or invalid sessions stop the chain
// with a 401.
func RequireAuth(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolveRequest(r, sessions)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message":"Not authenticated"}`))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the session if one is present but never blocks the
// request. Public routes use this so logged-in viewers get personal
// annotations (liked, myReaction, isFollowing) while anonymous viewers
// still see the content.
func OptionalAuth(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := resolveRequest(r, sessions); err == nil && userID != "" {
				ctx := context.WithValue(r.Context(), userIDKey, userID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContextWithUserID returns ctx carrying userID the same way the middleware
// stores it. Useful for exercising handlers without a live session.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user's ID. Returns
// ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func resolveRequest(r *http.Request, sessions *SessionManager) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", err
	}
	return sessions.Resolve(r.Context(), cookie.Value)
}
