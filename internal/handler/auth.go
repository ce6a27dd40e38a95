package handler

import (
	"log/slog"
	"net/http"

	"github.com/socialnet-app/socialnet/internal/auth"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/service"
)

// AuthHandler covers registration, login/logout, the session check the
// frontend runs on page load, and the GitHub OAuth flow.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *auth.SessionManager
	github   *auth.GitHubProvider
	states   *auth.StateSigner
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github and states may be nil when
// OAuth is not configured; the OAuth routes then answer 404.
func NewAuthHandler(
	authSvc *service.AuthService,
	sessions *auth.SessionManager,
	github *auth.GitHubProvider,
	states *auth.StateSigner,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:     authSvc,
		sessions: sessions,
		github:   github,
		states:   states,
		logger:   logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is shared by register and login.
type authResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// HandleRegister creates an account and logs the new user straight in.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.auth.Register(r.Context(), req.Name, req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if !h.startSession(w, r, user.ID) {
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Message: "User registered successfully", User: user})
}

// HandleLogin verifies credentials and issues a session cookie.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if !h.startSession(w, r, user.ID) {
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Message: "Login successful", User: user})
}

// HandleLogout destroys the server-side session and clears the cookie. A
// request without a valid cookie still gets a 200 — logging out twice is
// not an error worth surfacing.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("logout: destroying session", slog.String("error", err.Error()))
		}
	}
	h.sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// checkResponse tells the frontend whether the session cookie still works.
type checkResponse struct {
	Authenticated bool        `json:"authenticated"`
	User          *model.User `json:"user,omitempty"`
}

// HandleCheck reports the authentication state for the current cookie.
// Mounted behind OptionalAuth, so a live session also slides its expiry.
//
// HTTP: GET /api/auth/check
func (h *AuthHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, checkResponse{Authenticated: false})
		return
	}

	user, err := h.auth.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{Authenticated: true, User: user})
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
// The state parameter is a short-lived signed token, so the callback can
// verify it without any stored server state.
//
// HTTP: GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.NotFound(w, r)
		return
	}

	state, err := h.states.Sign()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback verifies the signed state, exchanges the code for a
// GitHub profile, upserts the user and starts a session.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.NotFound(w, r)
		return
	}

	if err := h.states.Verify(r.URL.Query().Get("state")); err != nil {
		h.logger.Warn("oauth callback: bad state", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Invalid OAuth state"})
		return
	}

	// The user may have denied authorization on GitHub's side.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Missing OAuth code"})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, MessageResponse{Message: "Authentication failed"})
		return
	}

	user, err := h.auth.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if !h.startSession(w, r, user.ID) {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// startSession issues a session for userID and sets the cookie. Returns
// false when the response has already been written with an error.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, userID string) bool {
	session, err := h.sessions.Issue(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return false
	}
	h.sessions.SetCookie(w, session)
	return true
}
