// Package service contains the business logic layer: validation, permission
// checks and orchestration across repositories. Services accept primitives
// and domain types, never HTTP types, and return domain errors for the
// handler layer to translate into status codes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"

	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/auth"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

// Validation constants for account fields.
const (
	MaxNameLength     = 80
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 6
)

// usernameRe allows lowercase letters, digits and underscores. Usernames are
// part of profile URLs, so anything URL-hostile is out.
var usernameRe = regexp.MustCompile(`^[a-z0-9_]+$`)

// AuthService handles registration, login and the GitHub login-or-register
// flow. It owns credential checks; session issuance stays in the auth
// package so the handler can set cookies from one place.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Register validates the fields, rejects taken emails/usernames, hashes the
// password and creates the account. The avatar starts as the user's
// initials.
func (s *AuthService) Register(ctx context.Context, name, username, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, apperror.ValidationFailed("name", "Name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name", fmt.Sprintf("Name must be %d characters or fewer", MaxNameLength))
	}
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username", fmt.Sprintf("Username must be %d-%d characters", MinUsernameLength, MaxUsernameLength))
	}
	if !usernameRe.MatchString(username) {
		return nil, apperror.ValidationFailed("username", "Username may only contain lowercase letters, numbers and underscores")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "A valid email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}

	taken, err := s.users.UserExists(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.Conflict("User already exists with this email or username")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "Password must be 72 bytes or fewer")
	}

	user := &model.User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Avatar:       model.Initials(name),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username))

	return user, nil
}

// Login verifies the email/password pair. Unknown email and wrong password
// both come back as the same Unauthorized error so the response doesn't
// reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "Email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid credentials")
	}
	if user.PasswordHash == "" {
		// GitHub-only account; no password to check.
		return nil, apperror.Unauthorized("Invalid credentials")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("Invalid credentials")
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))

	return user, nil
}

// GetUser loads the account for an authenticated session (the /auth/check
// endpoint and the settings page).
func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// LoginWithGitHub creates or refreshes the account linked to the GitHub
// profile and returns it. Used by the OAuth callback handler after the code
// exchange.
func (s *AuthService) LoginWithGitHub(ctx context.Context, gh *auth.GitHubUser) (*model.User, error) {
	name := gh.Name
	if name == "" {
		name = gh.Login
	}
	email := strings.ToLower(gh.Email)
	if email == "" {
		// GitHub hides the email unless the user opted in; synthesize the
		// noreply address so the column stays unique and non-empty.
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", gh.ID, strings.ToLower(gh.Login))
	}
	avatar := gh.AvatarURL
	if avatar == "" {
		avatar = model.Initials(name)
	}

	user := &model.User{
		Name:     name,
		Username: strings.ToLower(gh.Login),
		Email:    email,
		GitHubID: &gh.ID,
		Avatar:   avatar,
	}
	if err := s.users.UpsertGitHubUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("github login",
		slog.String("user_id", user.ID),
		slog.Int64("github_id", gh.ID))

	return s.users.GetUserByID(ctx, user.ID)
}
