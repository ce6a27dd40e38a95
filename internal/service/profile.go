package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/socialnet-app/socialnet/internal/apperror"
	"github.com/socialnet-app/socialnet/internal/model"
	"github.com/socialnet-app/socialnet/internal/repository"
)

// Profile field limits.
const (
	MaxBioLength      = 300
	MaxLocationLength = 100
)

// Profile is a user record plus the viewer-relative annotations the profile
// page needs.
type Profile struct {
	*model.User
	IsFollowing bool   `json:"isFollowing"`
	Joined      string `json:"joined"` // e.g. "March 2025"
}

// FollowListEntry is one row of a followers/following list, annotated with
// whether the viewer follows that user.
type FollowListEntry struct {
	model.UserSummary
	IsFollowing bool `json:"isFollowing"`
}

// ProfileService handles profile reads, profile edits and the follow graph.
type ProfileService struct {
	users         repository.UserRepository
	follows       repository.FollowRepository
	notifications repository.NotificationRepository
	logger        *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(users repository.UserRepository, follows repository.FollowRepository, notifications repository.NotificationRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		users:         users,
		follows:       follows,
		notifications: notifications,
		logger:        logger,
	}
}

// Get returns a profile by username, annotated for the viewer. viewerID may
// be empty; anonymous viewers see isFollowing=false.
func (s *ProfileService) Get(ctx context.Context, username, viewerID string) (*Profile, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: user, Joined: user.JoinedDate()}
	if viewerID != "" && viewerID != user.ID {
		following, err := s.follows.FollowExists(ctx, viewerID, user.ID)
		if err != nil {
			return nil, err
		}
		profile.IsFollowing = following
	}

	return profile, nil
}

// GetOwn returns the viewer's own profile. IsFollowing stays false; you
// don't follow yourself.
func (s *ProfileService) GetOwn(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Joined: user.JoinedDate()}, nil
}

// Update edits the viewer's own profile. Username, email and password stay
// fixed through this path. When the avatar is still the initials derived
// from the old name, a rename regenerates it; a custom avatar is left alone.
func (s *ProfileService) Update(ctx context.Context, userID, name, bio, location, website string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "Name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name", "Name is too long")
	}
	if len(bio) > MaxBioLength {
		return nil, apperror.ValidationFailed("bio", "Bio is too long")
	}
	if len(location) > MaxLocationLength {
		return nil, apperror.ValidationFailed("location", "Location is too long")
	}
	website = strings.TrimSpace(website)
	if website != "" {
		u, err := url.Parse(website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, apperror.ValidationFailed("website", "Website must be an http(s) URL")
		}
	}

	if user.Avatar == model.Initials(user.Name) {
		user.Avatar = model.Initials(name)
	}
	user.Name = name
	user.Bio = strings.TrimSpace(bio)
	user.Location = strings.TrimSpace(location)
	user.Website = website

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("user_id", userID))

	return user, nil
}

// Follow adds a follow edge from the viewer to the named user and notifies
// them. Following yourself or someone you already follow is an error.
func (s *ProfileService) Follow(ctx context.Context, followerID, username string) (*Profile, error) {
	target, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == followerID {
		return nil, apperror.ValidationFailed("", "You cannot follow yourself")
	}

	if err := s.follows.CreateFollow(ctx, followerID, target.ID); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("", "Already following this user")
		}
		return nil, err
	}

	notification := &model.Notification{
		UserID:  target.ID,
		ActorID: followerID,
		Type:    model.NotificationFollow,
	}
	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		s.logger.Error("creating follow notification", slog.String("error", err.Error()))
	}

	s.logger.Info("follow created",
		slog.String("follower_id", followerID),
		slog.String("followee_id", target.ID))

	return s.Get(ctx, username, followerID)
}

// Unfollow removes the follow edge. Unfollowing someone you don't follow is
// an error.
func (s *ProfileService) Unfollow(ctx context.Context, followerID, username string) (*Profile, error) {
	target, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := s.follows.DeleteFollow(ctx, followerID, target.ID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("", "Not following this user")
		}
		return nil, err
	}

	return s.Get(ctx, username, followerID)
}

// Followers pages the users following the named user, each annotated with
// whether the viewer follows them back.
func (s *ProfileService) Followers(ctx context.Context, username string, page, limit int, viewerID string) ([]FollowListEntry, Pagination, error) {
	return s.followList(ctx, username, page, limit, viewerID, s.follows.Followers)
}

// Following pages the users the named user follows.
func (s *ProfileService) Following(ctx context.Context, username string, page, limit int, viewerID string) ([]FollowListEntry, Pagination, error) {
	return s.followList(ctx, username, page, limit, viewerID, s.follows.Following)
}

func (s *ProfileService) followList(
	ctx context.Context,
	username string,
	page, limit int,
	viewerID string,
	load func(context.Context, string, repository.ListOptions) ([]model.UserSummary, int, error),
) ([]FollowListEntry, Pagination, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, Pagination{}, err
	}

	meta, opts := paginate(page, limit, 0)
	summaries, total, err := load(ctx, user.ID, opts)
	if err != nil {
		return nil, Pagination{}, err
	}
	meta, _ = paginate(meta.Page, meta.Limit, total)

	var viewerFollows map[string]bool
	if viewerID != "" {
		viewerFollows, err = s.follows.FollowingIDs(ctx, viewerID)
		if err != nil {
			return nil, Pagination{}, err
		}
	}

	entries := make([]FollowListEntry, len(summaries))
	for i, summary := range summaries {
		entries[i] = FollowListEntry{
			UserSummary: summary,
			IsFollowing: viewerFollows[summary.ID],
		}
	}

	return entries, meta, nil
}
