package handler

import (
	"log/slog"
	"net/http"

	"github.com/socialnet-app/socialnet/internal/auth"
	"github.com/socialnet-app/socialnet/internal/service"
)

// ProfileHandler serves profile pages, profile edits, the follow graph and
// the per-user stats block.
type ProfileHandler struct {
	profiles *service.ProfileService
	posts    *service.PostService
	logger   *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService, posts *service.PostService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		posts:    posts,
		logger:   logger,
	}
}

type profileResponse struct {
	User *service.Profile `json:"user"`
}

// HandleOwn returns the viewer's own profile.
//
// HTTP: GET /api/profile
func (h *ProfileHandler) HandleOwn(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.profiles.GetOwn(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{User: profile})
}

// HandleGet returns a public profile by username, with isFollowing relative
// to the viewer.
//
// HTTP: GET /api/profile/{username}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), r.PathValue("username"), viewerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{User: profile})
}

type updateProfileRequest struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	Location string `json:"location"`
	Website  string `json:"website"`
}

// HandleUpdate edits the viewer's profile. Empty strings clear bio, location
// and website; an empty name is rejected.
//
// HTTP: PUT /api/profile/update
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.profiles.Update(r.Context(), userID, req.Name, req.Bio, req.Location, req.Website)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

type followResponse struct {
	Message string           `json:"message"`
	User    *service.Profile `json:"user"`
}

// HandleFollow follows a user. Following yourself, or someone you already
// follow, is a 400.
//
// HTTP: POST /api/profile/follow/{username}
func (h *ProfileHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.profiles.Follow(r.Context(), userID, r.PathValue("username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, followResponse{Message: "Now following " + profile.Username, User: profile})
}

// HandleUnfollow removes a follow edge.
//
// HTTP: POST /api/profile/unfollow/{username}
func (h *ProfileHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.profiles.Unfollow(r.Context(), userID, r.PathValue("username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, followResponse{Message: "Unfollowed " + profile.Username, User: profile})
}

type followListResponse struct {
	Users      []service.FollowListEntry `json:"users"`
	Pagination service.Pagination        `json:"pagination"`
}

// HandleFollowers lists who follows a user.
//
// HTTP: GET /api/profile/{username}/followers?page&limit
func (h *ProfileHandler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	users, meta, err := h.profiles.Followers(r.Context(), r.PathValue("username"), page, limit, viewerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, followListResponse{Users: users, Pagination: meta})
}

// HandleFollowing lists who a user follows.
//
// HTTP: GET /api/profile/{username}/following?page&limit
func (h *ProfileHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	users, meta, err := h.profiles.Following(r.Context(), r.PathValue("username"), page, limit, viewerID(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, followListResponse{Users: users, Pagination: meta})
}

// statsResponse aggregates the numbers shown on the profile stats card.
type statsResponse struct {
	Posts      int `json:"posts"`
	Followers  int `json:"followers"`
	Following  int `json:"following"`
	Likes      int `json:"likes"`
	Comments   int `json:"comments"`
	Shares     int `json:"shares"`
	MediaPosts int `json:"mediaPosts"`
}

// HandleStats returns a user's counts plus engagement totals across all of
// their posts.
//
// HTTP: GET /api/profile/{username}/stats
func (h *ProfileHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	profile, err := h.profiles.Get(r.Context(), username, "")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	stats, err := h.posts.Stats(r.Context(), username)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Posts:      profile.PostsCount,
		Followers:  profile.FollowersCount,
		Following:  profile.FollowingCount,
		Likes:      stats.TotalLikes,
		Comments:   stats.TotalComments,
		Shares:     stats.TotalShares,
		MediaPosts: stats.MediaPosts,
	})
}
