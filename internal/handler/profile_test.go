package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/socialnet-app/socialnet/internal/service"
)

func TestProfileHandler_Get(t *testing.T) {
	t.Run("public profile", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "janedoe")

		req := jsonRequest(http.MethodGet, "/api/profile/janedoe", "", nil)
		req.SetPathValue("username", "janedoe")
		rr := httptest.NewRecorder()
		f.profiles.HandleGet(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var res struct {
			User *service.Profile `json:"user"`
		}
		decodeBody(t, rr, &res)
		assert.Equal(t, "janedoe", res.User.Username)
		assert.NotEmpty(t, res.User.Joined)
		assert.False(t, res.User.IsFollowing)
	})

	t.Run("unknown username", func(t *testing.T) {
		f := newFixture(t)

		req := jsonRequest(http.MethodGet, "/api/profile/ghost", "", nil)
		req.SetPathValue("username", "ghost")
		rr := httptest.NewRecorder()
		f.profiles.HandleGet(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestProfileHandler_Update(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "janedoe")

	req := jsonRequest(http.MethodPut, "/api/profile/update", user.ID, map[string]string{
		"name":     "Jane D.",
		"bio":      "writing tests",
		"location": "Berlin",
		"website":  "https://example.com",
	})
	rr := httptest.NewRecorder()
	f.profiles.HandleUpdate(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "writing tests")

	// Bad website scheme is rejected.
	req = jsonRequest(http.MethodPut, "/api/profile/update", user.ID, map[string]string{
		"name":    "Jane D.",
		"website": "ftp://example.com",
	})
	rr = httptest.NewRecorder()
	f.profiles.HandleUpdate(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProfileHandler_FollowFlow(t *testing.T) {
	f := newFixture(t)
	follower := f.register(t, "follower")
	f.register(t, "followee")

	follow := func(handlerFn http.HandlerFunc, username string) *httptest.ResponseRecorder {
		req := jsonRequest(http.MethodPost, "/api/profile/follow/"+username, follower.ID, nil)
		req.SetPathValue("username", username)
		rr := httptest.NewRecorder()
		handlerFn(rr, req)
		return rr
	}

	rr := follow(f.profiles.HandleFollow, "followee")
	assert.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		User *service.Profile `json:"user"`
	}
	decodeBody(t, rr, &res)
	assert.True(t, res.User.IsFollowing)
	assert.Equal(t, 1, res.User.FollowersCount)

	// Following twice is a 400 with the exact message.
	rr = follow(f.profiles.HandleFollow, "followee")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Already following this user")

	// Following yourself is rejected.
	rr = follow(f.profiles.HandleFollow, "follower")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "You cannot follow yourself")

	// Unfollow, then the list is empty again.
	rr = follow(f.profiles.HandleUnfollow, "followee")
	assert.Equal(t, http.StatusOK, rr.Code)
	decodeBody(t, rr, &res)
	assert.False(t, res.User.IsFollowing)
	assert.Equal(t, 0, res.User.FollowersCount)
}

func TestProfileHandler_Followers(t *testing.T) {
	f := newFixture(t)
	f.register(t, "star")
	fan := f.register(t, "fan")

	req := jsonRequest(http.MethodPost, "/api/profile/follow/star", fan.ID, nil)
	req.SetPathValue("username", "star")
	rr := httptest.NewRecorder()
	f.profiles.HandleFollow(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = jsonRequest(http.MethodGet, "/api/profile/star/followers", "", nil)
	req.SetPathValue("username", "star")
	rr = httptest.NewRecorder()
	f.profiles.HandleFollowers(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		Users []service.FollowListEntry `json:"users"`
	}
	decodeBody(t, rr, &res)
	if assert.Len(t, res.Users, 1) {
		assert.Equal(t, "fan", res.Users[0].Username)
	}
}

func TestProfileHandler_Stats(t *testing.T) {
	f := newFixture(t)
	author := f.register(t, "author")
	fan := f.register(t, "fan")

	post := createPost(t, f, author.ID, "stat me")

	req := jsonRequest(http.MethodPost, "/api/posts/"+post.ID+"/like", fan.ID, nil)
	req.SetPathValue("id", post.ID)
	rr := httptest.NewRecorder()
	f.posts.HandleLike(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = jsonRequest(http.MethodGet, "/api/profile/author/stats", "", nil)
	req.SetPathValue("username", "author")
	rr = httptest.NewRecorder()
	f.profiles.HandleStats(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var res struct {
		Posts int `json:"posts"`
		Likes int `json:"likes"`
	}
	decodeBody(t, rr, &res)
	assert.Equal(t, 1, res.Posts)
	assert.Equal(t, 1, res.Likes)
}
