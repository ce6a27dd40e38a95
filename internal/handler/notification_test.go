package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/socialnet-app/socialnet/internal/model"
)

func TestNotificationHandler_Flow(t *testing.T) {
	f := newFixture(t)
	author := f.register(t, "author")
	fan := f.register(t, "fan")

	// A like and a comment from the fan produce two notifications.
	post := createPost(t, f, author.ID, "popular")

	req := jsonRequest(http.MethodPost, "/api/posts/"+post.ID+"/like", fan.ID, nil)
	req.SetPathValue("id", post.ID)
	rr := httptest.NewRecorder()
	f.posts.HandleLike(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = jsonRequest(http.MethodPost, "/api/posts/"+post.ID+"/comment", fan.ID, map[string]string{"content": "nice"})
	req.SetPathValue("id", post.ID)
	rr = httptest.NewRecorder()
	f.posts.HandleAddComment(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code)

	list := func() (int, []model.Notification) {
		req := jsonRequest(http.MethodGet, "/api/notifications", author.ID, nil)
		rr := httptest.NewRecorder()
		f.notifications.HandleList(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		var res struct {
			Notifications []model.Notification `json:"notifications"`
			Unread        int                  `json:"unread"`
		}
		decodeBody(t, rr, &res)
		return res.Unread, res.Notifications
	}

	unread, notifications := list()
	assert.Equal(t, 2, unread)
	if assert.Len(t, notifications, 2) {
		// Newest first: the comment landed after the like.
		assert.Equal(t, model.NotificationComment, notifications[0].Type)
		assert.Equal(t, "fan", notifications[0].Actor.Username)
	}

	// Mark one read.
	req = jsonRequest(http.MethodPost, "/api/notifications/"+notifications[0].ID+"/read", author.ID, nil)
	req.SetPathValue("id", notifications[0].ID)
	rr = httptest.NewRecorder()
	f.notifications.HandleMarkRead(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	unread, _ = list()
	assert.Equal(t, 1, unread)

	// Another user can't touch it.
	req = jsonRequest(http.MethodPost, "/api/notifications/"+notifications[1].ID+"/read", fan.ID, nil)
	req.SetPathValue("id", notifications[1].ID)
	rr = httptest.NewRecorder()
	f.notifications.HandleMarkRead(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// Mark all.
	req = jsonRequest(http.MethodPost, "/api/notifications/read", author.ID, nil)
	rr = httptest.NewRecorder()
	f.notifications.HandleMarkAllRead(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	unread, _ = list()
	assert.Equal(t, 0, unread)
}
