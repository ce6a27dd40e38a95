package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClient_CookiePersistence(t *testing.T) {
	// Login sets a cookie; the follow-up request must carry it back.
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123", Path: "/"})
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user": map[string]string{"id": "u1", "username": "janedoe"},
		})
	})
	mux.HandleFunc("GET /api/profile", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session")
		if err != nil || cookie.Value != "abc123" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Not authenticated"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user": map[string]interface{}{"id": "u1", "username": "janedoe", "joined": "March 2025"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL)
	assert.NoError(t, err)

	user, err := c.Login(context.Background(), "jane@example.com", "password123")
	assert.NoError(t, err)
	assert.Equal(t, "janedoe", user.Username)

	profile, err := c.MyProfile(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "March 2025", profile.Joined)
}

func TestClient_DecodesErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Post already liked"})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	assert.NoError(t, err)

	_, err = c.Like(context.Background(), "p1")
	var apiErr *APIError
	if assert.ErrorAs(t, err, &apiErr) {
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "Post already liked", apiErr.Message)
	}
}

func TestClient_PageQuery(t *testing.T) {
	assert.Equal(t, "", pageQuery(0, 0))
	assert.Equal(t, "?page=2", pageQuery(2, 0))
	assert.Equal(t, "?limit=50&page=3", pageQuery(3, 50))
}
