// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — plain data carriers with
// json tags deciding how they serialize. Behaviour lives in the service layer.
package model

import (
	"strings"
	"time"
)

// User represents a registered account.
//
// Identity is email/password (bcrypt hash, never serialized), with GitHub
// OAuth as an alternative sign-in path. GitHubID is a pointer because most
// accounts never link one — NULL in the database, absent in JSON.
//
// FollowersCount, FollowingCount and PostsCount are computed on read with
// COUNT queries rather than stored. Storing them alongside the underlying
// rows invites drift when a write pair is interrupted; recomputing keeps the
// rows as the single source of truth.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // bcrypt hash, never sent to clients
	Bio          string    `json:"bio"`
	Location     string    `json:"location"`
	Website      string    `json:"website"`
	Avatar       string    `json:"avatar"` // initials, e.g. "JD" for "Jane Doe"
	GitHubID     *int64    `json:"githubId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	FollowersCount int `json:"followers"`
	FollowingCount int `json:"following"`
	PostsCount     int `json:"posts"`
}

// Initials derives the avatar text from a display name: first letter of each
// word, uppercased. "Jane van Dyke" → "JVD".
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r := []rune(word)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}

// JoinedDate formats the registration date the way the profile page shows it,
// e.g. "March 2025".
func (u *User) JoinedDate() string {
	return u.CreatedAt.Format("January 2006")
}

// UserSummary is the slimmed-down author block embedded in posts, comments,
// follower lists and notifications. Full User records stay on profile routes.
type UserSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Bio      string `json:"bio,omitempty"`
}

// Summary projects a User down to its embeddable form.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Avatar:   u.Avatar,
		Bio:      u.Bio,
	}
}
