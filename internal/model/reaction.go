package model

import "time"

// ReactionKind is one of the fixed set of emotive tags a user can attach to
// a post or a comment.
type ReactionKind string

const (
	ReactionLike  ReactionKind = "like"
	ReactionLove  ReactionKind = "love"
	ReactionHaha  ReactionKind = "haha"
	ReactionWow   ReactionKind = "wow"
	ReactionSad   ReactionKind = "sad"
	ReactionAngry ReactionKind = "angry"
)

// ReactionKinds lists every valid kind, in display order.
var ReactionKinds = []ReactionKind{
	ReactionLike, ReactionLove, ReactionHaha,
	ReactionWow, ReactionSad, ReactionAngry,
}

// ValidReactionKind reports whether k is a known reaction kind.
func ValidReactionKind(k ReactionKind) bool {
	for _, kind := range ReactionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// SubjectType tags what a reaction is attached to. Post likes, post
// reactions and comment reactions all share the reactions table; the subject
// type is the discriminator that keeps one generic toggle operation enough
// for all three.
type SubjectType string

const (
	SubjectPost    SubjectType = "post"
	SubjectComment SubjectType = "comment"
)

// Reaction is one user's reaction to one subject. The schema enforces at
// most one row per (subject, user); changing kind overwrites in place.
type Reaction struct {
	ID          string       `json:"id"`
	SubjectType SubjectType  `json:"subjectType"`
	SubjectID   string       `json:"subjectId"`
	UserID      string       `json:"userId"`
	Kind        ReactionKind `json:"type"`
	CreatedAt   time.Time    `json:"createdAt"`
}
