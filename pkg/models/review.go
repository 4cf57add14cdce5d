package models

import "time"

type Review struct {
	ReviewID  int64          `json:"review_id"`
	UserID    int64          `json:"user_id"`
	Target    MediaRef       `json:"target"`
	Rating    float64        `json:"rating"`
	Content   string         `json:"content,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Reactions map[string]int `json:"reactions,omitempty"`
}

// ReactionKinds is the closed set of review reaction kinds; the schema
// enforces the same set with a CHECK constraint.
var ReactionKinds = []string{"like", "love", "laugh", "wow", "sad", "fire"}

func ValidReactionKind(kind string) bool {
	for _, k := range ReactionKinds {
		if k == kind {
			return true
		}
	}
	return false
}
