package events

import (
	"time"

	"movietracker/pkg/models"
)

const (
	TypeReviewCreated    = "review.created"
	TypeReviewUpdated    = "review.updated"
	TypeReviewDeleted    = "review.deleted"
	TypeCommentCreated   = "comment.created"
	TypeWatchlistUpdated = "watchlist.updated"
	TypeFavoritesUpdated = "favorites.updated"
)

// Activity is the wire shape of every broadcast event.
type Activity struct {
	Type   string           `json:"type"`
	UserID int64            `json:"user_id,omitempty"`
	Target *models.MediaRef `json:"target,omitempty"`
	At     time.Time        `json:"at"`
}

func NewActivity(eventType string, userID int64, target *models.MediaRef) Activity {
	return Activity{
		Type:   eventType,
		UserID: userID,
		Target: target,
		At:     time.Now().UTC(),
	}
}
