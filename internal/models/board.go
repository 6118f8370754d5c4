package models

import (
	"time"

	"github.com/google/uuid"
)

type Board struct {
	ID          uuid.UUID   `json:"id" bson:"_id"`
	Name        string      `json:"name" bson:"name"`
	Description string      `json:"description" bson:"description"`
	Tags        []string    `json:"tags" bson:"tags"`
	Members     []uuid.UUID `json:"members" bson:"members"`
	Moderators  []uuid.UUID `json:"moderators" bson:"moderators"`
	CreatedBy   uuid.UUID   `json:"createdBy" bson:"createdBy"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	Deleted     bool        `json:"deleted" bson:"deleted"`
}

// IsModerator reports whether userID moderates the board.
func (b *Board) IsModerator(userID uuid.UUID) bool {
	for _, id := range b.Moderators {
		if id == userID {
			return true
		}
	}
	return false
}

// IsMember reports whether userID is a member of the board.
func (b *Board) IsMember(userID uuid.UUID) bool {
	for _, id := range b.Members {
		if id == userID {
			return true
		}
	}
	return false
}
