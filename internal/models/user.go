package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID   `json:"id" bson:"_id"`
	Username       string      `json:"username" bson:"username"`
	HashedPassword string      `json:"-" bson:"passwordHash"`
	JoinedBoards   []uuid.UUID `json:"joinedBoards" bson:"joinedBoards"`
	CreatedAt      time.Time   `json:"createdAt" bson:"createdAt"`
	Deleted        bool        `json:"deleted" bson:"deleted"`
}

// AnonymizedUsername replaces the username of soft-deleted accounts.
const AnonymizedUsername = "<deleted>"
