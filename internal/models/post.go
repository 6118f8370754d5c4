package models

import (
	"time"

	"github.com/google/uuid"
)

// Post carries denormalized author and board display names so feed and
// list reads do not need joins. They are synced at write time and
// tolerated as eventually stale.
type Post struct {
	ID           uuid.UUID  `json:"id" bson:"_id"`
	Title        string     `json:"title" bson:"title"`
	Content      string     `json:"content" bson:"content"`
	AuthorID     uuid.UUID  `json:"authorId" bson:"authorId"`
	AuthorName   string     `json:"authorName" bson:"authorName"`
	BoardID      *uuid.UUID `json:"boardId,omitempty" bson:"boardId,omitempty"`
	BoardName    string     `json:"boardName,omitempty" bson:"boardName,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`
	VoteCount    int        `json:"voteCount" bson:"voteCount"`
	CommentCount int        `json:"commentCount" bson:"commentCount"`
	Deleted      bool       `json:"deleted" bson:"deleted"`
}
