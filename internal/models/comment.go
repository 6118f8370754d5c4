package models

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID         uuid.UUID  `json:"id" bson:"_id"`
	PostID     uuid.UUID  `json:"postId" bson:"postId"`
	PostTitle  string     `json:"postTitle" bson:"postTitle"` // denormalized for easier access
	ParentID   *uuid.UUID `json:"parentId,omitempty" bson:"parentId,omitempty"`
	AuthorID   uuid.UUID  `json:"authorId" bson:"authorId"`
	AuthorName string     `json:"authorName" bson:"authorName"` // denormalized for easier access
	Content    string     `json:"content" bson:"content"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" bson:"updatedAt"`
	VoteCount  int        `json:"voteCount" bson:"voteCount"`
	Deleted    bool       `json:"deleted" bson:"deleted"`
}
