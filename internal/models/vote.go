package models

import (
	"time"

	"github.com/google/uuid"
)

// SubjectType identifies the kind of entity a vote targets.
type SubjectType string

const (
	SubjectPost    SubjectType = "post"
	SubjectComment SubjectType = "comment"
)

// VoteRecord is one entry in the vote ledger. At most one record exists
// per (SubjectType, SubjectID, VoterID); the ledger is the authoritative
// source for a voter's current vote, while the subject's voteCount is a
// denormalized aggregate kept in step transactionally.
type VoteRecord struct {
	ID          uuid.UUID   `json:"id" bson:"_id"`
	SubjectType SubjectType `json:"subjectType" bson:"subjectType"`
	SubjectID   uuid.UUID   `json:"subjectId" bson:"subjectId"`
	VoterID     uuid.UUID   `json:"voterId" bson:"voterId"`
	Value       int         `json:"value" bson:"value"` // +1 or -1
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// ValidVoteValue reports whether v is an accepted vote value.
func ValidVoteValue(v int) bool {
	return v == 1 || v == -1
}
