// internal/database/vote_repository.go
package database

import (
	"context"
	"errors"
	"time"

	"github.com/afnan9700/driftwood/internal/models"
	"github.com/afnan9700/driftwood/internal/utils"
	"github.com/google/uuid"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VoteDocument is the MongoDB shape of a vote ledger entry.
type VoteDocument struct {
	ID          string    `bson:"_id"`
	SubjectType string    `bson:"subjectType"`
	SubjectID   string    `bson:"subjectId"`
	VoterID     string    `bson:"voterId"`
	Value       int       `bson:"value"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// subjectCollection maps a subject type to the collection holding its
// voteCount aggregate.
func (m *MongoDB) subjectCollection(subjectType models.SubjectType) (*mongo.Collection, error) {
	switch subjectType {
	case models.SubjectPost:
		return m.Posts, nil
	case models.SubjectComment:
		return m.Comments, nil
	default:
		return nil, utils.NewInvalidInputError("unknown subject type")
	}
}

// CastVote applies one vote action inside a multi-document
// transaction. Re-casting the same direction retracts the vote,
// casting the opposite direction flips it, and a fresh vote inserts a
// ledger entry. The subject's voteCount moves by the matching delta in
// the same transaction, so the ledger sum and the aggregate never
// drift. Returns the updated voteCount.
func (m *MongoDB) CastVote(ctx context.Context, subjectType models.SubjectType, subjectID, voterID uuid.UUID, value int) (int, error) {
	if !models.ValidVoteValue(value) {
		return 0, utils.NewInvalidInputError("vote value must be 1 or -1")
	}
	coll, err := m.subjectCollection(subjectType)
	if err != nil {
		return 0, err
	}

	session, err := m.Client.StartSession()
	if err != nil {
		return 0, utils.NewAppError(utils.ErrTransactionAborted, "failed to start session", err)
	}
	defer session.EndSession(ctx)

	ledgerKey := bson.M{
		"subjectType": string(subjectType),
		"subjectId":   subjectID.String(),
		"voterId":     voterID.String(),
	}

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now()
		var delta int

		var existing VoteDocument
		findErr := m.Votes.FindOne(sc, ledgerKey).Decode(&existing)
		switch {
		case errors.Is(findErr, mongo.ErrNoDocuments):
			// First vote on this subject by this voter.
			doc := VoteDocument{
				ID:          uuid.New().String(),
				SubjectType: string(subjectType),
				SubjectID:   subjectID.String(),
				VoterID:     voterID.String(),
				Value:       value,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if _, err := m.Votes.InsertOne(sc, doc); err != nil {
				return nil, err
			}
			delta = value
		case findErr != nil:
			return nil, findErr
		case existing.Value == value:
			// Same direction again: retract.
			if _, err := m.Votes.DeleteOne(sc, bson.M{"_id": existing.ID}); err != nil {
				return nil, err
			}
			delta = -value
		default:
			// Opposite direction: flip, which moves the aggregate two
			// steps.
			update := bson.M{"$set": bson.M{"value": value, "updatedAt": now}}
			if _, err := m.Votes.UpdateOne(sc, bson.M{"_id": existing.ID}, update); err != nil {
				return nil, err
			}
			delta = 2 * value
		}

		opts := options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"voteCount": 1})
		var updated struct {
			VoteCount int `bson:"voteCount"`
		}
		err := coll.FindOneAndUpdate(sc,
			bson.M{"_id": subjectID.String(), "deleted": false},
			bson.M{"$inc": bson.M{"voteCount": delta}},
			opts,
		).Decode(&updated)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, utils.NewNotFoundError(string(subjectType))
			}
			return nil, err
		}
		return updated.VoteCount, nil
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return 0, appErr
		}
		return 0, utils.NewAppError(utils.ErrTransactionAborted, "vote transaction aborted", err)
	}
	return result.(int), nil
}

// GetUserVotes returns the voter's current vote value for each of the
// given subjects. Subjects the voter has not voted on are simply
// absent from the map.
func (m *MongoDB) GetUserVotes(ctx context.Context, voterID uuid.UUID, subjectType models.SubjectType, subjectIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	votes := make(map[uuid.UUID]int, len(subjectIDs))
	if len(subjectIDs) == 0 {
		return votes, nil
	}

	ids := make([]string, len(subjectIDs))
	for i, id := range subjectIDs {
		ids[i] = id.String()
	}

	cursor, err := m.Votes.Find(ctx, bson.M{
		"subjectType": string(subjectType),
		"voterId":     voterID.String(),
		"subjectId":   bson.M{"$in": ids},
	})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get user votes", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc VoteDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode vote", err)
		}
		subjectID, err := uuid.Parse(doc.SubjectID)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "corrupt vote document", err)
		}
		votes[subjectID] = doc.Value
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "cursor error", err)
	}
	return votes, nil
}
