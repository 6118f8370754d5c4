// internal/database/user_repository.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/afnan9700/driftwood/internal/models"
	"github.com/afnan9700/driftwood/internal/utils"
	"github.com/google/uuid"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserDocument is the MongoDB shape of a user.
type UserDocument struct {
	ID             string    `bson:"_id"`
	Username       string    `bson:"username"`
	HashedPassword string    `bson:"passwordHash"`
	JoinedBoards   []string  `bson:"joinedBoards"`
	CreatedAt      time.Time `bson:"createdAt"`
	Deleted        bool      `bson:"deleted"`
}

func userToDocument(user *models.User) *UserDocument {
	return &UserDocument{
		ID:             user.ID.String(),
		Username:       user.Username,
		HashedPassword: user.HashedPassword,
		JoinedBoards:   uuidsToStrings(user.JoinedBoards),
		CreatedAt:      user.CreatedAt,
		Deleted:        user.Deleted,
	}
}

func documentToUser(doc *UserDocument) (*models.User, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}
	joined, err := stringsToUUIDs(doc.JoinedBoards)
	if err != nil {
		return nil, fmt.Errorf("invalid joined board ID: %w", err)
	}
	return &models.User{
		ID:             id,
		Username:       doc.Username,
		HashedPassword: doc.HashedPassword,
		JoinedBoards:   joined,
		CreatedAt:      doc.CreatedAt,
		Deleted:        doc.Deleted,
	}, nil
}

// SaveUser inserts a new user. A taken username trips the unique index
// and surfaces as a DUPLICATE error.
func (m *MongoDB) SaveUser(ctx context.Context, user *models.User) error {
	_, err := m.Users.InsertOne(ctx, userToDocument(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewAppError(utils.ErrDuplicate, "username already taken", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to save user", err)
	}
	return nil
}

func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id.String(), "deleted": false})
}

func (m *MongoDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"username": username, "deleted": false})
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc UserDocument
	err := m.Users.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError("user")
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get user", err)
	}
	return documentToUser(&doc)
}

// AnonymizeUser retires an account: the username becomes the
// anonymized placeholder, credentials are cleared, and the account is
// marked deleted. Their posts and comments keep their denormalized
// author names and get rewritten here too.
func (m *MongoDB) AnonymizeUser(ctx context.Context, id uuid.UUID) error {
	session, err := m.Client.StartSession()
	if err != nil {
		return utils.NewAppError(utils.ErrTransactionAborted, "failed to start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		// The unique username index forbids two retired accounts
		// sharing the placeholder verbatim, so suffix with the id.
		placeholder := models.AnonymizedUsername + ":" + id.String()
		res, err := m.Users.UpdateOne(sc,
			bson.M{"_id": id.String(), "deleted": false},
			bson.M{"$set": bson.M{
				"username":     placeholder,
				"passwordHash": "",
				"deleted":      true,
			}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, utils.NewNotFoundError("user")
		}

		authorFilter := bson.M{"authorId": id.String()}
		rename := bson.M{"$set": bson.M{"authorName": models.AnonymizedUsername}}
		if _, err := m.Posts.UpdateMany(sc, authorFilter, rename); err != nil {
			return nil, err
		}
		if _, err := m.Comments.UpdateMany(sc, authorFilter, rename); err != nil {
			return nil, err
		}

		// Memberships do not outlive the account.
		_, err = m.Boards.UpdateMany(sc,
			bson.M{"$or": bson.A{
				bson.M{"members": id.String()},
				bson.M{"moderators": id.String()},
			}},
			bson.M{"$pull": bson.M{"members": id.String(), "moderators": id.String()}},
		)
		return nil, err
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return utils.NewAppError(utils.ErrTransactionAborted, "anonymize transaction aborted", err)
	}
	return nil
}

// GetJoinedBoardIDs returns the boards a user is a member of.
func (m *MongoDB) GetJoinedBoardIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	user, err := m.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.JoinedBoards, nil
}
