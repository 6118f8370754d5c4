// internal/database/board_repository.go
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

// BoardDocument is the MongoDB shape of a board.
type BoardDocument struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Tags        []string  `bson:"tags"`
	Members     []string  `bson:"members"`
	Moderators  []string  `bson:"moderators"`
	CreatedBy   string    `bson:"createdBy"`
	CreatedAt   time.Time `bson:"createdAt"`
	Deleted     bool      `bson:"deleted"`
}

func boardToDocument(board *models.Board) *BoardDocument {
	return &BoardDocument{
		ID:          board.ID.String(),
		Name:        board.Name,
		Description: board.Description,
		Tags:        board.Tags,
		Members:     uuidsToStrings(board.Members),
		Moderators:  uuidsToStrings(board.Moderators),
		CreatedBy:   board.CreatedBy.String(),
		CreatedAt:   board.CreatedAt,
		Deleted:     board.Deleted,
	}
}

func documentToBoard(doc *BoardDocument) (*models.Board, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid board ID: %w", err)
	}
	createdBy, err := uuid.Parse(doc.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("invalid creator ID: %w", err)
	}
	members, err := stringsToUUIDs(doc.Members)
	if err != nil {
		return nil, fmt.Errorf("invalid member ID: %w", err)
	}
	moderators, err := stringsToUUIDs(doc.Moderators)
	if err != nil {
		return nil, fmt.Errorf("invalid moderator ID: %w", err)
	}
	return &models.Board{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		Tags:        doc.Tags,
		Members:     members,
		Moderators:  moderators,
		CreatedBy:   createdBy,
		CreatedAt:   doc.CreatedAt,
		Deleted:     doc.Deleted,
	}, nil
}

func uuidsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func stringsToUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(raw))
	for i, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

// CreateBoard inserts a new board. A duplicate name trips the unique
// index and surfaces as a DUPLICATE error.
func (m *MongoDB) CreateBoard(ctx context.Context, board *models.Board) error {
	_, err := m.Boards.InsertOne(ctx, boardToDocument(board))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewAppError(utils.ErrDuplicate, "board name already taken", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to create board", err)
	}
	return nil
}

func (m *MongoDB) GetBoard(ctx context.Context, id uuid.UUID) (*models.Board, error) {
	return m.findBoard(ctx, bson.M{"_id": id.String(), "deleted": false})
}

func (m *MongoDB) GetBoardByName(ctx context.Context, name string) (*models.Board, error) {
	return m.findBoard(ctx, bson.M{"name": name, "deleted": false})
}

func (m *MongoDB) findBoard(ctx context.Context, filter bson.M) (*models.Board, error) {
	var doc BoardDocument
	err := m.Boards.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError("board")
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get board", err)
	}
	return documentToBoard(&doc)
}

func (m *MongoDB) GetBoardsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Board, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return m.findBoards(ctx, bson.M{"_id": bson.M{"$in": uuidsToStrings(ids)}, "deleted": false})
}

func (m *MongoDB) GetBoardsModeratedBy(ctx context.Context, userID uuid.UUID) ([]*models.Board, error) {
	return m.findBoards(ctx, bson.M{"moderators": userID.String(), "deleted": false})
}

func (m *MongoDB) findBoards(ctx context.Context, filter bson.M) ([]*models.Board, error) {
	cursor, err := m.Boards.Find(ctx, filter)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to find boards", err)
	}
	defer cursor.Close(ctx)

	var boards []*models.Board
	for cursor.Next(ctx) {
		var doc BoardDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode board", err)
		}
		board, err := documentToBoard(&doc)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "corrupt board document", err)
		}
		boards = append(boards, board)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "cursor error", err)
	}
	return boards, nil
}

// UpdateBoardMembership adds or removes a user from a board's member
// list and mirrors the change onto the user's joinedBoards in one
// transaction.
func (m *MongoDB) UpdateBoardMembership(ctx context.Context, boardID, userID uuid.UUID, join bool) error {
	boardOp, userOp := "$addToSet", "$addToSet"
	if !join {
		boardOp, userOp = "$pull", "$pull"
	}

	session, err := m.Client.StartSession()
	if err != nil {
		return utils.NewAppError(utils.ErrTransactionAborted, "failed to start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := m.Boards.UpdateOne(sc,
			bson.M{"_id": boardID.String(), "deleted": false},
			bson.M{boardOp: bson.M{"members": userID.String()}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, utils.NewNotFoundError("board")
		}
		_, err = m.Users.UpdateOne(sc,
			bson.M{"_id": userID.String()},
			bson.M{userOp: bson.M{"joinedBoards": boardID.String()}},
		)
		return nil, err
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return utils.NewAppError(utils.ErrTransactionAborted, "membership transaction aborted", err)
	}
	return nil
}

// UpdateBoard edits a board's description and/or tags. Nil means leave
// unchanged.
func (m *MongoDB) UpdateBoard(ctx context.Context, boardID uuid.UUID, description *string, tags []string) error {
	set := bson.M{}
	if description != nil {
		set["description"] = *description
	}
	if tags != nil {
		set["tags"] = tags
	}
	if len(set) == 0 {
		return nil
	}

	res, err := m.Boards.UpdateOne(ctx,
		bson.M{"_id": boardID.String(), "deleted": false},
		bson.M{"$set": set},
	)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update board", err)
	}
	if res.MatchedCount == 0 {
		return utils.NewNotFoundError("board")
	}
	return nil
}

// UpdateBoardModerators adds or removes a moderator.
func (m *MongoDB) UpdateBoardModerators(ctx context.Context, boardID, userID uuid.UUID, promote bool) error {
	op := "$addToSet"
	if !promote {
		op = "$pull"
	}
	res, err := m.Boards.UpdateOne(ctx,
		bson.M{"_id": boardID.String(), "deleted": false},
		bson.M{op: bson.M{"moderators": userID.String()}},
	)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update moderators", err)
	}
	if res.MatchedCount == 0 {
		return utils.NewNotFoundError("board")
	}
	return nil
}

// SoftDeleteBoard marks the board deleted, pulls it from every user's
// joinedBoards, and soft-deletes its posts so they drop out of feeds
// and lookups, all in one transaction.
func (m *MongoDB) SoftDeleteBoard(ctx context.Context, boardID uuid.UUID) error {
	session, err := m.Client.StartSession()
	if err != nil {
		return utils.NewAppError(utils.ErrTransactionAborted, "failed to start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := m.Boards.UpdateOne(sc,
			bson.M{"_id": boardID.String(), "deleted": false},
			bson.M{"$set": bson.M{"deleted": true}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, utils.NewNotFoundError("board")
		}
		_, err = m.Users.UpdateMany(sc,
			bson.M{"joinedBoards": boardID.String()},
			bson.M{"$pull": bson.M{"joinedBoards": boardID.String()}},
		)
		if err != nil {
			return nil, err
		}
		_, err = m.Posts.UpdateMany(sc,
			bson.M{"boardId": boardID.String()},
			bson.M{"$set": bson.M{"deleted": true}},
		)
		return nil, err
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return utils.NewAppError(utils.ErrTransactionAborted, "board delete transaction aborted", err)
	}
	return nil
}
