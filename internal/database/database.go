// internal/database/database.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/afnan9700/driftwood/internal/models"
	"github.com/google/uuid"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store defines the common interface for database operations. Two
// implementations exist: MongoDB (primary) and MemoryStore (dev/test).
type Store interface {
	// Connection
	Close(ctx context.Context) error

	// User methods
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	AnonymizeUser(ctx context.Context, id uuid.UUID) error
	GetJoinedBoardIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// Board methods
	CreateBoard(ctx context.Context, board *models.Board) error
	GetBoard(ctx context.Context, id uuid.UUID) (*models.Board, error)
	GetBoardByName(ctx context.Context, name string) (*models.Board, error)
	GetBoardsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Board, error)
	GetBoardsModeratedBy(ctx context.Context, userID uuid.UUID) ([]*models.Board, error)
	UpdateBoardMembership(ctx context.Context, boardID, userID uuid.UUID, join bool) error
	UpdateBoard(ctx context.Context, boardID uuid.UUID, description *string, tags []string) error
	UpdateBoardModerators(ctx context.Context, boardID, userID uuid.UUID, promote bool) error
	SoftDeleteBoard(ctx context.Context, boardID uuid.UUID) error

	// Post methods
	SavePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	GetPostsByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.Post, error)
	PaginatePosts(ctx context.Context, filter PostFilter, page PageRequest) (*PostPage, error)

	// Comment methods
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error)
	GetCommentReplies(ctx context.Context, commentID uuid.UUID) ([]*models.Comment, error)

	// Vote methods
	CastVote(ctx context.Context, subjectType models.SubjectType, subjectID, voterID uuid.UUID, value int) (int, error)
	GetUserVotes(ctx context.Context, voterID uuid.UUID, subjectType models.SubjectType, subjectIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// PostFilter selects the posts visible to a query. Deleted posts are
// always excluded.
type PostFilter struct {
	BoardIDs []uuid.UUID // nil means all boards (global feed)
	AuthorID *uuid.UUID
}

// MongoDB holds the MongoDB client and collection handles.
type MongoDB struct {
	Client   *mongo.Client
	Users    *mongo.Collection
	Posts    *mongo.Collection
	Comments *mongo.Collection
	Boards   *mongo.Collection
	Votes    *mongo.Collection
}

// NewMongoDB connects to MongoDB and wires up the forum collections.
func NewMongoDB(ctx context.Context, uri, dbName string) (*MongoDB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Database("admin").RunCommand(connectCtx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(dbName)
	m := &MongoDB{
		Client:   client,
		Users:    db.Collection("users"),
		Posts:    db.Collection("posts"),
		Comments: db.Collection("comments"),
		Boards:   db.Collection("boards"),
		Votes:    db.Collection("votes"),
	}

	if err := m.ensureIndexes(connectCtx); err != nil {
		return nil, err
	}

	return m, nil
}

// ensureIndexes creates the indexes the queries and the ledger's
// uniqueness invariant depend on.
func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	// At most one ledger entry per (subjectType, subjectId, voterId).
	_, err := m.Votes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "subjectType", Value: 1},
			{Key: "subjectId", Value: 1},
			{Key: "voterId", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create vote ledger index: %w", err)
	}

	_, err = m.Posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "boardId", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "authorId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create post indexes: %w", err)
	}

	_, err = m.Comments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "parentId", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create comment indexes: %w", err)
	}

	_, err = m.Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create user index: %w", err)
	}

	_, err = m.Boards.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create board index: %w", err)
	}

	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
