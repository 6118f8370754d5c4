// internal/database/comment_repository.go
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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentDocument is the MongoDB shape of a comment.
type CommentDocument struct {
	ID         string    `bson:"_id"`
	PostID     string    `bson:"postId"`
	PostTitle  string    `bson:"postTitle,omitempty"`
	ParentID   *string   `bson:"parentId,omitempty"`
	AuthorID   string    `bson:"authorId"`
	AuthorName string    `bson:"authorName"`
	Content    string    `bson:"content"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
	VoteCount  int       `bson:"voteCount"`
	Deleted    bool      `bson:"deleted"`
}

func commentToDocument(comment *models.Comment) *CommentDocument {
	doc := &CommentDocument{
		ID:         comment.ID.String(),
		PostID:     comment.PostID.String(),
		PostTitle:  comment.PostTitle,
		AuthorID:   comment.AuthorID.String(),
		AuthorName: comment.AuthorName,
		Content:    comment.Content,
		CreatedAt:  comment.CreatedAt,
		UpdatedAt:  comment.UpdatedAt,
		VoteCount:  comment.VoteCount,
		Deleted:    comment.Deleted,
	}
	if comment.ParentID != nil {
		s := comment.ParentID.String()
		doc.ParentID = &s
	}
	return doc
}

func documentToComment(doc *CommentDocument) (*models.Comment, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid comment ID: %w", err)
	}
	postID, err := uuid.Parse(doc.PostID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %w", err)
	}
	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %w", err)
	}
	comment := &models.Comment{
		ID:         id,
		PostID:     postID,
		PostTitle:  doc.PostTitle,
		AuthorID:   authorID,
		AuthorName: doc.AuthorName,
		Content:    doc.Content,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
		VoteCount:  doc.VoteCount,
		Deleted:    doc.Deleted,
	}
	if doc.ParentID != nil {
		parentID, err := uuid.Parse(*doc.ParentID)
		if err != nil {
			return nil, fmt.Errorf("invalid parent ID: %w", err)
		}
		comment.ParentID = &parentID
	}
	return comment, nil
}

// CreateComment inserts the comment and bumps the parent post's
// commentCount in one transaction.
func (m *MongoDB) CreateComment(ctx context.Context, comment *models.Comment) error {
	session, err := m.Client.StartSession()
	if err != nil {
		return utils.NewAppError(utils.ErrTransactionAborted, "failed to start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := m.Posts.UpdateOne(sc,
			bson.M{"_id": comment.PostID.String(), "deleted": false},
			bson.M{"$inc": bson.M{"commentCount": 1}},
		)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, utils.NewNotFoundError("post")
		}
		if _, err := m.Comments.InsertOne(sc, commentToDocument(comment)); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return utils.NewAppError(utils.ErrTransactionAborted, "comment transaction aborted", err)
	}
	return nil
}

func (m *MongoDB) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var doc CommentDocument
	err := m.Comments.FindOne(ctx, bson.M{"_id": id.String(), "deleted": false}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError("comment")
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get comment", err)
	}
	return documentToComment(&doc)
}

// GetPostComments returns a post's top-level comments, newest first.
func (m *MongoDB) GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	filter := bson.M{
		"postId":   postID.String(),
		"parentId": bson.M{"$exists": false},
		"deleted":  false,
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Comments.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get post comments", err)
	}
	defer cursor.Close(ctx)

	return decodeComments(ctx, cursor)
}

// GetCommentReplies returns a comment's direct replies, oldest first,
// which keeps a thread readable top to bottom.
func (m *MongoDB) GetCommentReplies(ctx context.Context, commentID uuid.UUID) ([]*models.Comment, error) {
	filter := bson.M{"parentId": commentID.String(), "deleted": false}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := m.Comments.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get comment replies", err)
	}
	defer cursor.Close(ctx)

	return decodeComments(ctx, cursor)
}

func decodeComments(ctx context.Context, cursor *mongo.Cursor) ([]*models.Comment, error) {
	var comments []*models.Comment
	for cursor.Next(ctx) {
		var doc CommentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode comment", err)
		}
		comment, err := documentToComment(&doc)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "corrupt comment document", err)
		}
		comments = append(comments, comment)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "cursor error", err)
	}
	return comments, nil
}
