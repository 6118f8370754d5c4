// internal/database/post_repository.go
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

// PostDocument is the MongoDB shape of a post. IDs are stored as
// strings so the uuid-string order doubles as the pagination
// tie-break.
type PostDocument struct {
	ID           string    `bson:"_id"`
	Title        string    `bson:"title"`
	Content      string    `bson:"content"`
	AuthorID     string    `bson:"authorId"`
	AuthorName   string    `bson:"authorName"`
	BoardID      *string   `bson:"boardId,omitempty"`
	BoardName    string    `bson:"boardName,omitempty"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
	VoteCount    int       `bson:"voteCount"`
	CommentCount int       `bson:"commentCount"`
	Deleted      bool      `bson:"deleted"`
}

func postToDocument(post *models.Post) *PostDocument {
	doc := &PostDocument{
		ID:           post.ID.String(),
		Title:        post.Title,
		Content:      post.Content,
		AuthorID:     post.AuthorID.String(),
		AuthorName:   post.AuthorName,
		BoardName:    post.BoardName,
		CreatedAt:    post.CreatedAt,
		UpdatedAt:    post.UpdatedAt,
		VoteCount:    post.VoteCount,
		CommentCount: post.CommentCount,
		Deleted:      post.Deleted,
	}
	if post.BoardID != nil {
		s := post.BoardID.String()
		doc.BoardID = &s
	}
	return doc
}

func documentToPost(doc *PostDocument) (*models.Post, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID: %w", err)
	}
	authorID, err := uuid.Parse(doc.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %w", err)
	}
	post := &models.Post{
		ID:           id,
		Title:        doc.Title,
		Content:      doc.Content,
		AuthorID:     authorID,
		AuthorName:   doc.AuthorName,
		BoardName:    doc.BoardName,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
		VoteCount:    doc.VoteCount,
		CommentCount: doc.CommentCount,
		Deleted:      doc.Deleted,
	}
	if doc.BoardID != nil {
		boardID, err := uuid.Parse(*doc.BoardID)
		if err != nil {
			return nil, fmt.Errorf("invalid board ID: %w", err)
		}
		post.BoardID = &boardID
	}
	return post, nil
}

// SavePost stores a new post document.
func (m *MongoDB) SavePost(ctx context.Context, post *models.Post) error {
	_, err := m.Posts.InsertOne(ctx, postToDocument(post))
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save post", err)
	}
	return nil
}

// GetPost retrieves a post by ID. Soft-deleted posts are treated as
// missing.
func (m *MongoDB) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var doc PostDocument
	err := m.Posts.FindOne(ctx, bson.M{"_id": id.String(), "deleted": false}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError("post")
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get post", err)
	}
	return documentToPost(&doc)
}

func (m *MongoDB) GetPostsByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.Posts.Find(ctx, bson.M{"authorId": authorID.String(), "deleted": false}, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to get posts by author", err)
	}
	defer cursor.Close(ctx)

	return decodePosts(ctx, cursor)
}

// PaginatePosts walks posts newest-first using the compound
// (createdAt, _id) window predicate. It fetches limit+1 rows so the
// presence of the extra row decides HasMore without a count query.
func (m *MongoDB) PaginatePosts(ctx context.Context, filter PostFilter, page PageRequest) (*PostPage, error) {
	query := bson.M{"deleted": false}
	if filter.BoardIDs != nil {
		ids := make([]string, len(filter.BoardIDs))
		for i, id := range filter.BoardIDs {
			ids[i] = id.String()
		}
		query["boardId"] = bson.M{"$in": ids}
	}
	if filter.AuthorID != nil {
		query["authorId"] = filter.AuthorID.String()
	}

	if page.Cursor != nil {
		c := page.Cursor
		query["$or"] = bson.A{
			bson.M{"createdAt": bson.M{"$lt": c.SortValue}},
			bson.M{"createdAt": c.SortValue, "_id": bson.M{"$lt": c.TieBreakID}},
		}
	}

	limit := page.EffectiveLimit()
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit + 1))

	cursor, err := m.Posts.Find(ctx, query, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to paginate posts", err)
	}
	defer cursor.Close(ctx)

	posts, err := decodePosts(ctx, cursor)
	if err != nil {
		return nil, err
	}
	return buildPostPage(posts, limit), nil
}

func decodePosts(ctx context.Context, cursor *mongo.Cursor) ([]*models.Post, error) {
	var posts []*models.Post
	for cursor.Next(ctx) {
		var doc PostDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode post", err)
		}
		post, err := documentToPost(&doc)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "corrupt post document", err)
		}
		posts = append(posts, post)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "cursor error", err)
	}
	return posts, nil
}
