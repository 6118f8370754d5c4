// internal/feed/feed.go
package feed

import (
	"context"
	"time"

	"github.com/afnan9700/driftwood/internal/database"
	"github.com/afnan9700/driftwood/internal/models"
	"github.com/google/uuid"
)

// Store is the slice of the database the assembler needs.
type Store interface {
	GetJoinedBoardIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	PaginatePosts(ctx context.Context, filter database.PostFilter, page database.PageRequest) (*database.PostPage, error)
	GetUserVotes(ctx context.Context, voterID uuid.UUID, subjectType models.SubjectType, subjectIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// Assembler builds personalized post feeds.
type Assembler struct {
	store Store
}

func NewAssembler(store Store) *Assembler {
	return &Assembler{store: store}
}

// AuthorRef identifies a post's author in a feed item.
type AuthorRef struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// BoardRef identifies a post's board in a feed item.
type BoardRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Item is one post as seen by the requesting user, including their
// own current vote on it.
type Item struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	VoteCount    int       `json:"voteCount"`
	CommentCount int       `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
	Author       AuthorRef `json:"author"`
	Board        *BoardRef `json:"board"`
	UserVote     int       `json:"userVote"`
}

// Page is one page of a feed.
type Page struct {
	Posts      []Item  `json:"posts"`
	NextCursor *string `json:"nextCursor"`
	HasMore    bool    `json:"hasMore"`
}

// Build assembles one feed page. An authenticated user gets posts from
// the boards they have joined, with their own vote merged onto each
// item. An anonymous user (userID nil) gets the global feed with
// userVote fixed at 0. A user with no joined boards gets an empty page
// without touching the post collection.
func (a *Assembler) Build(ctx context.Context, userID *uuid.UUID, page database.PageRequest) (*Page, error) {
	filter := database.PostFilter{}
	if userID != nil {
		boardIDs, err := a.store.GetJoinedBoardIDs(ctx, *userID)
		if err != nil {
			return nil, err
		}
		if len(boardIDs) == 0 {
			return &Page{Posts: []Item{}}, nil
		}
		filter.BoardIDs = boardIDs
	}

	result, err := a.store.PaginatePosts(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	votes := map[uuid.UUID]int{}
	if userID != nil && len(result.Items) > 0 {
		postIDs := make([]uuid.UUID, len(result.Items))
		for i, p := range result.Items {
			postIDs[i] = p.ID
		}
		votes, err = a.store.GetUserVotes(ctx, *userID, models.SubjectPost, postIDs)
		if err != nil {
			return nil, err
		}
	}

	items := make([]Item, len(result.Items))
	for i, p := range result.Items {
		item := Item{
			ID:           p.ID,
			Title:        p.Title,
			VoteCount:    p.VoteCount,
			CommentCount: p.CommentCount,
			CreatedAt:    p.CreatedAt,
			Author:       AuthorRef{ID: p.AuthorID, Username: p.AuthorName},
			UserVote:     votes[p.ID],
		}
		if p.BoardID != nil {
			item.Board = &BoardRef{ID: *p.BoardID, Name: p.BoardName}
		}
		items[i] = item
	}

	return &Page{
		Posts:      items,
		NextCursor: result.NextCursor,
		HasMore:    result.HasMore,
	}, nil
}
