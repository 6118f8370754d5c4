package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/afnan9700/driftwood/internal/database"
	"github.com/afnan9700/driftwood/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fixture struct {
	store     *database.MemoryStore
	assembler *Assembler
	user      *models.User
	board     *models.Board
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := database.NewMemoryStore()

	user := &models.User{ID: uuid.New(), Username: "reader", CreatedAt: time.Now()}
	if err := store.SaveUser(ctx, user); err != nil {
		t.Fatalf("saving user: %v", err)
	}
	board := &models.Board{ID: uuid.New(), Name: "general", CreatedBy: user.ID, CreatedAt: time.Now()}
	if err := store.CreateBoard(ctx, board); err != nil {
		t.Fatalf("creating board: %v", err)
	}
	return &fixture{store: store, assembler: NewAssembler(store), user: user, board: board}
}

func (f *fixture) addPost(t *testing.T, boardID uuid.UUID, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		ID:         uuid.New(),
		Title:      fmt.Sprintf("post at %s", createdAt),
		AuthorID:   uuid.New(),
		AuthorName: "someone",
		BoardID:    &boardID,
		BoardName:  "general",
		CreatedAt:  createdAt,
	}
	if err := f.store.SavePost(context.Background(), post); err != nil {
		t.Fatalf("saving post: %v", err)
	}
	return post
}

func TestFeedEmptyWithoutJoinedBoards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Posts exist, but the user joined nothing.
	f.addPost(t, f.board.ID, time.Now())

	page, err := f.assembler.Build(ctx, &f.user.ID, database.PageRequest{})
	assert.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
}

func TestFeedScopedToJoinedBoards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := &models.Board{ID: uuid.New(), Name: "elsewhere", CreatedBy: uuid.New(), CreatedAt: time.Now()}
	assert.NoError(t, f.store.CreateBoard(ctx, other))

	inFeed := f.addPost(t, f.board.ID, time.Now())
	f.addPost(t, other.ID, time.Now())

	assert.NoError(t, f.store.UpdateBoardMembership(ctx, f.board.ID, f.user.ID, true))

	page, err := f.assembler.Build(ctx, &f.user.ID, database.PageRequest{})
	assert.NoError(t, err)
	assert.Len(t, page.Posts, 1)
	assert.Equal(t, inFeed.ID, page.Posts[0].ID)
	assert.Equal(t, f.board.ID, page.Posts[0].Board.ID)
}

func TestFeedAnonymousSeesGlobalWithZeroUserVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	post := f.addPost(t, f.board.ID, time.Now())
	// Someone upvoted the post, but the anonymous caller did not.
	_, err := f.store.CastVote(ctx, models.SubjectPost, post.ID, uuid.New(), 1)
	assert.NoError(t, err)

	page, err := f.assembler.Build(ctx, nil, database.PageRequest{})
	assert.NoError(t, err)
	assert.Len(t, page.Posts, 1)
	assert.Equal(t, 1, page.Posts[0].VoteCount)
	assert.Equal(t, 0, page.Posts[0].UserVote)
}

func TestFeedMergesCallerVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.store.UpdateBoardMembership(ctx, f.board.ID, f.user.ID, true))

	voted := f.addPost(t, f.board.ID, time.Now())
	unvoted := f.addPost(t, f.board.ID, time.Now().Add(-time.Minute))

	_, err := f.store.CastVote(ctx, models.SubjectPost, voted.ID, f.user.ID, -1)
	assert.NoError(t, err)

	page, err := f.assembler.Build(ctx, &f.user.ID, database.PageRequest{})
	assert.NoError(t, err)
	assert.Len(t, page.Posts, 2)

	byID := map[uuid.UUID]Item{}
	for _, item := range page.Posts {
		byID[item.ID] = item
	}
	assert.Equal(t, -1, byID[voted.ID].UserVote)
	assert.Equal(t, 0, byID[unvoted.ID].UserVote)
}

func TestFeedWalkWithLimitTwoOverFivePosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.NoError(t, f.store.UpdateBoardMembership(ctx, f.board.ID, f.user.ID, true))

	base := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		f.addPost(t, f.board.ID, base.Add(time.Duration(i)*time.Minute))
	}

	var walk []uuid.UUID
	req := database.PageRequest{Limit: 2}

	// Page 1: two posts, more to come.
	page, err := f.assembler.Build(ctx, &f.user.ID, req)
	assert.NoError(t, err)
	assert.Len(t, page.Posts, 2)
	assert.True(t, page.HasMore)

	for page.HasMore {
		for _, item := range page.Posts {
			walk = append(walk, item.ID)
		}
		cursor, err := database.DecodeCursor(*page.NextCursor)
		assert.NoError(t, err)
		req.Cursor = &cursor
		page, err = f.assembler.Build(ctx, &f.user.ID, req)
		assert.NoError(t, err)
	}
	for _, item := range page.Posts {
		walk = append(walk, item.ID)
	}

	// 2 + 2 + 1, no gaps or duplicates.
	assert.Len(t, walk, 5)
	seen := map[uuid.UUID]bool{}
	for _, id := range walk {
		assert.False(t, seen[id])
		seen[id] = true
	}
}
