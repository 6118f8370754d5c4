// internal/database/memory.go
package database

import (
	"context"
	"sort"
	"sync"

	"github.com/afnan9700/driftwood/internal/models"
	"github.com/afnan9700/driftwood/internal/utils"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for development and tests. It
// mirrors the MongoDB adapter's semantics, including the vote toggle
// rules and the compound cursor ordering, under a single mutex.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*models.User
	boards   map[uuid.UUID]*models.Board
	posts    map[uuid.UUID]*models.Post
	comments map[uuid.UUID]*models.Comment
	votes    map[voteKey]*models.VoteRecord
}

type voteKey struct {
	subjectType models.SubjectType
	subjectID   uuid.UUID
	voterID     uuid.UUID
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]*models.User),
		boards:   make(map[uuid.UUID]*models.Board),
		posts:    make(map[uuid.UUID]*models.Post),
		comments: make(map[uuid.UUID]*models.Comment),
		votes:    make(map[voteKey]*models.VoteRecord),
	}
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// User methods

func (s *MemoryStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username && !u.Deleted {
			return utils.NewAppError(utils.ErrDuplicate, "username already taken", nil)
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok || u.Deleted {
		return nil, utils.NewNotFoundError("user")
	}
	return copyUser(u), nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username && !u.Deleted {
			return copyUser(u), nil
		}
	}
	return nil, utils.NewNotFoundError("user")
}

func (s *MemoryStore) AnonymizeUser(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Deleted {
		return utils.NewNotFoundError("user")
	}
	u.Username = models.AnonymizedUsername + ":" + id.String()
	u.HashedPassword = ""
	u.Deleted = true
	for _, p := range s.posts {
		if p.AuthorID == id {
			p.AuthorName = models.AnonymizedUsername
		}
	}
	for _, c := range s.comments {
		if c.AuthorID == id {
			c.AuthorName = models.AnonymizedUsername
		}
	}
	for _, b := range s.boards {
		b.Members = removeUUID(b.Members, id)
		b.Moderators = removeUUID(b.Moderators, id)
	}
	return nil
}

func (s *MemoryStore) GetJoinedBoardIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.JoinedBoards, nil
}

// Board methods

func (s *MemoryStore) CreateBoard(ctx context.Context, board *models.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.boards {
		if b.Name == board.Name && !b.Deleted {
			return utils.NewAppError(utils.ErrDuplicate, "board name already taken", nil)
		}
	}
	cp := *board
	s.boards[board.ID] = &cp
	return nil
}

func (s *MemoryStore) GetBoard(ctx context.Context, id uuid.UUID) (*models.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boards[id]
	if !ok || b.Deleted {
		return nil, utils.NewNotFoundError("board")
	}
	return copyBoard(b), nil
}

func (s *MemoryStore) GetBoardByName(ctx context.Context, name string) (*models.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.boards {
		if b.Name == name && !b.Deleted {
			return copyBoard(b), nil
		}
	}
	return nil, utils.NewNotFoundError("board")
}

func (s *MemoryStore) GetBoardsByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var boards []*models.Board
	for _, id := range ids {
		if b, ok := s.boards[id]; ok && !b.Deleted {
			boards = append(boards, copyBoard(b))
		}
	}
	return boards, nil
}

func (s *MemoryStore) GetBoardsModeratedBy(ctx context.Context, userID uuid.UUID) ([]*models.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var boards []*models.Board
	for _, b := range s.boards {
		if !b.Deleted && b.IsModerator(userID) {
			boards = append(boards, copyBoard(b))
		}
	}
	return boards, nil
}

func (s *MemoryStore) UpdateBoardMembership(ctx context.Context, boardID, userID uuid.UUID, join bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardID]
	if !ok || b.Deleted {
		return utils.NewNotFoundError("board")
	}
	if join {
		b.Members = appendUnique(b.Members, userID)
		if u, ok := s.users[userID]; ok {
			u.JoinedBoards = appendUnique(u.JoinedBoards, boardID)
		}
	} else {
		b.Members = removeUUID(b.Members, userID)
		if u, ok := s.users[userID]; ok {
			u.JoinedBoards = removeUUID(u.JoinedBoards, boardID)
		}
	}
	return nil
}

func (s *MemoryStore) UpdateBoard(ctx context.Context, boardID uuid.UUID, description *string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardID]
	if !ok || b.Deleted {
		return utils.NewNotFoundError("board")
	}
	if description != nil {
		b.Description = *description
	}
	if tags != nil {
		b.Tags = tags
	}
	return nil
}

func (s *MemoryStore) UpdateBoardModerators(ctx context.Context, boardID, userID uuid.UUID, promote bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardID]
	if !ok || b.Deleted {
		return utils.NewNotFoundError("board")
	}
	if promote {
		b.Moderators = appendUnique(b.Moderators, userID)
	} else {
		b.Moderators = removeUUID(b.Moderators, userID)
	}
	return nil
}

func (s *MemoryStore) SoftDeleteBoard(ctx context.Context, boardID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[boardID]
	if !ok || b.Deleted {
		return utils.NewNotFoundError("board")
	}
	b.Deleted = true
	for _, u := range s.users {
		u.JoinedBoards = removeUUID(u.JoinedBoards, boardID)
	}
	for _, p := range s.posts {
		if p.BoardID != nil && *p.BoardID == boardID {
			p.Deleted = true
		}
	}
	return nil
}

// Post methods

func (s *MemoryStore) SavePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *post
	s.posts[post.ID] = &cp
	return nil
}

func (s *MemoryStore) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok || p.Deleted {
		return nil, utils.NewNotFoundError("post")
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) GetPostsByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var posts []*models.Post
	for _, p := range s.posts {
		if p.AuthorID == authorID && !p.Deleted {
			cp := *p
			posts = append(posts, &cp)
		}
	}
	sortPostsNewestFirst(posts)
	return posts, nil
}

func (s *MemoryStore) PaginatePosts(ctx context.Context, filter PostFilter, page PageRequest) (*PostPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed := map[uuid.UUID]bool{}
	if filter.BoardIDs != nil {
		for _, id := range filter.BoardIDs {
			allowed[id] = true
		}
	}

	var matched []*models.Post
	for _, p := range s.posts {
		if p.Deleted {
			continue
		}
		if filter.BoardIDs != nil {
			if p.BoardID == nil || !allowed[*p.BoardID] {
				continue
			}
		}
		if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
			continue
		}
		if page.Cursor != nil && !postAfterCursor(p, *page.Cursor) {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}

	sortPostsNewestFirst(matched)

	limit := page.EffectiveLimit()
	if len(matched) > limit+1 {
		matched = matched[:limit+1]
	}
	return buildPostPage(matched, limit), nil
}

func sortPostsNewestFirst(posts []*models.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID.String() > posts[j].ID.String()
	})
}

// Comment methods

func (s *MemoryStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[comment.PostID]
	if !ok || p.Deleted {
		return utils.NewNotFoundError("post")
	}
	p.CommentCount++
	cp := *comment
	s.comments[comment.ID] = &cp
	return nil
}

func (s *MemoryStore) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok || c.Deleted {
		return nil, utils.NewNotFoundError("comment")
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var comments []*models.Comment
	for _, c := range s.comments {
		if c.PostID == postID && c.ParentID == nil && !c.Deleted {
			cp := *c
			comments = append(comments, &cp)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	return comments, nil
}

func (s *MemoryStore) GetCommentReplies(ctx context.Context, commentID uuid.UUID) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var replies []*models.Comment
	for _, c := range s.comments {
		if c.ParentID != nil && *c.ParentID == commentID && !c.Deleted {
			cp := *c
			replies = append(replies, &cp)
		}
	}
	sort.Slice(replies, func(i, j int) bool {
		return replies[i].CreatedAt.Before(replies[j].CreatedAt)
	})
	return replies, nil
}

// Vote methods

func (s *MemoryStore) CastVote(ctx context.Context, subjectType models.SubjectType, subjectID, voterID uuid.UUID, value int) (int, error) {
	if !models.ValidVoteValue(value) {
		return 0, utils.NewInvalidInputError("vote value must be 1 or -1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var count *int
	switch subjectType {
	case models.SubjectPost:
		p, ok := s.posts[subjectID]
		if !ok || p.Deleted {
			return 0, utils.NewNotFoundError("post")
		}
		count = &p.VoteCount
	case models.SubjectComment:
		c, ok := s.comments[subjectID]
		if !ok || c.Deleted {
			return 0, utils.NewNotFoundError("comment")
		}
		count = &c.VoteCount
	default:
		return 0, utils.NewInvalidInputError("unknown subject type")
	}

	key := voteKey{subjectType: subjectType, subjectID: subjectID, voterID: voterID}
	existing, ok := s.votes[key]
	switch {
	case !ok:
		s.votes[key] = &models.VoteRecord{
			ID:          uuid.New(),
			SubjectType: subjectType,
			SubjectID:   subjectID,
			VoterID:     voterID,
			Value:       value,
		}
		*count += value
	case existing.Value == value:
		delete(s.votes, key)
		*count -= value
	default:
		existing.Value = value
		*count += 2 * value
	}
	return *count, nil
}

func (s *MemoryStore) GetUserVotes(ctx context.Context, voterID uuid.UUID, subjectType models.SubjectType, subjectIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	votes := make(map[uuid.UUID]int, len(subjectIDs))
	for _, id := range subjectIDs {
		if v, ok := s.votes[voteKey{subjectType: subjectType, subjectID: id, voterID: voterID}]; ok {
			votes[id] = v.Value
		}
	}
	return votes, nil
}

// copyUser and copyBoard clone the slice fields too, so a returned
// snapshot cannot see later in-place membership edits.
func copyUser(u *models.User) *models.User {
	cp := *u
	cp.JoinedBoards = append([]uuid.UUID(nil), u.JoinedBoards...)
	return &cp
}

func copyBoard(b *models.Board) *models.Board {
	cp := *b
	cp.Tags = append([]string(nil), b.Tags...)
	cp.Members = append([]uuid.UUID(nil), b.Members...)
	cp.Moderators = append([]uuid.UUID(nil), b.Moderators...)
	return &cp
}

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeUUID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
