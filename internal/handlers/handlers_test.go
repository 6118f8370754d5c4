package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/afnan9700/driftwood/internal/database"
	"github.com/afnan9700/driftwood/internal/logging"
	"github.com/afnan9700/driftwood/internal/middleware"
	"github.com/stretchr/testify/assert"
)

type testHarness struct {
	t   *testing.T
	mux *http.ServeMux
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	store := database.NewMemoryStore()
	tokens := middleware.NewTokenManager("test-secret", time.Hour)
	server := NewServer(store, tokens, nil, logging.NewLogger(false))

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	return &testHarness{t: t, mux: mux}
}

// do sends a JSON request through the mux and decodes the response
// body into out when non-nil.
func (h *testHarness) do(method, path, token string, body interface{}, out interface{}) int {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			h.t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
	return rec.Code
}

func (h *testHarness) register(username string) AuthResponse {
	h.t.Helper()
	var resp AuthResponse
	code := h.do(http.MethodPost, "/api/auth/register", "",
		map[string]string{"username": username, "password": "password123"}, &resp)
	if code != http.StatusCreated {
		h.t.Fatalf("registering %s returned %d", username, code)
	}
	return resp
}

// createBoardAndPost sets up a board owned by the user and one post in
// it, returning both IDs.
func (h *testHarness) createBoardAndPost(user AuthResponse, boardName string) (string, string) {
	h.t.Helper()
	var board struct {
		ID string `json:"id"`
	}
	code := h.do(http.MethodPost, "/api/boards", user.Token,
		map[string]interface{}{"name": boardName, "description": "d", "tags": []string{"other"}}, &board)
	if code != http.StatusCreated {
		h.t.Fatalf("creating board returned %d", code)
	}
	var post struct {
		ID string `json:"id"`
	}
	code = h.do(http.MethodPost, "/api/posts", user.Token,
		map[string]string{"title": "hello", "content": "world", "boardId": board.ID}, &post)
	if code != http.StatusCreated {
		h.t.Fatalf("creating post returned %d", code)
	}
	return board.ID, post.ID
}

func TestRegisterLoginFlow(t *testing.T) {
	h := newTestHarness(t)

	reg := h.register("alice")
	assert.NotEmpty(t, reg.UserID)
	assert.NotEmpty(t, reg.Token)

	// Duplicate username.
	code := h.do(http.MethodPost, "/api/auth/register", "",
		map[string]string{"username": "alice", "password": "password123"}, nil)
	assert.Equal(t, http.StatusConflict, code)

	// Short password.
	code = h.do(http.MethodPost, "/api/auth/register", "",
		map[string]string{"username": "bob", "password": "short"}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// Correct login.
	var login AuthResponse
	code = h.do(http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "alice", "password": "password123"}, &login)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, reg.UserID, login.UserID)

	// Wrong password and unknown user get the same answer.
	code = h.do(http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "alice", "password": "wrongpass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code = h.do(http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "nobody", "password": "password123"}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestVoteLifecycleOverHTTP(t *testing.T) {
	h := newTestHarness(t)
	alice := h.register("alice")
	bob := h.register("bob")
	_, postID := h.createBoardAndPost(alice, "general")

	votePath := fmt.Sprintf("/api/posts/%s/vote", postID)

	// Unauthenticated votes are rejected.
	code := h.do(http.MethodPost, votePath, "", map[string]int{"value": 1}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	// Bob upvotes.
	var vote VoteResponse
	code = h.do(http.MethodPost, votePath, bob.Token, map[string]int{"value": 1}, &vote)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, vote.VoteCount)

	// Alice downvotes, aggregate nets out.
	code = h.do(http.MethodPost, votePath, alice.Token, map[string]int{"value": -1}, &vote)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, vote.VoteCount)

	// Bob repeats his upvote, which retracts it.
	code = h.do(http.MethodPost, votePath, bob.Token, map[string]int{"value": 1}, &vote)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, -1, vote.VoteCount)

	// Alice flips to an upvote, moving two steps.
	code = h.do(http.MethodPost, votePath, alice.Token, map[string]int{"value": 1}, &vote)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, vote.VoteCount)

	// The post reflects the caller's own vote.
	var post PostResponse
	code = h.do(http.MethodGet, "/api/posts/"+postID, alice.Token, nil, &post)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, post.VoteCount)
	assert.Equal(t, 1, post.UserVote)
}

func TestVoteValidationErrors(t *testing.T) {
	h := newTestHarness(t)
	alice := h.register("alice")
	_, postID := h.createBoardAndPost(alice, "general")

	// Out-of-range value.
	code := h.do(http.MethodPost, fmt.Sprintf("/api/posts/%s/vote", postID),
		alice.Token, map[string]int{"value": 5}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// Unknown subject.
	code = h.do(http.MethodPost, "/api/posts/5b0e7f3a-93a2-4a60-8e57-1cfd2f4e0f11/vote",
		alice.Token, map[string]int{"value": 1}, nil)
	assert.Equal(t, http.StatusNotFound, code)

	// Unparseable subject ID.
	code = h.do(http.MethodPost, "/api/posts/not-a-uuid/vote",
		alice.Token, map[string]int{"value": 1}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestFeedPaginationOverHTTP(t *testing.T) {
	h := newTestHarness(t)
	alice := h.register("alice")

	var board struct {
		ID string `json:"id"`
	}
	code := h.do(http.MethodPost, "/api/boards", alice.Token,
		map[string]interface{}{"name": "general", "tags": []string{"news"}}, &board)
	assert.Equal(t, http.StatusCreated, code)

	for i := 0; i < 5; i++ {
		code = h.do(http.MethodPost, "/api/posts", alice.Token,
			map[string]string{"title": fmt.Sprintf("post %d", i), "content": "c", "boardId": board.ID}, nil)
		assert.Equal(t, http.StatusCreated, code)
	}

	seen := map[string]bool{}
	path := "/api/feed?limit=2"
	pages := 0
	for {
		var page struct {
			Posts []struct {
				ID       string `json:"id"`
				UserVote int    `json:"userVote"`
			} `json:"posts"`
			NextCursor *string `json:"nextCursor"`
			HasMore    bool    `json:"hasMore"`
		}
		code = h.do(http.MethodGet, path, alice.Token, nil, &page)
		assert.Equal(t, http.StatusOK, code)
		for _, p := range page.Posts {
			assert.False(t, seen[p.ID], "post %s seen twice", p.ID)
			seen[p.ID] = true
		}
		pages++
		if !page.HasMore {
			assert.Nil(t, page.NextCursor)
			break
		}
		if page.NextCursor == nil {
			t.Fatal("hasMore without nextCursor")
		}
		path = "/api/feed?limit=2&cursor=" + *page.NextCursor
	}
	assert.Equal(t, 5, len(seen))
	assert.Equal(t, 3, pages)
}

func TestFeedRejectsBadParameters(t *testing.T) {
	h := newTestHarness(t)

	code := h.do(http.MethodGet, "/api/feed?cursor=!!!not-a-cursor", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code = h.do(http.MethodGet, "/api/feed?limit=abc", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code = h.do(http.MethodGet, "/api/feed?sort=top", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestFeedAnonymousAndEmpty(t *testing.T) {
	h := newTestHarness(t)
	alice := h.register("alice")
	carol := h.register("carol")
	h.createBoardAndPost(alice, "general")

	// Anonymous callers get the global feed with userVote pinned to 0.
	var page struct {
		Posts []struct {
			UserVote int `json:"userVote"`
		} `json:"posts"`
	}
	code := h.do(http.MethodGet, "/api/feed", "", nil, &page)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, page.Posts, 1)
	assert.Equal(t, 0, page.Posts[0].UserVote)

	// Carol joined nothing, so her feed is empty despite existing posts.
	var carolPage struct {
		Posts   []interface{} `json:"posts"`
		HasMore bool          `json:"hasMore"`
	}
	code = h.do(http.MethodGet, "/api/feed", carol.Token, nil, &carolPage)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, carolPage.Posts)
	assert.False(t, carolPage.HasMore)
}

func TestListPostsByAuthor(t *testing.T) {
	h := newTestHarness(t)
	alice := h.register("alice")
	bob := h.register("bob")
	boardID, postID := h.createBoardAndPost(alice, "general")

	code := h.do(http.MethodPost, "/api/boards/"+boardID+"/join", bob.Token, map[string]string{}, nil)
	assert.Equal(t, http.StatusOK, code)
	code = h.do(http.MethodPost, "/api/posts", bob.Token,
		map[string]string{"title": "bob's", "content": "c", "boardId": boardID}, nil)
	assert.Equal(t, http.StatusCreated, code)

	var listing struct {
		Posts []PostResponse `json:"posts"`
	}
	code = h.do(http.MethodGet, "/api/posts?author="+alice.UserID, "", nil, &listing)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, listing.Posts, 1)
	assert.Equal(t, postID, listing.Posts[0].ID)

	// Missing author parameter.
	code = h.do(http.MethodGet, "/api/posts", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCommentsAndReplies(t *testing.T) {
	h := newTestHarness(t)
	alice := h.register("alice")
	_, postID := h.createBoardAndPost(alice, "general")

	commentsPath := fmt.Sprintf("/api/posts/%s/comments", postID)

	var comment CommentResponse
	code := h.do(http.MethodPost, commentsPath, alice.Token,
		map[string]string{"content": "first"}, &comment)
	assert.Equal(t, http.StatusCreated, code)

	var reply CommentResponse
	code = h.do(http.MethodPost, commentsPath, alice.Token,
		map[string]interface{}{"content": "a reply", "parentId": comment.ID}, &reply)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, comment.ID, *reply.ParentID)

	// Only top-level comments in the post listing.
	var listing struct {
		Comments []CommentResponse `json:"comments"`
	}
	code = h.do(http.MethodGet, commentsPath, "", nil, &listing)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, listing.Comments, 1)
	assert.Equal(t, comment.ID, listing.Comments[0].ID)

	// The reply shows up under its parent.
	code = h.do(http.MethodGet, fmt.Sprintf("/api/comments/%s/replies", comment.ID), "", nil, &listing)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, listing.Comments, 1)
	assert.Equal(t, reply.ID, listing.Comments[0].ID)

	// Commenting bumped the post's commentCount.
	var post PostResponse
	code = h.do(http.MethodGet, "/api/posts/"+postID, "", nil, &post)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, post.CommentCount)

	// A reply whose parent lives on another post is rejected.
	_, otherPost := h.createBoardAndPost(alice, "second")
	code = h.do(http.MethodPost, fmt.Sprintf("/api/posts/%s/comments", otherPost), alice.Token,
		map[string]interface{}{"content": "cross-post reply", "parentId": comment.ID}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// Comment votes work the same way post votes do.
	var vote VoteResponse
	code = h.do(http.MethodPost, fmt.Sprintf("/api/comments/%s/vote", comment.ID),
		alice.Token, map[string]int{"value": 1}, &vote)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, vote.VoteCount)
}

func TestBoardModeration(t *testing.T) {
	h := newTestHarness(t)
	alice := h.register("alice")
	bob := h.register("bob")
	boardID, _ := h.createBoardAndPost(alice, "general")

	// Bob is not a moderator, so edits are forbidden.
	code := h.do(http.MethodPatch, "/api/boards/"+boardID, bob.Token,
		map[string]string{"description": "hijacked"}, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// Bob cannot post before joining.
	code = h.do(http.MethodPost, "/api/posts", bob.Token,
		map[string]string{"title": "t", "content": "c", "boardId": boardID}, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code = h.do(http.MethodPost, "/api/boards/"+boardID+"/join", bob.Token, map[string]string{}, nil)
	assert.Equal(t, http.StatusOK, code)
	code = h.do(http.MethodPost, "/api/posts", bob.Token,
		map[string]string{"title": "t", "content": "c", "boardId": boardID}, nil)
	assert.Equal(t, http.StatusCreated, code)

	// Alice is the only moderator, so she cannot step down.
	code = h.do(http.MethodDelete, "/api/boards/"+boardID+"/moderators/me", alice.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// Alice cannot leave while still a moderator.
	code = h.do(http.MethodPost, "/api/boards/"+boardID+"/leave", alice.Token, map[string]string{}, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// Promote bob, then alice can step down.
	code = h.do(http.MethodPost, "/api/boards/"+boardID+"/moderators", alice.Token,
		map[string]string{"userId": bob.UserID}, nil)
	assert.Equal(t, http.StatusOK, code)
	code = h.do(http.MethodDelete, "/api/boards/"+boardID+"/moderators/me", alice.Token, nil, nil)
	assert.Equal(t, http.StatusOK, code)

	// Bob, now sole moderator, cannot kick another moderator but can
	// kick plain members.
	code = h.do(http.MethodDelete, "/api/boards/"+boardID+"/members/"+bob.UserID, bob.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code = h.do(http.MethodDelete, "/api/boards/"+boardID+"/members/"+alice.UserID, bob.Token, nil, nil)
	assert.Equal(t, http.StatusOK, code)

	// Kicked members disappear from the board's listing.
	var boards struct {
		Boards []BoardResponse `json:"boards"`
	}
	code = h.do(http.MethodGet, "/api/users/"+alice.UserID+"/boards", "", nil, &boards)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, boards.Boards)

	// Soft delete hides the board.
	code = h.do(http.MethodDelete, "/api/boards/"+boardID, bob.Token, nil, nil)
	assert.Equal(t, http.StatusOK, code)
	code = h.do(http.MethodGet, "/api/boards/"+boardID, "", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeletedBoardLeavesFeeds(t *testing.T) {
	h := newTestHarness(t)
	alice := h.register("alice")
	boardID, postID := h.createBoardAndPost(alice, "general")

	var page struct {
		Posts []interface{} `json:"posts"`
	}
	code := h.do(http.MethodGet, "/api/feed", alice.Token, nil, &page)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, page.Posts, 1)

	code = h.do(http.MethodDelete, "/api/boards/"+boardID, alice.Token, nil, nil)
	assert.Equal(t, http.StatusOK, code)

	// The board's posts are gone from the member's feed, the global
	// feed, and direct lookup.
	code = h.do(http.MethodGet, "/api/feed", alice.Token, nil, &page)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, page.Posts)
	code = h.do(http.MethodGet, "/api/feed", "", nil, &page)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, page.Posts)
	code = h.do(http.MethodGet, "/api/posts/"+postID, "", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)

	// The membership link went with the board.
	var boards struct {
		Boards []BoardResponse `json:"boards"`
	}
	code = h.do(http.MethodGet, "/api/users/"+alice.UserID+"/boards", "", nil, &boards)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, boards.Boards)
}

func TestDeleteAccount(t *testing.T) {
	h := newTestHarness(t)
	alice := h.register("alice")
	bob := h.register("bob")
	boardID, postID := h.createBoardAndPost(alice, "general")

	// Alice is sole moderator of a board, so deletion is refused.
	code := h.do(http.MethodDelete, "/api/users/me", alice.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// Hand the board to bob first.
	code = h.do(http.MethodPost, "/api/boards/"+boardID+"/join", bob.Token, map[string]string{}, nil)
	assert.Equal(t, http.StatusOK, code)
	code = h.do(http.MethodPost, "/api/boards/"+boardID+"/moderators", alice.Token,
		map[string]string{"userId": bob.UserID}, nil)
	assert.Equal(t, http.StatusOK, code)
	code = h.do(http.MethodDelete, "/api/boards/"+boardID+"/moderators/me", alice.Token, nil, nil)
	assert.Equal(t, http.StatusOK, code)

	code = h.do(http.MethodDelete, "/api/users/me", alice.Token, nil, nil)
	assert.Equal(t, http.StatusOK, code)

	// Her posts stay, anonymized.
	var post PostResponse
	code = h.do(http.MethodGet, "/api/posts/"+postID, "", nil, &post)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "<deleted>", post.AuthorName)

	// The login is gone.
	code = h.do(http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "alice", "password": "password123"}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	// The retired account dropped off the board's rolls, so it cannot
	// be promoted back to moderator.
	var board BoardResponse
	code = h.do(http.MethodGet, "/api/boards/"+boardID, "", nil, &board)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, board.MemberCount)
	code = h.do(http.MethodPost, "/api/boards/"+boardID+"/moderators", bob.Token,
		map[string]string{"userId": alice.UserID}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
