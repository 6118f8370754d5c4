package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/afnan9700/driftwood/internal/middleware"
	"github.com/afnan9700/driftwood/internal/models"
	"github.com/afnan9700/driftwood/internal/utils"
	"github.com/google/uuid"
)

// CreatePostRequest represents a request to create a post
type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	BoardID string `json:"boardId"`
}

// VoteRequest carries the direction of a vote.
type VoteRequest struct {
	Value int `json:"value"`
}

// VoteResponse carries the subject's updated aggregate.
type VoteResponse struct {
	VoteCount int `json:"voteCount"`
}

// PostResponse is the API shape of a post.
type PostResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	AuthorID     string    `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	BoardID      *string   `json:"boardId"`
	BoardName    string    `json:"boardName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	VoteCount    int       `json:"voteCount"`
	CommentCount int       `json:"commentCount"`
	UserVote     int       `json:"userVote"`
}

func postToResponse(post *models.Post, userVote int) PostResponse {
	resp := PostResponse{
		ID:           post.ID.String(),
		Title:        post.Title,
		Content:      post.Content,
		AuthorID:     post.AuthorID.String(),
		AuthorName:   post.AuthorName,
		BoardName:    post.BoardName,
		CreatedAt:    post.CreatedAt,
		VoteCount:    post.VoteCount,
		CommentCount: post.CommentCount,
		UserVote:     userVote,
	}
	if post.BoardID != nil {
		id := post.BoardID.String()
		resp.BoardID = &id
	}
	return resp
}

// HandleCreatePost creates a post on a board the author has joined.
func (s *Server) HandleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		var req CreatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid request body"))
			return
		}
		req.Title = strings.TrimSpace(req.Title)
		if req.Title == "" {
			utils.WriteError(w, utils.NewInvalidInputError("title is required"))
			return
		}
		boardID, err := uuid.Parse(req.BoardID)
		if err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid board ID"))
			return
		}

		board, err := s.Store.GetBoard(r.Context(), boardID)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		if !board.IsMember(userID) {
			utils.WriteError(w, utils.NewAppError(utils.ErrForbidden, "join the board before posting", nil))
			return
		}

		user, err := s.Store.GetUser(r.Context(), userID)
		if err != nil {
			utils.WriteError(w, err)
			return
		}

		now := time.Now()
		post := &models.Post{
			ID:         uuid.New(),
			Title:      req.Title,
			Content:    req.Content,
			AuthorID:   user.ID,
			AuthorName: user.Username,
			BoardID:    &board.ID,
			BoardName:  board.Name,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.Store.SavePost(r.Context(), post); err != nil {
			utils.WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, postToResponse(post, 0))
	}
}

// HandleListPosts lists a single author's posts, newest first.
func (s *Server) HandleListPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorID, err := uuid.Parse(r.URL.Query().Get("author"))
		if err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("author query parameter is required"))
			return
		}

		posts, err := s.Store.GetPostsByAuthor(r.Context(), authorID)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		out := make([]PostResponse, len(posts))
		for i, p := range posts {
			out[i] = postToResponse(p, 0)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"posts": out})
	}
}

// HandleGetPost returns a single post, with the caller's own vote
// merged in when they are logged in.
func (s *Server) HandleGetPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := uuid.Parse(r.PathValue("postId"))
		if err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid post ID"))
			return
		}

		post, err := s.Store.GetPost(r.Context(), postID)
		if err != nil {
			utils.WriteError(w, err)
			return
		}

		userVote := 0
		if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
			votes, err := s.Store.GetUserVotes(r.Context(), userID, models.SubjectPost, []uuid.UUID{post.ID})
			if err != nil {
				utils.WriteError(w, err)
				return
			}
			userVote = votes[post.ID]
		}
		writeJSON(w, http.StatusOK, postToResponse(post, userVote))
	}
}

// HandlePostVote casts, flips, or retracts the caller's vote on a post.
func (s *Server) HandlePostVote() http.HandlerFunc {
	return s.handleVote("postId", models.SubjectPost)
}

// HandleCommentVote casts, flips, or retracts the caller's vote on a
// comment.
func (s *Server) HandleCommentVote() http.HandlerFunc {
	return s.handleVote("commentId", models.SubjectComment)
}

func (s *Server) handleVote(pathParam string, subjectType models.SubjectType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		subjectID, err := uuid.Parse(r.PathValue(pathParam))
		if err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid subject ID"))
			return
		}

		var req VoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid request body"))
			return
		}
		if !models.ValidVoteValue(req.Value) {
			utils.WriteError(w, utils.NewInvalidInputError("vote value must be 1 or -1"))
			return
		}

		start := time.Now()
		voteCount, err := s.Store.CastVote(r.Context(), subjectType, subjectID, userID, req.Value)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		if s.Metrics != nil {
			s.Metrics.ObserveVote(string(subjectType))
			s.Metrics.ObserveOperation("cast_vote", time.Since(start))
		}
		writeJSON(w, http.StatusOK, VoteResponse{VoteCount: voteCount})
	}
}
