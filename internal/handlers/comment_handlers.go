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

// CreateCommentRequest represents a request to comment on a post,
// optionally as a reply to another comment.
type CreateCommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parentId,omitempty"`
}

// CommentResponse is the API shape of a comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	ParentID   *string   `json:"parentId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	VoteCount  int       `json:"voteCount"`
	UserVote   int       `json:"userVote"`
}

func commentToResponse(c *models.Comment, userVote int) CommentResponse {
	resp := CommentResponse{
		ID:         c.ID.String(),
		PostID:     c.PostID.String(),
		AuthorID:   c.AuthorID.String(),
		AuthorName: c.AuthorName,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
		VoteCount:  c.VoteCount,
		UserVote:   userVote,
	}
	if c.ParentID != nil {
		id := c.ParentID.String()
		resp.ParentID = &id
	}
	return resp
}

// HandleCreateComment adds a comment to a post. When parentId is set
// the comment becomes a reply, and the parent must belong to the same
// post.
func (s *Server) HandleCreateComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		postID, err := uuid.Parse(r.PathValue("postId"))
		if err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid post ID"))
			return
		}

		var req CreateCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid request body"))
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			utils.WriteError(w, utils.NewInvalidInputError("content is required"))
			return
		}

		post, err := s.Store.GetPost(r.Context(), postID)
		if err != nil {
			utils.WriteError(w, err)
			return
		}

		var parentID *uuid.UUID
		if req.ParentID != nil {
			pid, err := uuid.Parse(*req.ParentID)
			if err != nil {
				utils.WriteError(w, utils.NewInvalidInputError("invalid parent comment ID"))
				return
			}
			parent, err := s.Store.GetComment(r.Context(), pid)
			if err != nil {
				utils.WriteError(w, err)
				return
			}
			if parent.PostID != post.ID {
				utils.WriteError(w, utils.NewInvalidInputError("parent comment belongs to a different post"))
				return
			}
			parentID = &pid
		}

		user, err := s.Store.GetUser(r.Context(), userID)
		if err != nil {
			utils.WriteError(w, err)
			return
		}

		now := time.Now()
		comment := &models.Comment{
			ID:         uuid.New(),
			PostID:     post.ID,
			PostTitle:  post.Title,
			ParentID:   parentID,
			AuthorID:   user.ID,
			AuthorName: user.Username,
			Content:    req.Content,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.Store.CreateComment(r.Context(), comment); err != nil {
			utils.WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, commentToResponse(comment, 0))
	}
}

// HandleGetPostComments lists a post's top-level comments, newest
// first, with the caller's votes merged in when logged in.
func (s *Server) HandleGetPostComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := uuid.Parse(r.PathValue("postId"))
		if err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid post ID"))
			return
		}
		if _, err := s.Store.GetPost(r.Context(), postID); err != nil {
			utils.WriteError(w, err)
			return
		}

		comments, err := s.Store.GetPostComments(r.Context(), postID)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		s.writeComments(w, r, comments)
	}
}

// HandleGetCommentReplies lists a comment's direct replies, oldest
// first.
func (s *Server) HandleGetCommentReplies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID, err := uuid.Parse(r.PathValue("commentId"))
		if err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid comment ID"))
			return
		}
		if _, err := s.Store.GetComment(r.Context(), commentID); err != nil {
			utils.WriteError(w, err)
			return
		}

		replies, err := s.Store.GetCommentReplies(r.Context(), commentID)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		s.writeComments(w, r, replies)
	}
}

func (s *Server) writeComments(w http.ResponseWriter, r *http.Request, comments []*models.Comment) {
	votes := map[uuid.UUID]int{}
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok && len(comments) > 0 {
		ids := make([]uuid.UUID, len(comments))
		for i, c := range comments {
			ids[i] = c.ID
		}
		var err error
		votes, err = s.Store.GetUserVotes(r.Context(), userID, models.SubjectComment, ids)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
	}

	out := make([]CommentResponse, len(comments))
	for i, c := range comments {
		out[i] = commentToResponse(c, votes[c.ID])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"comments": out})
}
