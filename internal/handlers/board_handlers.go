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

// allowedTags is the closed set of board topic tags.
var allowedTags = map[string]bool{
	"technology": true,
	"science":    true,
	"gaming":     true,
	"music":      true,
	"movies":     true,
	"sports":     true,
	"news":       true,
	"art":        true,
	"food":       true,
	"other":      true,
}

// CreateBoardRequest represents a request to create a board
type CreateBoardRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// EditBoardRequest carries a partial board update.
type EditBoardRequest struct {
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// PromoteModeratorRequest names the member to promote.
type PromoteModeratorRequest struct {
	UserID string `json:"userId"`
}

// BoardResponse is the API shape of a board.
type BoardResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	MemberCount int       `json:"memberCount"`
	Moderators  []string  `json:"moderators"`
	CreatedAt   time.Time `json:"createdAt"`
}

func boardToResponse(b *models.Board) BoardResponse {
	mods := make([]string, len(b.Moderators))
	for i, id := range b.Moderators {
		mods[i] = id.String()
	}
	return BoardResponse{
		ID:          b.ID.String(),
		Name:        b.Name,
		Description: b.Description,
		Tags:        b.Tags,
		MemberCount: len(b.Members),
		Moderators:  mods,
		CreatedAt:   b.CreatedAt,
	}
}

func validateTags(tags []string) error {
	for _, tag := range tags {
		if !allowedTags[strings.ToLower(tag)] {
			return utils.NewInvalidInputError("unknown tag: " + tag)
		}
	}
	return nil
}

// HandleCreateBoard creates a board. The creator becomes its first
// member and moderator.
func (s *Server) HandleCreateBoard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		var req CreateBoardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid request body"))
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if len(req.Name) < 3 || len(req.Name) > 50 {
			utils.WriteError(w, utils.NewInvalidInputError("board name must be between 3 and 50 characters"))
			return
		}
		if err := validateTags(req.Tags); err != nil {
			utils.WriteError(w, err)
			return
		}

		board := &models.Board{
			ID:          uuid.New(),
			Name:        req.Name,
			Description: req.Description,
			Tags:        req.Tags,
			Members:     []uuid.UUID{userID},
			Moderators:  []uuid.UUID{userID},
			CreatedBy:   userID,
			CreatedAt:   time.Now(),
		}
		if err := s.Store.CreateBoard(r.Context(), board); err != nil {
			utils.WriteError(w, err)
			return
		}
		// Keep the creator's joinedBoards in sync with membership.
		if err := s.Store.UpdateBoardMembership(r.Context(), board.ID, userID, true); err != nil {
			utils.WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, boardToResponse(board))
	}
}

// HandleGetBoard returns a single board.
func (s *Server) HandleGetBoard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := s.boardFromPath(r)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, boardToResponse(board))
	}
}

// HandleJoinBoard adds the caller to a board's members.
func (s *Server) HandleJoinBoard() http.HandlerFunc {
	return s.handleMembership(true)
}

// HandleLeaveBoard removes the caller from a board's members. A
// moderator must step down first.
func (s *Server) HandleLeaveBoard() http.HandlerFunc {
	return s.handleMembership(false)
}

func (s *Server) handleMembership(join bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())
		board, err := s.boardFromPath(r)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		if !join && board.IsModerator(userID) {
			utils.WriteError(w, utils.NewAppError(utils.ErrForbidden, "moderators must step down before leaving", nil))
			return
		}
		if err := s.Store.UpdateBoardMembership(r.Context(), board.ID, userID, join); err != nil {
			utils.WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}
}

// HandleEditBoard lets a moderator change the description or tags.
func (s *Server) HandleEditBoard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := s.moderatedBoardFromPath(r)
		if err != nil {
			utils.WriteError(w, err)
			return
		}

		var req EditBoardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid request body"))
			return
		}
		if req.Tags != nil {
			if err := validateTags(req.Tags); err != nil {
				utils.WriteError(w, err)
				return
			}
		}
		if err := s.Store.UpdateBoard(r.Context(), board.ID, req.Description, req.Tags); err != nil {
			utils.WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "board updated"})
	}
}

// HandlePromoteModerator lets a moderator promote another member.
func (s *Server) HandlePromoteModerator() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := s.moderatedBoardFromPath(r)
		if err != nil {
			utils.WriteError(w, err)
			return
		}

		var req PromoteModeratorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid request body"))
			return
		}
		targetID, err := uuid.Parse(req.UserID)
		if err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid user ID"))
			return
		}
		if !board.IsMember(targetID) {
			utils.WriteError(w, utils.NewInvalidInputError("user is not a member of this board"))
			return
		}
		if err := s.Store.UpdateBoardModerators(r.Context(), board.ID, targetID, true); err != nil {
			utils.WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "moderator added"})
	}
}

// HandleDemoteSelf lets a moderator step down, unless they are the
// board's last moderator.
func (s *Server) HandleDemoteSelf() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())
		board, err := s.moderatedBoardFromPath(r)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		if len(board.Moderators) == 1 {
			utils.WriteError(w, utils.NewAppError(utils.ErrForbidden, "cannot step down as the last moderator", nil))
			return
		}
		if err := s.Store.UpdateBoardModerators(r.Context(), board.ID, userID, false); err != nil {
			utils.WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "stepped down"})
	}
}

// HandleKickMember lets a moderator remove a non-moderator member.
func (s *Server) HandleKickMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := s.moderatedBoardFromPath(r)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		memberID, err := uuid.Parse(r.PathValue("memberId"))
		if err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid member ID"))
			return
		}
		if board.IsModerator(memberID) {
			utils.WriteError(w, utils.NewAppError(utils.ErrForbidden, "cannot kick a moderator", nil))
			return
		}
		if !board.IsMember(memberID) {
			utils.WriteError(w, utils.NewNotFoundError("member"))
			return
		}
		if err := s.Store.UpdateBoardMembership(r.Context(), board.ID, memberID, false); err != nil {
			utils.WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "member removed"})
	}
}

// HandleDeleteBoard lets a moderator soft-delete the board. Its posts
// stay stored but drop out of every feed and lookup.
func (s *Server) HandleDeleteBoard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := s.moderatedBoardFromPath(r)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		if err := s.Store.SoftDeleteBoard(r.Context(), board.ID); err != nil {
			utils.WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "board deleted"})
	}
}

// HandleUserBoards lists the boards a user has joined.
func (s *Server) HandleUserBoards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("userId"))
		if err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid user ID"))
			return
		}
		boardIDs, err := s.Store.GetJoinedBoardIDs(r.Context(), userID)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		boards, err := s.Store.GetBoardsByIDs(r.Context(), boardIDs)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		out := make([]BoardResponse, len(boards))
		for i, b := range boards {
			out[i] = boardToResponse(b)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"boards": out})
	}
}

func (s *Server) boardFromPath(r *http.Request) (*models.Board, error) {
	boardID, err := uuid.Parse(r.PathValue("boardId"))
	if err != nil {
		return nil, utils.NewInvalidInputError("invalid board ID")
	}
	return s.Store.GetBoard(r.Context(), boardID)
}

// moderatedBoardFromPath resolves the board and checks the caller
// moderates it.
func (s *Server) moderatedBoardFromPath(r *http.Request) (*models.Board, error) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	board, err := s.boardFromPath(r)
	if err != nil {
		return nil, err
	}
	if !board.IsModerator(userID) {
		return nil, utils.NewAppError(utils.ErrForbidden, "moderator access required", nil)
	}
	return board, nil
}
