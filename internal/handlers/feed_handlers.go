package handlers

import (
	"net/http"
	"strconv"

	"github.com/afnan9700/driftwood/internal/database"
	"github.com/afnan9700/driftwood/internal/middleware"
	"github.com/afnan9700/driftwood/internal/utils"
	"github.com/google/uuid"
)

// HandleFeed serves one page of the personalized feed. Logged-in
// users see posts from their joined boards, anonymous callers the
// global feed. Only newest-first ordering is supported; an explicit
// sort parameter other than "new" is rejected.
func (s *Server) HandleFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if sort := q.Get("sort"); sort != "" && sort != "new" {
			utils.WriteError(w, utils.NewInvalidInputError("unsupported sort: "+sort))
			return
		}

		page := database.PageRequest{}
		if raw := q.Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				utils.WriteError(w, utils.NewInvalidInputError("limit must be a positive integer"))
				return
			}
			page.Limit = limit
		}
		if token := q.Get("cursor"); token != "" {
			cursor, err := database.DecodeCursor(token)
			if err != nil {
				utils.WriteError(w, err)
				return
			}
			page.Cursor = &cursor
		}

		var userID *uuid.UUID
		if id, ok := middleware.UserIDFromContext(r.Context()); ok {
			userID = &id
		}

		result, err := s.Feed.Build(r.Context(), userID, page)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		if s.Metrics != nil {
			s.Metrics.ObserveFeedPage()
		}
		writeJSON(w, http.StatusOK, result)
	}
}
