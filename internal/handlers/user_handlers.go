package handlers

import (
	"net/http"

	"github.com/afnan9700/driftwood/internal/middleware"
	"github.com/afnan9700/driftwood/internal/utils"
)

// HandleDeleteAccount retires the caller's account. The account is
// anonymized rather than removed so threads stay intact. A user who is
// the last moderator of any board must hand the board off or delete it
// first.
func (s *Server) HandleDeleteAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserIDFromContext(r.Context())

		moderated, err := s.Store.GetBoardsModeratedBy(r.Context(), userID)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		for _, board := range moderated {
			if len(board.Moderators) == 1 {
				utils.WriteError(w, utils.NewAppError(utils.ErrForbidden,
					"you are the last moderator of "+board.Name+", transfer or delete it first", nil))
				return
			}
		}

		if err := s.Store.AnonymizeUser(r.Context(), userID); err != nil {
			utils.WriteError(w, err)
			return
		}

		// The session is gone with the account.
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.TokenCookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		})
		writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
	}
}
