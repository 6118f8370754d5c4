package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/afnan9700/driftwood/internal/database"
	"github.com/afnan9700/driftwood/internal/feed"
	"github.com/afnan9700/driftwood/internal/middleware"
	"github.com/afnan9700/driftwood/internal/utils"
)

// Server holds all HTTP handler dependencies.
type Server struct {
	Store   database.Store
	Feed    *feed.Assembler
	Tokens  *middleware.TokenManager
	Metrics *utils.MetricsCollector
	Logger  *slog.Logger
}

// NewServer creates a new Server instance with the given components.
// Metrics may be nil when disabled.
func NewServer(store database.Store, tokens *middleware.TokenManager, metrics *utils.MetricsCollector, logger *slog.Logger) *Server {
	return &Server{
		Store:   store,
		Feed:    feed.NewAssembler(store),
		Tokens:  tokens,
		Metrics: metrics,
		Logger:  logger,
	}
}

// RegisterRoutes wires every API route onto the mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := s.Tokens.RequireAuth
	optionalAuth := s.Tokens.OptionalAuth

	mux.HandleFunc("GET /healthz", s.HandleHealth())

	mux.HandleFunc("POST /api/auth/register", s.HandleRegister())
	mux.HandleFunc("POST /api/auth/login", s.HandleLogin())
	mux.HandleFunc("POST /api/auth/logout", s.HandleLogout())

	mux.Handle("GET /api/feed", optionalAuth(s.HandleFeed()))

	mux.Handle("POST /api/posts", requireAuth(s.HandleCreatePost()))
	mux.HandleFunc("GET /api/posts", s.HandleListPosts())
	mux.Handle("GET /api/posts/{postId}", optionalAuth(s.HandleGetPost()))
	mux.Handle("POST /api/posts/{postId}/vote", requireAuth(s.HandlePostVote()))
	mux.Handle("POST /api/posts/{postId}/comments", requireAuth(s.HandleCreateComment()))
	mux.Handle("GET /api/posts/{postId}/comments", optionalAuth(s.HandleGetPostComments()))

	mux.Handle("GET /api/comments/{commentId}/replies", optionalAuth(s.HandleGetCommentReplies()))
	mux.Handle("POST /api/comments/{commentId}/vote", requireAuth(s.HandleCommentVote()))

	mux.Handle("POST /api/boards", requireAuth(s.HandleCreateBoard()))
	mux.HandleFunc("GET /api/boards/{boardId}", s.HandleGetBoard())
	mux.Handle("PATCH /api/boards/{boardId}", requireAuth(s.HandleEditBoard()))
	mux.Handle("DELETE /api/boards/{boardId}", requireAuth(s.HandleDeleteBoard()))
	mux.Handle("POST /api/boards/{boardId}/join", requireAuth(s.HandleJoinBoard()))
	mux.Handle("POST /api/boards/{boardId}/leave", requireAuth(s.HandleLeaveBoard()))
	mux.Handle("POST /api/boards/{boardId}/moderators", requireAuth(s.HandlePromoteModerator()))
	mux.Handle("DELETE /api/boards/{boardId}/moderators/me", requireAuth(s.HandleDemoteSelf()))
	mux.Handle("DELETE /api/boards/{boardId}/members/{memberId}", requireAuth(s.HandleKickMember()))

	mux.HandleFunc("GET /api/users/{userId}/boards", s.HandleUserBoards())
	mux.Handle("DELETE /api/users/me", requireAuth(s.HandleDeleteAccount()))
}

// writeJSON writes v as a JSON response body.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// HandleHealth reports liveness.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
