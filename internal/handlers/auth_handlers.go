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
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest represents a request to register a new user
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest represents a request to log in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

const (
	minUsernameLength = 3
	maxUsernameLength = 32
	minPasswordLength = 8
)

func validCredentials(username, password string) error {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return utils.NewInvalidInputError("username must be between 3 and 32 characters")
	}
	if len(password) < minPasswordLength {
		return utils.NewInvalidInputError("password must be at least 8 characters")
	}
	return nil
}

// setSessionCookie issues the httpOnly session cookie.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(s.Tokens.Lifetime()),
	})
}

// HandleRegister creates a new account and logs it in.
func (s *Server) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid request body"))
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if err := validCredentials(req.Username, req.Password); err != nil {
			utils.WriteError(w, err)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.WriteError(w, err)
			return
		}

		user := &models.User{
			ID:             uuid.New(),
			Username:       req.Username,
			HashedPassword: string(hash),
			CreatedAt:      time.Now(),
		}
		if err := s.Store.SaveUser(r.Context(), user); err != nil {
			utils.WriteError(w, err)
			return
		}

		token, err := s.Tokens.Generate(user.ID)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		s.setSessionCookie(w, token)
		writeJSON(w, http.StatusCreated, AuthResponse{
			UserID:   user.ID.String(),
			Username: user.Username,
			Token:    token,
		})
	}
}

// HandleLogin verifies credentials and issues a session token.
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteError(w, utils.NewInvalidInputError("invalid request body"))
			return
		}

		user, err := s.Store.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
		if err != nil {
			// Same answer for unknown user and bad password.
			utils.WriteError(w, utils.NewUnauthorizedError("invalid credentials"))
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
			utils.WriteError(w, utils.NewUnauthorizedError("invalid credentials"))
			return
		}

		token, err := s.Tokens.Generate(user.ID)
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		s.setSessionCookie(w, token)
		writeJSON(w, http.StatusOK, AuthResponse{
			UserID:   user.ID.String(),
			Username: user.Username,
			Token:    token,
		})
	}
}

// HandleLogout clears the session cookie.
func (s *Server) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.TokenCookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}
