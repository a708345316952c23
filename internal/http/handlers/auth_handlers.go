package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"fleetwatch/internal/models"
	"fleetwatch/internal/service"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 64
	minNameLen     = 2
	maxNameLen     = 120
)

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{ID: user.ID, Name: user.Name, Email: user.Email}
}

// NewRegisterHandler handles POST /api/auth/register.
func NewRegisterHandler(authService *service.AuthService) http.HandlerFunc {
	type request struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.TrimSpace(req.Email)
		if len(req.Name) < minNameLen || len(req.Name) > maxNameLen {
			writeError(w, http.StatusBadRequest, "name must be 2-120 characters")
			return
		}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			writeError(w, http.StatusBadRequest, "email must be a valid address")
			return
		}
		if len(req.Password) < minPasswordLen || len(req.Password) > maxPasswordLen {
			writeError(w, http.StatusBadRequest, "password must be 8-64 characters")
			return
		}

		user, token, err := authService.Register(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrEmailInUse) {
				writeError(w, http.StatusConflict, "email is already registered")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to register")
			return
		}

		writeJSON(w, http.StatusCreated, tokenResponse{
			Token: token,
			User:  toUserResponse(user),
		})
	}
}

// NewLoginHandler handles POST /api/auth/login.
func NewLoginHandler(authService *service.AuthService) http.HandlerFunc {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		token, user, err := authService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to login")
			return
		}

		writeJSON(w, http.StatusOK, tokenResponse{
			Token: token,
			User:  toUserResponse(user),
		})
	}
}
