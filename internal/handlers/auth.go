package handlers

import (
	"net/http"

	"dating-api/internal/services"

	"github.com/go-chi/chi/v5"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/users/"+formatID(user.ID))
	respondJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authService.Login(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// LoginGoogle handles POST /api/auth/loginGoogle/{idToken}
func (h *AuthHandler) LoginGoogle(w http.ResponseWriter, r *http.Request) {
	res, err := h.authService.LoginGoogle(r.Context(), chi.URLParam(r, "idToken"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
