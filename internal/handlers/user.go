package handlers

import (
	"net/http"
	"strconv"

	"dating-api/internal/services"
)

// UserHandler handles profile and search requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// RegisterPushRequest sets or clears the caller's push targets.
// Omitted fields keep their value, empty strings remove it.
type RegisterPushRequest struct {
	APNSToken           *string `json:"apns_token"`
	WebPushSubscription *string `json:"web_push_subscription"`
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.UserFilter{
		Gender:     q.Get("gender"),
		MinAge:     queryInt(r, "minAge"),
		MaxAge:     queryInt(r, "maxAge"),
		Interests:  q.Get("interests"),
		OrderBy:    q.Get("orderBy"),
		Likers:     queryBool(r, "likers"),
		Likees:     queryBool(r, "likees"),
		PageParams: pageParams(r),
	}

	page, err := h.userService.Search(r.Context(), callerFrom(r), filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	setPagination(w, page)
	respondJSON(w, http.StatusOK, page.Items)
}

// GetUser handles GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), callerFrom(r), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateUser handles PUT /api/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req services.UpdateUserInput
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.userService.UpdateUser(r.Context(), callerFrom(r), id, req); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterPush handles PUT /api/users/{id}/push
func (h *UserHandler) RegisterPush(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req RegisterPushRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.RegisterPush(r.Context(), callerFrom(r), id, req.APNSToken, req.WebPushSubscription); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
