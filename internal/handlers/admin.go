package handlers

import (
	"net/http"

	"dating-api/internal/services"

	"github.com/go-chi/chi/v5"
)

// AdminHandler handles role administration and photo moderation
type AdminHandler struct {
	adminService *services.AdminService
	photoService *services.PhotoService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *services.AdminService, photoService *services.PhotoService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		photoService: photoService,
	}
}

// EditRolesRequest lists the complete role set for a user
type EditRolesRequest struct {
	RoleNames []string `json:"roleNames"`
}

// UsersWithRoles handles GET /api/admin/usersWithRoles
func (h *AdminHandler) UsersWithRoles(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.UsersWithRoles(r.Context(), callerFrom(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// EditRoles handles POST /api/admin/editRoles/{userName}
func (h *AdminHandler) EditRoles(w http.ResponseWriter, r *http.Request) {
	var req EditRolesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	roles, err := h.adminService.EditRoles(r.Context(), callerFrom(r), chi.URLParam(r, "userName"), req.RoleNames)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, roles)
}

// PhotosForModeration handles GET /api/admin/photosForModeration
func (h *AdminHandler) PhotosForModeration(w http.ResponseWriter, r *http.Request) {
	photos, err := h.photoService.ForModeration(r.Context(), callerFrom(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, photos)
}

// ApprovePhoto handles POST /api/admin/approvePhoto/{photoId}
func (h *AdminHandler) ApprovePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "photoId")
	if !ok {
		return
	}
	if err := h.photoService.Approve(r.Context(), callerFrom(r), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// RejectPhoto handles POST /api/admin/rejectPhoto/{photoId}
func (h *AdminHandler) RejectPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "photoId")
	if !ok {
		return
	}
	if err := h.photoService.Reject(r.Context(), callerFrom(r), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
