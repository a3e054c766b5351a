package handlers

import (
	"net/http"

	"dating-api/internal/services"

	"github.com/rs/zerolog/log"
)

// PhotoHandler handles photo-related HTTP requests
type PhotoHandler struct {
	photoService   *services.PhotoService
	maxUploadBytes int64
}

// NewPhotoHandler creates a new photo handler; uploads above maxUploadMB are rejected
func NewPhotoHandler(photoService *services.PhotoService, maxUploadMB int64) *PhotoHandler {
	return &PhotoHandler{
		photoService:   photoService,
		maxUploadBytes: maxUploadMB << 20,
	}
}

// UploadPhoto handles POST /api/users/{userId}/photos
func (h *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	caller := callerFrom(r)
	if caller.ID != userID {
		respondError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(w, "Invalid upload or file too large", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	photo, err := h.photoService.Upload(r.Context(), caller, userID, header.Filename, r.FormValue("description"), file)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Info().
		Int64("user_id", userID).
		Int64("photo_id", photo.ID).
		Str("filename", header.Filename).
		Msg("Photo stored")

	w.Header().Set("Location", "/api/users/"+formatID(userID)+"/photos/"+formatID(photo.ID))
	respondJSON(w, http.StatusCreated, photo)
}

// GetPhoto handles GET /api/users/{userId}/photos/{id}
func (h *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	photo, err := h.photoService.Get(r.Context(), callerFrom(r), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, photo)
}

// SetMainPhoto handles POST /api/users/{userId}/photos/{id}/setMain
func (h *PhotoHandler) SetMainPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.photoService.SetMain(r.Context(), callerFrom(r), userID, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePhoto handles DELETE /api/users/{userId}/photos/{id}
func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId")
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.photoService.Delete(r.Context(), callerFrom(r), userID, id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
