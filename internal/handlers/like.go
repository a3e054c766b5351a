package handlers

import (
	"net/http"

	"dating-api/internal/services"

	"github.com/rs/zerolog/log"
)

// LikeHandler handles like requests
type LikeHandler struct {
	likeService *services.LikeService
}

// NewLikeHandler creates a new like handler
func NewLikeHandler(likeService *services.LikeService) *LikeHandler {
	return &LikeHandler{likeService: likeService}
}

// LikeUser handles POST /api/users/{id}/like/{recipientId}
func (h *LikeHandler) LikeUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	recipientID, ok := idParam(w, r, "recipientId")
	if !ok {
		return
	}

	like, err := h.likeService.Like(r.Context(), callerFrom(r), userID, recipientID)
	if err != nil {
		log.Debug().
			Err(err).
			Int64("user_id", userID).
			Int64("recipient_id", recipientID).
			Msg("Like rejected")
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, like)
}
