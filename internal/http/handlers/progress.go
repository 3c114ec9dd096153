package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/learnloop/learnloop-backend/internal/http/middleware"
	"github.com/learnloop/learnloop-backend/internal/http/response"
	apperrors "github.com/learnloop/learnloop-backend/internal/pkg/errors"
	"github.com/learnloop/learnloop-backend/internal/services"
)

type ProgressHandler struct {
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// POST /api/progress/:contentId/complete
func (ph *ProgressHandler) MarkCompleted(c *gin.Context) {
	contentID, err := uuid.Parse(c.Param("contentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}
	var req struct {
		Rating int    `json:"rating"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := ph.progressService.MarkCompleted(c.Request.Context(), middleware.UserID(c), contentID, req.Rating, req.Notes); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, apperrors.ErrNotFound) {
			status = http.StatusNotFound
		}
		response.RespondError(c, status, "mark_completed_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"completed": true})
}

// GET /api/progress
func (ph *ProgressHandler) List(c *gin.Context) {
	progress, err := ph.progressService.ListProgress(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "list_progress_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"progress": progress})
}

// POST /api/favorites/:contentId
func (ph *ProgressHandler) AddFavorite(c *gin.Context) {
	contentID, err := uuid.Parse(c.Param("contentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := ph.progressService.AddFavorite(c.Request.Context(), middleware.UserID(c), contentID, req.Notes); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, apperrors.ErrNotFound) {
			status = http.StatusNotFound
		}
		response.RespondError(c, status, "add_favorite_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"favorited": true})
}

// DELETE /api/favorites/:contentId
func (ph *ProgressHandler) RemoveFavorite(c *gin.Context) {
	contentID, err := uuid.Parse(c.Param("contentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}
	if err := ph.progressService.RemoveFavorite(c.Request.Context(), middleware.UserID(c), contentID); err != nil {
		response.RespondError(c, http.StatusBadRequest, "remove_favorite_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"removed": true})
}

// GET /api/favorites
func (ph *ProgressHandler) ListFavorites(c *gin.Context) {
	favorites, err := ph.progressService.ListFavorites(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "list_favorites_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"favorites": favorites})
}
