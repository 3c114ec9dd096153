package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnloop/learnloop-backend/internal/http/middleware"
	"github.com/learnloop/learnloop-backend/internal/http/response"
	"github.com/learnloop/learnloop-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	user, err := uh.userService.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "user_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}

// GET /api/settings
func (uh *UserHandler) GetSettings(c *gin.Context) {
	settings, err := uh.userService.EnsureSettings(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "settings_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"settings": settings})
}

// PATCH /api/settings
// body: any subset of { "email_digest", "digest_hour", "digest_enabled",
// "missed_digest_send", "auto_update_content" }
func (uh *UserHandler) UpdateSettings(c *gin.Context) {
	var req struct {
		EmailDigest       *string `json:"email_digest"`
		DigestHour        *int    `json:"digest_hour"`
		DigestEnabled     *bool   `json:"digest_enabled"`
		MissedDigestSend  *bool   `json:"missed_digest_send"`
		AutoUpdateContent *bool   `json:"auto_update_content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	settings, err := uh.userService.UpdateSettings(c.Request.Context(), middleware.UserID(c), services.SettingsUpdate{
		EmailDigest:       req.EmailDigest,
		DigestHour:        req.DigestHour,
		DigestEnabled:     req.DigestEnabled,
		MissedDigestSend:  req.MissedDigestSend,
		AutoUpdateContent: req.AutoUpdateContent,
	})
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "update_settings_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"settings": settings})
}
