package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnloop/learnloop-backend/internal/http/middleware"
	"github.com/learnloop/learnloop-backend/internal/http/response"
	"github.com/learnloop/learnloop-backend/internal/services"
)

type DigestHandler struct {
	digestService services.DigestService
	maxItems      int
}

func NewDigestHandler(digestService services.DigestService, maxItems int) *DigestHandler {
	if maxItems <= 0 {
		maxItems = 15
	}
	return &DigestHandler{digestService: digestService, maxItems: maxItems}
}

// GET /api/digest?limit=15
func (dh *DigestHandler) Preview(c *gin.Context) {
	limit := intQuery(c, "limit", dh.maxItems)
	items, err := dh.digestService.DailyDigest(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "digest_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

// POST /api/digest/send
func (dh *DigestHandler) Send(c *gin.Context) {
	userID := middleware.UserID(c)
	items, err := dh.digestService.DailyDigest(c.Request.Context(), userID, dh.maxItems)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "digest_failed", err)
		return
	}
	sent := dh.digestService.SendEmailDigest(c.Request.Context(), userID, items)
	response.RespondOK(c, gin.H{"sent": sent, "items": len(items)})
}
