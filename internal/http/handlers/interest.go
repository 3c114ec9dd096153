package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/http/middleware"
	"github.com/learnloop/learnloop-backend/internal/http/response"
	"github.com/learnloop/learnloop-backend/internal/services"
)

type InterestHandler struct {
	interestService    services.InterestService
	recommenderService services.RecommenderService
}

func NewInterestHandler(interestService services.InterestService, recommenderService services.RecommenderService) *InterestHandler {
	return &InterestHandler{
		interestService:    interestService,
		recommenderService: recommenderService,
	}
}

// GET /api/interests
func (ih *InterestHandler) List(c *gin.Context) {
	interests, err := ih.interestService.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "list_interests_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"interests": interests})
}

// GET /api/interests/top?limit=20
func (ih *InterestHandler) Top(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	names, err := ih.interestService.TopInterests(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "top_interests_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"interests": names})
}

// POST /api/interests
func (ih *InterestHandler) Add(c *gin.Context) {
	var req struct {
		Tag      string `json:"tag" binding:"required"`
		Priority int    `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Priority == 0 {
		req.Priority = domain.DefaultInterestPriority
	}
	if err := ih.interestService.Record(c.Request.Context(), middleware.UserID(c), req.Tag, req.Priority); err != nil {
		response.RespondError(c, http.StatusBadRequest, "add_interest_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"added": true})
}

// DELETE /api/interests/:tag
func (ih *InterestHandler) Remove(c *gin.Context) {
	if err := ih.interestService.Remove(c.Request.Context(), middleware.UserID(c), c.Param("tag")); err != nil {
		response.RespondError(c, http.StatusBadRequest, "remove_interest_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"removed": true})
}

// GET /api/interests/suggestions?limit=10
func (ih *InterestHandler) Suggestions(c *gin.Context) {
	limit := intQuery(c, "limit", 10)
	suggestions, err := ih.recommenderService.InterestSuggestions(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "interest_suggestions_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"suggestions": suggestions})
}
