package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnloop/learnloop-backend/internal/http/middleware"
	"github.com/learnloop/learnloop-backend/internal/http/response"
	"github.com/learnloop/learnloop-backend/internal/services"
)

type RecommendationHandler struct {
	recommenderService services.RecommenderService
	maxRecommendations int
}

func NewRecommendationHandler(recommenderService services.RecommenderService, maxRecommendations int) *RecommendationHandler {
	if maxRecommendations <= 0 {
		maxRecommendations = 5
	}
	return &RecommendationHandler{
		recommenderService: recommenderService,
		maxRecommendations: maxRecommendations,
	}
}

// GET /api/recommendations?limit=5
func (rh *RecommendationHandler) List(c *gin.Context) {
	limit := intQuery(c, "limit", rh.maxRecommendations)
	items, err := rh.recommenderService.Recommendations(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "recommendations_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}
