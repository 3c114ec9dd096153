package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/http/middleware"
	"github.com/learnloop/learnloop-backend/internal/http/response"
	"github.com/learnloop/learnloop-backend/internal/services"
)

type ContentHandler struct {
	aggregatorService services.AggregatorService
	interestService   services.InterestService
	maxResults        int
}

func NewContentHandler(aggregatorService services.AggregatorService, interestService services.InterestService, maxResults int) *ContentHandler {
	if maxResults <= 0 {
		maxResults = 50
	}
	return &ContentHandler{
		aggregatorService: aggregatorService,
		interestService:   interestService,
		maxResults:        maxResults,
	}
}

// GET /api/content/search?q=go+concurrency&limit=20
func (ch *ContentHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_query", nil)
		return
	}
	limit := intQuery(c, "limit", ch.maxResults)

	ch.interestService.TrackSearchQuery(c.Request.Context(), middleware.UserID(c), query)

	items, err := ch.aggregatorService.SearchContent(c.Request.Context(), strings.Fields(query), limit)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "search_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

// GET /api/content/search/live?q=rust&platform=youtube&limit=10
func (ch *ContentHandler) SearchLive(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_query", nil)
		return
	}
	platform := c.Query("platform")
	limit := intQuery(c, "limit", ch.maxResults)

	ch.interestService.TrackSearchQuery(c.Request.Context(), middleware.UserID(c), query)

	items, err := ch.aggregatorService.SearchLive(c.Request.Context(), strings.Fields(query), platform, limit)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "live_search_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

// POST /api/content/selected
// Persists items the user picked out of a live search and reinforces
// their interests from the selected tags.
func (ch *ContentHandler) SaveSelected(c *gin.Context) {
	var req struct {
		Items []struct {
			SourceID        string   `json:"source_id" binding:"required"`
			Platform        string   `json:"platform" binding:"required"`
			Title           string   `json:"title" binding:"required"`
			Description     string   `json:"description"`
			URL             string   `json:"url" binding:"required"`
			Difficulty      string   `json:"difficulty"`
			DurationMinutes int      `json:"duration_minutes"`
			PublishedAt     string   `json:"published_at"`
			Tags            []string `json:"tags"`
		} `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	items := make([]*domain.ContentItem, 0, len(req.Items))
	for _, in := range req.Items {
		item := domain.NewContentItem(in.SourceID, in.Platform, in.Title, in.URL)
		item.Description = in.Description
		item.DurationMinutes = in.DurationMinutes
		if in.Difficulty != "" {
			item.Difficulty = in.Difficulty
		}
		if ts, err := time.Parse(time.RFC3339, in.PublishedAt); err == nil {
			item.PublishedAt = ts
		}
		for _, name := range in.Tags {
			item.Tags = append(item.Tags, &domain.Tag{Name: name})
		}
		items = append(items, item)
	}

	saved, err := ch.aggregatorService.SaveSelectedItems(c.Request.Context(), items, middleware.UserID(c))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "save_selected_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"saved": saved})
}

// POST /api/content/update
// Pulls fresh content from all sources for the caller's top interests.
func (ch *ContentHandler) UpdateForUser(c *gin.Context) {
	saved, err := ch.aggregatorService.UpdateContentForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "content_update_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"saved": saved})
}
