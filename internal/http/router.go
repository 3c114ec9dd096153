package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/learnloop/learnloop-backend/internal/http/handlers"
	httpMW "github.com/learnloop/learnloop-backend/internal/http/middleware"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler

	InterestHandler       *httpH.InterestHandler
	ContentHandler        *httpH.ContentHandler
	DigestHandler         *httpH.DigestHandler
	RecommendationHandler *httpH.RecommendationHandler
	ProgressHandler       *httpH.ProgressHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// User (Me + settings)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.GET("/settings", cfg.UserHandler.GetSettings)
			protected.PATCH("/settings", cfg.UserHandler.UpdateSettings)
		}

		// Interests
		if cfg.InterestHandler != nil {
			protected.GET("/interests", cfg.InterestHandler.List)
			protected.GET("/interests/top", cfg.InterestHandler.Top)
			protected.GET("/interests/suggestions", cfg.InterestHandler.Suggestions)
			protected.POST("/interests", cfg.InterestHandler.Add)
			protected.DELETE("/interests/:tag", cfg.InterestHandler.Remove)
		}

		// Content
		if cfg.ContentHandler != nil {
			protected.GET("/content/search", cfg.ContentHandler.Search)
			protected.GET("/content/search/live", cfg.ContentHandler.SearchLive)
			protected.POST("/content/selected", cfg.ContentHandler.SaveSelected)
			protected.POST("/content/update", cfg.ContentHandler.UpdateForUser)
		}

		// Digest
		if cfg.DigestHandler != nil {
			protected.GET("/digest", cfg.DigestHandler.Preview)
			protected.POST("/digest/send", cfg.DigestHandler.Send)
		}

		// Recommendations
		if cfg.RecommendationHandler != nil {
			protected.GET("/recommendations", cfg.RecommendationHandler.List)
		}

		// Progress and favorites
		if cfg.ProgressHandler != nil {
			protected.GET("/progress", cfg.ProgressHandler.List)
			protected.POST("/progress/:contentId/complete", cfg.ProgressHandler.MarkCompleted)
			protected.GET("/favorites", cfg.ProgressHandler.ListFavorites)
			protected.POST("/favorites/:contentId", cfg.ProgressHandler.AddFavorite)
			protected.DELETE("/favorites/:contentId", cfg.ProgressHandler.RemoveFavorite)
		}
	}

	return r
}
