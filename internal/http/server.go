package http

import (
	"github.com/gin-gonic/gin"
)

// Server wraps the configured gin engine. main embeds the engine in a
// net/http server so shutdown can drain in-flight requests; Run is the
// shortcut for callers that do not need graceful stop.
type Server struct {
	Engine *gin.Engine
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{Engine: NewRouter(cfg)}
}

func (s *Server) Run(address string) error {
	return s.Engine.Run(address)
}
