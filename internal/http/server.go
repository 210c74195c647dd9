package http

import (
	"github.com/gin-gonic/gin"
)

// Server is a thin wrapper so callers can hold the engine for tests while
// production code just calls Run.
type Server struct {
	Engine *gin.Engine
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{Engine: NewRouter(cfg)}
}

func (s *Server) Run(address string) error {
	return s.Engine.Run(address)
}
