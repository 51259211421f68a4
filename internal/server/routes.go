package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Comment API
	s.echo.POST("/api/v1/comments", s.handleCreateComment, s.submitRateLimit)
	s.echo.GET("/api/v1/comments", s.handleListComments)

	// Websocket stream (single topic)
	s.echo.GET("/ws/comments", s.handleWebSocket)
}
