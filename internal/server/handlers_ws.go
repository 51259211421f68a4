package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/sakamoto-giocolgeek/emotional-echo/internal/metrics"
)

func (s *Server) newUpgrader() websocket.Upgrader {
	allowed := make(map[string]struct{}, len(s.config.AllowedOrigins))
	for _, origin := range s.config.AllowedOrigins {
		allowed[origin] = struct{}{}
	}

	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients send no Origin header.
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()

	ok, reason := s.wsLimits.Acquire(ip)
	if !ok {
		metrics.WSConnectionsRejectedTotal.WithLabelValues(string(reason)).Inc()
		slog.Warn("subscriber rejected", "reason", reason, "ip", ip)
		return c.String(http.StatusServiceUnavailable, "too many connections")
	}
	defer s.wsLimits.Release(ip)

	upgrader := s.newUpgrader()
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written its own error response, so
		// returning the error would make the middleware write a second one.
		slog.Warn("websocket upgrade failed", "error", err, "ip", ip)
		return nil
	}

	if err := s.hub.Register(conn); err != nil {
		slog.Warn("subscriber registration failed", "error", err)
		conn.Close()
		return nil
	}

	// Read pump. Inbound frames are ignored; the stream is one-way.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(conn)

	return nil
}
