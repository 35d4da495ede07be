package httpserver

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kevinmiles/Enceladus-API/internal/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		return c.JSON(503, map[string]any{
			"status":       "unhealthy",
			"failed_check": "postgres",
			"error":        err.Error(),
		})
	}

	return c.JSON(200, map[string]string{"status": "ready"})
}

// handleMeta reports build information plus live connection counts,
// which viewer clients poll to show "n people watching".
func (s *Server) handleMeta(c echo.Context) error {
	return c.JSON(200, map[string]any{
		"version":           version.Get(),
		"websocket_clients": s.hub.ConnectionCount(),
		"websocket_rooms":   s.hub.RoomCount(),
	})
}
