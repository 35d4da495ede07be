package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/meta", s.handleMeta)

	// OAuth flow
	s.echo.GET("/oauth", s.handleOAuth)
	s.echo.GET("/oauth/callback", s.handleOAuthCallback)

	v1 := s.echo.Group("/v1")

	// Users: reads are public, mutations authenticated.
	v1.GET("/user", s.handleListUsers)
	v1.GET("/user/:id", s.handleGetUser)
	v1.PATCH("/user/:id", s.handleUpdateUser, s.requireAuth)
	v1.DELETE("/user/:id", s.handleDeleteUser, s.requireAuth)

	// Threads
	v1.GET("/thread", s.handleListThreads)
	v1.GET("/thread/:id", s.handleGetThread)
	v1.GET("/thread/:id/full", s.handleGetFullThread)
	v1.POST("/thread", s.handleCreateThread, s.requireAuth)
	v1.PATCH("/thread/:id", s.handleUpdateThread, s.requireAuth)
	v1.DELETE("/thread/:id", s.handleDeleteThread, s.requireAuth)
	v1.POST("/thread/:id/approve", s.handleApproveThread, s.requireAuth)
	v1.POST("/thread/:id/sticky", s.handleStickyThread, s.requireAuth)
	v1.POST("/thread/:id/unsticky", s.handleUnstickyThread, s.requireAuth)

	// Sections
	v1.GET("/section", s.handleListSections)
	v1.GET("/section/:id", s.handleGetSection)
	v1.POST("/section", s.handleCreateSection, s.requireAuth)
	v1.PATCH("/section/:id", s.handlePatchSection, s.requireAuth)
	v1.DELETE("/section/:id", s.handleDeleteSection, s.requireAuth)

	// Events
	v1.GET("/event", s.handleListEvents)
	v1.GET("/event/:id", s.handleGetEvent)
	v1.POST("/event", s.handleCreateEvent, s.requireAuth)
	v1.PATCH("/event/:id", s.handleUpdateEvent, s.requireAuth)
	v1.DELETE("/event/:id", s.handleDeleteEvent, s.requireAuth)

	// Preset events
	v1.GET("/preset_event", s.handleListPresetEvents)
	v1.GET("/preset_event/:id", s.handleGetPresetEvent)
	v1.POST("/preset_event", s.handleCreatePresetEvent, s.requireAuth)
	v1.PATCH("/preset_event/:id", s.handleUpdatePresetEvent, s.requireAuth)
	v1.DELETE("/preset_event/:id", s.handleDeletePresetEvent, s.requireAuth)

	// Viewer stream (no auth: read-only fan-out)
	s.echo.GET("/ws", s.handleWebSocket)
}
