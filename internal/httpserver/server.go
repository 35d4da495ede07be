// Package httpserver exposes the REST and WebSocket surface over the
// mutation pipeline.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kevinmiles/Enceladus-API/internal/app"
	"github.com/kevinmiles/Enceladus-API/internal/apperr"
	"github.com/kevinmiles/Enceladus-API/internal/config"
	"github.com/kevinmiles/Enceladus-API/internal/reddit"
	"github.com/kevinmiles/Enceladus-API/internal/ws"
)

const sessionMaxAgeDays = 30

// Pinger reports backing-store health for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo         *echo.Echo
	config       *config.Config
	service      *app.Service
	hub          *ws.Hub
	oauthClient  *reddit.Client
	sessionStore *sessions.CookieStore
	db           Pinger
	limits       *connectionLimits
}

// NewServer wires routes and middleware. oauthClient may be nil when
// reddit credentials are absent; the oauth endpoints then report the
// integration as unconfigured.
func NewServer(cfg *config.Config, service *app.Service, hub *ws.Hub, oauthClient *reddit.Client, db Pinger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(apperr.Middleware())

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * sessionMaxAgeDays,
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:         e,
		config:       cfg,
		service:      service,
		hub:          hub,
		oauthClient:  oauthClient,
		sessionStore: sessionStore,
		db:           db,
		limits:       newConnectionLimits(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
