package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/kevinmiles/Enceladus-API/internal/app"
	"github.com/kevinmiles/Enceladus-API/internal/config"
	"github.com/kevinmiles/Enceladus-API/internal/crypto"
	"github.com/kevinmiles/Enceladus-API/internal/httpserver"
	"github.com/kevinmiles/Enceladus-API/internal/lock"
	"github.com/kevinmiles/Enceladus-API/internal/logging"
	"github.com/kevinmiles/Enceladus-API/internal/postgres"
	"github.com/kevinmiles/Enceladus-API/internal/reddit"
	"github.com/kevinmiles/Enceladus-API/internal/ws"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func runGracefulShutdown(srv *httpserver.Server, hub *ws.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()
		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	var cryptoSvc crypto.Service = crypto.NoopService{}
	if cfg.TokenEncryptionKey != "" {
		var err error
		cryptoSvc, err = crypto.NewAesGcmService(cfg.TokenEncryptionKey)
		if err != nil {
			slog.Error("Failed to create crypto service", "error", err)
			os.Exit(1)
		}
	}

	stores := app.Stores{
		Threads:      postgres.NewThreadRepo(pool),
		Sections:     postgres.NewSectionRepo(pool),
		Events:       postgres.NewEventRepo(pool),
		Users:        postgres.NewUserRepo(pool, cryptoSvc),
		PresetEvents: postgres.NewPresetEventRepo(pool),
	}

	caches, err := app.NewCaches()
	if err != nil {
		slog.Error("Failed to create caches", "error", err)
		os.Exit(1)
	}

	hub := ws.NewHub(clock)

	var (
		oauthClient *reddit.Client
		mirror      app.ForumMirror
	)
	if cfg.RedditEnabled() {
		oauthClient = reddit.NewClient(cfg.RedditClientID, cfg.RedditSecret, cfg.RedditRedirectURI, cfg.RedditUserAgent)
		mirror = reddit.NewMirror(oauthClient, cfg.RedditBotRefreshToken)
		slog.Info("Reddit integration enabled")
	} else {
		slog.Info("Reddit integration disabled, running without forum mirror")
	}

	service := app.NewService(stores, caches, hub, lock.NewManager(clock), mirror)

	srv := httpserver.NewServer(cfg, service, hub, oauthClient, pool)

	done := runGracefulShutdown(srv, hub)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
