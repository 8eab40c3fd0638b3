package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/vncsmyrnk/voteportal/internal/adapters/credentials"
	"github.com/vncsmyrnk/voteportal/internal/adapters/handler/http"
	"github.com/vncsmyrnk/voteportal/internal/adapters/repository"
	"github.com/vncsmyrnk/voteportal/internal/adapters/session"
	"github.com/vncsmyrnk/voteportal/internal/config"
	"github.com/vncsmyrnk/voteportal/internal/core/ports"
	"github.com/vncsmyrnk/voteportal/internal/core/services"
)

func main() {
	configPath := flag.String("config", os.Getenv("PORTAL_CONFIG"), "path to the YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := repository.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	verifier, err := adminVerifier(cfg.Auth, logger)
	if err != nil {
		logger.Error("failed to set up admin credentials", "error", err)
		os.Exit(1)
	}

	store := services.NewStore(backend, logger)
	go func() {
		if err := store.Run(ctx); err != nil {
			logger.Error("storage watcher stopped", "error", err)
		}
	}()

	portal := services.NewPortal(services.NewRecords(store), verifier, session.NewMemory, services.PortalConfig{
		LogoutDelay:      cfg.Portal.LogoutDelay,
		StatusClearDelay: cfg.Portal.StatusClearDelay,
		MaxTabsPerClient: cfg.Portal.MaxTabsPerClient,
		Logger:           logger,
	})
	go pruneTabs(ctx, portal, cfg.Portal.TabIdleTimeout, logger)

	handler := http.NewHandler(portal, http.NewTabTokens(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL), http.HandlerConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger)
	server := &stdhttp.Server{Addr: cfg.Server.Addr, Handler: handler}

	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "storage", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func adminVerifier(cfg config.AuthConfig, logger *slog.Logger) (ports.CredentialVerifier, error) {
	if cfg.AdminPasswordHash != "" {
		return credentials.NewBcryptVerifier(cfg.AdminUsername, cfg.AdminPasswordHash, logger)
	}
	return credentials.NewStaticVerifier(cfg.AdminUsername, cfg.AdminPassword), nil
}

func pruneTabs(ctx context.Context, portal *services.Portal, maxIdle time.Duration, logger *slog.Logger) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(maxIdle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := portal.PruneIdle(maxIdle); n > 0 {
				logger.Info("closed idle tabs", "count", n)
			}
		}
	}
}
