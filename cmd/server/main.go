package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/ohan/internal/cache"
	"github.com/JonMunkholm/ohan/internal/clinic"
	"github.com/JonMunkholm/ohan/internal/config"
	"github.com/JonMunkholm/ohan/internal/core"
	"github.com/JonMunkholm/ohan/internal/geo"
	"github.com/JonMunkholm/ohan/internal/logging"
	"github.com/JonMunkholm/ohan/internal/relay"
	"github.com/JonMunkholm/ohan/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"source", cfg.Source.Kind,
		"cache_enabled", cfg.Cache.Enabled(),
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	logger.Debug("configuration", "config", cfg.String())

	source, err := relay.NewSource(cfg)
	if err != nil {
		logger.Error("failed to build clinic source", "error", err)
		os.Exit(1)
	}

	// The cache is optional; a nil interface disables it.
	var snapshots relay.Cache
	var pinger web.Pinger
	if cfg.Cache.Enabled() {
		rc := cache.NewRedis(cfg.Cache)
		defer rc.Close()

		if err := rc.Ping(context.Background()); err != nil {
			logger.Warn("relay cache unreachable at startup, continuing", "error", err)
		} else {
			logger.Info("relay cache connected", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL)
		}
		snapshots = rc
		pinger = rc
	}

	rl := relay.New(source, snapshots, logger).
		WithLimiter(relay.NewLimiter(cfg.Source.MaxConcurrentFetches, cfg.Source.FetchWait))

	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	defer stopRefresh()
	if snapshots != nil && cfg.Cache.RefreshInterval > 0 {
		go rl.StartRefresher(refreshCtx, cfg.Cache.RefreshInterval)
	}

	zips := geo.Default()
	logger.Info("zip table loaded", "zips", zips.Len())

	service := core.NewService(rl, clinic.DefaultNormalizer(), zips, cfg.Finder.DefaultRadiusMiles, logger)

	server := web.NewServer(cfg, web.Deps{
		Service: service,
		Relay:   rl,
		Cache:   pinger,
		Logger:  logger,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")
		stopRefresh()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
