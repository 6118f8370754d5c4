package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/afnan9700/driftwood/internal/config"
	"github.com/afnan9700/driftwood/internal/database"
	"github.com/afnan9700/driftwood/internal/handlers"
	"github.com/afnan9700/driftwood/internal/logging"
	"github.com/afnan9700/driftwood/internal/middleware"
	"github.com/afnan9700/driftwood/internal/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Debug)

	ctx := context.Background()

	var store database.Store
	switch cfg.Database.Type {
	case "memory":
		store = database.NewMemoryStore()
		logger.Warn("using in-memory store, data will not survive restarts")
	default:
		mongo, err := database.NewMongoDB(ctx, cfg.Database.URI, cfg.Database.Name)
		if err != nil {
			logger.Error("failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		store = mongo
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(shutdownCtx); err != nil {
			logger.Error("error closing store", "error", err)
		}
	}()

	var metrics *utils.MetricsCollector
	registry := prometheus.NewRegistry()
	if cfg.Server.MetricsEnabled {
		metrics = utils.NewMetricsCollector(registry)
	}

	tokens := middleware.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime)
	server := handlers.NewServer(store, tokens, metrics, logger)

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	if cfg.Server.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	var handler http.Handler = mux
	handler = middleware.CORSMiddleware(middleware.DefaultCORSConfig(cfg.AllowedOrigins))(handler)
	handler = middleware.RequestLogger(logger, metrics)(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", addr, "db", cfg.Database.Type)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
