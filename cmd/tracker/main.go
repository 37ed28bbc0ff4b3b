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

	"tracker/internal/config"
	"tracker/internal/logging"
	trackermcp "tracker/internal/mcp"
	"tracker/internal/server"
	"tracker/internal/storage/sqlite"
	"tracker/internal/tasks"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	// stdout belongs to the MCP protocol whenever it is served.
	logger := logging.New(cfg.LogLevel)
	if cfg.Mode != config.ModeHTTP {
		logger = logging.NewWithWriter(os.Stderr, cfg.LogLevel)
	}
	logger.Info("task tracker", slog.String("version", version), slog.String("mode", cfg.Mode))

	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	service := tasks.New(store, tasks.Options{
		Logger:          logger,
		Location:        cfg.Location(),
		StatsWindowDays: cfg.StatsWindowDays,
	})

	switch cfg.Mode {
	case config.ModeMCP:
		runMCP(service, logger)
	case config.ModeBoth:
		runBoth(cfg, service, logger)
	default:
		runHTTP(cfg, service, logger, nil)
	}
}

// runHTTP serves the API until a signal arrives, the server fails, or extra
// yields an error.
func runHTTP(cfg *config.Config, service *tasks.Service, logger *slog.Logger, extra <-chan error) {
	srv := server.New(service, logger)
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Engine(),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received signal", slog.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
	case err := <-extra:
		if err != nil {
			logger.Error("mcp server error", slog.String("error", err.Error()))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func runMCP(service *tasks.Service, logger *slog.Logger) {
	mcpServer := trackermcp.NewMCPServer(service, logger, version)
	if err := mcpServer.Run(); err != nil {
		logger.Error("mcp server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runBoth serves MCP on stdio next to the HTTP API. The process stops when
// either side ends.
func runBoth(cfg *config.Config, service *tasks.Service, logger *slog.Logger) {
	mcpServer := trackermcp.NewMCPServer(service, logger, version)
	mcpDone := make(chan error, 1)
	go func() {
		mcpDone <- mcpServer.Run()
	}()
	runHTTP(cfg, service, logger, mcpDone)
}
