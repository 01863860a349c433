package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/sanshin-calendar/internal/bootstrap"
	"github.com/example/sanshin-calendar/internal/config"
	"github.com/example/sanshin-calendar/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := logging.New(os.Stdout, "info")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger = logging.New(os.Stdout, cfg.LogLevel)

	app, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open calendar", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.Error("failed to close local cache", "error", cerr)
		}
	}()

	if views, err := app.Calendar.RefreshFromCache(ctx); err != nil {
		logger.Warn("no cached calendar to serve before the first fetch", "error", err)
	} else {
		logger.Info("local cache loaded", "sessions", len(views))
	}

	server := newServer(cfg, app.Handler(logger))
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		logger.Error("failed to listen", "addr", server.Addr, "error", err)
		os.Exit(1)
	}

	logger.Info("calendar API listening", "addr", ln.Addr().String())
	if err := serve(ctx, server, ln, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func newServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serve blocks until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, server *http.Server, ln net.Listener, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down calendar API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
