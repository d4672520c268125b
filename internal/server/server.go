package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/MelParker66/flowerama-vd2026/internal/config"
)

// Start binds cfg.HTTPPort and serves the flowerama API (ledger posts,
// planned overrides, dashboard reads) until ctx is cancelled. A port that
// cannot be bound is reported before any request is accepted.
func Start(ctx context.Context, cfg config.Config, router http.Handler, log *slog.Logger) error {
	ln, err := net.Listen("tcp", ":"+cfg.HTTPPort)
	if err != nil {
		return fmt.Errorf("listen on port %s: %w", cfg.HTTPPort, err)
	}
	return Serve(ctx, ln, cfg, router, log)
}

// Serve answers requests on ln until ctx is cancelled. Shutdown stops new
// connections and waits up to cfg.ShutdownTimeout for in-flight requests,
// so an override save or journal insert already under way completes.
func Serve(ctx context.Context, ln net.Listener, cfg config.Config, router http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("flowerama api listening", "addr", ln.Addr().String(), "env", cfg.Env)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("flowerama api draining requests", "timeout", cfg.ShutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
