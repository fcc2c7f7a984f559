package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"synapse/internal/platform/config"
	"synapse/internal/platform/httpserver"
	"synapse/internal/platform/logger"
)

// main wires high-level dependencies, exposes the HTTP router and runs the
// outbox relay next to it. Business logic lives in internal service packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("synapse exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log, newServiceMetrics())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.bootstrapMarketplace(ctx, cfg.Marketplace, log); err != nil {
		return err
	}

	srv := httpserver.New(cfg.Addr, a.handler)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.InfoContext(gctx, "starting synapse", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if a.relay != nil {
		g.Go(func() error {
			return a.relay.Run(gctx)
		})
	}
	if a.subscriber != nil {
		g.Go(func() error {
			return a.subscriber.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownPeriod)
		defer cancel()
		log.InfoContext(shutdownCtx, "shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
