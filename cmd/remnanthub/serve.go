package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	app "github.com/remnanthub/platform/internal/app"
	"github.com/remnanthub/platform/internal/app/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv, err := httpapi.NewServer(rt.Application, httpapi.Options{
		AllowedOrigins: cfg.Origins(),
		RateLimitRPS:   float64(cfg.HTTP.RateLimitRPS),
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
		AuditLogFile:   cfg.HTTP.AuditLogFile,
	}, log.Named("httpapi"))
	if err != nil {
		return err
	}
	if err := rt.Attach(srv); err != nil {
		return err
	}
	if err := rt.Start(ctx); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case serveErr = <-errCh:
		log.WithError(serveErr).Error("http server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	// stopping the hub first releases hijacked websocket connections
	if err := rt.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("services did not stop cleanly")
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return serveErr
}
