package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/fec/internal/core"
	"github.com/JonMunkholm/fec/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the filing inspector over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			limiter := core.NewParseLimiter(cfg.Parse.MaxConcurrent, cfg.Parse.MaxWaitTime)
			service := core.NewService(a.parser, limiter, cfg.Parse.MaxFileSize)
			server := web.NewServer(service, cfg)

			a.logger.Info("configuration loaded",
				"port", cfg.Server.Port,
				"parse_max_concurrent", cfg.Parse.MaxConcurrent,
				"parse_max_file_size", cfg.Parse.MaxFileSize,
				"api_key_required", cfg.Security.RequireAPIKey,
			)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}

			a.logger.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			// Stop accepting requests, then wait for parses already running.
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("shutdown error", "error", err)
			}
			if status := limiter.Status(); status.Active > 0 {
				a.logger.Info("waiting for parses to complete", "active", status.Active)
				if err := limiter.WaitForDrain(shutdownCtx); err != nil {
					a.logger.Warn("parses did not complete in time", "error", err)
				}
			}

			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			a.logger.Info("server stopped")
			return nil
		},
	}
}
