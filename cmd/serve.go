package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/permitwatch/permit-crawler/internal/api"
	"github.com/permitwatch/permit-crawler/internal/publish"
)

// newServeCmd creates the 'serve' subcommand: an HTTP front end for the
// formatter and poster, plus health and metrics endpoints.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP posting server",
		Long: `Serves an HTTP API that accepts permit payloads, formats them into
status posts, and forwards them to the posting API. Also exposes /healthz
and Prometheus /metrics.`,

		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := app.Config
	logger := app.Logger

	poster, err := publish.NewHTTPPoster(publish.HTTPPosterConfig{
		Endpoint: cfg.Publish.Endpoint,
		Token:    cfg.Publish.Token,
	})
	if err != nil {
		return fmt.Errorf("init poster: %w", err)
	}

	server := api.NewServer(poster, cfg.Registry.BaseURL, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("posting server listening", zap.Int("port", cfg.Server.Port))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-cmd.Context().Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	logger.Info("posting server stopped")
	return nil
}
