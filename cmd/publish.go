package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/permitwatch/permit-crawler/internal/publish"
	"github.com/permitwatch/permit-crawler/internal/store/postgres"
)

// newPublishCmd creates the 'publish' subcommand: one pass over the records
// marked ready, or a polling loop with --watch.
func newPublishCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Posts ready permits to the social channel",
		Long: `Selects records marked ready, formats each into a status post, and
sends them to the posting API with a fixed delay between posts. Identical
posts within a batch are collapsed to one. With --watch the pass repeats on
publish.interval until interrupted.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPublish(cmd, watch)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep polling for ready records on publish.interval")

	return cmd
}

func runPublish(cmd *cobra.Command, watch bool) error {
	app, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := app.Config
	ctx := cmd.Context()

	recordStore, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.DB.DSN,
		Table:    cfg.DB.Table,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect record store: %w", err)
	}
	defer recordStore.Close()

	poster, err := publish.NewHTTPPoster(publish.HTTPPosterConfig{
		Endpoint: cfg.Publish.Endpoint,
		Token:    cfg.Publish.Token,
	})
	if err != nil {
		return fmt.Errorf("init poster: %w", err)
	}

	engine := publish.NewEngine(recordStore, poster, publish.Config{
		PermalinkBase: cfg.Registry.BaseURL,
		Delay:         cfg.Publish.Delay,
	}, app.Logger)

	if watch {
		err = engine.Watch(ctx, cfg.Publish.Interval)
	} else {
		err = engine.RunPass(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("publish: %w", err)
	}

	app.Logger.Info("publish finished")
	return nil
}
