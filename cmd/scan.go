package cmd

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/permitwatch/permit-crawler/internal/archive"
	"github.com/permitwatch/permit-crawler/internal/config"
	"github.com/permitwatch/permit-crawler/internal/events"
	"github.com/permitwatch/permit-crawler/internal/fetch"
	"github.com/permitwatch/permit-crawler/internal/scan"
	"github.com/permitwatch/permit-crawler/internal/store/postgres"
)

// newScanCmd creates the 'scan' subcommand. Forward scans walk past the
// known frontier until the give-up threshold; backward scans re-check the
// most recent not-found records.
func newScanCmd() *cobra.Command {
	var (
		direction string
		number    int
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scans the permit registry",
		Long: `Walks the registry by record sequence number. Forward scans claim fresh
numbers past the frontier and stop after a run of consecutive misses;
backward scans re-fetch the most recently checked not-found records, since
the registry publishes numbers out of order.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, direction, number)
		},
	}

	cmd.Flags().StringVarP(&direction, "direction", "d", "forward", "scan direction: forward or backward")
	cmd.Flags().IntVarP(&number, "number", "n", 0, "backward scan: how many recent not-found records to re-check (default scan.backfill_limit)")

	return cmd
}

func runScan(cmd *cobra.Command, direction string, number int) error {
	if direction != "forward" && direction != "backward" {
		return fmt.Errorf("unknown direction %q: want forward or backward", direction)
	}

	app, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := app.Config
	logger := app.Logger
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

	fetcher, err := fetch.New(fetch.Config{
		BaseURL:     cfg.Registry.BaseURL,
		UserAgent:   cfg.Registry.UserAgent,
		Timeout:     cfg.Registry.Timeout,
		MaxAttempts: cfg.Registry.MaxAttempts,
	}, logger)
	if err != nil {
		return fmt.Errorf("init fetcher: %w", err)
	}

	sink, closeSink, err := buildArchiveSink(ctx, cfg.Archive)
	if err != nil {
		return fmt.Errorf("init archive sink: %w", err)
	}
	defer closeSink()

	publisher, closePublisher, err := buildEventPublisher(ctx, cfg.Events)
	if err != nil {
		return fmt.Errorf("init event publisher: %w", err)
	}
	defer closePublisher()

	driver := scan.NewDriver(recordStore, fetcher, sink, publisher, nil, scan.Config{
		Workers: cfg.Scan.Workers,
		GiveUp:  cfg.Scan.GiveUp,
		SeedRSN: cfg.Scan.SeedRSN,
	}, logger)

	if direction == "forward" {
		err = driver.ScanForward(ctx)
	} else {
		if number <= 0 {
			number = cfg.Scan.BackfillLimit
		}
		err = driver.ScanBackward(ctx, number)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scan %s: %w", direction, err)
	}

	logger.Info("scan finished", zap.String("direction", direction))
	return nil
}

// buildArchiveSink materializes the configured archive backend. The second
// return value releases backend resources and is always safe to call.
func buildArchiveSink(ctx context.Context, cfg config.ArchiveConfig) (archive.Sink, func(), error) {
	nop := func() {}
	switch cfg.Backend {
	case "", "none":
		return archive.Nop{}, nop, nil
	case "fs":
		sink, err := archive.NewFSSink(cfg.Dir)
		if err != nil {
			return nil, nop, err
		}
		return sink, nop, nil
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nop, fmt.Errorf("create storage client: %w", err)
		}
		sink, err := archive.NewGCSSink(client, archive.GCSConfig{Bucket: cfg.Bucket, Prefix: cfg.Prefix})
		if err != nil {
			_ = client.Close()
			return nil, nop, err
		}
		return sink, func() { _ = client.Close() }, nil
	default:
		return nil, nop, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

func buildEventPublisher(ctx context.Context, cfg config.EventsConfig) (events.Publisher, func(), error) {
	nop := func() {}
	if cfg.Topic == "" {
		return events.Nop{}, nop, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, nop, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(cfg.Topic)
	publisher, err := events.NewPubSubPublisher(topic)
	if err != nil {
		_ = client.Close()
		return nil, nop, err
	}
	return publisher, func() {
		topic.Stop()
		_ = client.Close()
	}, nil
}
