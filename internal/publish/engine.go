package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/permitwatch/permit-crawler/internal/metrics"
	"github.com/permitwatch/permit-crawler/internal/permit"
	"github.com/permitwatch/permit-crawler/internal/store"
)

// Config controls publication behavior.
type Config struct {
	// PermalinkBase is the RSN-parameterized registry URL prefix used to
	// build permalinks.
	PermalinkBase string
	// Delay is the mandatory pause between successive posts in a batch.
	Delay time.Duration
}

// Engine runs publication passes. A pass is single-threaded; posts are
// serialized with a fixed inter-post delay.
type Engine struct {
	store  store.RecordStore
	poster Poster
	logger *zap.Logger
	cfg    Config

	// sleep is injectable so tests can mock time.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine constructs an Engine.
func NewEngine(recordStore store.RecordStore, poster Poster, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  recordStore,
		poster: poster,
		logger: logger,
		cfg:    cfg,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RunPass publishes every currently eligible record once. Records whose
// formatted text duplicates an earlier record in the same batch are skipped
// without a store write, leaving them for the next pass. For each survivor
// the terminal status is written BEFORE the external post: if the post then
// fails, the worst outcome is a missed post, never a repost loop.
func (e *Engine) RunPass(ctx context.Context) error {
	passID := uuid.NewString()
	log := e.logger.With(zap.String("pass_id", passID))

	records, err := e.store.ReadyToPost(ctx)
	if err != nil {
		return fmt.Errorf("select eligible records: %w", err)
	}
	if len(records) == 0 {
		log.Debug("nothing to post")
		return nil
	}
	log.Info("starting publish pass", zap.Int("eligible", len(records)))

	seen := make(map[string]struct{}, len(records))
	posted := 0
	for _, rec := range records {
		text := FormatPost(rec, e.cfg.PermalinkBase)
		if _, dup := seen[text]; dup {
			metrics.ObservePost("skipped")
			log.Info("skipping duplicate text in batch", zap.Int64("rsn", rec.RSN))
			continue
		}
		seen[text] = struct{}{}

		if posted > 0 {
			if err := e.sleep(ctx, e.cfg.Delay); err != nil {
				return err
			}
		}
		if err := e.postOne(ctx, rec, text, log); err != nil {
			return err
		}
		posted++
	}
	log.Info("publish pass finished", zap.Int("posted", posted))
	return nil
}

// postOne writes the terminal status, then invokes the poster. A duplicate
// rejection is benign; any other post error marks the record api_error for
// manual triage and aborts the pass.
func (e *Engine) postOne(ctx context.Context, rec permit.Record, text string, log *zap.Logger) error {
	if err := e.store.SetBotStatus(ctx, rec.RSN, permit.BotPosted); err != nil {
		return fmt.Errorf("mark rsn %d tweeted: %w", rec.RSN, err)
	}

	outcome, err := e.poster.Post(ctx, text)
	if err != nil {
		metrics.ObservePost("error")
		if statusErr := e.store.SetBotStatus(ctx, rec.RSN, permit.BotAPIError); statusErr != nil {
			log.Error("failed to flag api_error", zap.Int64("rsn", rec.RSN), zap.Error(statusErr))
		}
		return fmt.Errorf("post rsn %d: %w", rec.RSN, err)
	}

	switch outcome {
	case OutcomeDuplicate:
		metrics.ObservePost("duplicate")
		log.Info("channel reported duplicate, keeping tweeted status", zap.Int64("rsn", rec.RSN))
	default:
		metrics.ObservePost("posted")
		log.Info("posted", zap.Int64("rsn", rec.RSN), zap.String("text", text))
	}
	return nil
}

// Watch loops RunPass on a fixed interval until the context finishes or a
// pass fails.
func (e *Engine) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("watch interval must be > 0")
	}
	for {
		if err := e.RunPass(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := e.sleep(ctx, interval); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}
