// Package scan implements the frontier claim protocol and the forward and
// backward scanning policies over the permit registry.
package scan

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/permitwatch/permit-crawler/internal/archive"
	"github.com/permitwatch/permit-crawler/internal/events"
	"github.com/permitwatch/permit-crawler/internal/extract"
	"github.com/permitwatch/permit-crawler/internal/fetch"
	"github.com/permitwatch/permit-crawler/internal/metrics"
	"github.com/permitwatch/permit-crawler/internal/permit"
	"github.com/permitwatch/permit-crawler/internal/store"
)

// noRowsSentinel is the phrase the registry renders when an RSN has no
// permit data.
const noRowsSentinel = "No Rows Returned"

// Clock returns the current time (injectable for tests).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Config controls scan behavior.
type Config struct {
	// Workers is the fixed pool size for a scan pass.
	Workers int
	// GiveUp is the forward policy's consecutive-miss threshold.
	GiveUp int
	// SeedRSN is the first candidate when the store is empty.
	SeedRSN int64
}

// Driver executes scan passes. Workers coordinate exclusively through the
// record store's claim protocol; the driver itself holds no locks beyond a
// shared miss counter.
type Driver struct {
	store   store.RecordStore
	fetcher fetch.Fetcher
	archive archive.Sink
	events  events.Publisher
	clock   Clock
	logger  *zap.Logger
	cfg     Config
}

// NewDriver constructs a Driver. The archive sink and event publisher are
// optional; nil disables them.
func NewDriver(
	recordStore store.RecordStore,
	fetcher fetch.Fetcher,
	sink archive.Sink,
	publisher events.Publisher,
	clock Clock,
	cfg Config,
	logger *zap.Logger,
) *Driver {
	if sink == nil {
		sink = archive.Nop{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if clock == nil {
		clock = systemClock{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		store:   recordStore,
		fetcher: fetcher,
		archive: sink,
		events:  publisher,
		clock:   clock,
		logger:  logger,
		cfg:     cfg,
	}
}

// ScanForward explores unclaimed territory past the known frontier. Each
// worker claims fresh RSNs via the claim protocol and processes them until
// the pool has seen cfg.GiveUp consecutive misses; a capture resets the
// counter to zero.
func (d *Driver) ScanForward(ctx context.Context) error {
	if d.cfg.GiveUp <= 0 {
		return fmt.Errorf("forward give-up threshold must be > 0")
	}

	passID := uuid.NewString()
	log := d.logger.With(zap.String("pass_id", passID), zap.String("direction", "forward"))
	log.Info("starting forward scan",
		zap.Int("workers", d.cfg.Workers),
		zap.Int("give_up", d.cfg.GiveUp),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		misses   atomic.Int64
		firstErr error
		errOnce  sync.Once
		wg       sync.WaitGroup
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				if misses.Load() >= int64(d.cfg.GiveUp) {
					return
				}
				rsn, err := d.nextRSN(ctx)
				if err != nil {
					if ctx.Err() == nil {
						fail(err)
					}
					return
				}
				rec, err := d.process(ctx, rsn, log)
				if err != nil {
					fail(err)
					return
				}
				if rec.ScrapeStatus == permit.ScrapeCaptured {
					misses.Store(0)
				} else {
					misses.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return fmt.Errorf("forward scan pass %s: %w", passID, firstErr)
	}
	log.Info("forward scan finished")
	return nil
}

// ScanBackward re-processes the n most recent not_found RSNs exactly once
// each, so registry data that arrived late still gets captured. There is no
// early termination.
func (d *Driver) ScanBackward(ctx context.Context, n int) error {
	if n <= 0 || n > store.BackfillQueryLimit {
		return fmt.Errorf("backward count %d out of range 1..%d", n, store.BackfillQueryLimit)
	}

	passID := uuid.NewString()
	log := d.logger.With(zap.String("pass_id", passID), zap.String("direction", "backward"))

	rsns, err := d.store.RecentNotFound(ctx, n)
	if err != nil {
		return fmt.Errorf("backward scan pass %s: %w", passID, err)
	}
	log.Info("starting backward scan", zap.Int("rsns", len(rsns)), zap.Int("workers", d.cfg.Workers))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		firstErr error
		errOnce  sync.Once
		wg       sync.WaitGroup
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	work := make(chan int64)
	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rsn := range work {
				if ctx.Err() != nil {
					return
				}
				if _, err := d.process(ctx, rsn, log); err != nil {
					fail(err)
					return
				}
			}
		}()
	}

feed:
	for _, rsn := range rsns {
		select {
		case work <- rsn:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	if firstErr != nil {
		return fmt.Errorf("backward scan pass %s: %w", passID, firstErr)
	}
	log.Info("backward scan finished")
	return nil
}

// process runs the per-RSN transition and persists the outcome. Fetch
// failures become a failed status, never an error; only a store write
// failure is fatal to the pass.
func (d *Driver) process(ctx context.Context, rsn int64, log *zap.Logger) (permit.Record, error) {
	metrics.WorkerStarted()
	defer metrics.WorkerStopped()

	rec := d.buildRecord(ctx, rsn, log)
	metrics.ObserveScan(string(rec.ScrapeStatus))

	if err := d.store.Upsert(ctx, rec); err != nil {
		return rec, fmt.Errorf("persist rsn %d: %w", rsn, err)
	}
	return rec, nil
}

func (d *Driver) buildRecord(ctx context.Context, rsn int64, log *zap.Logger) permit.Record {
	rec := permit.Record{
		RSN:          rsn,
		ScrapeStatus: permit.ScrapeNotFound,
		BotStatus:    permit.BotNothingToPost,
		ScrapeDate:   d.clock.Now(),
	}

	markup, err := d.fetcher.Fetch(ctx, rsn)
	if err != nil {
		log.Warn("fetch gave up", zap.Int64("rsn", rsn), zap.Error(err))
		rec.ScrapeStatus = permit.ScrapeFailed
		return rec
	}

	if strings.Contains(string(markup), noRowsSentinel) {
		log.Debug("rsn not found", zap.Int64("rsn", rsn))
		return rec
	}

	fields, err := extract.Extract(markup)
	if err != nil {
		log.Warn("extract failed", zap.Int64("rsn", rsn), zap.Error(err))
		rec.ScrapeStatus = permit.ScrapeNoContent
		return rec
	}
	if len(fields) == 0 {
		rec.ScrapeStatus = permit.ScrapeNoContent
		return rec
	}

	rec.ScrapeStatus = permit.ScrapeCaptured
	rec.Fields = extract.Normalize(fields)
	if permit.Tweetworthy(rec.Fields) {
		rec.BotStatus = permit.BotReady
	} else {
		rec.BotStatus = permit.BotNotWorthy
	}
	log.Info("captured",
		zap.Int64("rsn", rsn),
		zap.String("permit_id", rec.Fields.PermitID),
		zap.String("bot_status", string(rec.BotStatus)),
	)

	uri := d.archivePage(ctx, rsn, markup, log)
	d.publishCapture(ctx, rec, uri, log)
	return rec
}

// archivePage stores the raw markup for replay; failures are logged, not
// fatal, because the extracted record is already in hand.
func (d *Driver) archivePage(ctx context.Context, rsn int64, markup []byte, log *zap.Logger) string {
	uri, err := d.archive.Put(ctx, rsn, markup)
	if err != nil {
		log.Warn("archive failed", zap.Int64("rsn", rsn), zap.Error(err))
		return ""
	}
	return uri
}

func (d *Driver) publishCapture(ctx context.Context, rec permit.Record, archiveURI string, log *zap.Logger) {
	_, err := d.events.Publish(ctx, events.CaptureEvent{
		RSN:        rec.RSN,
		PermitID:   rec.Fields.PermitID,
		Subtype:    rec.Fields.Subtype,
		BotStatus:  string(rec.BotStatus),
		ScrapeDate: rec.ScrapeDate,
		ArchiveURI: archiveURI,
	})
	if err != nil {
		log.Warn("capture event publish failed", zap.Int64("rsn", rec.RSN), zap.Error(err))
	}
}
