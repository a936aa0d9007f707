// Package fetch implements the registry fetch collaborator using Colly.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Fetcher retrieves raw markup for one RSN. Retry and timeout handling is
// internal; an error from Fetch means the budget is exhausted.
type Fetcher interface {
	Fetch(ctx context.Context, rsn int64) ([]byte, error)
}

// Config controls the registry collector behavior.
type Config struct {
	// BaseURL is the RSN-parameterized URL prefix; the RSN is appended.
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// MaxAttempts bounds retries per RSN, default 4.
	MaxAttempts int
}

// CollyFetcher implements Fetcher on a Colly collector.
type CollyFetcher struct {
	cfg    Config
	base   *colly.Collector
	policy *RetryPolicy
	logger *zap.Logger
}

// New builds a CollyFetcher.
func New(cfg Config, logger *zap.Logger) (*CollyFetcher, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("registry.base_url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	c := colly.NewCollector(colly.Async(false))
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.Timeout)

	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollyFetcher{
		cfg:    cfg,
		base:   c,
		policy: NewRetryPolicy(cfg.MaxAttempts),
		logger: logger,
	}, nil
}

// URL returns the registry URL for an RSN; it is also the permalink used in
// published posts.
func (f *CollyFetcher) URL(rsn int64) string {
	return fmt.Sprintf("%s%d", f.cfg.BaseURL, rsn)
}

// Fetch retrieves the markup for rsn, retrying transient failures up to the
// policy budget before reporting failure upward.
func (f *CollyFetcher) Fetch(ctx context.Context, rsn int64) ([]byte, error) {
	url := f.URL(rsn)

	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := f.fetchOnce(url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !f.policy.ShouldRetry(err, attempt) {
			break
		}
		f.logger.Warn("fetch attempt failed",
			zap.Int64("rsn", rsn),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.policy.Backoff(attempt)):
		}
	}
	return nil, fmt.Errorf("fetch rsn %d: %w", rsn, lastErr)
}

func (f *CollyFetcher) fetchOnce(url string) ([]byte, error) {
	collector := f.base.Clone()
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(f.cfg.Timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		fetchErr = err
	})

	if err := collector.Visit(url); err != nil {
		return nil, err
	}
	collector.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	return body, nil
}
