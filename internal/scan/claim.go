package scan

import (
	"context"
	"errors"
	"fmt"

	"github.com/permitwatch/permit-crawler/internal/metrics"
	"github.com/permitwatch/permit-crawler/internal/store"
)

// nextRSN implements the frontier claim protocol: read the current maximum
// claimed RSN, then walk candidates upward attempting a conditional insert
// until one sticks. A lost race advances to the next candidate; under heavy
// contention this costs O(workers) extra claim attempts, which is cheap
// relative to the fetch that follows.
func (d *Driver) nextRSN(ctx context.Context) (int64, error) {
	candidate, err := d.store.MaxRSN(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		candidate = d.cfg.SeedRSN
	case err != nil:
		return 0, fmt.Errorf("read max rsn: %w", err)
	default:
		candidate++
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		err := d.store.Claim(ctx, candidate)
		switch {
		case err == nil:
			return candidate, nil
		case errors.Is(err, store.ErrAlreadyClaimed):
			metrics.ObserveClaimConflict()
			candidate++
		default:
			return 0, fmt.Errorf("claim rsn %d: %w", candidate, err)
		}
	}
}
