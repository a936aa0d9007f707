// Package store defines the record store contract used by the scan and
// publish subsystems. By using an interface, we decouple the engine from a
// specific database implementation, allowing a memory twin in tests.
package store

import (
	"context"
	"errors"

	"github.com/permitwatch/permit-crawler/internal/permit"
)

// ErrAlreadyClaimed is returned by Claim when another worker (now or in the
// past) owns the RSN. Callers advance to the next candidate; this is control
// flow, not a failure.
var ErrAlreadyClaimed = errors.New("rsn already claimed")

// ErrNotFound is returned by read operations when no row matches.
var ErrNotFound = errors.New("record not found")

// BackfillQueryLimit caps RecentNotFound queries; the backing store refuses
// larger result sets.
const BackfillQueryLimit = 5000

// RecordStore is the sole mutator of persisted permit state. The store's
// uniqueness constraint on RSN is the system's only concurrency-control
// primitive: Claim converts "pick the next unclaimed RSN" into an
// at-most-once race resolved by the constraint, not by worker coordination.
type RecordStore interface {
	// Claim conditionally inserts an in_progress row for rsn. It returns
	// ErrAlreadyClaimed when the uniqueness constraint rejects the insert.
	Claim(ctx context.Context, rsn int64) error

	// MaxRSN returns the largest RSN ever claimed, or ErrNotFound when the
	// store is empty.
	MaxRSN(ctx context.Context) (int64, error)

	// LatestCaptured returns the largest RSN with scrape status captured, or
	// ErrNotFound when none exists.
	LatestCaptured(ctx context.Context) (int64, error)

	// RecentNotFound returns up to limit RSNs currently flagged not_found,
	// most recent first. Limit must not exceed BackfillQueryLimit.
	RecentNotFound(ctx context.Context, limit int) ([]int64, error)

	// Upsert writes a record keyed by RSN with merge-on-conflict semantics;
	// a later re-scan overwrites the earlier outcome.
	Upsert(ctx context.Context, rec permit.Record) error

	// ReadyToPost returns the records eligible for publication
	// (bot status ready_to_tweet), most recent first.
	ReadyToPost(ctx context.Context) ([]permit.Record, error)

	// SetBotStatus overwrites the publication status of one record.
	SetBotStatus(ctx context.Context, rsn int64, status permit.BotStatus) error
}
