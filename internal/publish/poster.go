// Package publish selects eligible records, formats them, and posts them to
// the downstream social channel with at-most-once semantics.
package publish

import "context"

// Outcome classifies a successful post call.
type Outcome int

const (
	// OutcomePosted means the channel accepted new content.
	OutcomePosted Outcome = iota
	// OutcomeDuplicate means the channel rejected the content as already
	// posted; treated as success because the content is live either way.
	OutcomeDuplicate
)

// String names the outcome for logs and metric labels.
func (o Outcome) String() string {
	switch o {
	case OutcomeDuplicate:
		return "duplicate"
	default:
		return "posted"
	}
}

// Poster is the external posting collaborator. Duplicate rejection is a
// typed outcome rather than an error so callers never pattern-match on
// error internals.
type Poster interface {
	Post(ctx context.Context, text string) (Outcome, error)
}
