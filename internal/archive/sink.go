// Package archive persists raw registry markup for captured RSNs. The
// record store keeps only the extracted fields; the raw pages are archived
// to object storage so extraction bugs can be replayed without re-crawling.
package archive

import "context"

// Sink writes one raw page and returns a URI for the stored object.
type Sink interface {
	Put(ctx context.Context, rsn int64, markup []byte) (string, error)
}

// Nop discards pages; used when archiving is not configured.
type Nop struct{}

// Put discards the page and returns an empty URI.
func (Nop) Put(context.Context, int64, []byte) (string, error) { return "", nil }
