// Package events fans out capture notifications so downstream consumers
// (posting pipelines, alerting) can react without polling the record store.
package events

import (
	"context"
	"time"
)

// CaptureEvent describes one freshly captured permit.
type CaptureEvent struct {
	RSN        int64     `json:"rsn"`
	PermitID   string    `json:"permit_id,omitempty"`
	Subtype    string    `json:"subtype,omitempty"`
	BotStatus  string    `json:"bot_status"`
	ScrapeDate time.Time `json:"scrape_date"`
	ArchiveURI string    `json:"archive_uri,omitempty"`
}

// Publisher pushes capture events to a topic.
type Publisher interface {
	Publish(ctx context.Context, event CaptureEvent) (string, error)
}

// Nop drops events; used when no topic is configured.
type Nop struct{}

// Publish discards the event.
func (Nop) Publish(context.Context, CaptureEvent) (string, error) { return "", nil }
