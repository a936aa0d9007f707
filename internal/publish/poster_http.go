package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// duplicateMarker is the substring the posting API includes in its rejection
// body when identical content was already published.
const duplicateMarker = "duplicate"

// HTTPPosterConfig configures the status-posting API client.
type HTTPPosterConfig struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// HTTPPoster posts status text to an HTTP posting API. The API signals
// duplicate content with a 403 whose body names the duplicate; that is
// surfaced as OutcomeDuplicate, not an error.
type HTTPPoster struct {
	cfg    HTTPPosterConfig
	client *http.Client
}

// NewHTTPPoster builds an HTTPPoster.
func NewHTTPPoster(cfg HTTPPosterConfig) (*HTTPPoster, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("publish.endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &HTTPPoster{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type postRequest struct {
	Text string `json:"text"`
}

// Post sends the text to the posting API.
func (p *HTTPPoster) Post(ctx context.Context, text string) (Outcome, error) {
	payload, err := json.Marshal(postRequest{Text: text})
	if err != nil {
		return OutcomePosted, fmt.Errorf("marshal post payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return OutcomePosted, fmt.Errorf("build post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.Token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return OutcomePosted, fmt.Errorf("post status: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return OutcomePosted, nil
	case resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(string(body)), duplicateMarker):
		return OutcomeDuplicate, nil
	default:
		return OutcomePosted, fmt.Errorf("posting api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
