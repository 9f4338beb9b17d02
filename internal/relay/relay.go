// Package relay posts the collected video list to the downstream
// workflow-automation webhook.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vidrelay/internal/upstream"
	"vidrelay/internal/util"
)

const (
	webhookTimeout = 60 * time.Second

	// maxBodyEcho caps how much of the webhook response is relayed back.
	maxBodyEcho = 500
)

// Result reports the webhook's verdict on one relay attempt.
type Result struct {
	Status int    `json:"n8n_status"`
	Body   string `json:"n8n_text"`
	Count  int    `json:"count"`
}

// Dispatcher sends payloads to a statically configured webhook URL.
type Dispatcher struct {
	webhookURL string
	httpClient *http.Client
}

// NewDispatcher creates a relay dispatcher for the given webhook URL.
func NewDispatcher(webhookURL string) *Dispatcher {
	return &Dispatcher{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: webhookTimeout},
	}
}

// Send posts the full video list as one JSON payload. The webhook's status
// and truncated response body are returned regardless of the status code; a
// transport failure is an error. No retry.
func (d *Dispatcher) Send(ctx context.Context, videos []upstream.Video) (*Result, error) {
	if videos == nil {
		videos = []upstream.Video{}
	}
	payload, err := json.Marshal(map[string]any{"items": videos})
	if err != nil {
		return nil, fmt.Errorf("marshal relay payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post to webhook: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}

	return &Result{
		Status: resp.StatusCode,
		Body:   util.Truncate(string(raw), maxBodyEcho),
		Count:  len(videos),
	}, nil
}
