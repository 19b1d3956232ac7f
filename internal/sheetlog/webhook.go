package sheetlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"event-rsvp/internal/models"
)

// WebhookLogger posts the response as JSON to a spreadsheet web app
// (e.g. a Google Apps Script deployment). The reply is never read: only a
// failure to deliver the request is reported.
type WebhookLogger struct {
	url    string
	client *http.Client
}

// NewWebhookLogger creates a webhook logger. A zero timeout means no limit
// beyond the caller's context.
func NewWebhookLogger(url string, timeout time.Duration) *WebhookLogger {
	return &WebhookLogger{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Log sends one POST
func (w *WebhookLogger) Log(ctx context.Context, resp models.GuestResponse) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to webhook: %w", err)
	}
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()

	return nil
}
