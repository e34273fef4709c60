package notifications

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

type webhookBody struct {
	Text    string `json:"text"`
	Summary any    `json:"summary,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Webhook posts QA and error events as JSON.
type Webhook struct {
	endpoint string
	client   *http.Client
}

// NewWebhook builds a webhook sink.
func NewWebhook(endpoint string, timeout time.Duration) *Webhook {
	return &Webhook{endpoint: strings.TrimSpace(endpoint), client: &http.Client{Timeout: timeout}}
}

// Publish posts {text, summary, details}. Batch events are left to email.
func (w *Webhook) Publish(ctx context.Context, event Event, payload Payload) error {
	if w == nil || w.client == nil || w.endpoint == "" {
		return nil
	}
	if event == EventBatchCompleted {
		return nil
	}
	text := payload.String("text")
	if text == "" {
		text = payload.String("subject")
	}
	if text == "" && event == EventError {
		text = "menucast error: " + payload.String("error")
	}
	data, err := json.Marshal(webhookBody{Text: text, Summary: payload["summary"], Details: payload["details"]})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
