package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"menucast/internal/config"
)

const userAgent = "menucast/0.1.0"

// Event identifies the kind of notification being published.
type Event string

const (
	EventBatchCompleted Event = "batch_completed"
	EventQADaily        Event = "qa_daily"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries event fields. Recognised keys: "subject" and "body" for
// email, "text", "summary", and "details" for webhooks. Every key is
// forwarded to the queue sink.
type Payload map[string]any

// String returns the trimmed string stored under key.
func (p Payload) String(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case error:
		return strings.TrimSpace(v.Error())
	}
	return ""
}

// Service publishes events to the configured sinks.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a fan-out service over every configured sink. When no
// sink is configured a noop implementation is returned.
func NewService(ctx context.Context, cfg *config.Config) (Service, error) {
	n := cfg.Notifications
	timeout := time.Duration(n.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var sinks []Service
	if strings.TrimSpace(n.SMTPHost) != "" && len(n.EmailTo) > 0 {
		sinks = append(sinks, NewEmail(n))
	}
	if strings.TrimSpace(n.WebhookURL) != "" {
		sinks = append(sinks, NewWebhook(n.WebhookURL, timeout))
	}
	if strings.TrimSpace(n.SQSQueueURL) != "" {
		client, err := NewSQSClient(ctx, cfg.Upload.Region)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, NewSQS(client, n.SQSQueueURL))
	}
	switch len(sinks) {
	case 0:
		return Noop(), nil
	case 1:
		return sinks[0], nil
	}
	return Multi(sinks...), nil
}

// Multi publishes to every sink and joins their errors.
func Multi(sinks ...Service) Service {
	return multiService(sinks)
}

type multiService []Service

func (m multiService) Publish(ctx context.Context, event Event, payload Payload) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop returns a service that drops every event.
func Noop() Service {
	return noopService{}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
