package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"menucast/internal/config"
	"menucast/internal/notifications"
)

func TestNewServiceReturnsNoopWhenNothingConfigured(t *testing.T) {
	cfg := config.Default()
	svc, err := notifications.NewService(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.Publish(context.Background(), notifications.EventBatchCompleted, notifications.Payload{"subject": "x"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestEmailFormatsMessage(t *testing.T) {
	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)
	email := notifications.NewEmail(config.Notifications{
		SMTPHost:     "smtp.example.com",
		SMTPUser:     "bot@example.com",
		SMTPPassword: "secret",
		EmailTo:      []string{"chef@example.com", "owner@example.com"},
	}).WithSender(func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, auth, from, to, string(msg)
		return nil
	})

	err := email.Publish(context.Background(), notifications.EventBatchCompleted, notifications.Payload{
		"subject": "MiniMax Batch: 2 ok, 1 failed",
		"body":    "Attempted: 3\nSucceeded: 2",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || gotFrom != "bot@example.com" || len(gotTo) != 2 || gotAuth == nil {
		t.Fatalf("unexpected envelope addr=%s from=%s to=%v auth=%v", gotAddr, gotFrom, gotTo, gotAuth)
	}
	for _, want := range []string{
		"Subject: MiniMax Batch: 2 ok, 1 failed\r\n",
		"To: chef@example.com, owner@example.com\r\n",
		"Attempted: 3\r\nSucceeded: 2",
	} {
		if !strings.Contains(gotMsg, want) {
			t.Fatalf("message missing %q:\n%s", want, gotMsg)
		}
	}
}

func TestEmailSkipsEventsWithoutSubject(t *testing.T) {
	called := false
	email := notifications.NewEmail(config.Notifications{SMTPHost: "h", EmailTo: []string{"a@b"}}).
		WithSender(func(string, smtp.Auth, string, []string, []byte) error { called = true; return nil })
	if err := email.Publish(context.Background(), notifications.EventError, notifications.Payload{"error": "x"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if called {
		t.Fatal("email without subject should not be sent")
	}
}

func TestWebhookPostsSummary(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	hook := notifications.NewWebhook(server.URL, 0)
	err := hook.Publish(context.Background(), notifications.EventQADaily, notifications.Payload{
		"text":    "QA Daily: 3 ok / 1 issues",
		"summary": map[string]any{"date": "2026-05-04"},
		"details": []string{"tiramisu: missing or tiny music audio"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if body["text"] != "QA Daily: 3 ok / 1 issues" {
		t.Fatalf("unexpected text %v", body["text"])
	}
	if summary, _ := body["summary"].(map[string]any); summary["date"] != "2026-05-04" {
		t.Fatalf("unexpected summary %v", body["summary"])
	}
}

func TestWebhookIgnoresBatchEventsAndReportsHTTPErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	hook := notifications.NewWebhook(server.URL, 0)
	if err := hook.Publish(context.Background(), notifications.EventBatchCompleted, notifications.Payload{"subject": "x"}); err != nil {
		t.Fatalf("batch events should be skipped, got %v", err)
	}
	if calls != 0 {
		t.Fatal("webhook should not receive batch events")
	}
	err := hook.Publish(context.Background(), notifications.EventQADaily, notifications.Payload{"text": "x"})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected http error, got %v", err)
	}
}

type failing struct{ err error }

func (f failing) Publish(context.Context, notifications.Event, notifications.Payload) error { return f.err }

type counting struct{ n *int }

func (c counting) Publish(context.Context, notifications.Event, notifications.Payload) error {
	*c.n++
	return nil
}

func TestMultiPublishesToEverySink(t *testing.T) {
	n := 0
	boom := errors.New("smtp down")
	svc := notifications.Multi(failing{err: boom}, counting{n: &n}, nil)
	err := svc.Publish(context.Background(), notifications.EventTest, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if n != 1 {
		t.Fatal("later sinks must still receive the event")
	}
}
