package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestMetricsExposeRecordedValues(t *testing.T) {
	ctx := context.Background()
	m, handler, err := NewMetrics(ctx)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	m.RecordStage(ctx, "image", "ok", 1500*time.Millisecond)
	m.RecordAPIRequest(ctx, "chat", "ok")
	m.RecordAPIRequest(ctx, "video", "")
	m.RecordItem(ctx, false)
	m.RecordBatch(ctx, 90*time.Second)
	m.RecordQAScore(ctx, 90)

	body := scrape(t, handler)
	for _, want := range []string{
		"menucast_stage_duration_seconds",
		`stage="image"`,
		"menucast_api_requests_total",
		`capability="chat"`,
		`outcome="unknown"`,
		"menucast_items_total",
		`outcome="failed"`,
		"menucast_batch_duration_seconds",
		"menucast_qa_score",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("scrape missing %q:\n%s", want, body)
		}
	}
}

func TestMetricsInstancesAreIndependent(t *testing.T) {
	ctx := context.Background()
	first, _, err := NewMetrics(ctx)
	if err != nil {
		t.Fatalf("first NewMetrics: %v", err)
	}
	second, handler, err := NewMetrics(ctx)
	if err != nil {
		t.Fatalf("second NewMetrics: %v", err)
	}
	first.RecordItem(ctx, true)

	if body := scrape(t, handler); strings.Contains(body, `outcome="ok"`) {
		t.Fatalf("second registry saw first registry's samples")
	}
	_ = second
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordStage(ctx, "audio", "ok", time.Second)
	m.RecordAPIRequest(ctx, "tts", "ok")
	m.RecordItem(ctx, true)
	m.RecordBatch(ctx, time.Second)
	m.RecordQAScore(ctx, 100)
	if err := m.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown on nil: %v", err)
	}
}

func TestServeRejectsEmptyAddress(t *testing.T) {
	if err := Serve(context.Background(), "", http.NotFoundHandler(), nil); err == nil {
		t.Fatal("expected error for empty address")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), nil) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}
