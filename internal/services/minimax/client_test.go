package minimax

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"menucast/internal/config"
	"menucast/internal/services"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Sleep(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
}

func testConfig(url string) Config {
	return Config{
		BaseURL:      url,
		APIKey:       "secret",
		Models:       Models{Chat: "MiniMax-M2", Image: "image-01", TTS: "speech-2.6-hd", Music: "music-2.0", Video: "MiniMax-Hailuo-2.3"},
		Paths:        Paths{Text: "/v1/text/chat/completions", Image: "/v1/image_generation", TTS: "/v1/t2a_v2", Music: "/v1/music_generation", Video: "/v1/video_generation", VideoQuery: "/v1/video_generation/query"},
		MaxRetries:   3,
		PollInterval: 3 * time.Second,
		VideoTimeout: 30 * time.Second,
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestChatTextSendsModelAndBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected auth header %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["model"] != "MiniMax-M2" {
			t.Fatalf("expected model in body, got %v", body["model"])
		}
		writeJSON(t, w, map[string]any{
			"choices":   []any{map[string]any{"message": map[string]any{"content": "  Fresh linguine tonight.  "}}},
			"base_resp": map[string]any{"status_code": 0, "status_msg": "success"},
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	text, err := client.ChatText(context.Background(), ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatalf("ChatText returned error: %v", err)
	}
	if text != "Fresh linguine tonight." {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestEnvelopeErrorIsRetriedThenTyped(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(t, w, map[string]any{"base_resp": map[string]any{"status_code": 1002, "status_msg": "rate limited"}})
	}))
	defer server.Close()

	clock := newFakeClock()
	client := NewClient(testConfig(server.URL), WithSleeper(clock.Sleep), WithClock(clock.Now))
	_, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "plate"})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != 1002 || apiErr.Message != "rate limited" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(clock.sleeps) != len(want) {
		t.Fatalf("unexpected sleeps %v", clock.sleeps)
	}
	for i := range want {
		if clock.sleeps[i] != want[i] {
			t.Fatalf("sleep %d = %s, want %s", i, clock.sleeps[i], want[i])
		}
	}
}

func TestHTTPErrorRecoversOnRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
			return
		}
		writeJSON(t, w, map[string]any{"data": map[string]any{"audio": "494433"}})
	}))
	defer server.Close()

	clock := newFakeClock()
	client := NewClient(testConfig(server.URL), WithSleeper(clock.Sleep), WithClock(clock.Now))
	resp, err := client.Speech(context.Background(), SpeechRequest{Input: "Welcome", OutputFormat: "mp3", Speed: 1})
	if err != nil {
		t.Fatalf("Speech returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if _, ok := resp["data"]; !ok {
		t.Fatalf("unexpected response %v", resp)
	}
}

func TestHTTPErrorExhaustionCarriesRawPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 1
	client := NewClient(cfg)
	_, err := client.Music(context.Background(), MusicRequest{Prompt: "jazz"})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusUnauthorized || httpErr.Payload["raw"] != "not json" {
		t.Fatalf("unexpected http error %+v", httpErr)
	}
}

func TestPacingEnforcesMinimumInterval(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"text": "ok"})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RateLimitRPM = 30
	clock := newFakeClock()
	client := NewClient(cfg, WithSleeper(clock.Sleep), WithClock(clock.Now))
	for i := 0; i < 2; i++ {
		if _, err := client.Chat(context.Background(), ChatRequest{}); err != nil {
			t.Fatalf("Chat returned error: %v", err)
		}
	}
	if len(clock.sleeps) != 1 || clock.sleeps[0] != 2*time.Second {
		t.Fatalf("expected one 2s pacing sleep, got %v", clock.sleeps)
	}
}

func TestMissingAPIKeyIsConfigurationError(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.APIKey = ""
	_, err := NewClient(cfg).Chat(context.Background(), ChatRequest{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestGenerateVideoPollsUntilTerminal(t *testing.T) {
	var queries int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/video_generation":
			writeJSON(t, w, map[string]any{"task_id": "job-1", "base_resp": map[string]any{"status_code": 0}})
		case "/v1/video_generation/query":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["id"] != "job-1" {
				t.Fatalf("unexpected query body %v", body)
			}
			queries++
			if queries < 3 {
				writeJSON(t, w, map[string]any{"status": "Processing"})
				return
			}
			writeJSON(t, w, map[string]any{"status": "Success", "video_url": "https://cdn/v.mp4"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	clock := newFakeClock()
	client := NewClient(testConfig(server.URL), WithSleeper(clock.Sleep), WithClock(clock.Now))
	resp, err := client.GenerateVideo(context.Background(), VideoRequest{Duration: 6, Resolution: "1080P"})
	if err != nil {
		t.Fatalf("GenerateVideo returned error: %v", err)
	}
	if resp["video_url"] != "https://cdn/v.mp4" {
		t.Fatalf("unexpected response %v", resp)
	}
	if queries != 3 {
		t.Fatalf("expected 3 queries, got %d", queries)
	}
}

func TestGenerateVideoTimeoutYieldsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/query") {
			writeJSON(t, w, map[string]any{"status": "Queueing"})
			return
		}
		writeJSON(t, w, map[string]any{"task_id": "job-2"})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.VideoTimeout = 9 * time.Second
	clock := newFakeClock()
	client := NewClient(cfg, WithSleeper(clock.Sleep), WithClock(clock.Now))
	resp, err := client.GenerateVideo(context.Background(), VideoRequest{})
	if err != nil {
		t.Fatalf("expected timeout envelope, got error %v", err)
	}
	code, msg := Envelope(resp)
	if code != -1 || msg != "timeout waiting for video" {
		t.Fatalf("unexpected envelope %d %q", code, msg)
	}
}

func TestGenerateVideoInlineSkipsPolling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/query") {
			t.Fatal("did not expect a status query")
		}
		writeJSON(t, w, map[string]any{"task_id": "job-3", "video_base64": "AAAA"})
	}))
	defer server.Close()

	resp, err := NewClient(testConfig(server.URL)).GenerateVideo(context.Background(), VideoRequest{})
	if err != nil {
		t.Fatalf("GenerateVideo returned error: %v", err)
	}
	if resp["video_base64"] != "AAAA" {
		t.Fatalf("unexpected response %v", resp)
	}
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("bytes"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), WithHTTPClient(server.Client()))
	data, err := client.Download(context.Background(), server.URL+"/asset.jpg")
	if err != nil || string(data) != "bytes" {
		t.Fatalf("Download = %q, %v", data, err)
	}
	if _, err := client.Download(context.Background(), server.URL+"/missing"); err == nil {
		t.Fatal("expected 404 error")
	}
}

type countingRecorder struct {
	outcomes []string
}

func (r *countingRecorder) RecordAPIRequest(_ context.Context, capability, outcome string) {
	r.outcomes = append(r.outcomes, capability+":"+outcome)
}

func TestHealthCheckSingleAttemptAndRecorder(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	recorder := &countingRecorder{}
	client := NewClient(testConfig(server.URL), WithRecorder(recorder))
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check failure")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
	if len(recorder.outcomes) != 1 || recorder.outcomes[0] != "text:http_error" {
		t.Fatalf("unexpected recorded outcomes %v", recorder.outcomes)
	}
}

func TestConfigFromCanonicalizesModels(t *testing.T) {
	cfg := config.Default()
	cfg.MiniMax.ImageModel = "minimax-image-01"
	cfg.MiniMax.VideoModel = "hailuo-02"
	got := ConfigFrom(&cfg)
	if got.Models.Image != "image-01" || got.Models.Video != "MiniMax-Hailuo-02" {
		t.Fatalf("unexpected models %+v", got.Models)
	}
	if got.Timeout != 60*time.Second || got.VideoTimeout != 180*time.Second {
		t.Fatalf("unexpected timeouts %+v", got)
	}
}
