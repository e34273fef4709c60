package testsupport

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Canned artifact sizes comfortably above the default QA thresholds.
const (
	FakeImageBytes = 12 * 1024
	FakeAudioBytes = 2 * 1024
	FakeVideoBytes = 60 * 1024
)

// DefaultCaption is returned by the fake chat endpoint. It carries the
// default brand and local terms so generated copy passes QA.
const DefaultCaption = "Savor handmade pasta at 41 Bistro, the heart of Fort Myers and Southwest Florida dining."

// Request is one call observed by the fake backend.
type Request struct {
	Path          string
	Authorization string
	Body          map[string]any
}

// Responder produces a status code and JSON body for a request.
type Responder func(req Request) (int, any)

// FakeBackend is an httptest server that answers every generative endpoint
// with canned envelopes. Individual paths can be overridden with Handle.
type FakeBackend struct {
	t      testing.TB
	server *httptest.Server

	mu         sync.Mutex
	requests   []Request
	responders map[string]Responder
}

// NewFakeBackend starts a fake backend and registers cleanup.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{t: t, responders: map[string]Responder{}}
	fb.server = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.server.Close)

	image := base64.StdEncoding.EncodeToString(Bytes(FakeImageBytes))
	audio := base64.StdEncoding.EncodeToString(Bytes(FakeAudioBytes))
	video := base64.StdEncoding.EncodeToString(Bytes(FakeVideoBytes))

	fb.Handle("/v1/text/chat/completions", func(Request) (int, any) {
		return http.StatusOK, map[string]any{
			"choices":   []any{map[string]any{"message": map[string]any{"content": DefaultCaption}}},
			"base_resp": map[string]any{"status_code": 0, "status_msg": "success"},
		}
	})
	fb.Handle("/v1/image_generation", func(Request) (int, any) {
		return http.StatusOK, map[string]any{
			"data":      map[string]any{"image_base64": []any{image}},
			"base_resp": map[string]any{"status_code": 0},
		}
	})
	fb.Handle("/v1/t2a_v2", func(Request) (int, any) {
		return http.StatusOK, map[string]any{"data": map[string]any{"audio": audio}, "base_resp": map[string]any{"status_code": 0}}
	})
	fb.Handle("/v1/music_generation", func(Request) (int, any) {
		return http.StatusOK, map[string]any{"audio": audio, "base_resp": map[string]any{"status_code": 0}}
	})
	fb.Handle("/v1/video_generation", func(Request) (int, any) {
		return http.StatusOK, map[string]any{"task_id": "job-1", "base_resp": map[string]any{"status_code": 0}}
	})
	fb.Handle("/v1/video_generation/query", func(Request) (int, any) {
		return http.StatusOK, map[string]any{
			"status":           "Success",
			"video_base64":     video,
			"thumbnail_base64": image,
			"base_resp":        map[string]any{"status_code": 0},
		}
	})
	return fb
}

// URL returns the backend base URL.
func (f *FakeBackend) URL() string {
	return f.server.URL
}

// Handle overrides the responder for path.
func (f *FakeBackend) Handle(path string, responder Responder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responders[path] = responder
}

// Fail makes path answer with an error envelope.
func (f *FakeBackend) Fail(path string, code int, message string) {
	f.Handle(path, func(Request) (int, any) {
		return http.StatusOK, map[string]any{"base_resp": map[string]any{"status_code": code, "status_msg": message}}
	})
}

// Requests returns the calls observed for path.
func (f *FakeBackend) Requests(path string) []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Request
	for _, req := range f.requests {
		if req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

// Count returns the number of calls observed for path.
func (f *FakeBackend) Count(path string) int {
	return len(f.Requests(path))
}

func (f *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	req := Request{Path: r.URL.Path, Authorization: r.Header.Get("Authorization")}
	if len(strings.TrimSpace(string(raw))) > 0 {
		_ = json.Unmarshal(raw, &req.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	responder, ok := f.responders[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	status, payload := responder(req)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
