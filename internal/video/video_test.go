package video_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"

	"menucast/internal/artifacts"
	"menucast/internal/platforms"
	"menucast/internal/services"
	"menucast/internal/services/minimax"
	"menucast/internal/testsupport"
	"menucast/internal/video"
)

const slug = "chicken-marsala"

func newRenderer(t *testing.T, backend *testsupport.FakeBackend) (*video.Renderer, *artifacts.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(backend))
	store := testsupport.NewStore(t, cfg)
	return video.New(cfg, minimax.NewClient(minimax.ConfigFrom(cfg)), store, nil), store
}

func reel(t *testing.T) platforms.Spec {
	t.Helper()
	spec, ok := platforms.Lookup("instagram_reel")
	if !ok {
		t.Fatal("instagram_reel missing from platform table")
	}
	return spec
}

func TestRenderRequiresEnhancedImage(t *testing.T) {
	renderer, _ := newRenderer(t, testsupport.NewFakeBackend(t))
	_, err := renderer.Render(context.Background(), slug, reel(t))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRenderPollsAndSavesArtifacts(t *testing.T) {
	backend := testsupport.NewFakeBackend(t)
	renderer, store := newRenderer(t, backend)
	testsupport.WriteFile(t, store.EnhancedImage(slug, 1), 512)
	testsupport.WriteFile(t, store.AudioPath(slug, artifacts.AudioVoice, "mp3"), 256)

	result, err := renderer.Render(context.Background(), slug, reel(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	reqs := backend.Requests("/v1/video_generation")
	if len(reqs) != 1 {
		t.Fatalf("expected one render request, got %d", len(reqs))
	}
	body := reqs[0].Body
	if body["aspect_ratio"] != "9:16" || body["resolution"] != "1080P" || body["duration"] != float64(20) {
		t.Fatalf("unexpected render body: aspect=%v resolution=%v duration=%v", body["aspect_ratio"], body["resolution"], body["duration"])
	}
	if _, ok := body["audio_base64"]; !ok {
		t.Fatal("expected voice track in render request")
	}
	if _, ok := body["music_base64"]; ok {
		t.Fatal("music track should be omitted when absent")
	}
	if backend.Count("/v1/video_generation/query") != 1 {
		t.Fatalf("expected a single status query, got %d", backend.Count("/v1/video_generation/query"))
	}

	info, err := os.Stat(store.VideoPath(slug))
	if err != nil || info.Size() != testsupport.FakeVideoBytes {
		t.Fatalf("video file: %v size=%v", err, info)
	}
	if result.Thumbnail == nil || !artifacts.Exists(store.ThumbnailPath(slug), 1) {
		t.Fatal("expected thumbnail to be saved")
	}
	var meta video.Result
	if err := artifacts.ReadJSON(store.VideoMeta(slug), &meta); err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if meta.Platform != "instagram_reel" || meta.Model != "MiniMax-Hailuo-2.3" || meta.File != "build/videos/chicken-marsala.mp4" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
}

func TestRenderFailureEnvelopeSurfacesMessage(t *testing.T) {
	backend := testsupport.NewFakeBackend(t)
	backend.Fail("/v1/video_generation/query", 2013, "invalid params")
	renderer, store := newRenderer(t, backend)
	testsupport.WriteFile(t, store.EnhancedImage(slug, 1), 512)

	_, err := renderer.Render(context.Background(), slug, reel(t))
	if err == nil || !strings.Contains(err.Error(), "invalid params") {
		t.Fatalf("expected envelope message in error, got %v", err)
	}
	if artifacts.Exists(store.VideoPath(slug), 1) {
		t.Fatal("no video should be written on failure")
	}
}

func TestRenderKeepsVideoWhenThumbnailFails(t *testing.T) {
	backend := testsupport.NewFakeBackend(t)
	backend.Handle("/v1/video_generation", func(testsupport.Request) (int, any) {
		return http.StatusOK, map[string]any{
			"video_base64":  base64.StdEncoding.EncodeToString([]byte("inline-video")),
			"thumbnail_url": backend.URL() + "/missing-thumb.jpg",
		}
	})
	renderer, store := newRenderer(t, backend)
	testsupport.WriteFile(t, store.EnhancedImage(slug, 1), 512)

	result, err := renderer.Render(context.Background(), slug, reel(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if result.Thumbnail != nil {
		t.Fatalf("expected no thumbnail, got %v", *result.Thumbnail)
	}
	if backend.Count("/v1/video_generation/query") != 0 {
		t.Fatal("inline result should not be polled")
	}
	got, err := os.ReadFile(store.VideoPath(slug))
	if err != nil || string(got) != "inline-video" {
		t.Fatalf("video content = %q, %v", got, err)
	}
}
