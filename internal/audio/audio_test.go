package audio_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"testing"

	"menucast/internal/artifacts"
	"menucast/internal/audio"
	"menucast/internal/services"
	"menucast/internal/services/minimax"
	"menucast/internal/testsupport"
)

func newSynth(t *testing.T, backend *testsupport.FakeBackend) (*audio.Synthesizer, *artifacts.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(backend))
	store := testsupport.NewStore(t, cfg)
	return audio.New(cfg, minimax.NewClient(minimax.ConfigFrom(cfg)), store, nil), store
}

func TestVoiceRequiresNarrationScript(t *testing.T) {
	synth, store := newSynth(t, testsupport.NewFakeBackend(t))
	_, err := synth.Voice(context.Background(), "tiramisu")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.MergeContent("tiramisu", artifacts.Document{"narration_script": "   "}); err != nil {
		t.Fatalf("MergeContent: %v", err)
	}
	if _, err := synth.Voice(context.Background(), "tiramisu"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for blank script, got %v", err)
	}
}

func TestVoiceDecodesHexAudio(t *testing.T) {
	backend := testsupport.NewFakeBackend(t)
	payload := []byte("ID3 fake mp3 frames")
	backend.Handle("/v1/t2a_v2", func(req testsupport.Request) (int, any) {
		if req.Body["input"] != "Layers of espresso." || req.Body["voice"] != "warm" {
			t.Errorf("unexpected tts body %v", req.Body)
		}
		return http.StatusOK, map[string]any{"data": map[string]any{"audio": hex.EncodeToString(payload)}}
	})
	synth, store := newSynth(t, backend)
	if _, err := store.MergeContent("tiramisu", artifacts.Document{"narration_script": "Layers of espresso."}); err != nil {
		t.Fatalf("MergeContent: %v", err)
	}
	result, err := synth.Voice(context.Background(), "tiramisu")
	if err != nil {
		t.Fatalf("Voice: %v", err)
	}
	got, err := os.ReadFile(store.AudioPath("tiramisu", artifacts.AudioVoice, "mp3"))
	if err != nil || !bytes.Equal(got, payload) {
		t.Fatalf("voice file = %q, %v", got, err)
	}
	if result.Model != "speech-2.6-hd" || result.File != "build/audio/tiramisu_voice.mp3" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestMusicDownloadsURL(t *testing.T) {
	backend := testsupport.NewFakeBackend(t)
	asset := []byte("music-bytes")
	backend.Handle("/v1/music_generation", func(req testsupport.Request) (int, any) {
		if req.Body["duration"] != float64(20) || req.Body["style"] != "ambient" {
			t.Errorf("unexpected music body %v", req.Body)
		}
		return http.StatusOK, map[string]any{"audio_url": backend.URL() + "/files/music.mp3"}
	})
	backend.Handle("/files/music.mp3", func(testsupport.Request) (int, any) {
		return http.StatusOK, string(asset)
	})
	synth, store := newSynth(t, backend)
	result, err := synth.Music(context.Background(), "tiramisu")
	if err != nil {
		t.Fatalf("Music: %v", err)
	}
	if result.Vibe != "ambient" || result.DurationSec != 20 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !artifacts.Exists(store.AudioMeta("tiramisu", artifacts.AudioMusic), 1) {
		t.Fatal("expected music metadata")
	}
	if backend.Count("/files/music.mp3") != 1 {
		t.Fatal("expected the music url to be downloaded")
	}
}

func TestMusicWithoutAudioFails(t *testing.T) {
	backend := testsupport.NewFakeBackend(t)
	backend.Handle("/v1/music_generation", func(testsupport.Request) (int, any) {
		return http.StatusOK, map[string]any{"base_resp": map[string]any{"status_code": 0}}
	})
	synth, _ := newSynth(t, backend)
	if _, err := synth.Music(context.Background(), "tiramisu"); err == nil {
		t.Fatal("expected extraction failure")
	}
}
