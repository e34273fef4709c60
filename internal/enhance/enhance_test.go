package enhance_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"testing"

	"menucast/internal/artifacts"
	"menucast/internal/enhance"
	"menucast/internal/menu"
	"menucast/internal/services"
	"menucast/internal/services/minimax"
	"menucast/internal/testsupport"
)

func newEnhancer(t *testing.T, backend *testsupport.FakeBackend, opts ...testsupport.ConfigOption) (*enhance.Enhancer, *artifacts.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithBackend(backend)}, opts...)...)
	store := testsupport.NewStore(t, cfg)
	client := minimax.NewClient(minimax.ConfigFrom(cfg))
	return enhance.New(cfg, client, store, nil), store
}

var scampi = menu.Item{Slug: "shrimp-scampi", Name: "Shrimp Scampi", Description: "Garlic butter shrimp."}

func TestEnhanceSavesDecodedVariants(t *testing.T) {
	backend := testsupport.NewFakeBackend(t)
	first := []byte("first-variant")
	second := []byte("second-variant")
	backend.Handle("/v1/image_generation", func(testsupport.Request) (int, any) {
		return http.StatusOK, map[string]any{"data": []any{
			map[string]any{"b64_json": base64.StdEncoding.EncodeToString(first)},
			map[string]any{"b64_json": "%%%not-base64%%%"},
			map[string]any{"image_base64": base64.StdEncoding.EncodeToString(second)},
		}}
	})
	enhancer, store := newEnhancer(t, backend, testsupport.WithSourceImages("shrimp-scampi.jpg"))

	result, err := enhancer.Enhance(context.Background(), scampi, enhance.Options{})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if len(result.Outputs) != 2 {
		t.Fatalf("expected 2 saved variants, got %v", result.Outputs)
	}
	for n, want := range map[int][]byte{1: first, 2: second} {
		got, err := os.ReadFile(store.EnhancedImage("shrimp-scampi", n))
		if err != nil {
			t.Fatalf("read variant %d: %v", n, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("variant %d content mismatch", n)
		}
	}

	var meta enhance.Result
	if err := artifacts.ReadJSON(store.EnhancedMeta("shrimp-scampi"), &meta); err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if meta.Model != "image-01" || meta.SourceImage != "data/shrimp-scampi.jpg" || meta.StylePreset != "hero" {
		t.Fatalf("unexpected metadata %+v", meta)
	}

	reqs := backend.Requests("/v1/image_generation")
	if len(reqs) != 1 {
		t.Fatalf("expected one image request, got %d", len(reqs))
	}
	if reqs[0].Body["model"] != "image-01" || reqs[0].Body["style_preset"] != "hero" {
		t.Fatalf("unexpected request body %v", reqs[0].Body)
	}
}

func TestEnhanceMissingSourceIsNotFound(t *testing.T) {
	enhancer, _ := newEnhancer(t, testsupport.NewFakeBackend(t))
	_, err := enhancer.Enhance(context.Background(), scampi, enhance.Options{})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEnhanceFailsWhenNoVariantSaved(t *testing.T) {
	backend := testsupport.NewFakeBackend(t)
	backend.Handle("/v1/image_generation", func(testsupport.Request) (int, any) {
		return http.StatusOK, map[string]any{"data": []any{map[string]any{"b64_json": "%%%"}}}
	})
	enhancer, store := newEnhancer(t, backend, testsupport.WithSourceImages("shrimp-scampi-1.png"))
	_, err := enhancer.Enhance(context.Background(), scampi, enhance.Options{Variants: 2})
	if err == nil {
		t.Fatal("expected failure with zero variants")
	}
	if _, ok := store.FirstEnhancedImage("shrimp-scampi"); ok {
		t.Fatal("did not expect a saved variant")
	}
	if reqs := backend.Requests("/v1/image_generation"); reqs[0].Body["n"] != float64(2) {
		t.Fatalf("expected n=2, got %v", reqs[0].Body["n"])
	}
}

func TestPromptIncludesDescription(t *testing.T) {
	prompt := enhance.Prompt(scampi)
	if !bytes.Contains([]byte(prompt), []byte("'Shrimp Scampi'")) || !bytes.Contains([]byte(prompt), []byte("Description: Garlic butter shrimp.")) {
		t.Fatalf("unexpected prompt %q", prompt)
	}
}
