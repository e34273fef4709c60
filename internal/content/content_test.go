package content_test

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"menucast/internal/artifacts"
	"menucast/internal/config"
	"menucast/internal/content"
	"menucast/internal/menu"
	"menucast/internal/platforms"
	"menucast/internal/services/minimax"
	"menucast/internal/testsupport"
)

var scampi = menu.Item{
	Slug:        "shrimp-scampi",
	Name:        "Shrimp Scampi",
	Description: "Garlic butter shrimp over linguine.",
	Ingredients: []string{"Shrimp", "Butter"},
}

func newGenerator(t *testing.T, backend *testsupport.FakeBackend) (*content.Generator, *artifacts.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(backend))
	store := testsupport.NewStore(t, cfg)
	return content.New(cfg, minimax.NewClient(minimax.ConfigFrom(cfg)), store, nil), store
}

func TestDetectAllergens(t *testing.T) {
	got := content.DetectAllergens([]string{"Shrimp", "Butter"})
	if !reflect.DeepEqual(got, []string{"dairy", "shellfish"}) {
		t.Fatalf("DetectAllergens = %v", got)
	}
	if got := content.DetectAllergens(nil); len(got) != 0 {
		t.Fatalf("expected no allergens, got %v", got)
	}
	got = content.DetectAllergens([]string{"Penne", "Eggs", "Tofu", "Pistachio", "Anchovy"})
	if !reflect.DeepEqual(got, []string{"egg", "fish", "gluten", "soy", "tree-nuts"}) {
		t.Fatalf("DetectAllergens = %v", got)
	}
}

func TestHashtagsOrderAndDedupe(t *testing.T) {
	local := config.Local{Hashtags: []string{"#SWFL", "#Pasta", "#ShrimpScampi", "#41Bistro"}}
	got := content.Hashtags(scampi, local)
	want := []string{"#Italian", "#Pasta", "#Bistro", "#ShrimpScampi", "#SWFL", "#41Bistro"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Hashtags = %v, want %v", got, want)
	}
}

func TestHashtagsKeepCaseAsWritten(t *testing.T) {
	ribs := menu.Item{Slug: "bbq-ribs", Name: "BBQ Ribs"}
	local := config.Local{Hashtags: []string{"#italian", "#SWFL", "#BBQRibs"}}
	got := content.Hashtags(ribs, local)
	want := []string{"#Italian", "#Pasta", "#Bistro", "#BBQRibs", "#italian", "#SWFL"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Hashtags = %v, want %v", got, want)
	}
}

func TestNarrationAndCopyMergeBothWays(t *testing.T) {
	backend := testsupport.NewFakeBackend(t)
	generator, store := newGenerator(t, backend)
	ctx := context.Background()

	if _, err := generator.Narrate(ctx, scampi); err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if _, err := generator.WriteCopy(ctx, scampi, nil); err != nil {
		t.Fatalf("WriteCopy: %v", err)
	}
	doc, err := store.ReadContent("shrimp-scampi")
	if err != nil {
		t.Fatalf("ReadContent: %v", err)
	}
	if doc["narration_script"] != testsupport.DefaultCaption {
		t.Fatalf("narration lost after copy: %v", doc["narration_script"])
	}
	if len(doc.Platforms()) != len(platforms.All()) {
		t.Fatalf("expected every platform, got %v", doc.Platforms())
	}
	warnings, _ := doc["allergen_warnings"].([]any)
	if len(warnings) != 1 || warnings[0] != "Contains: dairy, shellfish" {
		t.Fatalf("unexpected warnings %v", doc["allergen_warnings"])
	}

	backend.Handle("/v1/text/chat/completions", func(testsupport.Request) (int, any) {
		return http.StatusOK, map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": "A new script."}}}}
	})
	if _, err := generator.Narrate(ctx, scampi); err != nil {
		t.Fatalf("Narrate again: %v", err)
	}
	doc, _ = store.ReadContent("shrimp-scampi")
	if doc["narration_script"] != "A new script." || len(doc.Platforms()) != len(platforms.All()) {
		t.Fatalf("platform copy lost after narration: %v", doc)
	}
}

func TestCaptionRespectsRecommendedLength(t *testing.T) {
	backend := testsupport.NewFakeBackend(t)
	long := strings.Repeat("Buttery garlic shrimp tossed with linguine. ", 10)
	backend.Handle("/v1/text/chat/completions", func(testsupport.Request) (int, any) {
		return http.StatusOK, map[string]any{"choices": []any{map[string]any{"message": map[string]any{"content": long}}}}
	})
	generator, _ := newGenerator(t, backend)
	result, err := generator.WriteCopy(context.Background(), scampi, nil)
	if err != nil {
		t.Fatalf("WriteCopy: %v", err)
	}
	for _, spec := range platforms.All() {
		entry := result.Platforms[spec.Key]
		if utf8.RuneCountInString(entry.Caption) > spec.RecommendedChars {
			t.Fatalf("%s caption exceeds %d runes", spec.Key, spec.RecommendedChars)
		}
		if !strings.HasSuffix(entry.Caption, "…") {
			t.Fatalf("%s caption missing ellipsis: %q", spec.Key, entry.Caption)
		}
	}
	if got := backend.Count("/v1/text/chat/completions"); got != len(platforms.All()) {
		t.Fatalf("expected one chat call per platform, got %d", got)
	}
}

func TestAltText(t *testing.T) {
	local := config.Local{Restaurant: "41 Bistro", City: "Fort Myers, FL"}
	got := content.AltText(scampi, local)
	if got != "Shrimp Scampi at 41 Bistro in Fort Myers, FL: Garlic butter shrimp over linguine." {
		t.Fatalf("AltText = %q", got)
	}
}
