// Package content generates the narration script and per-platform copy for
// a menu item and merges both into the item's content document.
package content

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"menucast/internal/artifacts"
	"menucast/internal/config"
	"menucast/internal/logging"
	"menucast/internal/menu"
	"menucast/internal/platforms"
	"menucast/internal/services/minimax"
	"menucast/internal/textutil"
)

const (
	temperature = 0.7
	maxTokens   = 300
)

// Client is the slice of the generative client the generator needs.
type Client interface {
	ChatText(ctx context.Context, req minimax.ChatRequest) (string, error)
	Models() minimax.Models
}

// PlatformCopy is the generated copy for one platform.
type PlatformCopy struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
	AltText  string   `json:"alt_text"`
}

// Meta records how the document was produced.
type Meta struct {
	Model            string `json:"model"`
	LocalContextUsed bool   `json:"local_context_used"`
}

// NarrationResult summarizes a narration call.
type NarrationResult struct {
	Slug   string
	Script string
	Path   string
}

// CopyResult summarizes a platform copy call.
type CopyResult struct {
	Slug      string
	Path      string
	Platforms map[string]PlatformCopy
	Allergens []string
}

// Generator runs the content stage.
type Generator struct {
	client Client
	store  *artifacts.Store
	local  config.Local
	logger *slog.Logger
}

// New constructs a Generator.
func New(cfg *config.Config, client Client, store *artifacts.Store, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{
		client: client,
		store:  store,
		local:  cfg.Local,
		logger: logging.NewComponentLogger(logger, "content"),
	}
}

// Narrate writes the voiceover script into the content document. Other
// fields already present are preserved.
func (g *Generator) Narrate(ctx context.Context, item menu.Item) (NarrationResult, error) {
	script, err := g.client.ChatText(ctx, minimax.ChatRequest{
		Messages: []minimax.Message{
			{Role: "system", Content: systemPrompt(g.local)},
			{Role: "user", Content: narrationPrompt(item, g.local)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return NarrationResult{}, err
	}
	model := g.client.Models().Chat
	_, err = g.store.UpdateContent(item.Slug, func(doc artifacts.Document) error {
		if _, ok := doc["slug"]; !ok {
			doc["slug"] = item.Slug
		}
		if _, ok := doc["platforms"]; !ok {
			doc["platforms"] = map[string]any{}
		}
		doc["narration_script"] = script
		doc["meta"] = mergeMeta(doc["meta"], model)
		return nil
	})
	if err != nil {
		return NarrationResult{}, err
	}
	logging.WithContext(ctx, g.logger).Info("narration written", logging.Int("chars", len([]rune(script))))
	return NarrationResult{Slug: item.Slug, Script: script, Path: g.store.ContentPath(item.Slug)}, nil
}

// WriteCopy generates caption, hashtags, and alt text for each platform and
// merges them into the content document together with allergen warnings.
func (g *Generator) WriteCopy(ctx context.Context, item menu.Item, targets []platforms.Spec) (CopyResult, error) {
	if len(targets) == 0 {
		targets = platforms.All()
	}
	logger := logging.WithContext(ctx, g.logger)
	allergens := DetectAllergens(item.Ingredients)
	tags := Hashtags(item, g.local)
	alt := AltText(item, g.local)

	outputs := make(map[string]PlatformCopy, len(targets))
	for _, spec := range targets {
		raw, err := g.client.ChatText(ctx, minimax.ChatRequest{
			Messages: []minimax.Message{
				{Role: "system", Content: systemPrompt(g.local)},
				{Role: "user", Content: captionPrompt(spec, item, g.local)},
			},
			Temperature: temperature,
			MaxTokens:   maxTokens,
		})
		if err != nil {
			return CopyResult{}, fmt.Errorf("copy for %s: %w", spec.Key, err)
		}
		caption := textutil.Clip(raw, spec.RecommendedChars)
		if caption != raw {
			logger.Debug("caption clipped",
				logging.Platform(spec.Key),
				logging.Int("limit", spec.RecommendedChars),
			)
		}
		outputs[spec.Key] = PlatformCopy{Caption: caption, Hashtags: tags, AltText: alt}
	}

	warnings := []string{}
	if len(allergens) > 0 {
		warnings = append(warnings, "Contains: "+strings.Join(allergens, ", "))
	}
	model := g.client.Models().Chat
	_, err := g.store.UpdateContent(item.Slug, func(doc artifacts.Document) error {
		merged := doc.Platforms()
		if merged == nil {
			merged = map[string]any{}
		}
		for key, entry := range outputs {
			merged[key] = entry
		}
		doc["slug"] = item.Slug
		doc["platforms"] = merged
		doc["allergen_warnings"] = warnings
		doc["meta"] = mergeMeta(doc["meta"], model)
		return nil
	})
	if err != nil {
		return CopyResult{}, err
	}
	logger.Info("platform copy written",
		logging.Int("platforms", len(outputs)),
		logging.Int("allergens", len(allergens)),
	)
	return CopyResult{Slug: item.Slug, Path: g.store.ContentPath(item.Slug), Platforms: outputs, Allergens: allergens}, nil
}

func mergeMeta(existing any, model string) map[string]any {
	meta := map[string]any{}
	if prev, ok := existing.(map[string]any); ok {
		for k, v := range prev {
			meta[k] = v
		}
	}
	meta["model"] = model
	meta["local_context_used"] = true
	return meta
}

var allergenKeywords = []struct {
	category string
	keywords []string
}{
	{"shellfish", []string{"shrimp", "clam", "mussel", "scallop", "oyster", "crab", "lobster"}},
	{"fish", []string{"salmon", "tuna", "cod", "anchovy", "fish"}},
	{"dairy", []string{"milk", "cream", "butter", "cheese", "parmesan", "mozzarella", "ricotta"}},
	{"gluten", []string{"wheat", "flour", "pasta", "linguine", "penne", "bread", "breadcrumbs"}},
	{"egg", []string{"egg"}},
	{"soy", []string{"soy", "tofu"}},
	{"tree-nuts", []string{"peanut", "almond", "walnut", "pistachio", "hazelnut", "pecan"}},
}

// DetectAllergens scans ingredients for allergen keywords and returns the
// matching categories sorted.
func DetectAllergens(ingredients []string) []string {
	if len(ingredients) == 0 {
		return []string{}
	}
	joined := strings.ToLower(strings.Join(ingredients, ", "))
	found := []string{}
	for _, group := range allergenKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(joined, keyword) {
				found = append(found, group.category)
				break
			}
		}
	}
	sort.Strings(found)
	return found
}

var baseHashtags = []string{"#Italian", "#Pasta", "#Bistro"}

// Hashtags composes the generic tags, the item tag, then the local tags,
// keeping the first occurrence of each.
func Hashtags(item menu.Item, local config.Local) []string {
	tags := make([]string, 0, len(baseHashtags)+1+len(local.Hashtags))
	tags = append(tags, baseHashtags...)
	name := item.Name
	if strings.TrimSpace(name) == "" {
		name = menu.NameFromSlug(item.Slug)
	}
	if tag := textutil.Hashtag(name); tag != "" {
		tags = append(tags, tag)
	}
	tags = append(tags, local.Hashtags...)
	return textutil.Dedupe(tags)
}

// AltText describes the item image for accessibility.
func AltText(item menu.Item, local config.Local) string {
	return fmt.Sprintf("%s at %s in %s: %s", item.Name, local.Restaurant, local.City, strings.TrimSpace(item.Description))
}
