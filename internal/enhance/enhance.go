// Package enhance restyles a menu item's source photo into one or more
// enhanced image variants.
package enhance

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"menucast/internal/artifacts"
	"menucast/internal/config"
	"menucast/internal/extract"
	"menucast/internal/logging"
	"menucast/internal/menu"
	"menucast/internal/services"
	"menucast/internal/services/minimax"
)

// Client is the slice of the generative client the enhancer needs.
type Client interface {
	GenerateImage(ctx context.Context, req minimax.ImageRequest) (minimax.Response, error)
	Download(ctx context.Context, url string) ([]byte, error)
	Models() minimax.Models
}

// Result is the metadata document written next to the variants.
type Result struct {
	Slug        string   `json:"slug"`
	SourceImage string   `json:"source_image"`
	Model       string   `json:"model"`
	StylePreset string   `json:"style_preset"`
	Prompt      string   `json:"prompt"`
	Outputs     []string `json:"outputs"`
}

// Options overrides the configured defaults for one call.
type Options struct {
	StylePreset string
	Prompt      string
	Variants    int
}

// Enhancer runs the image stage.
type Enhancer struct {
	client  Client
	store   *artifacts.Store
	dataDir string
	media   config.Media
	logger  *slog.Logger
}

// New constructs an Enhancer.
func New(cfg *config.Config, client Client, store *artifacts.Store, logger *slog.Logger) *Enhancer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Enhancer{
		client:  client,
		store:   store,
		dataDir: cfg.Paths.DataDir,
		media:   cfg.Media,
		logger:  logging.NewComponentLogger(logger, "enhance"),
	}
}

// Prompt builds the default enhancement prompt for item.
func Prompt(item menu.Item) string {
	prompt := fmt.Sprintf("Enhance and stylize the food photo for '%s' with an appetizing, modern Italian bistro look. "+
		"Emphasize natural colors, sharp focus, and appealing plating.", item.Name)
	if desc := strings.TrimSpace(item.Description); desc != "" {
		prompt += " Description: " + desc
	}
	return prompt
}

// Enhance sends the first source photo for item to the image endpoint and
// saves every returned variant as enhanced_images/{slug}_{n}.jpg. Individual
// variants that fail to decode or download are skipped; the call fails only
// when no variant could be saved.
func (e *Enhancer) Enhance(ctx context.Context, item menu.Item, opts Options) (Result, error) {
	logger := logging.WithContext(ctx, e.logger)
	source, ok, err := menu.FirstImage(e.dataDir, item.Slug)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "image", "find source", "could not list source photos", err)
	}
	if !ok {
		return Result{}, services.Wrap(services.ErrNotFound, "image", "find source",
			fmt.Sprintf("no image found for slug %q in %s", item.Slug, e.dataDir), nil)
	}
	raw, err := os.ReadFile(source)
	if err != nil {
		return Result{}, services.Wrap(services.ErrNotFound, "image", "read source", source, err)
	}

	style := firstNonEmpty(opts.StylePreset, e.media.StylePreset)
	prompt := firstNonEmpty(opts.Prompt, Prompt(item))
	variants := opts.Variants
	if variants <= 0 {
		variants = max(1, e.media.ImageVariants)
	}

	logger.Info("enhancing image",
		logging.String("source", e.store.Rel(source)),
		logging.String("style_preset", style),
		logging.Int("variants", variants),
	)
	resp, err := e.client.GenerateImage(ctx, minimax.ImageRequest{
		Prompt:      prompt,
		Images:      []minimax.ImageInput{{Type: "input_image", ImageBase64: base64.StdEncoding.EncodeToString(raw)}},
		N:           variants,
		StylePreset: style,
	})
	if err != nil {
		return Result{}, err
	}

	assets := extract.Images(resp)
	saved := make([]string, 0, len(assets))
	index := 1
	for _, asset := range assets {
		data, err := asset.Load(ctx, e.client)
		if err == nil {
			path := e.store.EnhancedImage(item.Slug, index)
			if err = artifacts.WriteFile(path, data); err == nil {
				saved = append(saved, e.store.Rel(path))
				index++
				continue
			}
		}
		logging.WarnWithContext(logger, "failed to save image variant", "variant_save_failed",
			logging.Int("variant", index),
			logging.String("field", asset.Field),
			logging.Error(err),
			logging.String(logging.FieldImpact, "variant skipped"),
		)
	}

	result := Result{
		Slug:        item.Slug,
		SourceImage: e.store.Rel(source),
		Model:       e.client.Models().Image,
		StylePreset: style,
		Prompt:      prompt,
		Outputs:     saved,
	}
	if err := artifacts.WriteJSON(e.store.EnhancedMeta(item.Slug), result); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "image", "write metadata", "", err)
	}
	if len(saved) == 0 {
		return result, services.Wrap(services.ErrExternalTool, "image", "extract",
			fmt.Sprintf("no image variants saved from %d candidate(s)", len(assets)), nil)
	}
	logger.Info("image enhanced", logging.Int("saved", len(saved)))
	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
