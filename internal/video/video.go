// Package video renders the short-form clip for a menu item from its enhanced
// image and audio tracks.
package video

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"

	"menucast/internal/artifacts"
	"menucast/internal/config"
	"menucast/internal/extract"
	"menucast/internal/logging"
	"menucast/internal/platforms"
	"menucast/internal/services"
	"menucast/internal/services/minimax"
)

// Client is the slice of the generative client the renderer needs.
type Client interface {
	GenerateVideo(ctx context.Context, req minimax.VideoRequest) (minimax.Response, error)
	Download(ctx context.Context, url string) ([]byte, error)
	Models() minimax.Models
}

// Result is the metadata written to videos/{slug}.json.
type Result struct {
	Slug        string  `json:"slug"`
	File        string  `json:"file"`
	Thumbnail   *string `json:"thumbnail"`
	Model       string  `json:"model"`
	DurationSec int     `json:"duration_sec"`
	Resolution  string  `json:"resolution"`
	AspectRatio string  `json:"aspect_ratio"`
	Platform    string  `json:"platform"`
}

// Renderer runs the video stage.
type Renderer struct {
	client   Client
	store    *artifacts.Store
	duration int
	logger   *slog.Logger
}

// New constructs a Renderer.
func New(cfg *config.Config, client Client, store *artifacts.Store, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Renderer{
		client:   client,
		store:    store,
		duration: cfg.Media.VideoDurationSeconds,
		logger:   logging.NewComponentLogger(logger, "video"),
	}
}

// Render produces videos/{slug}.mp4 shaped for platform. Each call overwrites
// the previous render, so callers package the file before the next platform.
func (r *Renderer) Render(ctx context.Context, slug string, platform platforms.Spec) (Result, error) {
	logger := logging.WithContext(ctx, r.logger)

	imagePath, ok := r.store.FirstEnhancedImage(slug)
	if !ok {
		return Result{}, services.Wrap(services.ErrNotFound, "video", "load image",
			fmt.Sprintf("no enhanced images found for %q; run the image stage first", slug), nil)
	}
	image, err := readBase64(imagePath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrNotFound, "video", "read image", imagePath, err)
	}

	duration := platform.DurationSeconds
	if duration <= 0 {
		duration = r.duration
	}
	req := minimax.VideoRequest{
		Duration:    duration,
		Resolution:  platform.Resolution(),
		Images:      []minimax.ImageInput{{ImageBase64: image}},
		AspectRatio: platform.AspectRatio,
	}
	if req.AudioBase64, err = r.optionalAudio(slug, artifacts.AudioVoice); err != nil {
		return Result{}, err
	}
	if req.MusicBase64, err = r.optionalAudio(slug, artifacts.AudioMusic); err != nil {
		return Result{}, err
	}

	logger.Info("rendering video",
		logging.Platform(platform.Key),
		logging.String("resolution", req.Resolution),
		logging.String("aspect_ratio", req.AspectRatio),
		logging.Bool("voice", req.AudioBase64 != ""),
		logging.Bool("music", req.MusicBase64 != ""),
	)
	resp, err := r.client.GenerateVideo(ctx, req)
	if err != nil {
		return Result{}, err
	}

	asset, ok := extract.Video(resp)
	if !ok {
		_, msg := minimax.Envelope(resp)
		if msg == "" {
			msg = "no video payload"
		}
		return Result{}, services.Wrap(services.ErrExternalTool, "video", "extract",
			"video generation returned no result: "+msg, nil)
	}
	data, err := asset.Load(ctx, r.client)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "video", "load", asset.Field, err)
	}
	videoPath := r.store.VideoPath(slug)
	if err := artifacts.WriteFile(videoPath, data); err != nil {
		return Result{}, err
	}

	result := Result{
		Slug:        slug,
		File:        r.store.Rel(videoPath),
		Model:       r.client.Models().Video,
		DurationSec: duration,
		Resolution:  req.Resolution,
		AspectRatio: req.AspectRatio,
		Platform:    platform.Key,
	}

	if thumb, ok := extract.Thumbnail(resp); ok {
		thumbPath := r.store.ThumbnailPath(slug)
		outcome := services.Attempt("save thumbnail", func() error {
			raw, err := thumb.Load(ctx, r.client)
			if err != nil {
				return err
			}
			return artifacts.WriteFile(thumbPath, raw)
		})
		if outcome.OK {
			rel := r.store.Rel(thumbPath)
			result.Thumbnail = &rel
		} else {
			logging.WarnWithContext(logger, "failed to save thumbnail", "thumbnail_save_failed",
				logging.String("error", outcome.Message()),
				logging.String(logging.FieldImpact, "video saved without thumbnail"),
			)
		}
	}

	if err := artifacts.WriteJSON(r.store.VideoMeta(slug), result); err != nil {
		return result, err
	}
	logger.Info("video rendered", logging.String("file", result.File), logging.Platform(platform.Key))
	return result, nil
}

func (r *Renderer) optionalAudio(slug string, kind artifacts.AudioKind) (string, error) {
	path, ok := r.store.FindAudio(slug, kind)
	if !ok {
		return "", nil
	}
	encoded, err := readBase64(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "video", "read audio", path, err)
	}
	return encoded, nil
}

func readBase64(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
