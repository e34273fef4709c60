package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"menucast/internal/artifacts"
	"menucast/internal/enhance"
	"menucast/internal/logging"
	"menucast/internal/menu"
	"menucast/internal/platforms"
	"menucast/internal/services"
	"menucast/internal/stage"
)

func unavailable(name string) error {
	return services.Wrap(services.ErrConfiguration, name, "execute", "stage not wired", nil)
}

type imageHandler struct {
	stage ImageStage
}

func (h imageHandler) Execute(ctx context.Context, job *stage.Job) error {
	if h.stage == nil {
		return unavailable(stage.Image)
	}
	_, err := h.stage.Enhance(ctx, job.Item, enhance.Options{Variants: 1})
	return err
}

type contentHandler struct {
	stage ContentStage
}

func (h contentHandler) Execute(ctx context.Context, job *stage.Job) error {
	if h.stage == nil {
		return unavailable(stage.Content)
	}
	if _, err := h.stage.Narrate(ctx, job.Item); err != nil {
		return err
	}
	// Copy covers every platform so later partial video runs find their slice.
	_, err := h.stage.WriteCopy(ctx, job.Item, platforms.All())
	return err
}

type audioHandler struct {
	stage AudioStage
}

func (h audioHandler) Execute(ctx context.Context, job *stage.Job) error {
	if h.stage == nil {
		return unavailable(stage.Audio)
	}
	if _, err := h.stage.Voice(ctx, job.Item.Slug); err != nil {
		return err
	}
	_, err := h.stage.Music(ctx, job.Item.Slug)
	return err
}

type videoHandler struct {
	stage    VideoStage
	store    *artifacts.Store
	uploader BundleUploader
	logger   *slog.Logger
}

func (h *videoHandler) SetLogger(logger *slog.Logger) {
	h.logger = logger
}

// Execute renders, packages, and optionally uploads one cut per platform.
// Every render overwrites videos/{slug}.mp4, so packaging follows each render.
func (h *videoHandler) Execute(ctx context.Context, job *stage.Job) error {
	if h.stage == nil {
		return unavailable(stage.Video)
	}
	logger := h.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	slug := job.Item.Slug
	for _, spec := range job.Platforms {
		platformCtx := services.WithPlatform(ctx, spec.Key)
		if _, err := h.stage.Render(platformCtx, slug, spec); err != nil {
			return fmt.Errorf("%s: %w", spec.Key, err)
		}
		if _, err := Bundle(h.store, slug, spec.Key); err != nil {
			return services.Wrap(services.ErrValidation, stage.Video, "bundle", spec.Key, err)
		}
		if !job.Upload || h.uploader == nil {
			continue
		}
		outcome := services.Attempt("upload "+spec.Key, func() error {
			_, err := h.uploader.SyncBundle(platformCtx, slug, spec.Key)
			return err
		})
		job.Outcomes = append(job.Outcomes, outcome)
		if !outcome.OK {
			logging.WarnWithContext(logger, "bundle upload failed", "upload_failed",
				logging.Platform(spec.Key),
				logging.String("error", outcome.Message()),
				logging.String(logging.FieldImpact, "bundle kept locally; video stage continues"),
			)
		}
	}
	return nil
}

type finalizeHandler struct {
	store   *artifacts.Store
	catalog *menu.Catalog
	dataDir string
}

func (h finalizeHandler) Execute(_ context.Context, job *stage.Job) error {
	if _, err := h.store.MarkProcessed(job.Item.Slug); err != nil {
		return err
	}
	statuses, err := h.store.Statuses(h.catalog, h.dataDir)
	if err != nil {
		return err
	}
	_, err = h.store.WriteManifest(statuses, h.dataDir)
	return err
}
