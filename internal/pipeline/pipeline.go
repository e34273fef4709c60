// Package pipeline runs one menu item through validate, image, content, audio,
// video, and finalize, halting at the first failed stage.
package pipeline

import (
	"context"
	"log/slog"

	"menucast/internal/artifacts"
	"menucast/internal/audio"
	"menucast/internal/config"
	"menucast/internal/content"
	"menucast/internal/enhance"
	"menucast/internal/logging"
	"menucast/internal/menu"
	"menucast/internal/platforms"
	"menucast/internal/services"
	"menucast/internal/services/minimax"
	"menucast/internal/stage"
	"menucast/internal/stageexec"
	"menucast/internal/upload"
	"menucast/internal/video"
)

// ImageStage enhances source photos.
type ImageStage interface {
	Enhance(ctx context.Context, item menu.Item, opts enhance.Options) (enhance.Result, error)
}

// ContentStage writes narration and platform copy.
type ContentStage interface {
	Narrate(ctx context.Context, item menu.Item) (content.NarrationResult, error)
	WriteCopy(ctx context.Context, item menu.Item, targets []platforms.Spec) (content.CopyResult, error)
}

// AudioStage produces the voice and music tracks.
type AudioStage interface {
	Voice(ctx context.Context, slug string) (audio.VoiceResult, error)
	Music(ctx context.Context, slug string) (audio.MusicResult, error)
}

// VideoStage renders one platform cut.
type VideoStage interface {
	Render(ctx context.Context, slug string, platform platforms.Spec) (video.Result, error)
}

// BundleUploader publishes a packaged bundle.
type BundleUploader interface {
	SyncBundle(ctx context.Context, slug, platform string) (upload.Result, error)
}

// Stages bundles the four generation stages.
type Stages struct {
	Image   ImageStage
	Content ContentStage
	Audio   AudioStage
	Video   VideoStage
}

// StagesFromClient wires the production stage implementations.
func StagesFromClient(cfg *config.Config, client *minimax.Client, store *artifacts.Store, logger *slog.Logger) Stages {
	return Stages{
		Image:   enhance.New(cfg, client, store, logger),
		Content: content.New(cfg, client, store, logger),
		Audio:   audio.New(cfg, client, store, logger),
		Video:   video.New(cfg, client, store, logger),
	}
}

// Options selects stages and targets for one run.
type Options struct {
	Platforms   []string
	SkipImage   bool
	SkipContent bool
	SkipAudio   bool
	SkipVideo   bool
	Upload      bool
}

// Result is the outcome of one item run.
type Result struct {
	Slug     string             `json:"slug"`
	Statuses stage.Statuses     `json:"statuses"`
	Uploads  []services.Outcome `json:"-"`
}

// Failed reports whether any stage failed.
func (r Result) Failed() bool {
	return r.Statuses.Failed()
}

// Pipeline orchestrates the stages for single items.
type Pipeline struct {
	store    *artifacts.Store
	catalog  *menu.Catalog
	dataDir  string
	stages   Stages
	uploader BundleUploader
	recorder stageexec.Recorder
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithUploader enables bundle uploads through u.
func WithUploader(u BundleUploader) Option {
	return func(p *Pipeline) { p.uploader = u }
}

// WithRecorder reports stage timings to r.
func WithRecorder(r stageexec.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// New constructs a Pipeline.
func New(cfg *config.Config, store *artifacts.Store, catalog *menu.Catalog, stages Stages, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	if catalog == nil {
		catalog, _ = menu.NewCatalog()
	}
	p := &Pipeline{
		store:   store,
		catalog: catalog,
		dataDir: cfg.Paths.DataDir,
		stages:  stages,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes slug. Stage failures are reported in the statuses, not as an
// error; the error return is reserved for invalid options.
func (p *Pipeline) Run(ctx context.Context, slug string, opts Options) (Result, error) {
	targets, err := platforms.Select(opts.Platforms)
	if err != nil {
		return Result{Slug: slug}, services.Wrap(services.ErrValidation, "pipeline", "select platforms", "", err)
	}
	ctx = services.WithSlug(ctx, slug)
	logger := logging.WithContext(ctx, p.logger)
	result := Result{Slug: slug, Statuses: stage.Statuses{}}

	images, err := menu.FindImages(p.dataDir, slug)
	if err != nil || len(images) == 0 {
		result.Statuses[stage.Validate] = stage.StatusMissingImage
		logging.WarnWithContext(logger, "no source image for item", "missing_image",
			logging.String("data_dir", p.dataDir),
			logging.String(logging.FieldErrorHint, "add data/"+slug+".jpg or a variant"),
			logging.String(logging.FieldImpact, "item not processed"),
		)
		return result, nil
	}
	result.Statuses[stage.Validate] = stage.StatusOK

	job := &stage.Job{
		Item:      p.catalog.Resolve(slug),
		Platforms: targets,
		Upload:    opts.Upload && p.uploader != nil,
	}
	steps := []struct {
		name    string
		skip    bool
		handler stage.Handler
	}{
		{stage.Image, opts.SkipImage, imageHandler{stage: p.stages.Image}},
		{stage.Content, opts.SkipContent, contentHandler{stage: p.stages.Content}},
		{stage.Audio, opts.SkipAudio, audioHandler{stage: p.stages.Audio}},
		{stage.Video, opts.SkipVideo, &videoHandler{stage: p.stages.Video, store: p.store, uploader: p.uploader}},
	}
	for _, step := range steps {
		if step.skip {
			result.Statuses[step.name] = stage.StatusSkipped
			continue
		}
		status, err := stageexec.Run(ctx, stageexec.Options{
			Logger:    p.logger,
			Recorder:  p.recorder,
			Handler:   step.handler,
			StageName: step.name,
			Job:       job,
		})
		result.Statuses[step.name] = status
		result.Uploads = job.Outcomes
		if err != nil {
			return result, nil
		}
	}

	status, _ := stageexec.Run(ctx, stageexec.Options{
		Logger:    p.logger,
		Recorder:  p.recorder,
		Handler:   finalizeHandler{store: p.store, catalog: p.catalog, dataDir: p.dataDir},
		StageName: stage.Finalize,
		Job:       job,
	})
	result.Statuses[stage.Finalize] = status
	logger.Info("item processed",
		logging.String(logging.FieldEventType, "item_complete"),
		logging.String("statuses", result.Statuses.String()),
	)
	return result, nil
}
