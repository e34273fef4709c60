package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"menucast/internal/logging"
	"menucast/internal/services"
	"menucast/internal/stage"
)

// Recorder receives per-stage timing.
type Recorder interface {
	RecordStage(ctx context.Context, stage, outcome string, elapsed time.Duration)
}

// Options controls a single stage execution.
type Options struct {
	Logger    *slog.Logger
	Recorder  Recorder
	Handler   stage.Handler
	StageName string
	Job       *stage.Job
	Now       func() time.Time
}

// Run executes a stage and converts the result into a status string. The
// returned error is the stage failure, if any; callers halt on it.
func Run(ctx context.Context, opts Options) (string, error) {
	if opts.Handler == nil {
		err := fmt.Errorf("stage handler unavailable: %s", opts.StageName)
		return stage.ErrorStatus(err), err
	}
	if opts.Job == nil {
		err := fmt.Errorf("stage job is required")
		return stage.ErrorStatus(err), err
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	stageCtx := services.WithStage(services.WithSlug(ctx, opts.Job.Item.Slug), opts.StageName)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("item_name", strings.TrimSpace(opts.Job.Item.Name)),
		logging.Int("platforms", len(opts.Job.Platforms)),
	)

	started := now()
	err := runGuarded(stageCtx, opts.Handler, opts.Job)
	elapsed := now().Sub(started)
	if opts.Recorder != nil {
		opts.Recorder.RecordStage(stageCtx, opts.StageName, services.Classify(err), elapsed)
	}

	if err != nil {
		logging.ErrorWithContext(stageLogger, "stage failed", "stage_failure",
			logging.String("error_kind", services.Classify(err)),
			logging.Duration("elapsed", elapsed),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(err)),
			logging.String(logging.FieldImpact, "remaining stages skipped for this item"),
		)
		return stage.ErrorStatus(err), err
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", elapsed),
	)
	return stage.StatusOK, nil
}

// runGuarded converts a handler panic into an error so one stage cannot take
// down a batch.
func runGuarded(ctx context.Context, handler stage.Handler, job *stage.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panic: %v", r)
		}
	}()
	return handler.Execute(ctx, job)
}

func hintFor(err error) string {
	switch services.Classify(err) {
	case "not_found":
		return "run the upstream stage or add the missing source asset"
	case "configuration":
		return "check the menucast config file and environment"
	case "external":
		return "inspect the backend response; rerun the item when the backend recovers"
	case "timeout":
		return "raise minimax.video_timeout_seconds or retry later"
	default:
		return "inspect the logs for this slug and rerun"
	}
}
