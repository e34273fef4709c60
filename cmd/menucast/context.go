package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"menucast/internal/artifacts"
	"menucast/internal/batch"
	"menucast/internal/config"
	"menucast/internal/history"
	"menucast/internal/logging"
	"menucast/internal/menu"
	"menucast/internal/notifications"
	"menucast/internal/observability"
	"menucast/internal/pipeline"
	"menucast/internal/qa"
	"menucast/internal/services/minimax"
	"menucast/internal/upload"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
			Dir:     cfg.Paths.LogDir,
			Pattern: "*.log*",
			Exclude: []string{filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
		})
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// app holds the collaborators a pipeline command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *artifacts.Store
	catalog  *menu.Catalog
	client   *minimax.Client
	metrics  *observability.Metrics
	scrape   http.Handler
	notifier notifications.Service
	history  *history.Store
	pipeline *pipeline.Pipeline
}

// newApp wires the store, catalog, generative client, and pipeline.
func (c *commandContext) newApp(ctx context.Context, withUpload bool) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	store := artifacts.New(cfg.Paths.BuildDir)
	if err := store.EnsureLayout(); err != nil {
		return nil, err
	}
	catalog, err := menu.Load(cfg.Paths.MenuDir)
	if err != nil {
		return nil, err
	}
	metrics, scrape, err := observability.NewMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	notifier, err := notifications.NewService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init notifications: %w", err)
	}

	client := minimax.NewClient(minimax.ConfigFrom(cfg),
		minimax.WithLogger(logger),
		minimax.WithRecorder(metrics),
	)
	opts := []pipeline.Option{pipeline.WithRecorder(metrics)}
	if withUpload {
		uploader, err := upload.NewFromConfig(ctx, cfg.Upload)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithUploader(
			upload.NewSyncer(uploader, store, logger, upload.WithCleanup(cfg.Upload.CleanupLocal)),
		))
	}
	stages := pipeline.StagesFromClient(cfg, client, store, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		catalog:  catalog,
		client:   client,
		metrics:  metrics,
		scrape:   scrape,
		notifier: notifier,
		pipeline: pipeline.New(cfg, store, catalog, stages, logger, opts...),
	}, nil
}

// openHistory attaches the run history database.
func (a *app) openHistory() error {
	if a.history != nil {
		return nil
	}
	store, err := history.Open(a.cfg.Paths.StateDir)
	if err != nil {
		return err
	}
	a.history = store
	return nil
}

func (a *app) close() error {
	var errs []error
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	if a.metrics != nil {
		errs = append(errs, a.metrics.Shutdown(context.Background()))
	}
	return errors.Join(errs...)
}

func (a *app) batchProcessor() *batch.Processor {
	return batch.New(a.cfg, a.store, a.catalog, a.pipeline, a.logger,
		batch.WithNotifier(a.notifier),
		batch.WithHistory(a.history),
		batch.WithRecorder(a.metrics),
	)
}

func (a *app) qaReporter(notify bool) *qa.Reporter {
	opts := []qa.ReporterOption{qa.WithScoreRecorder(a.metrics)}
	if notify {
		opts = append(opts, qa.WithNotifier(a.notifier))
	}
	return qa.NewReporter(a.cfg, a.store, a.logger, opts...)
}

// serveMetrics exposes the scrape endpoint while ctx is live.
func (a *app) serveMetrics(ctx context.Context) {
	addr := strings.TrimSpace(a.cfg.Metrics.Listen)
	if addr == "" {
		return
	}
	go func() {
		if err := observability.Serve(ctx, addr, a.scrape, a.logger); err != nil {
			logging.WarnWithContext(a.logger, "metrics listener failed", "metrics_listen_failed",
				logging.String("address", addr),
				logging.Error(err),
				logging.String(logging.FieldImpact, "metrics unavailable for this run"),
			)
		}
	}()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
