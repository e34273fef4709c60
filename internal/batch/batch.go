package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"menucast/internal/artifacts"
	"menucast/internal/config"
	"menucast/internal/history"
	"menucast/internal/logging"
	"menucast/internal/menu"
	"menucast/internal/notifications"
	"menucast/internal/pipeline"
	"menucast/internal/services"
)

// LockFileName is the run lock inside the state directory.
const LockFileName = "batch.lock"

var (
	// ErrNoCandidates reports an empty target set.
	ErrNoCandidates = errors.New("no candidates found")
	// ErrAlreadyRunning reports that another batch holds the run lock.
	ErrAlreadyRunning = errors.New("another batch is running")
)

// Runner processes a single slug.
type Runner interface {
	Run(ctx context.Context, slug string, opts pipeline.Options) (pipeline.Result, error)
}

// Recorder receives item and batch observations.
type Recorder interface {
	RecordItem(ctx context.Context, ok bool)
	RecordBatch(ctx context.Context, elapsed time.Duration)
}

// Result is the report persisted for one batch.
type Result struct {
	RunID        string             `json:"run_id"`
	StartedAt    string             `json:"started_at"`
	FinishedAt   string             `json:"finished_at"`
	BatchSize    int                `json:"batch_size"`
	Attempted    []string           `json:"attempted"`
	Succeeded    []string           `json:"succeeded"`
	Failed       map[string]string  `json:"failed"`
	DurationsSec map[string]float64 `json:"durations_sec"`

	ReportPath string `json:"-"`
}

// Processor runs batches of slugs.
type Processor struct {
	cfg      *config.Config
	store    *artifacts.Store
	catalog  *menu.Catalog
	runner   Runner
	notifier notifications.Service
	history  *history.Store
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Processor.
type Option func(*Processor)

// WithNotifier publishes a summary after each batch.
func WithNotifier(n notifications.Service) Option {
	return func(p *Processor) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithHistory records each batch in the history database.
func WithHistory(h *history.Store) Option {
	return func(p *Processor) { p.history = h }
}

// WithRecorder reports item and batch metrics.
func WithRecorder(r Recorder) Option {
	return func(p *Processor) { p.recorder = r }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// New constructs a batch processor.
func New(cfg *config.Config, store *artifacts.Store, catalog *menu.Catalog, runner Runner, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Processor{
		cfg:      cfg,
		store:    store,
		catalog:  catalog,
		runner:   runner,
		notifier: notifications.Noop(),
		logger:   logging.NewComponentLogger(logger, "batch"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Discover returns up to limit catalog slugs that have a source photo. Items
// with a processed marker are skipped unless reprocess is set.
func (p *Processor) Discover(limit int, reprocess bool) ([]string, error) {
	if limit <= 0 {
		limit = p.cfg.Batch.Size
	}
	var processed map[string]struct{}
	if !reprocess {
		slugs, err := p.store.ProcessedSlugs()
		if err != nil {
			return nil, err
		}
		processed = make(map[string]struct{}, len(slugs))
		for _, slug := range slugs {
			processed[slug] = struct{}{}
		}
	}

	var out []string
	for _, item := range p.catalog.Items() {
		if len(out) >= limit {
			break
		}
		images, err := menu.FindImages(p.cfg.Paths.DataDir, item.Slug)
		if err != nil {
			return nil, err
		}
		if len(images) == 0 {
			continue
		}
		if _, done := processed[item.Slug]; done {
			continue
		}
		out = append(out, item.Slug)
	}
	return out, nil
}

// Targets resolves the slugs for a run: the explicit list truncated to limit,
// or discovery when the list is empty. An empty result is ErrNoCandidates.
func (p *Processor) Targets(explicit []string, limit int, reprocess bool) ([]string, error) {
	if limit <= 0 {
		limit = p.cfg.Batch.Size
	}
	var targets []string
	if len(explicit) > 0 {
		targets = explicit
		if len(targets) > limit {
			targets = targets[:limit]
		}
	} else {
		discovered, err := p.Discover(limit, reprocess)
		if err != nil {
			return nil, err
		}
		targets = discovered
	}
	if len(targets) == 0 {
		return nil, ErrNoCandidates
	}
	return targets, nil
}

// Process runs every slug in order. A failing or panicking slug is recorded
// and the batch moves on. The returned error covers the lock and the report
// only; notification and history failures are logged.
func (p *Processor) Process(ctx context.Context, slugs []string, opts pipeline.Options) (Result, error) {
	if len(slugs) == 0 {
		return Result{}, ErrNoCandidates
	}
	lock, err := p.acquire()
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = lock.Unlock() }()

	runID := uuid.NewString()
	ctx = services.WithRequestID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)

	started := p.now()
	result := Result{
		RunID:        runID,
		BatchSize:    len(slugs),
		Attempted:    make([]string, 0, len(slugs)),
		Succeeded:    []string{},
		Failed:       map[string]string{},
		DurationsSec: map[string]float64{},
	}
	items := make([]history.ItemOutcome, 0, len(slugs))

	logger.Info("batch started", logging.Int("batch_size", len(slugs)))
	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			logging.WarnWithContext(logger, "batch interrupted", "batch_interrupted",
				logging.Int("remaining", len(slugs)-len(result.Attempted)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "remaining items were not attempted"),
			)
			break
		}
		result.Attempted = append(result.Attempted, slug)
		t0 := p.now()
		detail, ok := p.runOne(ctx, slug, opts)
		elapsed := p.now().Sub(t0)
		result.DurationsSec[slug] = roundSeconds(elapsed)
		if ok {
			result.Succeeded = append(result.Succeeded, slug)
		} else {
			result.Failed[slug] = detail
		}
		items = append(items, history.ItemOutcome{Slug: slug, OK: ok, DurationSec: result.DurationsSec[slug], Detail: detail})
		if p.recorder != nil {
			p.recorder.RecordItem(ctx, ok)
		}
	}
	finished := p.now()
	result.StartedAt = formatStamp(started)
	result.FinishedAt = formatStamp(finished)

	path, err := p.writeReport(result, finished)
	if err != nil {
		return result, err
	}
	result.ReportPath = path

	if p.recorder != nil {
		p.recorder.RecordBatch(ctx, finished.Sub(started))
	}
	p.recordHistory(ctx, logger, result, started, finished, items)
	p.notify(ctx, logger, result)

	logger.Info("batch completed",
		logging.Int("succeeded", len(result.Succeeded)),
		logging.Int("failed", len(result.Failed)),
		logging.String("report", path),
	)
	return result, nil
}

func (p *Processor) runOne(ctx context.Context, slug string, opts pipeline.Options) (detail string, ok bool) {
	ctx = services.WithSlug(ctx, slug)
	logger := logging.WithContext(ctx, p.logger)
	defer func() {
		if r := recover(); r != nil {
			detail = fmt.Sprintf("%v", r)
			ok = false
			logging.ErrorWithContext(logger, "item panicked", "batch_item_panic",
				logging.String("panic", detail),
				logging.String(logging.FieldImpact, "item skipped; batch continues"),
			)
		}
	}()

	res, err := p.runner.Run(ctx, slug, opts)
	if err != nil {
		logging.WarnWithContext(logger, "item failed", "batch_item_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "item skipped; batch continues"),
		)
		return err.Error(), false
	}
	if res.Statuses.Failed() {
		encoded, _ := json.Marshal(res.Statuses)
		logging.WarnWithContext(logger, "item stage failed", "batch_item_failed",
			logging.String("statuses", res.Statuses.String()),
			logging.String(logging.FieldImpact, "item skipped; batch continues"),
		)
		return string(encoded), false
	}
	logger.Info("item processed", logging.String("statuses", res.Statuses.String()))
	return "", true
}

func (p *Processor) acquire() (*flock.Flock, error) {
	dir := p.cfg.Paths.StateDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure state dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire batch lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return lock, nil
}

// ReportPath returns the first unused report path for the given finish time.
func ReportPath(dir string, finished time.Time) string {
	base := "batch_" + finished.UTC().Format("20060102_150405")
	path := filepath.Join(dir, base+".json")
	for n := 1; ; n++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d.json", base, n))
	}
}

func (p *Processor) writeReport(result Result, finished time.Time) (string, error) {
	dir := p.store.BatchReportDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure report dir: %w", err)
	}
	path := ReportPath(dir, finished)
	if err := artifacts.WriteJSON(path, result); err != nil {
		return "", fmt.Errorf("write batch report: %w", err)
	}
	return path, nil
}

func (p *Processor) recordHistory(ctx context.Context, logger *slog.Logger, result Result, started, finished time.Time, items []history.ItemOutcome) {
	if p.history == nil {
		return
	}
	run := history.Run{
		ID:         result.RunID,
		StartedAt:  started,
		FinishedAt: finished,
		BatchSize:  result.BatchSize,
		Attempted:  len(result.Attempted),
		Succeeded:  len(result.Succeeded),
		Failed:     len(result.Failed),
		ReportPath: result.ReportPath,
		Items:      items,
	}
	if err := p.history.RecordRun(ctx, run); err != nil {
		logging.WarnWithContext(logger, "history record failed", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run missing from history"),
		)
	}
}

func (p *Processor) notify(ctx context.Context, logger *slog.Logger, result Result) {
	payload := notifications.Payload{
		"subject":   Subject(result),
		"body":      Body(result),
		"run_id":    result.RunID,
		"attempted": len(result.Attempted),
		"succeeded": len(result.Succeeded),
		"failed":    len(result.Failed),
		"report":    result.ReportPath,
	}
	outcome := services.Attempt("notify batch", func() error {
		return p.notifier.Publish(ctx, notifications.EventBatchCompleted, payload)
	})
	if !outcome.OK {
		logging.WarnWithContext(logger, "batch notification failed", "notification_failed",
			logging.String("reason", outcome.Message()),
			logging.String(logging.FieldImpact, "batch summary not delivered"),
		)
	}
}

// Subject is the email subject for a batch summary.
func Subject(result Result) string {
	return fmt.Sprintf("MiniMax Batch: %d ok, %d failed", len(result.Succeeded), len(result.Failed))
}

// Body is the email body for a batch summary.
func Body(result Result) string {
	return fmt.Sprintf("Started: %s\nFinished: %s\nAttempted: %d\nSucceeded: %d\nFailed: %d\n",
		result.StartedAt, result.FinishedAt, len(result.Attempted), len(result.Succeeded), len(result.Failed))
}

// LoadReport reads a persisted batch report.
func LoadReport(path string) (Result, error) {
	var result Result
	if err := artifacts.ReadJSON(path, &result); err != nil {
		return Result{}, err
	}
	result.ReportPath = path
	return result, nil
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}

func formatStamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
