package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"menucast/internal/artifacts"
	"menucast/internal/config"
	"menucast/internal/logging"
	"menucast/internal/notifications"
	"menucast/internal/services"
)

const topIssueLimit = 5

// Counts summarizes how many slugs passed.
type Counts struct {
	Slugs      int `json:"slugs"`
	OK         int `json:"ok"`
	WithIssues int `json:"with_issues"`
}

// IssueCount is one entry of the most frequent issues.
type IssueCount struct {
	Issue string `json:"issue"`
	Count int    `json:"count"`
}

// Scores summarizes the score distribution.
type Scores struct {
	Avg float64 `json:"avg"`
	Min int     `json:"min"`
	Max int     `json:"max"`
}

// Summary is the headline section of a daily report.
type Summary struct {
	Date           string       `json:"date"`
	Counts         Counts       `json:"counts"`
	AvgDurationSec float64      `json:"avg_duration_sec"`
	IssuesTop      []IssueCount `json:"issues_top"`
	Scores         Scores       `json:"scores"`
}

// Report is the persisted daily report.
type Report struct {
	Summary Summary           `json:"summary"`
	Items   map[string]Result `json:"items"`

	JSONPath string `json:"-"`
	TextPath string `json:"-"`
}

// ScoreRecorder receives one observation per validated slug.
type ScoreRecorder interface {
	RecordQAScore(ctx context.Context, score int)
}

// Reporter builds the daily QA report.
type Reporter struct {
	store     *artifacts.Store
	validator *Validator
	notifier  notifications.Service
	recorder  ScoreRecorder
	logger    *slog.Logger
	now       func() time.Time
}

// ReporterOption customizes a Reporter.
type ReporterOption func(*Reporter)

// WithNotifier forwards the summary to the notification sinks.
func WithNotifier(n notifications.Service) ReporterOption {
	return func(r *Reporter) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithScoreRecorder reports each score to a metrics recorder.
func WithScoreRecorder(rec ScoreRecorder) ReporterOption {
	return func(r *Reporter) { r.recorder = rec }
}

// WithClock overrides the report date source.
func WithClock(now func() time.Time) ReporterOption {
	return func(r *Reporter) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReporter constructs a reporter over the store.
func NewReporter(cfg *config.Config, store *artifacts.Store, logger *slog.Logger, opts ...ReporterOption) *Reporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Reporter{
		store:     store,
		validator: NewValidator(cfg, store),
		notifier:  notifications.Noop(),
		logger:    logging.NewComponentLogger(logger, "qa"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Slugs returns the union of processed markers and bundle directories, sorted.
func (r *Reporter) Slugs() ([]string, error) {
	set := map[string]struct{}{}
	processed, err := r.store.ProcessedSlugs()
	if err != nil {
		return nil, err
	}
	for _, slug := range processed {
		set[slug] = struct{}{}
	}
	dirs, err := filepath.Glob(filepath.Join(r.store.PlatformAssetsDir(), "*", "*"))
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			set[filepath.Base(dir)] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for slug := range set {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out, nil
}

// ReportPaths returns the JSON and text report paths for date. Earlier
// reports are never overwritten: a later run the same day gets a _N suffix.
func ReportPaths(dir, date string) (string, string) {
	base := "qa_" + date
	for n := 1; ; n++ {
		jsonPath := filepath.Join(dir, base+".json")
		textPath := filepath.Join(dir, base+".txt")
		if !pathExists(jsonPath) && !pathExists(textPath) {
			return jsonPath, textPath
		}
		base = fmt.Sprintf("qa_%s_%d", date, n)
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// Generate validates every discoverable slug, writes qa_{date}.json and
// qa_{date}.txt, and forwards the summary to the notifiers. Notification
// failures are logged only.
func (r *Reporter) Generate(ctx context.Context) (Report, error) {
	slugs, err := r.Slugs()
	if err != nil {
		return Report{}, err
	}
	today := r.now().UTC()
	results := r.validator.ValidateMany(slugs)
	if r.recorder != nil {
		for _, slug := range slugs {
			r.recorder.RecordQAScore(ctx, results[slug].Score)
		}
	}

	report := Report{
		Summary: Summarize(today, results, r.durationsFor(today)),
		Items:   results,
	}
	dir := r.store.QAReportDir()
	report.JSONPath, report.TextPath = ReportPaths(dir, report.Summary.Date)
	if err := artifacts.WriteJSON(report.JSONPath, report); err != nil {
		return report, fmt.Errorf("write qa report: %w", err)
	}
	text := FormatText(report.Summary)
	if err := artifacts.WriteFile(report.TextPath, []byte(text)); err != nil {
		return report, fmt.Errorf("write qa summary: %w", err)
	}

	r.notify(ctx, report.Summary, text)
	r.logger.Info("qa report generated",
		logging.Int("slugs", report.Summary.Counts.Slugs),
		logging.Int("with_issues", report.Summary.Counts.WithIssues),
		logging.String("report", report.JSONPath),
	)
	return report, nil
}

// Subject is the notification headline for a summary.
func Subject(summary Summary) string {
	return fmt.Sprintf("QA Daily: %d ok / %d issues", summary.Counts.OK, summary.Counts.WithIssues)
}

func (r *Reporter) notify(ctx context.Context, summary Summary, text string) {
	subject := Subject(summary)
	payload := notifications.Payload{
		"subject": subject,
		"body":    text,
		"text":    subject,
		"summary": text,
		"details": summary,
	}
	outcome := services.Attempt("notify qa", func() error {
		return r.notifier.Publish(ctx, notifications.EventQADaily, payload)
	})
	if !outcome.OK {
		logging.WarnWithContext(r.logger, "qa notification failed", "notification_failed",
			logging.String("reason", outcome.Message()),
			logging.String(logging.FieldImpact, "qa summary not delivered"),
		)
	}
}

// durationsFor collects per-slug durations from the batch reports of day.
func (r *Reporter) durationsFor(day time.Time) map[string]float64 {
	out := map[string]float64{}
	stamp := day.Format("20060102")
	paths, err := filepath.Glob(filepath.Join(r.store.BatchReportDir(), "batch_*.json"))
	if err != nil {
		return out
	}
	sort.Strings(paths)
	for _, path := range paths {
		if !strings.Contains(filepath.Base(path), stamp) {
			continue
		}
		var doc struct {
			DurationsSec map[string]float64 `json:"durations_sec"`
		}
		if err := artifacts.ReadJSON(path, &doc); err != nil {
			logging.WarnWithContext(r.logger, "batch report unreadable", "qa_report_skipped",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "durations from this report are ignored"),
			)
			continue
		}
		for slug, dur := range doc.DurationsSec {
			out[slug] = dur
		}
	}
	return out
}

// Summarize computes the headline numbers for a set of results.
func Summarize(day time.Time, results map[string]Result, durations map[string]float64) Summary {
	summary := Summary{
		Date:      day.Format("2006-01-02"),
		IssuesTop: []IssueCount{},
	}
	summary.Counts.Slugs = len(results)

	counts := map[string]int{}
	total := 0
	first := true
	for _, res := range results {
		if res.OK() {
			summary.Counts.OK++
		} else {
			summary.Counts.WithIssues++
			for _, issue := range res.Issues {
				counts[issue]++
			}
		}
		total += res.Score
		if first || res.Score < summary.Scores.Min {
			summary.Scores.Min = res.Score
		}
		if first || res.Score > summary.Scores.Max {
			summary.Scores.Max = res.Score
		}
		first = false
	}
	if len(results) > 0 {
		summary.Scores.Avg = round(float64(total)/float64(len(results)), 1)
	}

	if len(durations) > 0 {
		sum := 0.0
		for _, d := range durations {
			sum += d
		}
		summary.AvgDurationSec = round(sum/float64(len(durations)), 2)
	}

	for issue, count := range counts {
		summary.IssuesTop = append(summary.IssuesTop, IssueCount{Issue: issue, Count: count})
	}
	sort.Slice(summary.IssuesTop, func(i, j int) bool {
		a, b := summary.IssuesTop[i], summary.IssuesTop[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Issue < b.Issue
	})
	if len(summary.IssuesTop) > topIssueLimit {
		summary.IssuesTop = summary.IssuesTop[:topIssueLimit]
	}
	return summary
}

// FormatText renders the human readable summary.
func FormatText(summary Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\n", summary.Date)
	fmt.Fprintf(&b, "Processed: %d | OK: %d | Issues: %d\n", summary.Counts.Slugs, summary.Counts.OK, summary.Counts.WithIssues)
	fmt.Fprintf(&b, "Avg duration: %gs | Score avg/min/max: %g/%d/%d\n",
		summary.AvgDurationSec, summary.Scores.Avg, summary.Scores.Min, summary.Scores.Max)
	if len(summary.IssuesTop) > 0 {
		b.WriteString("Top issues:\n")
		for _, entry := range summary.IssuesTop {
			fmt.Fprintf(&b, " - %s: %d\n", entry.Issue, entry.Count)
		}
	}
	return b.String()
}

func round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
