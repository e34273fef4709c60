package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"menucast/internal/logging"
)

// Metrics holds the pipeline instruments:
// - stage latency and outcome per stage
// - item outcomes per pipeline run
// - backend requests per capability
// - batch duration and QA scores
type Metrics struct {
	meter    metric.Meter
	provider *sdkmetric.MeterProvider

	StageDuration metric.Float64Histogram
	ItemsTotal    metric.Int64Counter
	APIRequests   metric.Int64Counter
	BatchDuration metric.Float64Histogram
	QAScore       metric.Float64Histogram
}

// NewMetrics creates the instruments on a private Prometheus registry and
// returns the scrape handler for it.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("menucast")
	m := &Metrics{meter: meter, provider: provider}

	m.StageDuration, err = meter.Float64Histogram(
		"menucast_stage_duration_seconds",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ItemsTotal, err = meter.Int64Counter(
		"menucast_items_total",
		metric.WithDescription("Total number of menu items processed"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.APIRequests, err = meter.Int64Counter(
		"menucast_api_requests_total",
		metric.WithDescription("Total number of generative backend requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.BatchDuration, err = meter.Float64Histogram(
		"menucast_batch_duration_seconds",
		metric.WithDescription("Batch run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(60, 300, 600, 1800, 3600, 7200),
	)
	if err != nil {
		return nil, nil, err
	}

	m.QAScore, err = meter.Float64Histogram(
		"menucast_qa_score",
		metric.WithDescription("QA score distribution across validated items"),
		metric.WithExplicitBucketBoundaries(50, 60, 70, 80, 90, 95, 100),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

// RecordStage records one stage execution.
func (m *Metrics) RecordStage(ctx context.Context, stage, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(stageAttr(stage), outcomeAttr(outcome)))
}

// RecordAPIRequest records one backend request.
func (m *Metrics) RecordAPIRequest(ctx context.Context, capability, outcome string) {
	if m == nil {
		return
	}
	m.APIRequests.Add(ctx, 1, metric.WithAttributes(capabilityAttr(capability), outcomeAttr(outcome)))
}

// RecordItem records the overall outcome of one pipeline run.
func (m *Metrics) RecordItem(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.ItemsTotal.Add(ctx, 1, WithOutcome(outcome))
}

// RecordBatch records a finished batch run.
func (m *Metrics) RecordBatch(ctx context.Context, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BatchDuration.Record(ctx, elapsed.Seconds())
}

// RecordQAScore records one item's QA score.
func (m *Metrics) RecordQAScore(ctx context.Context, score int) {
	if m == nil {
		return
	}
	m.QAScore.Record(ctx, float64(score))
}

// Serve exposes handler on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if addr == "" {
		return errors.New("metrics listen address is empty")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", logging.String("address", listener.Addr().String()))
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
