package minimax

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"menucast/internal/backoff"
	"menucast/internal/config"
	"menucast/internal/logging"
	"menucast/internal/services"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultMaxRetries  = 3
	maxErrorSnippet    = 512
)

// Response is a decoded JSON response body.
type Response = map[string]any

// Capability names one generation endpoint.
type Capability string

const (
	CapabilityText       Capability = "text"
	CapabilityImage      Capability = "image"
	CapabilityTTS        Capability = "tts"
	CapabilityMusic      Capability = "music"
	CapabilityVideo      Capability = "video"
	CapabilityVideoQuery Capability = "video_query"
	CapabilityDownload   Capability = "download"
)

// Models holds the canonical model identifier for each capability.
type Models struct {
	Chat  string
	Image string
	TTS   string
	Music string
	Video string
}

// Paths holds the endpoint path for each capability.
type Paths struct {
	Text       string
	Image      string
	TTS        string
	Music      string
	Video      string
	VideoQuery string
}

// Config captures the runtime settings required to talk to the backend.
type Config struct {
	BaseURL      string
	APIKey       string
	Models       Models
	Paths        Paths
	RateLimitRPM int
	MaxRetries   int
	Timeout      time.Duration
	PollInterval time.Duration
	VideoTimeout time.Duration
}

// ConfigFrom maps the application configuration onto client settings.
func ConfigFrom(cfg *config.Config) Config {
	if cfg == nil {
		return Config{}
	}
	m := cfg.MiniMax
	return Config{
		BaseURL: m.BaseURL,
		APIKey:  m.APIKey,
		Models: Models{
			Chat:  config.CanonicalModel(m.ChatModel),
			Image: config.CanonicalModel(m.ImageModel),
			TTS:   config.CanonicalModel(m.TTSModel),
			Music: config.CanonicalModel(m.MusicModel),
			Video: config.CanonicalModel(m.VideoModel),
		},
		Paths: Paths{
			Text:       m.TextPath,
			Image:      m.ImagePath,
			TTS:        m.TTSPath,
			Music:      m.MusicPath,
			Video:      m.VideoPath,
			VideoQuery: m.VideoQueryPath,
		},
		RateLimitRPM: m.RateLimitRPM,
		MaxRetries:   m.MaxRetries,
		Timeout:      cfg.RequestTimeout(),
		PollInterval: cfg.VideoPollInterval(),
		VideoTimeout: cfg.VideoTimeout(),
	}
}

// Recorder receives one observation per backend request.
type Recorder interface {
	RecordAPIRequest(ctx context.Context, capability, outcome string)
}

// Client is the single authenticated gateway to the generative backend. Calls
// are paced to the configured requests-per-minute and retried with capped
// exponential backoff.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	recorder   Recorder
	sleeper    func(time.Duration)
	now        func() time.Time
	limiter    *rate.Limiter
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder reports request outcomes to a metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// WithSleeper overrides how pacing, retry, and poll sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithClock overrides the time source used for pacing and poll deadlines.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient constructs a backend client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
		now:        time.Now,
	}
	if cfg.RateLimitRPM > 0 {
		client.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RateLimitRPM)), 1)
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Models returns the canonical model identifiers in use.
func (c *Client) Models() Models {
	return c.cfg.Models
}

// call posts payload to path, retrying transport failures and non-zero
// envelopes until MaxRetries attempts are spent.
func (c *Client) call(ctx context.Context, capability Capability, path string, payload any) (Response, error) {
	return c.callAttempts(ctx, capability, path, payload, c.cfg.MaxRetries)
}

func (c *Client) callAttempts(ctx context.Context, capability Capability, path string, payload any, attempts int) (Response, error) {
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, string(capability), "request", "minimax api key required", nil)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("minimax %s: encode body: %w", capability, err)
	}
	logger := logging.WithContext(ctx, c.logger)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.pace(ctx); err != nil {
			return nil, err
		}
		resp, err := c.sendOnce(ctx, path, encoded)
		if err == nil {
			c.record(ctx, capability, "ok")
			return resp, nil
		}
		c.record(ctx, capability, outcomeLabel(err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err
		if attempt >= attempts {
			break
		}
		delay := backoff.Exponential(attempt, nil)
		logging.WarnWithContext(logger, "minimax request failed; retrying", "api_retry",
			logging.String("capability", string(capability)),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Duration("backoff", delay),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check backend status and rate limits"),
			logging.String(logging.FieldImpact, "request will be retried"),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, services.Wrap(services.ErrExternalTool, string(capability), "request",
		fmt.Sprintf("failed after %d attempts", attempts), lastErr)
}

func (c *Client) sendOnce(ctx context.Context, path string, body []byte) (Response, error) {
	endpoint := c.cfg.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("minimax request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("minimax request: http error (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("minimax request: read body: %w", err)
	}
	payload := decodeBody(raw)
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: snippet(raw), Payload: payload}
	}
	if code, msg := Envelope(payload); code != 0 {
		return nil, &APIError{StatusCode: code, Message: msg, Payload: payload}
	}
	return payload, nil
}

// Download fetches an asset URL returned by the backend.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("minimax download: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(ctx, CapabilityDownload, "failed")
		return nil, fmt.Errorf("minimax download: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(ctx, CapabilityDownload, "failed")
		return nil, fmt.Errorf("minimax download: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.record(ctx, CapabilityDownload, "http_error")
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: snippet(data)}
	}
	c.record(ctx, CapabilityDownload, "ok")
	return data, nil
}

// pace waits for the next request slot. A cancelled wait gives the slot back.
func (c *Client) pace(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	now := c.now()
	reservation := c.limiter.ReserveN(now, 1)
	if err := c.sleep(ctx, reservation.DelayFrom(now)); err != nil {
		reservation.CancelAt(c.now())
		return err
	}
	return nil
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) record(ctx context.Context, capability Capability, outcome string) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordAPIRequest(ctx, string(capability), outcome)
}

func outcomeLabel(err error) string {
	var httpErr *HTTPError
	var apiErr *APIError
	switch {
	case errors.As(err, &httpErr):
		return "http_error"
	case errors.As(err, &apiErr):
		return "api_error"
	default:
		return "failed"
	}
}

func decodeBody(raw []byte) Response {
	var payload Response
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		return Response{"raw": string(raw)}
	}
	return payload
}

func snippet(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorSnippet {
		text = text[:maxErrorSnippet] + "..."
	}
	return text
}
