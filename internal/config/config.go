package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. BuildDir is the artifact store root.
type Paths struct {
	BuildDir string `toml:"build_dir"`
	MenuDir  string `toml:"menu_dir"`
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// MiniMax contains the generative backend connection settings.
type MiniMax struct {
	BaseURL                  string `toml:"base_url"`
	APIKey                   string `toml:"api_key"`
	ChatModel                string `toml:"chat_model"`
	ImageModel               string `toml:"image_model"`
	TTSModel                 string `toml:"tts_model"`
	MusicModel               string `toml:"music_model"`
	VideoModel               string `toml:"video_model"`
	RateLimitRPM             int    `toml:"rate_limit_rpm"`
	MaxRetries               int    `toml:"max_retries"`
	TimeoutSeconds           int    `toml:"timeout_seconds"`
	VideoPollIntervalSeconds int    `toml:"video_poll_interval_seconds"`
	VideoTimeoutSeconds      int    `toml:"video_timeout_seconds"`
	TextPath                 string `toml:"text_path"`
	ImagePath                string `toml:"image_path"`
	TTSPath                  string `toml:"tts_path"`
	MusicPath                string `toml:"music_path"`
	VideoPath                string `toml:"video_path"`
	VideoQueryPath           string `toml:"video_query_path"`
}

// Media contains creative defaults for the generation stages.
type Media struct {
	StylePreset          string `toml:"style_preset"`
	ImageVariants        int    `toml:"image_variants"`
	VoiceProfile         string `toml:"voice_profile"`
	MusicVibe            string `toml:"music_vibe"`
	MusicDurationSeconds int    `toml:"music_duration_seconds"`
	VideoDurationSeconds int    `toml:"video_duration_seconds"`
}

// Local contains the local-market context used for copy and QA.
type Local struct {
	Restaurant    string   `toml:"restaurant"`
	City          string   `toml:"city"`
	Region        string   `toml:"region"`
	Keywords      []string `toml:"keywords"`
	Hashtags      []string `toml:"hashtags"`
	CallsToAction []string `toml:"calls_to_action"`
}

// QA contains quality thresholds applied by the validator.
type QA struct {
	Brand         string   `toml:"brand"`
	LocalTerms    []string `toml:"local_terms"`
	MinImageBytes int64    `toml:"min_image_bytes"`
	MinAudioBytes int64    `toml:"min_audio_bytes"`
	MinVideoBytes int64    `toml:"min_video_bytes"`
}

// Batch contains batch processing defaults.
type Batch struct {
	Size int `toml:"size"`
}

// Upload contains configuration for the S3 bundle uploader.
type Upload struct {
	Enabled           bool   `toml:"enabled"`
	Bucket            string `toml:"bucket"`
	Prefix            string `toml:"prefix"`
	Region            string `toml:"region"`
	Endpoint          string `toml:"endpoint"`
	ShareLinkTTLHours int    `toml:"share_link_ttl_hours"`
	CleanupLocal      bool   `toml:"cleanup_local"`
}

// Backup contains configuration for build tree archives.
type Backup struct {
	Dir    string `toml:"dir"`
	Bucket string `toml:"bucket"`
	Prefix string `toml:"prefix"`
}

// Notifications contains configuration for the email, webhook, and queue sinks.
type Notifications struct {
	SMTPHost       string   `toml:"smtp_host"`
	SMTPPort       int      `toml:"smtp_port"`
	SMTPUser       string   `toml:"smtp_user"`
	SMTPPassword   string   `toml:"smtp_password"`
	EmailFrom      string   `toml:"email_from"`
	EmailTo        []string `toml:"email_to"`
	WebhookURL     string   `toml:"webhook_url"`
	SQSQueueURL    string   `toml:"sqs_queue_url"`
	RequestTimeout int      `toml:"request_timeout"`
}

// Metrics contains the optional Prometheus listen address.
type Metrics struct {
	Listen string `toml:"listen"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for menucast.
//
// Configuration sections by subsystem:
//   - Paths: artifact store root, menu definitions, source photos, logs, state
//   - MiniMax: generative backend URL, credentials, models, pacing, retries
//   - Media: creative defaults for image, audio, and video stages
//   - Local: local-market context for copy generation
//   - QA: brand/local requirements and minimum artifact sizes
//   - Batch: default batch size
//   - Upload: S3 bundle upload
//   - Backup: build tree archives
//   - Notifications: email, webhook, and SQS sinks
//   - Metrics: Prometheus endpoint
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	MiniMax       MiniMax       `toml:"minimax"`
	Media         Media         `toml:"media"`
	Local         Local         `toml:"local"`
	QA            QA            `toml:"qa"`
	Batch         Batch         `toml:"batch"`
	Upload        Upload        `toml:"upload"`
	Backup        Backup        `toml:"backup"`
	Notifications Notifications `toml:"notifications"`
	Metrics       Metrics       `toml:"metrics"`
	Logging       Logging       `toml:"logging"`

	fileKeys map[string]struct{}
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and environment fallbacks applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		cfg.fileKeys = make(map[string]struct{})
		collectKeys("", raw, cfg.fileKeys)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// collectKeys records the dotted path of every leaf key in a decoded document.
func collectKeys(prefix string, table map[string]any, out map[string]struct{}) {
	for key, value := range table {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			collectKeys(path, nested, out)
			continue
		}
		out[path] = struct{}{}
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("menucast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories every command relies on.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.BuildDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequestTimeout returns the per-request timeout for the generative backend.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.MiniMax.TimeoutSeconds) * time.Second
}

// VideoPollInterval returns the delay between video job status queries.
func (c *Config) VideoPollInterval() time.Duration {
	return time.Duration(c.MiniMax.VideoPollIntervalSeconds) * time.Second
}

// VideoTimeout returns the overall bound on video job polling.
func (c *Config) VideoTimeout() time.Duration {
	return time.Duration(c.MiniMax.VideoTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
