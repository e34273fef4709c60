package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// explicit reports whether key (dotted, e.g. "qa.min_image_bytes") was
// written in the loaded config file.
func (c *Config) explicit(key string) bool {
	_, ok := c.fileKeys[key]
	return ok
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeMiniMax(); err != nil {
		return err
	}
	if err := c.normalizeMedia(); err != nil {
		return err
	}
	if err := c.normalizeQA(); err != nil {
		return err
	}
	if err := c.normalizeBatch(); err != nil {
		return err
	}
	if err := c.normalizeUpload(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.BuildDir, err = expandPath(defaultIfBlank(c.Paths.BuildDir, defaultBuildDir)); err != nil {
		return fmt.Errorf("paths.build_dir: %w", err)
	}
	if c.Paths.MenuDir, err = expandPath(defaultIfBlank(c.Paths.MenuDir, defaultMenuDir)); err != nil {
		return fmt.Errorf("paths.menu_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(defaultIfBlank(c.Paths.DataDir, defaultDataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(defaultIfBlank(c.Paths.LogDir, defaultLogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(defaultIfBlank(c.Paths.StateDir, defaultStateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Backup.Dir) != "" {
		if c.Backup.Dir, err = expandPath(c.Backup.Dir); err != nil {
			return fmt.Errorf("backup.dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeMiniMax() error {
	m := &c.MiniMax
	if m.APIKey == "" {
		if value, ok := os.LookupEnv("MINIMAX_API_KEY"); ok {
			m.APIKey = value
		}
	}
	m.APIKey = strings.TrimSpace(m.APIKey)

	if value, ok := os.LookupEnv("MINIMAX_BASE_URL"); ok && strings.TrimSpace(value) != "" && (m.BaseURL == "" || m.BaseURL == defaultBaseURL) {
		m.BaseURL = value
	}
	m.BaseURL = strings.TrimRight(strings.TrimSpace(defaultIfBlank(m.BaseURL, defaultBaseURL)), "/")

	m.ChatModel = CanonicalModel(envOverride(m.ChatModel, defaultChatModel, "MINIMAX_CHAT_MODEL"))
	m.ImageModel = CanonicalModel(envOverride(m.ImageModel, defaultImageModel, "MINIMAX_IMAGE_MODEL"))
	m.TTSModel = CanonicalModel(envOverride(m.TTSModel, defaultTTSModel, "MINIMAX_TTS_MODEL"))
	m.MusicModel = CanonicalModel(envOverride(m.MusicModel, defaultMusicModel, "MINIMAX_MUSIC_MODEL"))
	m.VideoModel = CanonicalModel(envOverride(m.VideoModel, defaultVideoModel, "MINIMAX_VIDEO_MODEL"))

	var err error
	if m.RateLimitRPM, err = envNumber(m.RateLimitRPM, defaultRateLimitRPM, c.explicit("minimax.rate_limit_rpm"), "MINIMAX_RATE_LIMIT_RPM", "RATE_LIMIT_RPM"); err != nil {
		return fmt.Errorf("minimax.rate_limit_rpm: %w", err)
	}
	if m.MaxRetries, err = envNumber(m.MaxRetries, defaultMaxRetries, c.explicit("minimax.max_retries"), "MINIMAX_MAX_RETRIES", "MAX_RETRIES"); err != nil {
		return fmt.Errorf("minimax.max_retries: %w", err)
	}
	if m.TimeoutSeconds, err = envNumber(m.TimeoutSeconds, defaultTimeoutSeconds, c.explicit("minimax.timeout_seconds"), "MINIMAX_TIMEOUT_SEC"); err != nil {
		return fmt.Errorf("minimax.timeout_seconds: %w", err)
	}
	if m.VideoPollIntervalSeconds <= 0 {
		m.VideoPollIntervalSeconds = defaultVideoPollIntervalSeconds
	}
	if m.VideoTimeoutSeconds <= 0 {
		m.VideoTimeoutSeconds = defaultVideoTimeoutSeconds
	}

	m.TextPath = normalizeEndpoint(m.TextPath, defaultTextPath)
	m.ImagePath = normalizeEndpoint(m.ImagePath, defaultImagePath)
	m.TTSPath = normalizeEndpoint(m.TTSPath, defaultTTSPath)
	m.MusicPath = normalizeEndpoint(m.MusicPath, defaultMusicPath)
	m.VideoPath = normalizeEndpoint(m.VideoPath, defaultVideoPath)
	m.VideoQueryPath = normalizeEndpoint(m.VideoQueryPath, defaultVideoQueryPath)
	return nil
}

func (c *Config) normalizeMedia() error {
	c.Media.StylePreset = envOverride(c.Media.StylePreset, defaultStylePreset, "MINIMAX_STYLE_PRESET")
	c.Media.VoiceProfile = envOverride(c.Media.VoiceProfile, defaultVoiceProfile, "VOICE_PROFILE")
	c.Media.MusicVibe = envOverride(c.Media.MusicVibe, defaultMusicVibe, "MUSIC_VIBE")
	if c.Media.ImageVariants <= 0 {
		c.Media.ImageVariants = 1
	}
	if c.Media.MusicDurationSeconds <= 0 {
		c.Media.MusicDurationSeconds = defaultMediaDuration
	}
	if c.Media.VideoDurationSeconds <= 0 {
		c.Media.VideoDurationSeconds = defaultMediaDuration
	}
	c.Local.Restaurant = defaultIfBlank(strings.TrimSpace(c.Local.Restaurant), defaultBrand)
	c.Local.Keywords = cleanList(c.Local.Keywords)
	c.Local.Hashtags = cleanList(c.Local.Hashtags)
	c.Local.CallsToAction = cleanList(c.Local.CallsToAction)
	return nil
}

func (c *Config) normalizeQA() error {
	c.QA.Brand = defaultIfBlank(strings.TrimSpace(c.QA.Brand), defaultBrand)
	c.QA.LocalTerms = cleanList(c.QA.LocalTerms)
	var err error
	if c.QA.MinImageBytes, err = envNumber(c.QA.MinImageBytes, defaultMinImageBytes, c.explicit("qa.min_image_bytes"), "QA_MIN_IMAGE_BYTES"); err != nil {
		return fmt.Errorf("qa.min_image_bytes: %w", err)
	}
	if c.QA.MinAudioBytes, err = envNumber(c.QA.MinAudioBytes, defaultMinAudioBytes, c.explicit("qa.min_audio_bytes"), "QA_MIN_AUDIO_BYTES"); err != nil {
		return fmt.Errorf("qa.min_audio_bytes: %w", err)
	}
	if c.QA.MinVideoBytes, err = envNumber(c.QA.MinVideoBytes, defaultMinVideoBytes, c.explicit("qa.min_video_bytes"), "QA_MIN_VIDEO_BYTES"); err != nil {
		return fmt.Errorf("qa.min_video_bytes: %w", err)
	}
	return nil
}

func (c *Config) normalizeBatch() error {
	var err error
	if c.Batch.Size, err = envNumber(c.Batch.Size, defaultBatchSize, c.explicit("batch.size"), "PIPELINE_BATCH_SIZE"); err != nil {
		return fmt.Errorf("batch.size: %w", err)
	}
	return nil
}

func (c *Config) normalizeUpload() error {
	if c.Upload.Bucket == "" {
		c.Upload.Bucket = strings.TrimSpace(os.Getenv("MENUCAST_S3_BUCKET"))
	}
	c.Upload.Bucket = strings.TrimSpace(c.Upload.Bucket)
	c.Upload.Prefix = strings.Trim(strings.TrimSpace(c.Upload.Prefix), "/")
	c.Upload.Region = strings.TrimSpace(c.Upload.Region)
	c.Upload.Endpoint = strings.TrimSpace(c.Upload.Endpoint)
	if c.Upload.ShareLinkTTLHours <= 0 {
		c.Upload.ShareLinkTTLHours = defaultShareLinkTTLHours
	}
	if c.Backup.Bucket == "" {
		c.Backup.Bucket = strings.TrimSpace(os.Getenv("BACKUP_S3_BUCKET"))
	}
	c.Backup.Prefix = strings.Trim(strings.TrimSpace(defaultIfBlank(c.Backup.Prefix, defaultBackupPrefix)), "/")
	return nil
}

func (c *Config) normalizeNotifications() {
	n := &c.Notifications
	n.SMTPHost = envOverride(n.SMTPHost, "", "SMTP_HOST")
	n.SMTPUser = envOverride(n.SMTPUser, "", "SMTP_USER")
	n.SMTPPassword = envOverride(n.SMTPPassword, "", "SMTP_PASSWORD")
	if port, err := envNumber(n.SMTPPort, defaultSMTPPort, c.explicit("notifications.smtp_port"), "SMTP_PORT"); err == nil {
		n.SMTPPort = port
	}
	if len(n.EmailTo) == 0 {
		if value, ok := os.LookupEnv("NOTIFICATION_EMAIL"); ok {
			n.EmailTo = strings.Split(value, ",")
		}
	}
	n.EmailTo = cleanList(n.EmailTo)
	n.EmailFrom = strings.TrimSpace(n.EmailFrom)
	if n.EmailFrom == "" {
		n.EmailFrom = n.SMTPUser
	}
	if n.WebhookURL == "" {
		n.WebhookURL = firstEnv("MAKE_WEBHOOK_NOTIFY_TEAM", "QA_WEBHOOK_URL")
	}
	n.WebhookURL = strings.TrimSpace(n.WebhookURL)
	if n.SQSQueueURL == "" {
		n.SQSQueueURL = os.Getenv("MENUCAST_SQS_QUEUE_URL")
	}
	n.SQSQueueURL = strings.TrimSpace(n.SQSQueueURL)
	if n.RequestTimeout <= 0 {
		n.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func defaultIfBlank(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// envOverride fills a blank value from the first set env var, then the fallback.
func envOverride(value, fallback string, keys ...string) string {
	value = strings.TrimSpace(value)
	if value != "" && value != fallback {
		return value
	}
	if env := firstEnv(keys...); env != "" {
		return env
	}
	if value != "" {
		return value
	}
	return fallback
}

// envNumber resolves a numeric setting. A key written in the config file
// wins, zero included; otherwise the first set env var, then a positive
// value, then the fallback.
func envNumber[T int | int64](value, fallback T, explicit bool, keys ...string) (T, error) {
	if explicit {
		return value, nil
	}
	if env := firstEnv(keys...); env != "" {
		parsed, err := strconv.ParseInt(env, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse %q: %w", env, err)
		}
		return T(parsed), nil
	}
	if value > 0 {
		return value, nil
	}
	return fallback, nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func normalizeEndpoint(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if !strings.HasPrefix(value, "/") {
		value = "/" + value
	}
	return value
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
