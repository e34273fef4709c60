package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. The API key is not required
// here so offline commands (menu, qa, backup) work without credentials; the
// generative client and preflight reject a missing key.
func (c *Config) Validate() error {
	if err := c.validateMiniMax(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateQA(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

// RequireAPIKey reports a configuration error when no backend key is set.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.MiniMax.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("minimax.api_key is required. Set MINIMAX_API_KEY env var or edit %s (create with 'menucast config init')", defaultPath)
}

func (c *Config) validateMiniMax() error {
	parsed, err := url.Parse(c.MiniMax.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("minimax.base_url must be an absolute URL, got %q", c.MiniMax.BaseURL)
	}
	if c.MiniMax.RateLimitRPM < 0 {
		return errors.New("minimax.rate_limit_rpm must be >= 0")
	}
	if c.MiniMax.MaxRetries < 1 {
		return errors.New("minimax.max_retries must be >= 1")
	}
	if c.MiniMax.TimeoutSeconds <= 0 {
		return errors.New("minimax.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.ImageVariants > 4 {
		return errors.New("media.image_variants must be between 1 and 4")
	}
	return nil
}

func (c *Config) validateQA() error {
	if c.QA.MinImageBytes < 0 || c.QA.MinAudioBytes < 0 || c.QA.MinVideoBytes < 0 {
		return errors.New("qa minimum sizes must be >= 0")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.Enabled && c.Upload.Bucket == "" {
		return errors.New("upload.bucket must be set when upload.enabled is true")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.SMTPPort <= 0 || c.Notifications.SMTPPort > 65535 {
		return fmt.Errorf("notifications.smtp_port out of range: %d", c.Notifications.SMTPPort)
	}
	if c.Notifications.WebhookURL != "" {
		if _, err := url.ParseRequestURI(c.Notifications.WebhookURL); err != nil {
			return fmt.Errorf("notifications.webhook_url: %w", err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
