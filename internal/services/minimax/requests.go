package minimax

import (
	"context"
	"errors"
	"strings"

	"menucast/internal/extract"
	"menucast/internal/services"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a text completion call.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// ImageInput references a source image sent inline.
type ImageInput struct {
	Type        string `json:"type,omitempty"`
	ImageBase64 string `json:"image_base64"`
}

// ImageRequest is the body of an image generation call.
type ImageRequest struct {
	Model       string       `json:"model"`
	Prompt      string       `json:"prompt"`
	Images      []ImageInput `json:"images,omitempty"`
	N           int          `json:"n,omitempty"`
	StylePreset string       `json:"style_preset,omitempty"`
	Width       int          `json:"width,omitempty"`
	Height      int          `json:"height,omitempty"`
}

// SpeechRequest is the body of a text-to-speech call.
type SpeechRequest struct {
	Model        string  `json:"model"`
	Input        string  `json:"input"`
	OutputFormat string  `json:"output_format"`
	Speed        float64 `json:"speed"`
	Pitch        float64 `json:"pitch"`
	Voice        string  `json:"voice,omitempty"`
}

// MusicRequest is the body of a music generation call.
type MusicRequest struct {
	Model        string `json:"model"`
	Prompt       string `json:"prompt"`
	OutputFormat string `json:"output_format"`
	Duration     int    `json:"duration"`
	Style        string `json:"style,omitempty"`
}

// VideoRequest is the body of a video generation call.
type VideoRequest struct {
	Model       string       `json:"model"`
	Duration    int          `json:"duration"`
	Resolution  string       `json:"resolution"`
	Prompt      string       `json:"prompt,omitempty"`
	Images      []ImageInput `json:"images,omitempty"`
	AudioBase64 string       `json:"audio_base64,omitempty"`
	MusicBase64 string       `json:"music_base64,omitempty"`
	AspectRatio string       `json:"aspect_ratio,omitempty"`
	Seed        *int         `json:"seed,omitempty"`
}

type videoQuery struct {
	Model string `json:"model"`
	ID    string `json:"id"`
}

// Chat issues a text completion request.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (Response, error) {
	req.Model = firstNonEmpty(req.Model, c.cfg.Models.Chat)
	return c.call(ctx, CapabilityText, c.cfg.Paths.Text, req)
}

// ChatText issues a chat request and extracts the generated text.
func (c *Client) ChatText(ctx context.Context, req ChatRequest) (string, error) {
	resp, err := c.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	text, ok := extract.Text(resp)
	if !ok || strings.TrimSpace(text) == "" {
		return "", services.Wrap(services.ErrExternalTool, string(CapabilityText), "extract", "no text in response", nil)
	}
	return strings.TrimSpace(text), nil
}

// GenerateImage issues an image generation request.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (Response, error) {
	req.Model = firstNonEmpty(req.Model, c.cfg.Models.Image)
	return c.call(ctx, CapabilityImage, c.cfg.Paths.Image, req)
}

// Speech issues a text-to-speech request.
func (c *Client) Speech(ctx context.Context, req SpeechRequest) (Response, error) {
	req.Model = firstNonEmpty(req.Model, c.cfg.Models.TTS)
	return c.call(ctx, CapabilityTTS, c.cfg.Paths.TTS, req)
}

// Music issues a music generation request.
func (c *Client) Music(ctx context.Context, req MusicRequest) (Response, error) {
	req.Model = firstNonEmpty(req.Model, c.cfg.Models.Music)
	return c.call(ctx, CapabilityMusic, c.cfg.Paths.Music, req)
}

// QueryVideo asks for the status of an asynchronous video job.
func (c *Client) QueryVideo(ctx context.Context, jobID string) (Response, error) {
	return c.call(ctx, CapabilityVideoQuery, c.cfg.Paths.VideoQuery, videoQuery{Model: c.cfg.Models.Video, ID: jobID})
}

// HealthCheck issues a single minimal chat request to verify credentials and reachability.
func (c *Client) HealthCheck(ctx context.Context) error {
	req := ChatRequest{
		Model:     c.cfg.Models.Chat,
		Messages:  []Message{{Role: "user", Content: "ping"}},
		MaxTokens: 1,
	}
	if _, err := c.callAttempts(ctx, CapabilityText, c.cfg.Paths.Text, req, 1); err != nil {
		return err
	}
	return nil
}

// IsAPIError reports whether err carries a non-zero envelope and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
