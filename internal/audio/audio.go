// Package audio synthesizes the narration voice track and composes the
// background music track for a menu item.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"menucast/internal/artifacts"
	"menucast/internal/config"
	"menucast/internal/extract"
	"menucast/internal/logging"
	"menucast/internal/services"
	"menucast/internal/services/minimax"
)

const defaultFormat = "mp3"

// Client is the slice of the generative client the synthesizer needs.
type Client interface {
	Speech(ctx context.Context, req minimax.SpeechRequest) (minimax.Response, error)
	Music(ctx context.Context, req minimax.MusicRequest) (minimax.Response, error)
	Download(ctx context.Context, url string) ([]byte, error)
	Models() minimax.Models
}

// VoiceResult is the metadata written next to the voice track.
type VoiceResult struct {
	Slug         string `json:"slug"`
	File         string `json:"file"`
	Model        string `json:"model"`
	VoiceProfile string `json:"voice_profile"`
	Format       string `json:"format"`
}

// MusicResult is the metadata written next to the music track.
type MusicResult struct {
	Slug        string `json:"slug"`
	File        string `json:"file"`
	Model       string `json:"model"`
	Vibe        string `json:"vibe"`
	DurationSec int    `json:"duration_sec"`
	Format      string `json:"format"`
}

// Synthesizer runs the audio stage.
type Synthesizer struct {
	client Client
	store  *artifacts.Store
	media  config.Media
	logger *slog.Logger
}

// New constructs a Synthesizer.
func New(cfg *config.Config, client Client, store *artifacts.Store, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Synthesizer{
		client: client,
		store:  store,
		media:  cfg.Media,
		logger: logging.NewComponentLogger(logger, "audio"),
	}
}

// Voice reads the narration script from the content document and renders it
// to audio/{slug}_voice.mp3.
func (s *Synthesizer) Voice(ctx context.Context, slug string) (VoiceResult, error) {
	doc, err := s.store.ReadContent(slug)
	if err != nil {
		return VoiceResult{}, services.Wrap(services.ErrValidation, "audio", "read content", "content document unreadable", err)
	}
	script, _ := doc["narration_script"].(string)
	script = strings.TrimSpace(script)
	if script == "" {
		return VoiceResult{}, services.Wrap(services.ErrNotFound, "audio", "voice",
			fmt.Sprintf("narration script not found for %q; generate content first", slug), nil)
	}

	resp, err := s.client.Speech(ctx, minimax.SpeechRequest{
		Input:        script,
		OutputFormat: defaultFormat,
		Speed:        1.0,
		Pitch:        1.0,
		Voice:        s.media.VoiceProfile,
	})
	if err != nil {
		return VoiceResult{}, err
	}
	path := s.store.AudioPath(slug, artifacts.AudioVoice, defaultFormat)
	if err := s.save(ctx, resp, path); err != nil {
		return VoiceResult{}, err
	}
	result := VoiceResult{
		Slug:         slug,
		File:         s.store.Rel(path),
		Model:        s.client.Models().TTS,
		VoiceProfile: s.media.VoiceProfile,
		Format:       defaultFormat,
	}
	if err := artifacts.WriteJSON(s.store.AudioMeta(slug, artifacts.AudioVoice), result); err != nil {
		return result, err
	}
	logging.WithContext(ctx, s.logger).Info("voice synthesized", logging.String("file", result.File))
	return result, nil
}

// MusicPrompt builds the music generation prompt.
func MusicPrompt(slug, vibe string, duration int) string {
	return fmt.Sprintf("Compose %s instrumental background music for a short Italian bistro video about '%s'. "+
		"Warm, inviting, modern; duration ~%d seconds.", vibe, slug, duration)
}

// Music composes a background track to audio/{slug}_music.mp3.
func (s *Synthesizer) Music(ctx context.Context, slug string) (MusicResult, error) {
	vibe := s.media.MusicVibe
	duration := s.media.MusicDurationSeconds
	resp, err := s.client.Music(ctx, minimax.MusicRequest{
		Prompt:       MusicPrompt(slug, vibe, duration),
		OutputFormat: defaultFormat,
		Duration:     duration,
		Style:        vibe,
	})
	if err != nil {
		return MusicResult{}, err
	}
	path := s.store.AudioPath(slug, artifacts.AudioMusic, defaultFormat)
	if err := s.save(ctx, resp, path); err != nil {
		return MusicResult{}, err
	}
	result := MusicResult{
		Slug:        slug,
		File:        s.store.Rel(path),
		Model:       s.client.Models().Music,
		Vibe:        vibe,
		DurationSec: duration,
		Format:      defaultFormat,
	}
	if err := artifacts.WriteJSON(s.store.AudioMeta(slug, artifacts.AudioMusic), result); err != nil {
		return result, err
	}
	logging.WithContext(ctx, s.logger).Info("music composed", logging.String("file", result.File))
	return result, nil
}

func (s *Synthesizer) save(ctx context.Context, resp minimax.Response, path string) error {
	asset, ok := extract.Audio(resp)
	if !ok {
		return services.Wrap(services.ErrExternalTool, "audio", "extract", "could not find audio content in response", nil)
	}
	data, err := asset.Load(ctx, s.client)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "audio", "decode", asset.Field, err)
	}
	return artifacts.WriteFile(path, data)
}
