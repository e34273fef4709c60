package extract

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Payload is a decoded JSON response body.
type Payload = map[string]any

// Matcher inspects a payload and reports whether it found a value.
type Matcher[T any] func(Payload) (T, bool)

// First runs matchers in order and returns the first successful extraction.
func First[T any](p Payload, matchers ...Matcher[T]) (T, bool) {
	var zero T
	if p == nil {
		return zero, false
	}
	for _, match := range matchers {
		if match == nil {
			continue
		}
		if value, ok := match(p); ok {
			return value, true
		}
	}
	return zero, false
}

// Encoding describes how inline asset data is encoded.
type Encoding string

const (
	EncodingBase64 Encoding = "base64"
	// EncodingAuto decodes hex when the string consists only of hex digits and
	// base64 otherwise.
	EncodingAuto Encoding = "auto"
)

// Asset references one binary result: either a URL to fetch or inline data.
type Asset struct {
	URL      string
	Inline   string
	Encoding Encoding
	Field    string
}

// IsURL reports whether the asset must be downloaded.
func (a Asset) IsURL() bool {
	return a.URL != ""
}

// Key returns a value identifying the asset for de-duplication.
func (a Asset) Key() string {
	if a.URL != "" {
		return "url:" + a.URL
	}
	return "inline:" + a.Inline
}

// Fetcher downloads remote assets.
type Fetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Load resolves the asset to bytes, downloading URLs through f.
func (a Asset) Load(ctx context.Context, f Fetcher) ([]byte, error) {
	if a.URL != "" {
		if f == nil {
			return nil, errors.New("asset url requires a fetcher")
		}
		return f.Download(ctx, a.URL)
	}
	return decodeInline(a.Inline, a.Encoding)
}

func decodeInline(value string, enc Encoding) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	if idx := strings.Index(trimmed, ";base64,"); strings.HasPrefix(trimmed, "data:") && idx >= 0 {
		trimmed = trimmed[idx+len(";base64,"):]
	}
	if trimmed == "" {
		return nil, errors.New("empty inline asset")
	}
	if enc == EncodingAuto && isHex(trimmed) {
		data, err := hex.DecodeString(trimmed)
		if err != nil {
			return nil, fmt.Errorf("decode hex asset: %w", err)
		}
		return data, nil
	}
	for _, encoding := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := encoding.DecodeString(trimmed); err == nil {
			return data, nil
		}
	}
	return nil, errors.New("decode base64 asset: invalid encoding")
}

func isHex(value string) bool {
	if len(value) == 0 || len(value)%2 != 0 {
		return false
	}
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// stringField returns a non-empty string stored under key.
func stringField(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	value, ok := m[key].(string)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func mapField(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}
	value, ok := m[key].(map[string]any)
	return value, ok
}

// assetFromFields builds an asset from the first URL key or inline key present in m.
func assetFromFields(m map[string]any, urlKeys, inlineKeys []string, enc Encoding) (Asset, bool) {
	for _, key := range urlKeys {
		if value, ok := stringField(m, key); ok {
			return Asset{URL: value, Field: key}, true
		}
	}
	for _, key := range inlineKeys {
		if value, ok := stringField(m, key); ok {
			if looksLikeURL(value) {
				return Asset{URL: value, Field: key}, true
			}
			return Asset{Inline: value, Encoding: enc, Field: key}, true
		}
	}
	return Asset{}, false
}

func looksLikeURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

func dedupe(assets []Asset) []Asset {
	seen := make(map[string]struct{}, len(assets))
	out := assets[:0]
	for _, asset := range assets {
		key := asset.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, asset)
	}
	return out
}
