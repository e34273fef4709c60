// Package platforms describes the social platforms content is packaged for.
package platforms

import "fmt"

// Spec holds the format constraints of one platform.
type Spec struct {
	Key              string
	Label            string
	AspectRatio      string
	Width            int
	Height           int
	RecommendedChars int
	MaxChars         int
	DurationSeconds  int
}

var specs = []Spec{
	{Key: "instagram_feed", Label: "Instagram Feed", AspectRatio: "1:1", Width: 1080, Height: 1080, RecommendedChars: 125, MaxChars: 2200, DurationSeconds: 20},
	{Key: "instagram_reel", Label: "Instagram Reel", AspectRatio: "9:16", Width: 1080, Height: 1920, RecommendedChars: 150, MaxChars: 2200, DurationSeconds: 20},
	{Key: "tiktok", Label: "TikTok", AspectRatio: "9:16", Width: 1080, Height: 1920, RecommendedChars: 150, MaxChars: 2200, DurationSeconds: 20},
	{Key: "pinterest", Label: "Pinterest", AspectRatio: "2:3", Width: 1000, Height: 1500, RecommendedChars: 100, MaxChars: 500, DurationSeconds: 20},
	{Key: "facebook", Label: "Facebook", AspectRatio: "1:1", Width: 1080, Height: 1080, RecommendedChars: 125, MaxChars: 63206, DurationSeconds: 20},
}

// All returns every platform in packaging order.
func All() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// Keys returns the platform keys in packaging order.
func Keys() []string {
	keys := make([]string, len(specs))
	for i, spec := range specs {
		keys[i] = spec.Key
	}
	return keys
}

// Lookup returns the spec for key.
func Lookup(key string) (Spec, bool) {
	for _, spec := range specs {
		if spec.Key == key {
			return spec, true
		}
	}
	return Spec{}, false
}

// Select resolves a list of keys, preserving table order. An empty list
// selects every platform.
func Select(keys []string) ([]Spec, error) {
	if len(keys) == 0 {
		return All(), nil
	}
	wanted := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := Lookup(key); !ok {
			return nil, fmt.Errorf("unknown platform %q", key)
		}
		wanted[key] = struct{}{}
	}
	out := make([]Spec, 0, len(wanted))
	for _, spec := range specs {
		if _, ok := wanted[spec.Key]; ok {
			out = append(out, spec)
		}
	}
	return out, nil
}

// Resolution returns the render resolution label. The backend accepts 512P,
// 768P, and 1080P; other sizes render at 1080P.
func (s Spec) Resolution() string {
	longest := max(s.Width, s.Height)
	switch longest {
	case 512, 768, 1080:
		return fmt.Sprintf("%dP", longest)
	default:
		return "1080P"
	}
}
