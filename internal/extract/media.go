package extract

import (
	"fmt"
	"strings"
)

var (
	imageContainers = []string{"data", "images", "result", "output", "items"}
	imageURLKeys    = []string{"url", "image_url"}
	imageInlineKeys = []string{"b64_json", "image_base64", "base64"}
)

// Images returns every image variant referenced by an image generation
// response, de-duplicated in discovery order.
func Images(p Payload) []Asset {
	if p == nil {
		return nil
	}
	var assets []Asset
	for _, key := range imageContainers {
		assets = append(assets, imagesFromContainer(p[key])...)
	}
	assets = append(assets, urlList(p["urls"])...)
	assets = dedupe(assets)
	if len(assets) > 0 {
		return assets
	}
	if asset, ok := First(p, topLevelImage); ok {
		return []Asset{asset}
	}
	return nil
}

func imagesFromContainer(value any) []Asset {
	switch v := value.(type) {
	case []any:
		var out []Asset
		for _, entry := range v {
			out = append(out, imageEntry(entry)...)
		}
		return out
	case map[string]any:
		out := imageEntry(v)
		for _, nested := range []string{"image_urls", "images", "image_base64"} {
			if list, ok := v[nested].([]any); ok {
				for _, entry := range list {
					out = append(out, imageEntry(entry)...)
				}
			}
		}
		return out
	}
	return nil
}

func imageEntry(entry any) []Asset {
	switch v := entry.(type) {
	case string:
		value := strings.TrimSpace(v)
		if value == "" {
			return nil
		}
		if looksLikeURL(value) {
			return []Asset{{URL: value, Field: "list"}}
		}
		return []Asset{{Inline: value, Encoding: EncodingBase64, Field: "list"}}
	case map[string]any:
		if asset, ok := assetFromFields(v, imageURLKeys, imageInlineKeys, EncodingBase64); ok {
			return []Asset{asset}
		}
	}
	return nil
}

func urlList(value any) []Asset {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]Asset, 0, len(list))
	for _, entry := range list {
		if s, ok := entry.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, Asset{URL: strings.TrimSpace(s), Field: "urls"})
		}
	}
	return out
}

func topLevelImage(p Payload) (Asset, bool) {
	return assetFromFields(p, nil, []string{"image_base64", "b64_json"}, EncodingBase64)
}

var (
	audioInlineKeys = []string{"audio", "b64", "b64_audio", "b64_json"}
	audioURLKeys    = []string{"audio_url", "url"}
)

// Audio returns the synthesized audio asset from a speech or music response.
func Audio(p Payload) (Asset, bool) {
	return First(p,
		inlineIn("", audioInlineKeys, EncodingAuto),
		inlineIn("data", audioInlineKeys, EncodingAuto),
		urlIn("", audioURLKeys),
		urlIn("data", audioURLKeys),
		firstListEntry("data", []string{"url"}, []string{"b64"}, EncodingAuto),
	)
}

var (
	videoInlineKeys = []string{"video_base64", "b64", "b64_json"}
	videoURLKeys    = []string{"video_url", "url", "download_url"}
)

// Video returns the rendered video asset, if the response carries one.
func Video(p Payload) (Asset, bool) {
	return First(p,
		inlineIn("", videoInlineKeys, EncodingBase64),
		urlIn("", videoURLKeys),
		inlineIn("data", videoInlineKeys, EncodingBase64),
		urlIn("data", videoURLKeys),
		urlIn("file", videoURLKeys),
	)
}

// Thumbnail returns the optional video thumbnail asset.
func Thumbnail(p Payload) (Asset, bool) {
	return First(p,
		inlineIn("", []string{"thumbnail_base64", "thumb_b64"}, EncodingBase64),
		urlIn("", []string{"thumbnail_url"}),
		urlIn("data", []string{"thumbnail_url"}),
	)
}

// JobID returns the asynchronous job identifier from a video response.
func JobID(p Payload) (string, bool) {
	return First(p, idField("task_id"), idField("id"))
}

// Status returns the lowercased job status from a query response.
func Status(p Payload) (string, bool) {
	return First(p,
		func(p Payload) (string, bool) { return lowerString(p, "status") },
		func(p Payload) (string, bool) { return lowerString(p, "state") },
	)
}

func lowerString(p Payload, key string) (string, bool) {
	value, ok := stringField(p, key)
	if !ok {
		return "", false
	}
	return strings.ToLower(value), true
}

func idField(key string) Matcher[string] {
	return func(p Payload) (string, bool) {
		switch v := p[key].(type) {
		case string:
			v = strings.TrimSpace(v)
			return v, v != ""
		case float64:
			return fmt.Sprintf("%.0f", v), true
		case int64:
			return fmt.Sprintf("%d", v), true
		}
		return "", false
	}
}

func scope(p Payload, nested string) (map[string]any, bool) {
	if nested == "" {
		return p, p != nil
	}
	return mapField(p, nested)
}

func inlineIn(nested string, keys []string, enc Encoding) Matcher[Asset] {
	return func(p Payload) (Asset, bool) {
		m, ok := scope(p, nested)
		if !ok {
			return Asset{}, false
		}
		return assetFromFields(m, nil, keys, enc)
	}
}

func urlIn(nested string, keys []string) Matcher[Asset] {
	return func(p Payload) (Asset, bool) {
		m, ok := scope(p, nested)
		if !ok {
			return Asset{}, false
		}
		return assetFromFields(m, keys, nil, "")
	}
}

func firstListEntry(key string, urlKeys, inlineKeys []string, enc Encoding) Matcher[Asset] {
	return func(p Payload) (Asset, bool) {
		list, ok := p[key].([]any)
		if !ok || len(list) == 0 {
			return Asset{}, false
		}
		first, ok := list[0].(map[string]any)
		if !ok {
			return Asset{}, false
		}
		return assetFromFields(first, urlKeys, inlineKeys, enc)
	}
}
