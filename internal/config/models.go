package config

import "strings"

// modelAliases maps legacy or vendor-prefixed model names (lowercased) to the
// canonical identifiers the backend accepts.
var modelAliases = map[string]string{
	"minimax-image-01":   "image-01",
	"minimax/hailuo-02":  "MiniMax-Hailuo-02",
	"hailuo-02":          "MiniMax-Hailuo-02",
	"speech-02-hd":       "speech-2.6-hd",
	"speech-02-turbo":    "speech-2.6-turbo",
	"minimax-music-v1.5": "music-2.0",
	"minimax-m2":         "MiniMax-M2",
}

// CanonicalModel resolves a model alias to its canonical name. Unknown names
// are returned trimmed but otherwise unchanged.
func CanonicalModel(name string) string {
	trimmed := strings.TrimSpace(name)
	if canonical, ok := modelAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}
