// Package qa re-derives item quality from the artifact store and builds the
// daily QA report.
package qa

import (
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"menucast/internal/artifacts"
	"menucast/internal/config"
	"menucast/internal/pipeline"
	"menucast/internal/platforms"
	"menucast/internal/textutil"
)

// Metric keys recorded on a Result.
const (
	MetricEnhancedImages   = "enhanced_images"
	MetricContentPlatforms = "content_platforms"
)

const pointsPerIssue = 5

// Result is the validation outcome of one slug.
type Result struct {
	Slug    string         `json:"slug"`
	Issues  []string       `json:"issues"`
	Score   int            `json:"score"`
	Metrics map[string]int `json:"metrics"`
}

// OK reports whether no issue was found.
func (r Result) OK() bool { return len(r.Issues) == 0 }

// Score converts an issue count into a 0-100 score.
func Score(issues int) int {
	return max(0, 100-pointsPerIssue*issues)
}

// Validator checks artifacts against the QA thresholds.
type Validator struct {
	store      *artifacts.Store
	brand      string
	localTerms []string
	minImage   int64
	minAudio   int64
	minVideo   int64
}

// NewValidator builds a validator from the qa section.
func NewValidator(cfg *config.Config, store *artifacts.Store) *Validator {
	return &Validator{
		store:      store,
		brand:      cfg.QA.Brand,
		localTerms: cfg.QA.LocalTerms,
		minImage:   cfg.QA.MinImageBytes,
		minAudio:   cfg.QA.MinAudioBytes,
		minVideo:   cfg.QA.MinVideoBytes,
	}
}

// Validate inspects every artifact of slug. Each failed check adds one issue.
func (v *Validator) Validate(slug string) Result {
	res := Result{Slug: slug, Issues: []string{}, Metrics: map[string]int{}}
	add := func(issue string) { res.Issues = append(res.Issues, issue) }

	images, _ := v.store.EnhancedImages(slug)
	if len(images) == 0 {
		add("missing enhanced image(s)")
	} else {
		for _, image := range images {
			if !artifacts.Exists(image, v.minImage) {
				add("enhanced image too small")
				break
			}
		}
		res.Metrics[MetricEnhancedImages] = len(images)
	}

	v.checkContent(slug, &res, add)

	if path, ok := v.store.FindAudio(slug, artifacts.AudioVoice); !ok || !artifacts.Exists(path, v.minAudio) {
		add("missing or tiny voice audio")
	}
	if path, ok := v.store.FindAudio(slug, artifacts.AudioMusic); !ok || !artifacts.Exists(path, v.minAudio) {
		add("missing or tiny music audio")
	}
	if !artifacts.Exists(v.store.VideoPath(slug), v.minVideo) {
		add("missing or tiny video file")
	}

	for _, spec := range platforms.All() {
		v.checkBundle(slug, spec.Key, add)
	}

	res.Score = Score(len(res.Issues))
	return res
}

// ValidateMany validates each slug.
func (v *Validator) ValidateMany(slugs []string) map[string]Result {
	out := make(map[string]Result, len(slugs))
	for _, slug := range slugs {
		out[slug] = v.Validate(slug)
	}
	return out
}

func (v *Validator) checkContent(slug string, res *Result, add func(string)) {
	path := v.store.ContentPath(slug)
	if _, err := os.Stat(path); err != nil {
		add("missing content json")
		return
	}
	var doc map[string]any
	if err := artifacts.ReadJSON(path, &doc); err != nil {
		add("content json unreadable")
		doc = nil
	}
	entries, _ := doc["platforms"].(map[string]any)
	if len(entries) == 0 {
		add("content missing platform entries")
		return
	}
	res.Metrics[MetricContentPlatforms] = len(entries)
	for _, key := range slices.Sorted(maps.Keys(entries)) {
		entry, _ := entries[key].(map[string]any)
		text := copyText(entry)
		if !v.mentionsBrand(text) {
			add(key + ": missing brand mention")
		}
		if !v.mentionsLocal(text) {
			add(key + ": missing local mention")
		}
	}
}

func (v *Validator) checkBundle(slug, platform string, add func(string)) {
	dir := v.store.BundleDir(platform, slug)
	if !artifacts.Exists(filepath.Join(dir, pipeline.BundleImage), 1) {
		add(platform + " bundle missing image.jpg")
	}
	if !artifacts.Exists(filepath.Join(dir, pipeline.BundleVideo), v.minVideo) {
		add(platform + " bundle missing or tiny video.mp4")
	}
	entry := readBundleContent(filepath.Join(dir, pipeline.BundleContent))
	if len(entry) == 0 {
		add(platform + " bundle missing content.json")
		return
	}
	text := copyText(entry)
	if !v.mentionsBrand(text) {
		add(platform + " bundle missing brand mention")
	}
	if !v.mentionsLocal(text) {
		add(platform + " bundle missing local mention")
	}
}

func (v *Validator) mentionsBrand(text string) bool {
	return textutil.ContainsFold(text, v.brand)
}

func (v *Validator) mentionsLocal(text string) bool {
	if len(v.localTerms) == 0 {
		return true
	}
	for _, term := range v.localTerms {
		if textutil.ContainsFold(text, term) {
			return true
		}
	}
	return false
}

func readBundleContent(path string) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}
	return entry
}

// copyText joins the caption and alt text of a platform entry.
func copyText(entry map[string]any) string {
	caption, _ := entry["caption"].(string)
	alt, _ := entry["alt_text"].(string)
	return caption + " " + alt
}
