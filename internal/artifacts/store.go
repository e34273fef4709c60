package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	EnhancedDirName    = "enhanced_images"
	ContentDirName     = "content"
	AudioDirName       = "audio"
	VideoDirName       = "videos"
	PlatformDirName    = "platform_assets"
	BatchReportDirName = "batch_reports"
	QAReportDirName    = "qa_reports"
	MarkerDirName      = "processed"
	ManifestFileName   = "manifest.csv"
	UploadManifestName = "upload_manifest.json"
	lockDirName        = ".locks"
)

// AudioKind distinguishes the two audio tracks of an item.
type AudioKind string

const (
	AudioVoice AudioKind = "voice"
	AudioMusic AudioKind = "music"
)

// Store is the filesystem-backed artifact layout under the build root. Every
// path is a pure function of (slug, stage, variant).
type Store struct {
	root string
	now  func() time.Time
}

// New returns a store rooted at buildDir.
func New(buildDir string) *Store {
	return &Store{root: filepath.Clean(buildDir), now: time.Now}
}

// WithClock returns a copy of the store that stamps markers using now.
func (s *Store) WithClock(now func() time.Time) *Store {
	clone := *s
	if now != nil {
		clone.now = now
	}
	return &clone
}

// Root returns the build root.
func (s *Store) Root() string { return s.root }

// EnhancedImage returns the path of variant n (1-based).
func (s *Store) EnhancedImage(slug string, n int) string {
	return filepath.Join(s.root, EnhancedDirName, fmt.Sprintf("%s_%d.jpg", slug, n))
}

// EnhancedMeta returns the enhancement metadata path.
func (s *Store) EnhancedMeta(slug string) string {
	return filepath.Join(s.root, EnhancedDirName, slug+".json")
}

// EnhancedImages lists saved variants for slug ordered by variant number.
func (s *Store) EnhancedImages(slug string) ([]string, error) {
	dir := filepath.Join(s.root, EnhancedDirName)
	matches, err := filepath.Glob(filepath.Join(dir, slug+"_*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("list enhanced images: %w", err)
	}
	type variant struct {
		path string
		n    int
	}
	variants := make([]variant, 0, len(matches))
	for _, match := range matches {
		suffix := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(match), slug+"_"), ".jpg")
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		variants = append(variants, variant{path: match, n: n})
	}
	sort.Slice(variants, func(i, j int) bool { return variants[i].n < variants[j].n })
	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = v.path
	}
	return out, nil
}

// FirstEnhancedImage returns the lowest numbered variant.
func (s *Store) FirstEnhancedImage(slug string) (string, bool) {
	images, err := s.EnhancedImages(slug)
	if err != nil || len(images) == 0 {
		return "", false
	}
	return images[0], true
}

// ContentPath returns the content document path.
func (s *Store) ContentPath(slug string) string {
	return filepath.Join(s.root, ContentDirName, slug+".json")
}

// AudioPath returns the audio file path for kind with the given extension.
func (s *Store) AudioPath(slug string, kind AudioKind, ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "mp3"
	}
	return filepath.Join(s.root, AudioDirName, fmt.Sprintf("%s_%s.%s", slug, kind, ext))
}

// AudioMeta returns the audio metadata path for kind.
func (s *Store) AudioMeta(slug string, kind AudioKind) string {
	return filepath.Join(s.root, AudioDirName, fmt.Sprintf("%s_%s.json", slug, kind))
}

// FindAudio returns the saved audio file for kind regardless of extension.
func (s *Store) FindAudio(slug string, kind AudioKind) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(s.root, AudioDirName, fmt.Sprintf("%s_%s.*", slug, kind)))
	if err != nil {
		return "", false
	}
	sort.Strings(matches)
	for _, match := range matches {
		if strings.EqualFold(filepath.Ext(match), ".json") {
			continue
		}
		return match, true
	}
	return "", false
}

// VideoPath returns the rendered video path.
func (s *Store) VideoPath(slug string) string {
	return filepath.Join(s.root, VideoDirName, slug+".mp4")
}

// ThumbnailPath returns the video thumbnail path.
func (s *Store) ThumbnailPath(slug string) string {
	return filepath.Join(s.root, VideoDirName, slug+"_thumb.jpg")
}

// VideoMeta returns the video metadata path.
func (s *Store) VideoMeta(slug string) string {
	return filepath.Join(s.root, VideoDirName, slug+".json")
}

// BundleDir returns the per-platform bundle directory.
func (s *Store) BundleDir(platform, slug string) string {
	return filepath.Join(s.root, PlatformDirName, platform, slug)
}

// PlatformAssetsDir returns the parent of every bundle.
func (s *Store) PlatformAssetsDir() string {
	return filepath.Join(s.root, PlatformDirName)
}

// BatchReportDir returns the batch report directory.
func (s *Store) BatchReportDir() string {
	return filepath.Join(s.root, BatchReportDirName)
}

// QAReportDir returns the QA report directory.
func (s *Store) QAReportDir() string {
	return filepath.Join(s.root, QAReportDirName)
}

// MarkerPath returns the processed marker path.
func (s *Store) MarkerPath(slug string) string {
	return filepath.Join(s.root, MarkerDirName, slug+".done")
}

// ManifestPath returns the manifest CSV path.
func (s *Store) ManifestPath() string {
	return filepath.Join(s.root, ManifestFileName)
}

// UploadManifestPath returns the upload manifest path.
func (s *Store) UploadManifestPath() string {
	return filepath.Join(s.root, UploadManifestName)
}

func (s *Store) lockPath(name string) string {
	return filepath.Join(s.root, lockDirName, name+".lock")
}

// EnsureLayout creates the top-level artifact directories.
func (s *Store) EnsureLayout() error {
	for _, dir := range []string{EnhancedDirName, ContentDirName, AudioDirName, VideoDirName, PlatformDirName, MarkerDirName, lockDirName} {
		if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists reports whether path is a regular file with at least minBytes bytes.
func Exists(path string, minBytes int64) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Size() >= minBytes
}

// Rel returns path relative to the parent of the build root, the form
// recorded in metadata documents. Paths outside that tree are returned as is.
func (s *Store) Rel(path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(filepath.Dir(s.root), path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
