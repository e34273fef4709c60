package pipeline

import (
	"fmt"
	"path/filepath"

	"menucast/internal/artifacts"
	"menucast/internal/fileutil"
)

// Bundle file names inside platform_assets/{platform}/{slug}.
const (
	BundleImage   = "image.jpg"
	BundleVideo   = "video.mp4"
	BundleContent = "content.json"
)

// Bundle packages the first enhanced image, the current render, and the
// platform's content slice. Missing sources are skipped.
func Bundle(store *artifacts.Store, slug, platform string) (string, error) {
	dir := store.BundleDir(platform, slug)
	if image, ok := store.FirstEnhancedImage(slug); ok {
		if err := fileutil.CopyFile(image, filepath.Join(dir, BundleImage)); err != nil {
			return dir, fmt.Errorf("copy image: %w", err)
		}
	}
	if videoPath := store.VideoPath(slug); artifacts.Exists(videoPath, 1) {
		if err := fileutil.CopyFileVerified(videoPath, filepath.Join(dir, BundleVideo)); err != nil {
			return dir, fmt.Errorf("copy video: %w", err)
		}
	}
	doc, err := store.ReadContent(slug)
	if err != nil {
		return dir, fmt.Errorf("read content: %w", err)
	}
	if slice, ok := doc.Platforms()[platform]; ok {
		if err := artifacts.WriteJSON(filepath.Join(dir, BundleContent), slice); err != nil {
			return dir, err
		}
	}
	return dir, nil
}
