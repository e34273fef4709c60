package menu

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ImageExtensions lists the recognized source photo extensions.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// FindImages returns the source photos for slug: data/{slug}{ext} and
// data/{slug}-*{ext}, sorted and de-duplicated.
func FindImages(dataDir, slug string) ([]string, error) {
	if strings.TrimSpace(dataDir) == "" || strings.TrimSpace(slug) == "" {
		return nil, nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, ext := range ImageExtensions {
		for _, pattern := range []string{slug + ext, slug + "-*" + ext} {
			matches, err := filepath.Glob(filepath.Join(dataDir, pattern))
			if err != nil {
				return nil, fmt.Errorf("menu: glob images for %s: %w", slug, err)
			}
			for _, match := range matches {
				if _, ok := seen[match]; ok {
					continue
				}
				seen[match] = struct{}{}
				out = append(out, match)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// FirstImage returns the first source photo for slug.
func FirstImage(dataDir, slug string) (string, bool, error) {
	images, err := FindImages(dataDir, slug)
	if err != nil || len(images) == 0 {
		return "", false, err
	}
	return images[0], true, nil
}

// AuditReport lists mismatches between the menu and the photo directory.
type AuditReport struct {
	MissingImages []string `json:"missing_images"`
	OrphanImages  []string `json:"orphan_images"`
}

// Clean reports whether the audit found nothing to fix.
func (r AuditReport) Clean() bool {
	return len(r.MissingImages) == 0 && len(r.OrphanImages) == 0
}

// Audit finds menu items without a photo and photos that belong to no item.
func Audit(catalog *Catalog, dataDir string) (AuditReport, error) {
	report := AuditReport{MissingImages: []string{}, OrphanImages: []string{}}
	claimed := map[string]struct{}{}
	for _, slug := range catalog.Slugs() {
		images, err := FindImages(dataDir, slug)
		if err != nil {
			return report, err
		}
		if len(images) == 0 {
			report.MissingImages = append(report.MissingImages, slug)
		}
		for _, image := range images {
			claimed[image] = struct{}{}
		}
	}
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return report, nil
		}
		return report, fmt.Errorf("menu: read %s: %w", dataDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dataDir, entry.Name())
		if _, ok := claimed[path]; !ok {
			report.OrphanImages = append(report.OrphanImages, entry.Name())
		}
	}
	sort.Strings(report.OrphanImages)
	return report, nil
}

func isImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range ImageExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
