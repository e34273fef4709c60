package artifacts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"menucast/internal/menu"
	"menucast/internal/textutil"
)

// Status is the processing state of a menu item derived from the marker and
// source photos.
type Status string

const (
	StatusProcessed    Status = "processed"
	StatusNew          Status = "new"
	StatusMissingImage Status = "missing-image"
)

// ItemStatus pairs a menu item with its derived status.
type ItemStatus struct {
	Item            menu.Item
	Images          []string
	Status          Status
	LastProcessedAt string
}

// MarkProcessed writes the processed marker containing the current UTC time.
func (s *Store) MarkProcessed(slug string) (string, error) {
	path := s.MarkerPath(slug)
	stamp := s.now().UTC().Format(time.RFC3339)
	if err := WriteFile(path, []byte(stamp+"\n")); err != nil {
		return "", err
	}
	return path, nil
}

// Marker returns the timestamp recorded in the processed marker.
func (s *Store) Marker(slug string) (string, bool, error) {
	data, err := os.ReadFile(s.MarkerPath(slug))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read marker %s: %w", slug, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// ProcessedSlugs returns the slugs with a processed marker, sorted.
func (s *Store) ProcessedSlugs() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.root, MarkerDirName, "*.done"))
	if err != nil {
		return nil, fmt.Errorf("list markers: %w", err)
	}
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		out = append(out, strings.TrimSuffix(filepath.Base(match), ".done"))
	}
	sort.Strings(out)
	return out, nil
}

// Statuses derives the status of every catalog item once.
func (s *Store) Statuses(catalog *menu.Catalog, dataDir string) ([]ItemStatus, error) {
	items := catalog.Items()
	out := make([]ItemStatus, 0, len(items))
	for _, item := range items {
		images, err := menu.FindImages(dataDir, item.Slug)
		if err != nil {
			return nil, err
		}
		stamp, processed, err := s.Marker(item.Slug)
		if err != nil {
			return nil, err
		}
		status := StatusMissingImage
		switch {
		case processed:
			status = StatusProcessed
		case len(images) > 0:
			status = StatusNew
		}
		out = append(out, ItemStatus{Item: item, Images: images, Status: status, LastProcessedAt: stamp})
	}
	return out, nil
}

// Counts tallies statuses.
func Counts(statuses []ItemStatus) map[Status]int {
	counts := map[Status]int{StatusProcessed: 0, StatusNew: 0, StatusMissingImage: 0}
	for _, st := range statuses {
		counts[st.Status]++
	}
	return counts
}

var manifestHeader = []string{"slug", "course", "section", "image", "status", "last_processed_at"}

// WriteManifest rewrites manifest.csv with one row per source image (or one
// row without an image for items lacking photos). Image paths are relative to
// the parent of dataDir.
func (s *Store) WriteManifest(statuses []ItemStatus, dataDir string) (string, error) {
	path := s.ManifestPath()
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(manifestHeader); err != nil {
		return "", err
	}
	base := filepath.Dir(filepath.Clean(dataDir))
	for _, st := range statuses {
		images := st.Images
		if len(images) == 0 {
			images = []string{""}
		}
		for _, image := range images {
			rel := image
			if image != "" {
				if r, err := filepath.Rel(base, image); err == nil {
					rel = filepath.ToSlash(r)
				}
			}
			row := []string{st.Item.Slug, st.Item.Course, st.Item.Section, rel, string(st.Status), st.LastProcessedAt}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}
	if err := WriteFile(path, []byte(b.String())); err != nil {
		return "", err
	}
	return path, nil
}

type exportedItem struct {
	menu.Item
	Images          []string `json:"images"`
	Status          Status   `json:"status"`
	LastProcessedAt string   `json:"last_processed_at,omitempty"`
}

// ExportItems writes one JSON document per item to outDir/{course}/{slug}.json.
func ExportItems(statuses []ItemStatus, outDir string) ([]string, error) {
	written := make([]string, 0, len(statuses))
	for _, st := range statuses {
		images := st.Images
		if images == nil {
			images = []string{}
		}
		path := filepath.Join(outDir, textutil.PathSegment(st.Item.Course), st.Item.Slug+".json")
		if err := WriteJSON(path, exportedItem{Item: st.Item, Images: images, Status: st.Status, LastProcessedAt: st.LastProcessedAt}); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
