// Package upload publishes per-platform bundles to remote storage and keeps a
// manifest of share links next to the build tree.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"menucast/internal/artifacts"
	"menucast/internal/fileutil"
	"menucast/internal/logging"
	"menucast/internal/services"
)

// Link identifies an uploaded object.
type Link struct {
	Key string
	URL string
}

// Uploader is the remote storage contract. Folders form a hierarchy of
// platform, date, and slug.
type Uploader interface {
	EnsureFolder(ctx context.Context, parts []string) (string, error)
	UploadFile(ctx context.Context, folder, localPath string) (Link, error)
}

// Entry records one uploaded bundle file in the upload manifest.
type Entry struct {
	Key        string `json:"key"`
	Link       string `json:"link"`
	SHA256     string `json:"sha256,omitempty"`
	UploadedAt string `json:"uploaded_at"`
}

// Manifest maps slug to platform to file name.
type Manifest map[string]map[string]map[string]Entry

// Result summarizes one bundle sync.
type Result struct {
	Slug     string
	Platform string
	Folder   string
	Files    map[string]Entry
	Removed  []string
}

// Syncer uploads bundle directories and records them in the manifest.
type Syncer struct {
	uploader Uploader
	store    *artifacts.Store
	cleanup  bool
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithCleanup removes local bundle files after every file uploaded.
func WithCleanup(enabled bool) Option {
	return func(s *Syncer) { s.cleanup = enabled }
}

// WithClock overrides the time source for dated folders and stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSyncer constructs a Syncer.
func NewSyncer(uploader Uploader, store *artifacts.Store, logger *slog.Logger, opts ...Option) *Syncer {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Syncer{
		uploader: uploader,
		store:    store,
		now:      time.Now,
		logger:   logging.NewComponentLogger(logger, "upload"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncBundle uploads every file in platform_assets/{platform}/{slug} to the
// folder platform/YYYY-MM-DD/slug and merges the links into the manifest.
func (s *Syncer) SyncBundle(ctx context.Context, slug, platform string) (Result, error) {
	if s == nil || s.uploader == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "upload", "sync", "uploader not configured", nil)
	}
	logger := logging.WithContext(services.WithPlatform(ctx, platform), s.logger)
	dir := s.store.BundleDir(platform, slug)
	files, err := bundleFiles(dir)
	if err != nil {
		return Result{}, services.Wrap(services.ErrNotFound, "upload", "list bundle", s.store.Rel(dir), err)
	}
	now := s.now().UTC()
	folder, err := s.uploader.EnsureFolder(ctx, []string{platform, now.Format("2006-01-02"), slug})
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "upload", "ensure folder", "", err)
	}

	result := Result{Slug: slug, Platform: platform, Folder: folder, Files: make(map[string]Entry, len(files))}
	for _, path := range files {
		name := filepath.Base(path)
		link, err := s.uploader.UploadFile(ctx, folder, path)
		if err != nil {
			return result, services.Wrap(services.ErrExternalTool, "upload", "upload file", name, err)
		}
		entry := Entry{Key: link.Key, Link: link.URL, UploadedAt: now.Format(time.RFC3339)}
		if sum, err := fileutil.SHA256Hex(path); err == nil {
			entry.SHA256 = sum
		}
		result.Files[name] = entry
		logger.Debug("bundle file uploaded", logging.String("file", name), logging.String("key", link.Key))
	}

	if err := s.recordManifest(slug, platform, result.Files); err != nil {
		return result, err
	}

	if s.cleanup {
		for _, path := range files {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				logging.WarnWithContext(logger, "failed to remove uploaded bundle file", "upload_cleanup_failed",
					logging.String("file", path),
					logging.Error(err),
					logging.String(logging.FieldImpact, "local copy left in place"),
				)
				continue
			}
			result.Removed = append(result.Removed, filepath.Base(path))
		}
	}

	logger.Info("bundle uploaded",
		logging.String(logging.FieldEventType, "bundle_uploaded"),
		logging.String("folder", folder),
		logging.Int("files", len(result.Files)),
	)
	return result, nil
}

// ReadManifest loads the upload manifest. A missing manifest is empty.
func ReadManifest(store *artifacts.Store) (Manifest, error) {
	manifest := Manifest{}
	if err := artifacts.ReadJSON(store.UploadManifestPath(), &manifest); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, nil
		}
		return nil, err
	}
	if manifest == nil {
		manifest = Manifest{}
	}
	return manifest, nil
}

func (s *Syncer) recordManifest(slug, platform string, files map[string]Entry) error {
	return s.store.WithLock("upload-manifest", func() error {
		manifest, err := ReadManifest(s.store)
		if err != nil {
			return err
		}
		if manifest[slug] == nil {
			manifest[slug] = map[string]map[string]Entry{}
		}
		if manifest[slug][platform] == nil {
			manifest[slug][platform] = map[string]Entry{}
		}
		for name, entry := range files {
			manifest[slug][platform][name] = entry
		}
		return artifacts.WriteJSON(s.store.UploadManifestPath(), manifest)
	})
}

func bundleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("bundle %s is empty", dir)
	}
	sort.Strings(files)
	return files, nil
}
