// Package backup archives the build tree and menu definitions and optionally
// ships the archive to S3.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"menucast/internal/config"
	"menucast/internal/logging"
	"menucast/internal/services"
	"menucast/internal/upload"
)

const namePrefix = "menucast_backup_"

// Result describes one backup run.
type Result struct {
	Path   string
	Files  int
	Key    string
	Upload *services.Outcome
}

// Archiver creates backup archives.
type Archiver struct {
	buildDir string
	menuDir  string
	outDir   string
	bucket   string
	prefix   string
	putter   upload.ObjectPutter
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes an Archiver.
type Option func(*Archiver)

// WithPutter enables S3 upload through client.
func WithPutter(client upload.ObjectPutter) Option {
	return func(a *Archiver) { a.putter = client }
}

// WithClock overrides the timestamp source for archive names.
func WithClock(now func() time.Time) Option {
	return func(a *Archiver) {
		if now != nil {
			a.now = now
		}
	}
}

// New builds an archiver from the paths and backup sections.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Archiver {
	if logger == nil {
		logger = logging.NewNop()
	}
	a := &Archiver{
		buildDir: cfg.Paths.BuildDir,
		menuDir:  cfg.Paths.MenuDir,
		outDir:   cfg.Backup.Dir,
		bucket:   strings.TrimSpace(cfg.Backup.Bucket),
		prefix:   strings.Trim(cfg.Backup.Prefix, "/"),
		logger:   logging.NewComponentLogger(logger, "backup"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewFromConfig builds an archiver and, when a bucket is set, its S3 client.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Archiver, error) {
	var opts []Option
	if strings.TrimSpace(cfg.Backup.Bucket) != "" {
		client, err := upload.NewS3Client(ctx, cfg.Upload.Region, cfg.Upload.Endpoint)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithPutter(client))
	}
	return New(cfg, logger, opts...), nil
}

// Name returns the archive file name for t.
func Name(t time.Time) string {
	return namePrefix + t.UTC().Format("20060102_150405") + ".tar.gz"
}

// Run creates the archive and uploads it when a bucket is configured. Upload
// failures are reported on the result, not returned.
func (a *Archiver) Run(ctx context.Context) (Result, error) {
	archive, files, err := a.Create()
	if err != nil {
		return Result{}, err
	}
	res := Result{Path: archive, Files: files}
	a.logger.Info("backup created", logging.String("path", archive), logging.Int("files", files))

	if a.bucket == "" || a.putter == nil {
		return res, nil
	}
	key := a.key(filepath.Base(archive))
	outcome := services.Attempt("upload backup", func() error {
		return a.upload(ctx, archive, key)
	})
	res.Upload = &outcome
	if outcome.OK {
		res.Key = key
		a.logger.Info("backup uploaded", logging.String("bucket", a.bucket), logging.String("key", key))
	} else {
		logging.WarnWithContext(a.logger, "backup upload failed", "backup_upload_failed",
			logging.String("bucket", a.bucket),
			logging.String("reason", outcome.Message()),
			logging.String(logging.FieldImpact, "archive kept locally only"),
		)
	}
	return res, nil
}

// Create writes build/ and menu/ into a new tar.gz under the backup dir and
// returns its path and file count.
func (a *Archiver) Create() (string, int, error) {
	if strings.TrimSpace(a.outDir) == "" {
		return "", 0, services.Wrap(services.ErrConfiguration, "backup", "create", "backup dir is not configured", nil)
	}
	if err := os.MkdirAll(a.outDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("ensure backup dir: %w", err)
	}
	target := filepath.Join(a.outDir, Name(a.now()))
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create archive: %w", err)
	}

	gz := gzip.NewWriter(file)
	tw := tar.NewWriter(gz)
	count := 0
	for _, root := range []struct{ dir, name string }{{a.buildDir, "build"}, {a.menuDir, "menu"}} {
		n, err := a.addTree(tw, root.dir, root.name)
		count += n
		if err != nil {
			_ = tw.Close()
			_ = gz.Close()
			_ = file.Close()
			_ = os.Remove(target)
			return "", 0, err
		}
	}
	if err := errors.Join(tw.Close(), gz.Close(), file.Close()); err != nil {
		_ = os.Remove(target)
		return "", 0, fmt.Errorf("finish archive: %w", err)
	}
	return target, count, nil
}

func (a *Archiver) addTree(tw *tar.Writer, dir, arcRoot string) (int, error) {
	if strings.TrimSpace(dir) == "" {
		return 0, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	outDir := filepath.Clean(a.outDir)
	count := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && (filepath.Clean(p) == outDir || (p != dir && strings.HasPrefix(d.Name(), "."))) {
			return filepath.SkipDir
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}
		if !d.IsDir() && strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		name := path.Join(arcRoot, filepath.ToSlash(rel))
		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = name
		if d.IsDir() {
			header.Name += "/"
			return tw.WriteHeader(header)
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if err := copyInto(tw, p); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("archive %s: %w", arcRoot, err)
	}
	return count, nil
}

func copyInto(w io.Writer, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func (a *Archiver) key(name string) string {
	if a.prefix == "" {
		return name
	}
	return a.prefix + "/" + name
}

func (a *Archiver) upload(ctx context.Context, archive, key string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = a.putter.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", a.bucket, key, err)
	}
	return nil
}
