package backup_test

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menucast/internal/backup"
	"menucast/internal/config"
	"menucast/internal/testsupport"
)

func mockS3(output interface{}, err error, keys *[]string) *s3.Client {
	return s3.NewFromConfig(aws.Config{Region: "us-east-1"}, func(o *s3.Options) {
		o.UsePathStyle = true
		o.APIOptions = append(o.APIOptions, func(stack *middleware.Stack) error {
			return stack.Initialize.Add(
				middleware.InitializeMiddlewareFunc("MockMiddleware", func(ctx context.Context, in middleware.InitializeInput, next middleware.InitializeHandler) (middleware.InitializeOutput, middleware.Metadata, error) {
					if put, ok := in.Parameters.(*s3.PutObjectInput); ok && keys != nil {
						*keys = append(*keys, aws.ToString(put.Bucket)+"/"+aws.ToString(put.Key))
					}
					return middleware.InitializeOutput{Result: output}, middleware.Metadata{}, err
				}),
				middleware.Before,
			)
		})
	})
}

func seedTree(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithSampleMenu())
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.BuildDir, "videos", "tiramisu.mp4"), 512)
	testsupport.WriteText(t, filepath.Join(cfg.Paths.BuildDir, "content", "tiramisu.json"), "{}")
	testsupport.WriteText(t, filepath.Join(cfg.Paths.BuildDir, ".locks", "content-tiramisu.lock"), "")
	return cfg
}

func archiveEntries(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)
	var names []string
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if header.Typeflag == tar.TypeReg {
			names = append(names, header.Name)
		}
	}
	sort.Strings(names)
	return names
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2026, 5, 4, 3, 15, 0, 0, time.UTC) }
}

func TestCreateArchivesBuildAndMenu(t *testing.T) {
	cfg := seedTree(t)
	archiver := backup.New(cfg, nil, backup.WithClock(fixedClock()))

	res, err := archiver.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "menucast_backup_20260504_031500.tar.gz", filepath.Base(res.Path))
	assert.Equal(t, 3, res.Files)
	assert.Nil(t, res.Upload)
	assert.Equal(t, []string{
		"build/content/tiramisu.json",
		"build/videos/tiramisu.mp4",
		"menu/mains.yaml",
	}, archiveEntries(t, res.Path))
}

func TestCreateRefusesToOverwrite(t *testing.T) {
	cfg := seedTree(t)
	archiver := backup.New(cfg, nil, backup.WithClock(fixedClock()))
	_, _, err := archiver.Create()
	require.NoError(t, err)
	_, _, err = archiver.Create()
	assert.Error(t, err)
}

func TestCreateSkipsBackupDirInsideBuild(t *testing.T) {
	cfg := seedTree(t)
	cfg.Backup.Dir = filepath.Join(cfg.Paths.BuildDir, "backups")
	archiver := backup.New(cfg, nil, backup.WithClock(fixedClock()))

	path, _, err := archiver.Create()
	require.NoError(t, err)
	for _, name := range archiveEntries(t, path) {
		assert.NotContains(t, name, "backups/")
	}
}

func TestRunUploadsWhenBucketSet(t *testing.T) {
	cfg := seedTree(t)
	cfg.Backup.Bucket = "archive"
	var keys []string
	archiver := backup.New(cfg, nil,
		backup.WithClock(fixedClock()),
		backup.WithPutter(mockS3(&s3.PutObjectOutput{}, nil, &keys)),
	)

	res, err := archiver.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Upload)
	assert.True(t, res.Upload.OK)
	assert.Equal(t, "minimax-pipeline/menucast_backup_20260504_031500.tar.gz", res.Key)
	assert.Equal(t, []string{"archive/minimax-pipeline/menucast_backup_20260504_031500.tar.gz"}, keys)
}

func TestRunUploadFailureKeepsArchive(t *testing.T) {
	cfg := seedTree(t)
	cfg.Backup.Bucket = "archive"
	archiver := backup.New(cfg, nil,
		backup.WithClock(fixedClock()),
		backup.WithPutter(mockS3(nil, errors.New("access denied"), nil)),
	)

	res, err := archiver.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Upload)
	assert.False(t, res.Upload.OK)
	assert.Contains(t, res.Upload.Message(), "access denied")
	assert.Empty(t, res.Key)
	assert.FileExists(t, res.Path)
}

func TestCreateRequiresBackupDir(t *testing.T) {
	cfg := seedTree(t)
	cfg.Backup.Dir = ""
	_, _, err := backup.New(cfg, nil).Create()
	assert.Error(t, err)
}
