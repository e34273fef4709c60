package upload

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"menucast/internal/config"
)

const defaultShareTTL = 7 * 24 * time.Hour

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Presigner produces share links for uploaded objects.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Uploader maps folders to key prefixes in one bucket and returns presigned
// GET URLs as share links.
type S3Uploader struct {
	client    ObjectPutter
	presigner Presigner
	bucket    string
	prefix    string
	ttl       time.Duration
}

// NewS3Uploader constructs an uploader over the given clients.
func NewS3Uploader(client ObjectPutter, presigner Presigner, bucket, prefix string, ttl time.Duration) *S3Uploader {
	if ttl <= 0 {
		ttl = defaultShareTTL
	}
	return &S3Uploader{
		client:    client,
		presigner: presigner,
		bucket:    bucket,
		prefix:    strings.Trim(prefix, "/"),
		ttl:       ttl,
	}
}

// NewS3Client builds an S3 client from the default AWS credential chain,
// honouring an optional region and custom endpoint.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if strings.TrimSpace(region) != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if strings.TrimSpace(endpoint) != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// NewFromConfig builds the S3 uploader described by the upload section.
func NewFromConfig(ctx context.Context, cfg config.Upload) (*S3Uploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("upload bucket is not configured")
	}
	client, err := NewS3Client(ctx, cfg.Region, cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(cfg.ShareLinkTTLHours) * time.Hour
	return NewS3Uploader(client, s3.NewPresignClient(client), cfg.Bucket, cfg.Prefix, ttl), nil
}

// EnsureFolder returns the key prefix for parts. S3 has no directories, so
// nothing is created remotely.
func (u *S3Uploader) EnsureFolder(_ context.Context, parts []string) (string, error) {
	clean := make([]string, 0, len(parts)+1)
	if u.prefix != "" {
		clean = append(clean, u.prefix)
	}
	for _, part := range parts {
		part = strings.Trim(strings.TrimSpace(part), "/")
		if part == "" {
			return "", fmt.Errorf("empty folder component in %v", parts)
		}
		clean = append(clean, part)
	}
	return path.Join(clean...), nil
}

// UploadFile puts localPath under folder and returns a presigned link.
func (u *S3Uploader) UploadFile(ctx context.Context, folder, localPath string) (Link, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return Link{}, err
	}
	defer f.Close()

	key := path.Join(folder, filepath.Base(localPath))
	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if contentType := mime.TypeByExtension(filepath.Ext(localPath)); contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := u.client.PutObject(ctx, input); err != nil {
		return Link{}, fmt.Errorf("put s3://%s/%s: %w", u.bucket, key, err)
	}

	link := Link{Key: key, URL: fmt.Sprintf("s3://%s/%s", u.bucket, key)}
	if u.presigner != nil {
		req, err := u.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(u.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(u.ttl))
		if err != nil {
			return link, fmt.Errorf("presign %s: %w", key, err)
		}
		link.URL = req.URL
	}
	return link, nil
}
