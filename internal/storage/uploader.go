package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeJSON = "application/json"
)

type Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	UsePathStyle  bool
	Prefix        string
}

// presignTTL is how long a download link stays valid when the bucket is not public.
const presignTTL = 24 * time.Hour

// Uploader stores report files in an S3 compatible bucket. With a PublicBaseURL the
// object is public and its URL is returned; otherwise the object stays private and a
// presigned download link is returned.
type Uploader struct {
	cfg     Config
	client  *s3.Client
	presign *s3.PresignClient
	now     func() time.Time
}

func NewUploader(cfg Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, errors.New("s3 region is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("s3 credentials are required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ledger-exports"
	}

	options := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	client := s3.New(options)
	return &Uploader{
		cfg:     cfg,
		client:  client,
		presign: s3.NewPresignClient(client),
		now:     time.Now,
	}, nil
}

func (u *Uploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("no data to upload")
	}
	if contentType == "" {
		contentType = ContentTypeCSV
	}

	key := u.generateKey(contentType)
	acl := types.ObjectCannedACLPrivate
	if u.cfg.PublicBaseURL != "" {
		acl = types.ObjectCannedACLPublicRead
	}
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         acl,
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3: %w", err)
	}
	if u.cfg.PublicBaseURL != "" {
		return strings.TrimRight(u.cfg.PublicBaseURL, "/") + "/" + key, nil
	}
	return u.presignGet(ctx, key)
}

func (u *Uploader) presignGet(ctx context.Context, key string) (string, error) {
	req, err := u.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign s3 object: %w", err)
	}
	return req.URL, nil
}

// generateKey lays objects out as <prefix>/YYYY/MM/DD/<uuid><ext>.
func (u *Uploader) generateKey(contentType string) string {
	now := u.now().UTC()
	prefix := strings.Trim(u.cfg.Prefix, "/")
	return path.Join(prefix, fmt.Sprintf("%04d/%02d/%02d", now.Year(), now.Month(), now.Day()), uuid.NewString()+extensionFromContentType(contentType))
}

func extensionFromContentType(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case ContentTypeCSV:
		return ".csv"
	case ContentTypeJSON:
		return ".json"
	default:
		return ".bin"
	}
}
