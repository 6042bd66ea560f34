package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrBadImageData is returned for payloads that are not a valid
// base64-encoded image data URI. Handlers map it onto the relevant field.
var ErrBadImageData = errors.New("invalid image payload")

// ImageStore persists decoded image uploads and returns a URL the stored
// image is reachable by.
type ImageStore interface {
	SaveDataURI(ctx context.Context, dataURI string) (string, error)
}

// imageExtensions is the closed set of accepted upload formats. The extension
// becomes part of a filename or object key, so nothing outside this set may
// pass through.
var imageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
}

// parseDataURI decodes a "data:image/<ext>;base64,<payload>" string.
func parseDataURI(dataURI string) (ext string, data []byte, err error) {
	if !strings.HasPrefix(dataURI, "data:image/") {
		return "", nil, ErrBadImageData
	}
	meta, payload, ok := strings.Cut(dataURI, ";base64,")
	if !ok {
		return "", nil, ErrBadImageData
	}
	ext = strings.ToLower(strings.TrimPrefix(meta, "data:image/"))
	if !imageExtensions[ext] {
		return "", nil, ErrBadImageData
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrBadImageData
	}
	return ext, data, nil
}

// DiskImageStore writes images under a local media directory served
// statically by the HTTP layer.
type DiskImageStore struct {
	dir       string
	urlPrefix string
}

func NewDiskImageStore(dir, urlPrefix string) (*DiskImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &DiskImageStore{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (s *DiskImageStore) SaveDataURI(ctx context.Context, dataURI string) (string, error) {
	ext, data, err := parseDataURI(dataURI)
	if err != nil {
		return "", err
	}
	name := uuid.New().String() + "." + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return s.urlPrefix + "/" + name, nil
}

// S3ImageStore uploads images to an S3 bucket with public-read objects.
type S3ImageStore struct {
	client *s3.Client
	bucket string
}

func NewS3ImageStore(ctx context.Context, bucket string) (*S3ImageStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(os.Getenv("AWS_REGION")),
	)
	if err != nil {
		return nil, err
	}
	return &S3ImageStore{client: s3.NewFromConfig(awsCfg), bucket: bucket}, nil
}

func (s *S3ImageStore) SaveDataURI(ctx context.Context, dataURI string) (string, error) {
	ext, data, err := parseDataURI(dataURI)
	if err != nil {
		return "", err
	}
	key := uuid.New().String() + "." + ext
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/" + ext),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key), nil
}
