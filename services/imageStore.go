package services

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ImageStore persists uploaded images and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type S3ImageStore struct {
	uploader *manager.Uploader
	bucket   string
}

// NewS3ImageStore uses the default AWS credential chain and region.
func NewS3ImageStore(ctx context.Context, bucket string) (*S3ImageStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3ImageStore{uploader: manager.NewUploader(client), bucket: bucket}, nil
}

func (s *S3ImageStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ACL:         "public-read",
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return result.Location, nil
}
