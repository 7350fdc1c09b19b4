// Package artifact persists encoded audio replies in S3 and hands out
// short-lived playback URLs.
package artifact

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/circhioz/alexa-assistant/domain/repositories"
)

// The URL only needs to survive until the platform fetches the audio once.
const presignTTL = 10 * time.Second

// S3Store uploads reply MP3s keyed by device identity, so each device
// holds at most one artifact at a time.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	logger  *zap.Logger
}

var _ repositories.ArtifactStore = (*S3Store)(nil)

// NewS3Store builds a store from the default AWS config chain and the
// S3_BUCKET environment variable.
func NewS3Store(ctx context.Context, logger *zap.Logger) (*S3Store, error) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required for the audio reply variant")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		logger:  logger,
	}, nil
}

// Upload implements repositories.ArtifactStore
func (s *S3Store) Upload(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact file: %w", err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload artifact: %w", err)
	}

	s.logger.Debug("Uploaded audio artifact",
		zap.String("bucket", s.bucket),
		zap.String("key", key))
	return nil
}

// PresignedURL implements repositories.ArtifactStore
func (s *S3Store) PresignedURL(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign artifact URL: %w", err)
	}
	return req.URL, nil
}
