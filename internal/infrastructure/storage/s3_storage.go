// Package storage provides the object store for generated images.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"creatorhub/services/creation-api/internal/config"
	"creatorhub/services/creation-api/internal/infrastructure/metrics"
)

var errStorageDisabled = errors.New("object storage is not configured; set S3_* to enable image generation")

// S3Storage uploads generated images to S3-compatible storage and hands
// out long-lived presigned URLs for them.
type S3Storage struct {
	bucket         string
	client         *s3.Client
	presigner      *s3.PresignClient
	publicEndpoint string
	presignTTL     time.Duration
	log            zerolog.Logger
	disabled       bool
}

func NewS3Storage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Storage, error) {
	logger := log.With().Str("component", "s3-storage").Logger()
	storage := &S3Storage{
		bucket:         cfg.S3Bucket,
		publicEndpoint: cfg.S3PublicEndpoint,
		presignTTL:     cfg.S3PresignTTL,
		log:            logger,
	}

	if storage.bucket == "" || cfg.S3AccessKeyID == "" || cfg.S3SecretKey == "" {
		logger.Warn().Msg("S3_BUCKET or credentials are not set; image generation will fail until configured")
		storage.disabled = true
		return storage, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.S3Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.S3Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.S3Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	storage.client = client
	storage.presigner = s3.NewPresignClient(client)
	return storage, nil
}

// Upload stores the object and returns the URL callers can fetch it from.
func (s *S3Storage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.disabled {
		return "", errStorageDisabled
	}

	start := time.Now()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordBackendCall("storage", status, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	presigned, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}

	s.log.Debug().
		Str("key", key).
		Int("bytes", len(data)).
		Msg("object uploaded")
	return s.externalizeURL(presigned.URL), nil
}

// Health performs a HeadBucket request.
func (s *S3Storage) Health(ctx context.Context) error {
	if s.disabled {
		return nil
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

// externalizeURL rewrites the scheme and host of internally generated
// URLs to the public endpoint, so links work outside the cluster.
func (s *S3Storage) externalizeURL(raw string) string {
	publicEndpoint := strings.TrimSpace(s.publicEndpoint)
	if publicEndpoint == "" || strings.TrimSpace(raw) == "" {
		return raw
	}

	target, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	external, err := url.Parse(publicEndpoint)
	if err != nil || external.Scheme == "" || external.Host == "" {
		return raw
	}

	target.Scheme = external.Scheme
	target.Host = external.Host

	if path := strings.TrimSuffix(external.Path, "/"); path != "" {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		target.Path = path + "/" + strings.TrimPrefix(target.Path, "/")
	}

	return target.String()
}
