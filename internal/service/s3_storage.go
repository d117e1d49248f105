package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/simulai/simulai/config"
	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/logger"
	"github.com/simulai/simulai/pkg/tracing"
)

// S3Storage stores uploads in the bucket of the settings, or of the
// environment until the dashboard settings carry one
type S3Storage struct {
	settings       settingsProvider
	fallback       config.AWSConfig
	logger         logger.Logger
	sessionFactory func(cfg domain.AWSSettings) (*session.Session, error)

	mu      sync.Mutex
	current domain.AWSSettings
	client  *s3.S3
}

func NewS3Storage(settings settingsProvider, fallback config.AWSConfig, logger logger.Logger) *S3Storage {
	return &S3Storage{
		settings:       settings,
		fallback:       fallback,
		logger:         logger,
		sessionFactory: createS3Session,
	}
}

func createS3Session(cfg domain.AWSSettings) (*session.Session, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	return session.NewSession(awsCfg)
}

// resolve picks the bucket configuration, settings first
func (s *S3Storage) resolve(ctx context.Context) (domain.AWSSettings, error) {
	if s.settings != nil {
		settings, err := s.settings.GetSettings(ctx)
		if err != nil {
			return domain.AWSSettings{}, err
		}
		if settings.AWS.Configured() {
			return settings.AWS, nil
		}
	}
	cfg := domain.AWSSettings{
		Region:          s.fallback.Region,
		Bucket:          s.fallback.Bucket,
		AccessKeyID:     s.fallback.AccessKeyID,
		SecretAccessKey: s.fallback.SecretAccessKey,
		Endpoint:        s.fallback.Endpoint,
	}
	if !cfg.Configured() {
		return domain.AWSSettings{}, domain.ErrStorageNotConfigured
	}
	return cfg, nil
}

// clientFor reuses the client while the configuration is unchanged
func (s *S3Storage) clientFor(cfg domain.AWSSettings) (*s3.S3, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil && s.current == cfg {
		return s.client, nil
	}
	sess, err := s.sessionFactory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	s.client = s3.New(sess)
	s.current = cfg
	return s.client, nil
}

func (s *S3Storage) Upload(ctx context.Context, key string, file domain.Upload) (*domain.StoredObject, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "S3Storage", "Upload")
	defer span.End()

	cfg, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}
	client, err := s.clientFor(cfg)
	if err != nil {
		return nil, err
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploader := s3manager.NewUploaderWithClient(client)
	out, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(cfg.Bucket),
		Key:         aws.String(key),
		Body:        file.Body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"bucket": cfg.Bucket,
			"key":    key,
			"error":  err.Error(),
		}).Error("Failed to upload object")
		tracing.EndSpan(span, err)
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	location := out.Location
	if location == "" {
		location = objectURL(cfg, key)
	}
	return &domain.StoredObject{
		Key:         key,
		URL:         location,
		ContentType: contentType,
		Size:        file.Size,
	}, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	ctx, span := tracing.StartServiceSpan(ctx, "S3Storage", "Delete")
	defer span.End()

	cfg, err := s.resolve(ctx)
	if err != nil {
		return err
	}
	client, err := s.clientFor(cfg)
	if err != nil {
		return err
	}
	_, err = client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		tracing.EndSpan(span, err)
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// objectURL is the public URL of key, path style when a custom endpoint is set
func objectURL(cfg domain.AWSSettings, key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, cfg.Region, escaped)
}
