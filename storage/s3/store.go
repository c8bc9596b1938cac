package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"article-board/config"
	"article-board/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rs/zerolog/log"
)

// ErrIncompleteS3Config is returned when the S3 configuration is incomplete
var ErrIncompleteS3Config = errors.New("incomplete S3 configuration")

// Store implements media storage on an s3-compatible bucket. Unlike the
// filesystem backend there is no cheap exclusive create here, so equal
// sanitized names are last-writer-wins on the object key.
type Store struct {
	S3Client     *s3.Client
	Timeout      time.Duration
	Bucket       string
	publicPrefix string
	maxBytes     int64
}

// New creates a new s3-based media store
func New(cfg *config.AppConfig) (*Store, error) {
	// check for required S3 configuration
	s3Cfg := cfg.Persistence.S3
	if strings.TrimSpace(s3Cfg.AccessKey) == "" ||
		strings.TrimSpace(s3Cfg.KeyID) == "" ||
		strings.TrimSpace(s3Cfg.Endpoint) == "" ||
		strings.TrimSpace(s3Cfg.Region) == "" ||
		strings.TrimSpace(s3Cfg.Bucket) == "" ||
		strings.TrimSpace(s3Cfg.Timeout) == "" {
		return nil, fmt.Errorf("%w", ErrIncompleteS3Config)
	}
	s3Client := s3.New(s3.Options{
		UsePathStyle: true,
		BaseEndpoint: aws.String(s3Cfg.Endpoint),
		Region:       s3Cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				s3Cfg.KeyID,
				s3Cfg.AccessKey,
				"",
			),
		),
	})

	timeoutDuration, err := time.ParseDuration(s3Cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid S3 timeout value: %w", err)
	}

	return &Store{
		S3Client:     s3Client,
		Timeout:      timeoutDuration,
		Bucket:       s3Cfg.Bucket,
		publicPrefix: cfg.PublicPrefix,
		maxBytes:     cfg.Limits.MaxMediaBytes,
	}, nil
}

// Stage streams the upload into the bucket under its sanitized, prefixed
// name. The manager uploader consumes the reader in parts, so memory use is
// bounded by the part size, not the file size.
func (r *Store) Stage(
	ctx context.Context,
	filename string,
	reader io.Reader,
) (storage.Staged, error) {
	name := storage.MediaPrefix + storage.SafeName(filename)

	uploader := manager.NewUploader(r.S3Client)

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	result, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.Bucket),
		Key:    aws.String(name),
		Body:   storage.Capped(reader, r.maxBytes),
	})
	if err != nil {
		var mu manager.MultiUploadFailure
		if errors.As(err, &mu) {
			// Process error and its associated uploadID
			log.Error().
				Msg(fmt.Sprintf("multi-upload failure (upload_id: %s): %v", mu.UploadID(), mu))

			return nil, fmt.Errorf(
				"multi-upload failure (upload_id: %s): %w",
				mu.UploadID(),
				mu,
			)
		}
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, storage.ErrTooLarge
		}
		log.Error().Err(err).Msg("media upload failure")

		return nil, fmt.Errorf("media upload failure: %w", err)
	}
	log.Debug().
		Str("location", result.Location).
		Msg("uploaded media to s3 bucket")

	return &stagedObject{store: r, name: name}, nil
}

type stagedObject struct {
	store *Store
	name  string
}

func (m *stagedObject) Path() string {
	return path.Join(m.store.publicPrefix, m.name)
}

func (m *stagedObject) Commit() error {
	return nil
}

func (m *stagedObject) Discard() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.store.Timeout)
	defer cancel()
	_, err := m.store.S3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.store.Bucket),
		Key:    aws.String(m.name),
	})
	if err != nil {
		return fmt.Errorf("failed to discard media from S3: %w", err)
	}

	return nil
}
