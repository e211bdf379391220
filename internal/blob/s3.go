package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"sharedrive/internal/domain"
	"sharedrive/internal/domain/repositories/drive"
)

// S3Config configures the S3 blob store
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // MinIO, Localstack; empty for AWS
	AccessKey string // empty uses the default credential chain
	SecretKey string
	KeyPrefix string
}

// s3API is the part of *s3.Client the store uses
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store keeps content in an S3 bucket
type S3Store struct {
	client    s3API
	bucket    string
	keyPrefix string
	logger    *slog.Logger
}

// NewS3Store builds an S3 client from cfg
func NewS3Store(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 blob store: bucket is required")
	}

	opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, cfg.Bucket, cfg.KeyPrefix, logger), nil
}

func newS3Store(client s3API, bucket, keyPrefix string, logger *slog.Logger) *S3Store {
	return &S3Store{client: client, bucket: bucket, keyPrefix: keyPrefix, logger: logger}
}

func (s *S3Store) key(address string) string {
	return s.keyPrefix + address
}

// Put uploads content under address
func (s *S3Store) Put(ctx context.Context, address string, content []byte) error {
	if !validAddress(address) {
		return fmt.Errorf("blob address %q: %w", address, domain.ErrValidation)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(address)),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	s.logger.Debug("blob stored", "address", address, "bucket", s.bucket, "size", len(content))
	return nil
}

// Get downloads the content under address
func (s *S3Store) Get(ctx context.Context, address string) (io.ReadCloser, error) {
	if !validAddress(address) {
		return nil, fmt.Errorf("blob %s: %w", address, domain.ErrNotFound)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(address)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("blob %s: %w", address, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	return out.Body, nil
}

var _ drive.BlobStore = (*S3Store)(nil)
