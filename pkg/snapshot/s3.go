package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/flagkit/pkg/repository"
)

// S3Client is the part of *s3.Client used by S3Bucket.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds the snapshot bucket settings, read from the environment.
type S3Config struct {
	Bucket         string        `env:"SNAPSHOT_S3_BUCKET"`
	Region         string        `env:"SNAPSHOT_S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string        `env:"SNAPSHOT_S3_ACCESS_KEY_ID"`
	SecretKey      string        `env:"SNAPSHOT_S3_SECRET_KEY"`
	Endpoint       string        `env:"SNAPSHOT_S3_ENDPOINT"` // S3-compatible services
	ForcePathStyle bool          `env:"SNAPSHOT_S3_FORCE_PATH_STYLE" envDefault:"false"`
	Prefix         string        `env:"SNAPSHOT_S3_PREFIX" envDefault:"snapshots/"`
	Timeout        time.Duration `env:"SNAPSHOT_S3_TIMEOUT" envDefault:"30s"`
}

// S3Bucket keeps snapshots as objects in an S3 bucket.
type S3Bucket struct {
	client  S3Client
	bucket  string
	prefix  string
	timeout time.Duration
}

// S3Option configures NewS3Bucket.
type S3Option func(*s3Options)

type s3Options struct {
	client        S3Client
	configOptions []func(*config.LoadOptions) error
}

// WithS3Client uses a pre-configured client instead of loading the AWS config.
func WithS3Client(c S3Client) S3Option {
	return func(o *s3Options) { o.client = c }
}

func WithS3ConfigOption(opt func(*config.LoadOptions) error) S3Option {
	return func(o *s3Options) { o.configOptions = append(o.configOptions, opt) }
}

func NewS3Bucket(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Bucket, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}
	o := &s3Options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, "")))
		}
		loadOpts = append(loadOpts, o.configOptions...)

		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("snapshot: load aws config: %w", err)
		}
		client = s3.NewFromConfig(awsCfg, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &S3Bucket{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, timeout: cfg.Timeout}, nil
}

func (b *S3Bucket) Put(ctx context.Context, key string, data []byte) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.prefix + key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(key)),
	})
	return classifyS3Error(err, key)
}

func (b *S3Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.prefix + key),
	})
	if err != nil {
		return nil, classifyS3Error(err, key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, repository.Unavailable(fmt.Errorf("snapshot: read %s: %w", key, err))
	}
	return data, nil
}

func (b *S3Bucket) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}

// classifyS3Error maps SDK errors to repository error kinds.
func classifyS3Error(err error, key string) error {
	if err == nil {
		return nil
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, key)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return fmt.Errorf("%w: %s", ErrSnapshotNotFound, key)
		case "AccessDenied":
			return fmt.Errorf("%w: s3 %s: %v", repository.ErrAccessDenied, key, err)
		case "NoSuchBucket":
			return fmt.Errorf("%w: s3 bucket: %v", repository.ErrNotFound, err)
		}
	}
	return repository.Unavailable(fmt.Errorf("snapshot: s3 %s: %w", key, err))
}

func contentType(key string) string {
	if FormatFromPath(key) == JSON {
		return "application/json"
	}
	return "application/yaml"
}
