package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the configuration for the S3 backend.
type S3Config struct {
	Bucket          string
	Region          string
	Prefix          string // optional key prefix inside the bucket
	Endpoint        string // optional, for S3-compatible endpoints
	AccessKeyID     string // optional, static credentials
	SecretAccessKey string // optional, static credentials
	PublicBaseURL   string // optional, overrides the amazonaws.com URL
}

// objectPutter is the slice of the S3 client the publisher depends on.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ objectPutter = (*s3.Client)(nil)

// S3Publisher uploads artifacts to an S3 bucket.
type S3Publisher struct {
	client  objectPutter
	bucket  string
	region  string
	prefix  string
	baseURL string
}

// S3Option configures an S3Publisher.
type S3Option func(*S3Publisher)

// withClient sets a custom object putter (for testing).
func withClient(c objectPutter) S3Option {
	return func(p *S3Publisher) { p.client = c }
}

// NewS3Publisher creates an S3Publisher from the given configuration.
// Static credentials are used when provided; otherwise the default AWS
// credential chain applies. A custom endpoint switches the client to
// path-style addressing for S3-compatible services.
func NewS3Publisher(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Publisher, error) {
	p := &S3Publisher{
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client != nil {
		return p, nil
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load AWS config: %w", ErrPublishFailed, err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	p.client = s3.NewFromConfig(awsCfg, clientOpts...)

	return p, nil
}

// Publish uploads the stream under the configured prefix and returns the
// object's public URL.
func (p *S3Publisher) Publish(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	objectKey := key
	if p.prefix != "" {
		objectKey = p.prefix + "/" + key
	}

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(objectKey),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload %s: %w", ErrPublishFailed, objectKey, err)
	}

	if p.baseURL != "" {
		return p.baseURL + "/" + objectKey, nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, objectKey), nil
}

var _ Publisher = (*S3Publisher)(nil)
