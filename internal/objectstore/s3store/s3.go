// Package s3store implements an AWS S3 object store client.
package s3store

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/discochess/bucketreader/internal/objectstore"
)

// Compile-time check that Client implements objectstore.Client.
var _ objectstore.Client = (*Client)(nil)

// Client is an AWS S3 object store client.
//
// The SDK's own retryer is disabled: retries belong to the caller, which
// needs to see every store error to classify it.
type Client struct {
	client *s3.Client
}

type settings struct {
	region    string
	endpoint  string
	accessKey string
	secretKey string
}

// Option configures a Client.
type Option func(*settings)

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(s *settings) {
		s.region = region
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
// Path-style addressing is used for custom endpoints.
func WithEndpoint(endpoint string) Option {
	return func(s *settings) {
		s.endpoint = endpoint
	}
}

// WithStaticCredentials bypasses the default credential chain.
func WithStaticCredentials(accessKey, secretKey string) Option {
	return func(s *settings) {
		s.accessKey = accessKey
		s.secretKey = secretKey
	}
}

// New creates a new S3 client from the default AWS configuration chain.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	var loadOpts []func(*config.LoadOptions) error
	if s.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(s.region))
	}
	if s.accessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.accessKey, s.secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.endpoint != "" {
			o.BaseEndpoint = aws.String(s.endpoint)
			o.UsePathStyle = true
		}
		// Every GetObject is a single request; the reader owns retries.
		o.Retryer = aws.NopRetryer{}
	})

	return &Client{client: client}, nil
}

// GetObject opens the object stored under key in bucket.
// AWS API errors are returned as-is; they carry the S3 error code.
func (c *Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting object: %w", err)
	}
	return result.Body, nil
}

// Close releases resources.
func (c *Client) Close() error {
	// S3 client doesn't need explicit closing.
	return nil
}
