// Package gcsstore implements a Google Cloud Storage object store client.
package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/discochess/bucketreader/internal/objectstore"
)

// Compile-time check that Client implements objectstore.Client.
var _ objectstore.Client = (*Client)(nil)

// Client is a Google Cloud Storage object store client.
type Client struct {
	client *storage.Client

	// bucketAttrs looks a bucket up; nil means it exists.
	bucketAttrs func(ctx context.Context, bucket string) error
	buckets     sync.Map // names of buckets seen to exist
}

// New creates a new GCS client.
// Options are passed through to storage.NewClient (endpoint, credentials).
func New(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	return &Client{
		client: client,
		bucketAttrs: func(ctx context.Context, bucket string) error {
			_, err := client.Bucket(bucket).Attrs(ctx)
			return err
		},
	}, nil
}

// GetObject opens the object stored under key in bucket.
func (c *Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	reader, err := c.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			err = c.missing(ctx, bucket, err)
		}
		return nil, fmt.Errorf("creating reader: %w", translate(err))
	}
	return reader, nil
}

// missing tells a missing bucket from a missing object, which object reads
// report the same way. Buckets found to exist are remembered so later misses
// cost no extra request. If the lookup itself fails (no buckets.get
// permission, say) the object is reported missing.
func (c *Client) missing(ctx context.Context, bucket string, notFound error) error {
	if _, ok := c.buckets.Load(bucket); ok {
		return notFound
	}
	err := c.bucketAttrs(ctx, bucket)
	switch {
	case err == nil:
		c.buckets.Store(bucket, struct{}{})
	case errors.Is(err, storage.ErrBucketNotExist):
		return err
	}
	return notFound
}

// Close releases resources.
func (c *Client) Close() error {
	return c.client.Close()
}

// translate maps GCS failures onto the shared error vocabulary.
// Errors that did not come from the service are returned unchanged.
func translate(err error) error {
	switch {
	case errors.Is(err, storage.ErrObjectNotExist):
		return objectstore.NewError(objectstore.CodeNoSuchKey, err)
	case errors.Is(err, storage.ErrBucketNotExist):
		return objectstore.NewError(objectstore.CodeNoSuchBucket, err)
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch gerr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return objectstore.NewError(objectstore.CodeAccessDenied, err)
	case http.StatusNotFound:
		return objectstore.NewError(objectstore.CodeNoSuchKey, err)
	}
	return objectstore.NewError(errorCode(gerr), err)
}

// errorCode derives a code from the API reason, falling back to the HTTP status.
func errorCode(gerr *googleapi.Error) string {
	if len(gerr.Errors) > 0 && gerr.Errors[0].Reason != "" {
		return gerr.Errors[0].Reason
	}
	if text := http.StatusText(gerr.Code); text != "" {
		return strings.ReplaceAll(text, " ", "")
	}
	return fmt.Sprintf("HTTP%d", gerr.Code)
}
