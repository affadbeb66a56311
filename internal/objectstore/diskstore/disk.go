// Package diskstore implements an object store client over a local directory.
// Each bucket is a subdirectory of the root; keys are slash-separated paths
// inside it.
package diskstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/discochess/bucketreader/internal/objectstore"
)

// Compile-time check that Client implements objectstore.Client.
var _ objectstore.Client = (*Client)(nil)

// Client is a disk-based object store client.
type Client struct {
	root string
}

// New creates a new disk client rooted at the given directory.
// The directory must exist.
func New(root string) (*Client, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	return &Client{root: root}, nil
}

// GetObject opens the file backing key in bucket.
func (c *Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	// Check for cancellation before starting I/O.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	bucketDir, err := c.bucketPath(bucket)
	if err != nil {
		return nil, err
	}
	path, err := objectPath(bucketDir, key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(bucketDir)
	if err != nil {
		return nil, fmt.Errorf("opening bucket: %w", translate(err, objectstore.CodeNoSuchBucket))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening bucket: %w", objectstore.NewError(objectstore.CodeNoSuchBucket, nil))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening object: %w", translate(err, objectstore.CodeNoSuchKey))
	}

	info, err = f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat object: %w", translate(err, objectstore.CodeNoSuchKey))
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("opening object: %w", objectstore.NewError(objectstore.CodeNoSuchKey, nil))
	}

	return f, nil
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	return nil
}

func (c *Client) bucketPath(bucket string) (string, error) {
	if bucket == "" || bucket == "." || bucket == ".." || strings.ContainsAny(bucket, `/\`) {
		return "", fmt.Errorf("invalid bucket name %q", bucket)
	}
	return filepath.Join(c.root, bucket), nil
}

// objectPath resolves key inside bucketDir, rejecting keys that escape it.
func objectPath(bucketDir, key string) (string, error) {
	if key == "" || !fs.ValidPath(key) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(bucketDir, filepath.FromSlash(key)), nil
}

// translate maps filesystem errors onto the shared error vocabulary.
// A path running through a regular file does not exist either.
func translate(err error, notExistCode string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return objectstore.NewError(notExistCode, err)
	case errors.Is(err, fs.ErrPermission):
		return objectstore.NewError(objectstore.CodeAccessDenied, err)
	}
	return objectstore.NewError(objectstore.CodeInternalError, err)
}
