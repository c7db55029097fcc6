// Package blobstore defines where finished reports are uploaded.
package blobstore

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

// BlobStore keeps objects under caller-chosen keys. Keys use forward slashes
// and may contain one or more directory segments.
type BlobStore interface {
	Save(ctx context.Context, key, mimeType string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
	// URL is the public address of key. It does not check that key exists.
	URL(key string) string
}
