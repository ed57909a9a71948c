package storage

import (
	"context"
	"io"
	"time"
)

// Uploader stores call recordings and transcript files. Objects are private;
// callers hand out access through Signer.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

// Signer mints short-lived download URLs for stored call artifacts.
type Signer interface {
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}
