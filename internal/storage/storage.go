package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrObjectNotFound is returned by Open when no blob is stored under the name.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidName rejects names that are not a single plain path element.
	ErrInvalidName = errors.New("invalid object name")
)

type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified *time.Time
}

// Service persists attachment blobs under flat, generated names.
type Service interface {
	Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, *ObjectInfo, error)
	Delete(ctx context.Context, name string) error
}

// ValidateName accepts only names that cannot escape the storage area.
func ValidateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
