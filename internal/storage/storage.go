// Package storage contains blob storage abstractions for document originals
// and thumbnails. Keys returned by Put are opaque locators; callers never
// parse their internal structure.
package storage

import (
	"context"
	"io"
	"time"
)

// PutOptions define optional parameters for uploading blobs.
// Size should be the exact number of bytes if known; if unknown, set to -1 and
// the implementation will buffer/chunk as supported by the backend.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored blob.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// BackendInfo describes the storage backend for system introspection.
type BackendInfo struct {
	Kind     string
	Location string
}

// Storage is the uniform blob storage contract. Implementations must be
// behaviorally identical from the caller's view: Put is atomic-or-absent (a
// failed Put leaves no partial blob reachable by a returned locator) and
// Delete of a non-existent locator is a no-op, not an error.
type Storage interface {
	// Put uploads a blob under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutOptions) (ObjectInfo, error)
	// Get retrieves a blob's content as a streaming reader alongside its info.
	// A missing locator yields a model.KindNotFound error.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes a blob by key. Deleting a missing key returns nil.
	Delete(ctx context.Context, key string) error
	// Exists reports whether the key refers to a stored blob.
	Exists(ctx context.Context, key string) (bool, error)
	// Info describes the backend.
	Info() BackendInfo
}
