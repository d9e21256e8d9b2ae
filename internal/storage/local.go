package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"paperbase/internal/model"
)

// localStorage implements Storage on the local filesystem rooted at a
// configured directory. Keys are slash-delimited paths relative to the root.
type localStorage struct {
	root string
}

// NewLocal creates a filesystem-backed storage rooted at dir, creating the
// directory if missing.
func NewLocal(dir string) (Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("local storage root is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &localStorage{root: dir}, nil
}

func (l *localStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", model.E(model.KindInvalidInput, "invalid storage key %q", key)
	}
	return filepath.Join(l.root, clean), nil
}

// Put writes to a temporary file first and renames into place, so a failed
// write never leaves a partial blob reachable by the returned locator.
func (l *localStorage) Put(ctx context.Context, key string, r io.Reader, opt PutOptions) (ObjectInfo, error) {
	dst, err := l.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ObjectInfo{}, model.Wrap(model.KindStorageIO, err, "prepare directory for %q", key)
	}

	tmp := dst + ".tmp-" + uuid.NewString()
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return ObjectInfo{}, model.Wrap(model.KindStorageIO, err, "create temp file for %q", key)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return ObjectInfo{}, model.Wrap(model.KindStorageIO, err, "write %q", key)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return ObjectInfo{}, model.Wrap(model.KindStorageIO, err, "commit %q", key)
	}

	st, err := os.Stat(dst)
	if err != nil {
		return ObjectInfo{}, model.Wrap(model.KindStorageIO, err, "stat %q", key)
	}
	return ObjectInfo{
		Key:          key,
		Size:         n,
		ContentType:  opt.ContentType,
		LastModified: st.ModTime(),
		Metadata:     opt.Metadata,
	}, nil
}

func (l *localStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ObjectInfo{}, model.E(model.KindNotFound, "blob %q not found", key)
		}
		return nil, ObjectInfo{}, model.Wrap(model.KindStorageIO, err, "open %q", key)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, model.Wrap(model.KindStorageIO, err, "stat %q", key)
	}
	ct := mime.TypeByExtension(filepath.Ext(p))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return f, ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		ContentType:  ct,
		LastModified: st.ModTime(),
	}, nil
}

func (l *localStorage) Delete(ctx context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return model.Wrap(model.KindStorageIO, err, "delete %q", key)
	}
	return nil
}

func (l *localStorage) Exists(ctx context.Context, key string) (bool, error) {
	p, err := l.path(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, model.Wrap(model.KindStorageIO, err, "stat %q", key)
	}
	return true, nil
}

func (l *localStorage) Info() BackendInfo {
	return BackendInfo{Kind: "local", Location: l.root}
}
