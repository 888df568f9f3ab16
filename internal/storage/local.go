// filepath: internal/storage/local.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"simpatch/internal/shared"
)

// LocalStore keeps objects as files under <root>/<bucket>.
type LocalStore struct {
	dir    string
	upsert bool
}

// NewLocalStore creates the bucket directory if needed.
func NewLocalStore(root, bucket string, upsert bool) (*LocalStore, error) {
	dir, err := objectPath(root, bucket)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create bucket directory: %w", err)
	}
	return &LocalStore{dir: dir, upsert: upsert}, nil
}

// Upload streams r into the object file. The data is written to a temporary
// file first so a failed copy never leaves a partial object behind.
func (s *LocalStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := objectPath(s.dir, key)
	if err != nil {
		return err
	}
	if !s.upsert {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", key, shared.ErrObjectExists)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create directory structure: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("could not write file: %w", err)
	}
	if size >= 0 && written != size {
		return fmt.Errorf("could not write file: wrote %d of %d bytes", written, size)
	}
	if !s.upsert {
		// Link fails if the object appeared since the check above.
		if err := os.Link(tmp.Name(), path); err != nil {
			if errors.Is(err, os.ErrExist) {
				return fmt.Errorf("%s: %w", key, shared.ErrObjectExists)
			}
			return fmt.Errorf("could not store object: %w", err)
		}
		return nil
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not store object: %w", err)
	}
	return nil
}

func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	path, err := objectPath(s.dir, key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// objectPath joins key below root and rejects keys that escape it.
func objectPath(root, key string) (string, error) {
	cleanedRoot := filepath.Clean(root)
	cleaned := filepath.Join(cleanedRoot, filepath.FromSlash(key))

	// --- SECURITY: Prevent Path Traversal ---
	rel, err := filepath.Rel(cleanedRoot, cleaned)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key %q: potential path traversal", key)
	}
	return cleaned, nil
}
