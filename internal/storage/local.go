// Package storage provides attachment persistence for journal pages and
// inline editor images. The engine depends on the journal.AttachmentStore
// capability, so the local-disk implementation here can be swapped for an
// object store without touching request handling.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local writes attachments to a flat directory on disk. Every stored file
// gets a fresh UUID-based name preserving the original extension, so
// names never collide and are never reused. References returned to
// callers are URL paths relative to BaseURL, never filesystem locations.
type Local struct {
	Root    string // directory files are written into
	BaseURL string // public URL prefix, e.g. "/uploads"
}

// NewLocal creates the upload directory if needed and returns a store
// rooted there.
func NewLocal(root, baseURL string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("storage: empty upload root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload root: %w", err)
	}
	return &Local{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Store writes the payload to durable storage exactly once and returns
// its reference path. An empty payload (nil reader or zero bytes) is not
// an error: it yields an empty reference so callers can treat "no
// attachment produced" as a valid outcome. Write errors are returned and
// must abort the enclosing save.
//
// The payload is written to a temporary file and renamed into place, so a
// reference is only ever handed out for a fully written file.
func (s *Local) Store(ctx context.Context, r io.Reader, originalName string) (string, error) {
	if r == nil {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.Root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once the rename succeeds

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("storage: write payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: close temp file: %w", err)
	}
	if n == 0 {
		return "", nil
	}

	name := uuid.NewString() + safeExt(originalName)
	if err := os.Rename(tmp.Name(), filepath.Join(s.Root, name)); err != nil {
		return "", fmt.Errorf("storage: place attachment: %w", err)
	}
	return path.Join(s.BaseURL, name), nil
}

// safeExt extracts a lower-cased extension from a client-supplied file
// name. Anything but short alphanumeric extensions is dropped, since the
// name is attacker-controlled.
func safeExt(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
