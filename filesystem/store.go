// Package filesystem provides the file store the webroot dispatcher reads from.
// All access goes through an *os.Root, so resources cannot escape the web root.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/sagarc03/webroot"
)

// Store provides read-only file system access under a web root.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Exists reports whether path names a regular file under the root. Missing
// files, directories and paths the root refuses (absolute, escaping) all
// report false.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := s.root.Stat(rootRelative(path))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("stat failed, treating as missing", "path", path, "err", err)
		}
		return false, nil
	}

	return info.Mode().IsRegular(), nil
}

// Size returns the file size. Returns webroot.ErrNotFound if the file does not exist.
func (s *Store) Size(ctx context.Context, path string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := s.root.Stat(rootRelative(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, webroot.ErrNotFound
		}
		return 0, fmt.Errorf("stat file: %w", err)
	}

	return info.Size(), nil
}

// ReadAll reads the whole file. Returns webroot.ErrNotFound if the file does not exist.
func (s *Store) ReadAll(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(rootRelative(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, webroot.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "path", path, "err", closeErr)
		}
	}()

	data, err := io.ReadAll(&ctxReader{ctx: ctx, r: f})
	if err != nil {
		return nil, fmt.Errorf("could not read file contents: %w", err)
	}

	return data, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// rootRelative turns a slash-rooted resource path into a path relative to the
// root. Only one leading slash is removed; "//x" stays absolute and is refused.
func rootRelative(path string) string {
	p := strings.TrimPrefix(path, "/")
	if p == "" {
		return "."
	}
	return p
}
