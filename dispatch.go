package webroot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"
)

// FileStore defines the file access capability the Dispatcher reads from.
// Paths are slash-rooted and relative to the web root; implementations are
// responsible for joining them onto the root.
//
// All methods accept a context for cancellation.
type FileStore interface {
	// Exists reports whether path names a readable regular file.
	//
	// Returns:
	//   - bool: false for missing files, directories and paths outside the root
	//   - error: only context errors
	Exists(ctx context.Context, path string) (bool, error)

	// Size returns the size of the file in bytes.
	//
	// Returns:
	//   - int64: file size
	//   - error: ErrNotFound if the file doesn't exist, or other storage errors
	Size(ctx context.Context, path string) (int64, error)

	// ReadAll returns the full content of the file.
	//
	// Returns:
	//   - []byte: file content
	//   - error: ErrNotFound if the file doesn't exist, or other storage errors
	ReadAll(ctx context.Context, path string) ([]byte, error)
}

// AccessRepo defines the interface for access-log persistence.
// Implementations must handle concurrent access safely.
type AccessRepo interface {
	// Record stores one exchange.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - e: The exchange; a zero ID or CreatedAt is filled in by the implementation
	//
	// Returns:
	//   - error: Any database error
	Record(ctx context.Context, e Exchange) error

	// List retrieves a page of exchanges, newest first.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - q: AccessQuery with optional resource prefix and status filters, limit and cursor
	//
	// Returns:
	//   - AccessListResult: Matching exchanges and the cursor for the next page
	//   - error: ErrInvalidInput for a malformed cursor, or other database errors
	List(ctx context.Context, q AccessQuery) (AccessListResult, error)

	// Prune deletes exchanges created before the given time.
	//
	// Returns:
	//   - int64: Number of deleted exchanges
	//   - error: Any database error
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Redirects maps source paths to destination paths. It is never mutated
// after construction and is safe for concurrent use.
type Redirects struct {
	table map[string]string
}

func NewRedirects(table map[string]string) Redirects {
	return Redirects{table: maps.Clone(table)}
}

// Lookup returns the destination for path.
func (r Redirects) Lookup(path string) (string, bool) {
	dest, ok := r.table[path]
	return dest, ok
}

func (r Redirects) Len() int {
	return len(r.table)
}

// SiteConfig holds the routing rules of a Dispatcher.
type SiteConfig struct {
	// DefaultDocument is served for an empty or "/" resource, relative to the web root.
	DefaultDocument string
	// ForbiddenPath answers 403. Empty disables the rule.
	ForbiddenPath string
	// ErrorPath answers 500. Empty disables the rule.
	ErrorPath    string
	Redirects    Redirects
	ContentTypes ContentTypes
}

// Dispatcher resolves resources to responses. It holds no mutable state and
// may be shared by any number of sessions.
type Dispatcher struct {
	files       FileStore
	site        SiteConfig
	defaultPath string
}

func NewDispatcher(files FileStore, site SiteConfig) (*Dispatcher, error) {
	if files == nil {
		return nil, fmt.Errorf("new dispatcher: %w: file store cannot be nil", ErrInvalidInput)
	}

	doc := strings.TrimPrefix(site.DefaultDocument, "/")
	if doc == "" {
		return nil, fmt.Errorf("new dispatcher: %w: default document cannot be empty", ErrInvalidInput)
	}

	if site.ContentTypes.types == nil {
		site.ContentTypes = DefaultContentTypes()
	}

	return &Dispatcher{
		files:       files,
		site:        site,
		defaultPath: "/" + doc,
	}, nil
}

// Resolve maps a resource to its path under the web root. An empty or "/"
// resource becomes the default document; anything else is kept verbatim.
func (d *Dispatcher) Resolve(resource string) Route {
	if resource == "" || resource == "/" {
		return Route{Resource: resource, ResolvedPath: d.defaultPath, IsDefault: true}
	}
	return Route{Resource: resource, ResolvedPath: resource}
}

// Dispatch applies the routing rules to resource. The first match wins:
// forbidden path, redirect, synthetic-error path, missing file, file. The
// default document route skips the three policy rules, since its resolved
// path is never a requested resource.
//
// A resource without a leading slash names no file under the web root and
// answers 400 like a missing file.
//
// Policy outcomes and missing files are returned as responses with a nil
// error. An error is returned only when the store fails on a file it reported
// as existing; it wraps ErrFileRead.
func (d *Dispatcher) Dispatch(ctx context.Context, resource string) (Response, error) {
	route := d.Resolve(resource)
	target := route.ResolvedPath

	if !route.IsDefault {
		if resp, ok := d.policy(target); ok {
			return resp, nil
		}
		if !strings.HasPrefix(target, "/") {
			return StatusOnly(StatusBadRequest), nil
		}
	}

	exists, err := d.files.Exists(ctx, target)
	if err != nil {
		return Response{}, fmt.Errorf("dispatch %s: %w", resource, err)
	}
	if !exists {
		return StatusOnly(StatusBadRequest), nil
	}

	size, err := d.files.Size(ctx, target)
	if err != nil {
		return Response{}, d.readErr(resource, err)
	}

	body, err := d.files.ReadAll(ctx, target)
	if err != nil {
		return Response{}, d.readErr(resource, err)
	}

	if int64(len(body)) != size {
		slog.Debug("file size changed during read", "path", target, "stat_size", size, "read_size", len(body))
	}

	return OK(d.site.ContentTypes.Resolve(target), body), nil
}

func (d *Dispatcher) policy(target string) (Response, bool) {
	if d.site.ForbiddenPath != "" && target == d.site.ForbiddenPath {
		return StatusOnly(StatusForbidden), true
	}

	if dest, ok := d.site.Redirects.Lookup(target); ok {
		return Redirect(d.location(dest)), true
	}

	if d.site.ErrorPath != "" && target == d.site.ErrorPath {
		return StatusOnly(StatusInternalServerError), true
	}

	return Response{}, false
}

// location maps a redirect destination to the location header value. The
// default document is always announced as the site root.
func (d *Dispatcher) location(dest string) string {
	if dest == "" || dest == d.defaultPath {
		return "/"
	}
	return dest
}

func (d *Dispatcher) readErr(resource string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("dispatch %s: %w", resource, err)
	}
	return fmt.Errorf("dispatch %s: %w: %w", resource, ErrFileRead, err)
}
