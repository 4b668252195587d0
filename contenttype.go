package webroot

import (
	"maps"
	"strings"
)

// DefaultFallbackContentType is sent for extensions missing from the table.
const DefaultFallbackContentType = "application/octet-stream"

var defaultContentTypes = map[string]string{
	"html": "text/html; charset=utf-8",
	"jpg":  "image/jpeg",
	"css":  "text/css",
	"js":   "text/javascript; charset=UTF-8",
	"txt":  "text/plain",
	"ico":  "image/x-icon",
	"gif":  "image/gif",
	"png":  "image/png",
}

// ContentTypes maps lowercase file extensions to MIME types. It is never
// mutated after construction and is safe for concurrent use.
type ContentTypes struct {
	types    map[string]string
	fallback string
}

// NewContentTypes copies table, lowercasing its keys. An empty fallback means
// DefaultFallbackContentType.
func NewContentTypes(table map[string]string, fallback string) ContentTypes {
	types := make(map[string]string, len(table))
	for ext, mime := range table {
		types[strings.ToLower(strings.TrimPrefix(ext, "."))] = mime
	}

	if fallback == "" {
		fallback = DefaultFallbackContentType
	}

	return ContentTypes{types: types, fallback: fallback}
}

// DefaultContentTypes returns the built-in table.
func DefaultContentTypes() ContentTypes {
	return NewContentTypes(defaultContentTypes, DefaultFallbackContentType)
}

// DefaultContentTypeTable returns a copy of the built-in extension table.
func DefaultContentTypeTable() map[string]string {
	return maps.Clone(defaultContentTypes)
}

// Resolve returns the MIME type for path, or the fallback.
func (c ContentTypes) Resolve(path string) string {
	if mime, ok := c.types[Extension(path)]; ok {
		return mime
	}
	return c.fallback
}

// Fallback returns the MIME type used for unknown extensions.
func (c ContentTypes) Fallback() string {
	return c.fallback
}

// Extension returns the lowercased text after the last dot of the last
// slash-separated segment of path. A segment without a dot is returned whole.
func Extension(path string) string {
	name := path[strings.LastIndex(path, "/")+1:]
	ext := name[strings.LastIndex(name, ".")+1:]
	return strings.ToLower(ext)
}
