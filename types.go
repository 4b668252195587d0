package webroot

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Request is a validated request line.
type Request struct {
	Method  string
	Target  string
	Version string
}

// Route is the result of resolving a resource against the web root.
type Route struct {
	Resource     string
	ResolvedPath string
	IsDefault    bool
}

// Exchange is one handled request as recorded in the access log.
type Exchange struct {
	ID         uuid.UUID     `json:"id"`
	SessionID  uuid.UUID     `json:"session_id"`
	RemoteAddr string        `json:"remote_addr"`
	Resource   string        `json:"resource"`
	Status     StatusCode    `json:"status"`
	BytesSent  int64         `json:"bytes_sent"`
	Duration   time.Duration `json:"duration_ns"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Page size bounds for access-log listings.
const (
	DefaultAccessLimit = 50
	MaxAccessLimit     = 1000
)

type AccessQuery struct {
	ResourcePrefix string
	Status         StatusCode
	Limit          int
	Cursor         string
}

// PageSize maps the requested limit onto [1, MaxAccessLimit]. Zero or a
// negative value selects DefaultAccessLimit.
func (q AccessQuery) PageSize() int {
	switch {
	case q.Limit <= 0:
		return DefaultAccessLimit
	case q.Limit > MaxAccessLimit:
		return MaxAccessLimit
	default:
		return q.Limit
	}
}

type AccessListResult struct {
	Items      []Exchange `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// Tables holds configurable table names for access-log storage.
// This allows several servers to share one database.
type Tables struct {
	AccessLog string `mapstructure:"access_log" yaml:"access_log"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.AccessLog == "" {
		return errors.New("validate tables: access log table name cannot be empty")
	}

	if !IsValidTableName(t.AccessLog) {
		return fmt.Errorf("validate tables: invalid access log table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.AccessLog)
	}

	return nil
}
