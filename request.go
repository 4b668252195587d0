package webroot

import (
	"fmt"
	"strings"
)

const (
	// MethodGet is the only method the server accepts.
	MethodGet = "GET"
	// VersionToken is the version token as it appears at the end of a framed
	// request line, terminator included.
	VersionToken = "HTTP/1.1\r\n"

	crlf = "\r\n"
)

// ParseRequestLine splits a framed request line on single spaces. The line must
// have exactly three tokens, the method must be GET and the last token must be
// the version followed by CRLF. The target is kept verbatim: it is neither
// percent-decoded nor normalized, and any query string stays attached.
func ParseRequestLine(raw string) (Request, error) {
	parts := strings.Split(raw, " ")
	if len(parts) != 3 {
		return Request{}, fmt.Errorf("parse request line: %w: expected 3 tokens, got %d", ErrMalformedRequest, len(parts))
	}

	if parts[0] != MethodGet {
		return Request{}, fmt.Errorf("parse request line: %w: unsupported method %q", ErrMalformedRequest, parts[0])
	}

	if parts[2] != VersionToken {
		return Request{}, fmt.Errorf("parse request line: %w: unsupported version %q", ErrMalformedRequest, parts[2])
	}

	return Request{
		Method:  parts[0],
		Target:  parts[1],
		Version: parts[2],
	}, nil
}

// ValidateRequestLine reports whether raw is an acceptable request line and,
// if so, returns its resource.
func ValidateRequestLine(raw string) (string, bool) {
	req, err := ParseRequestLine(raw)
	if err != nil {
		return "", false
	}
	return req.Target, true
}
