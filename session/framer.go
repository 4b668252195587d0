package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/sagarc03/webroot"
)

var (
	lineTerminator   = []byte("\r\n")
	headerTerminator = []byte("\r\n\r\n")
)

// Framer delimits one request off a byte stream.
//
// It reads one byte at a time until the request line ends in CRLF. Then it
// reads into a second accumulator until that one holds CRLF CRLF. The header
// block is consumed and dropped, and nothing after its terminator is read.
type Framer struct {
	// MaxLineBytes bounds the request line, terminator included. 0 means no limit.
	MaxLineBytes int
	// MaxHeaderBytes bounds the header block, terminator included. 0 means no limit.
	MaxHeaderBytes int
}

// ReadRequest frames one request with no size limits.
func ReadRequest(r io.ByteReader) (string, error) {
	return Framer{}.ReadRequest(r)
}

// ReadRequest returns the request line, CRLF included.
//
// Errors:
//   - io.EOF (wrapped in webroot.ErrConnection) when the stream ends before any byte
//   - io.ErrUnexpectedEOF (wrapped in webroot.ErrConnection) when it ends mid-request
//   - webroot.ErrConnection for any other read failure
//   - webroot.ErrMalformedRequest for invalid UTF-8 or an exceeded limit
func (f Framer) ReadRequest(r io.ByteReader) (string, error) {
	line, err := readUntil(r, lineTerminator, f.MaxLineBytes, true)
	if err != nil {
		return "", fmt.Errorf("read request line: %w", err)
	}

	header, err := readUntil(r, headerTerminator, f.MaxHeaderBytes, false)
	if err != nil {
		return "", fmt.Errorf("read header block: %w", err)
	}

	if !utf8.Valid(line) || !utf8.Valid(header) {
		return "", fmt.Errorf("read request: %w: invalid utf-8", webroot.ErrMalformedRequest)
	}

	return string(line), nil
}

// readUntil accumulates bytes until the accumulator ends with delim. first
// marks the start of a request, where a clean end of stream is io.EOF.
func readUntil(r io.ByteReader, delim []byte, limit int, first bool) ([]byte, error) {
	var acc []byte
	for !bytes.HasSuffix(acc, delim) {
		if limit > 0 && len(acc) >= limit {
			return nil, fmt.Errorf("%w: exceeds %d bytes", webroot.ErrMalformedRequest, limit)
		}

		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if first && len(acc) == 0 {
					return nil, fmt.Errorf("%w: %w", webroot.ErrConnection, io.EOF)
				}
				return nil, fmt.Errorf("%w: %w", webroot.ErrConnection, io.ErrUnexpectedEOF)
			}
			return nil, fmt.Errorf("%w: %w", webroot.ErrConnection, err)
		}
		acc = append(acc, b)
	}
	return acc, nil
}
