package webroot

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

type StatusCode int

const (
	StatusOK                  StatusCode = 200
	StatusRedirect            StatusCode = 302
	StatusBadRequest          StatusCode = 400
	StatusForbidden           StatusCode = 403
	StatusInternalServerError StatusCode = 500
)

var reasonPhrases = map[StatusCode]string{
	StatusOK:                  "OK",
	StatusRedirect:            "REDIRECTION",
	StatusBadRequest:          "BAD REQUEST",
	StatusForbidden:           "FORBIDDEN",
	StatusInternalServerError: "INTERNAL SERVER ERROR",
}

// Reason returns the reason phrase sent on the status line.
func (c StatusCode) Reason() string {
	if r, ok := reasonPhrases[c]; ok {
		return r
	}
	return "UNKNOWN"
}

// StatusLine returns the full status line, terminator included.
func (c StatusCode) StatusLine() string {
	return "HTTP/1.1 " + strconv.Itoa(int(c)) + " " + c.Reason() + crlf
}

// Response is either a status-line-only message or a status line with
// content headers and a body.
type Response struct {
	Status      StatusCode
	Location    string
	ContentType string
	Body        []byte

	hasBody bool
}

// StatusOnly returns a response consisting of the status line alone.
func StatusOnly(code StatusCode) Response {
	return Response{Status: code}
}

// Redirect returns a 302 response with a location header and no blank line.
func Redirect(location string) Response {
	return Response{Status: StatusRedirect, Location: location}
}

// OK returns a 200 response carrying body. Content-Length is always len(body).
func OK(contentType string, body []byte) Response {
	return Response{
		Status:      StatusOK,
		ContentType: contentType,
		Body:        body,
		hasBody:     true,
	}
}

// HasBody reports whether the response carries content headers and a body.
func (r Response) HasBody() bool {
	return r.hasBody
}

// Header returns the encoded status line and headers.
func (r Response) Header() []byte {
	var buf bytes.Buffer
	buf.WriteString(r.Status.StatusLine())

	if r.Location != "" {
		buf.WriteString("location: " + r.Location + crlf)
	}

	if r.hasBody {
		buf.WriteString("content-type: " + r.ContentType + crlf)
		buf.WriteString("Content-Length: " + strconv.Itoa(len(r.Body)) + crlf)
		buf.WriteString(crlf)
	}

	return buf.Bytes()
}

// Bytes returns the complete wire encoding of the response.
func (r Response) Bytes() []byte {
	return append(r.Header(), r.Body...)
}

// WriteTo writes the header and then the body to w. A short or failed write
// is returned as is; nothing is retried.
func (r Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Header())
	total := int64(n)
	if err != nil {
		return total, fmt.Errorf("write header: %w", err)
	}

	if len(r.Body) == 0 {
		return total, nil
	}

	n, err = w.Write(r.Body)
	total += int64(n)
	if err != nil {
		return total, fmt.Errorf("write body: %w", err)
	}

	return total, nil
}
