package webroot_test

import (
	"testing"

	"github.com/sagarc03/webroot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequestLine(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantResource string
		wantOK       bool
	}{
		{name: "root", raw: "GET / HTTP/1.1\r\n", wantResource: "/", wantOK: true},
		{name: "file", raw: "GET /img/a.png HTTP/1.1\r\n", wantResource: "/img/a.png", wantOK: true},
		{name: "query kept", raw: "GET /a.html?x=1&y=2 HTTP/1.1\r\n", wantResource: "/a.html?x=1&y=2", wantOK: true},
		{name: "percent encoding kept", raw: "GET /a%20b.txt HTTP/1.1\r\n", wantResource: "/a%20b.txt", wantOK: true},
		{name: "empty target", raw: "GET  HTTP/1.1\r\n", wantResource: "", wantOK: true},

		{name: "post method", raw: "POST / HTTP/1.1\r\n"},
		{name: "lowercase method", raw: "get / HTTP/1.1\r\n"},
		{name: "head method", raw: "HEAD / HTTP/1.1\r\n"},
		{name: "http 1.0", raw: "GET / HTTP/1.0\r\n"},
		{name: "missing terminator", raw: "GET / HTTP/1.1"},
		{name: "bare newline", raw: "GET / HTTP/1.1\n"},
		{name: "two tokens", raw: "GET /\r\n"},
		{name: "four tokens", raw: "GET / x HTTP/1.1\r\n"},
		{name: "double space", raw: "GET  / HTTP/1.1\r\n"},
		{name: "tab separated", raw: "GET\t/\tHTTP/1.1\r\n"},
		{name: "empty", raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resource, ok := webroot.ValidateRequestLine(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantResource, resource)
		})
	}
}

func TestParseRequestLine(t *testing.T) {
	req, err := webroot.ParseRequestLine("GET /index.html HTTP/1.1\r\n")
	require.NoError(t, err)
	assert.Equal(t, webroot.Request{Method: "GET", Target: "/index.html", Version: "HTTP/1.1\r\n"}, req)

	_, err = webroot.ParseRequestLine("DELETE /index.html HTTP/1.1\r\n")
	assert.ErrorIs(t, err, webroot.ErrMalformedRequest)
	assert.Contains(t, err.Error(), "DELETE")
}
