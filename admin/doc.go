// Package admin serves a small read-only JSON API next to the file server.
//
// Routes:
//
//	GET /healthz   liveness plus the configured dependency checks
//	GET /access    recorded exchanges, newest first
//
// /access accepts prefix, status, limit (1..1000, default 100) and cursor
// query parameters. The response carries next_cursor while more pages
// remain. Errors are JSON objects with error and message fields.
package admin
