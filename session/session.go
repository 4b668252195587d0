// Package session runs the request loop of one client connection: frame a
// request, validate it, dispatch it and write the response back.
//
// A malformed request is answered with a single 400 and ends the session.
// Routed outcomes (403, 302, 500, and 400 for a missing file) leave the
// session running. Read and write failures end it without a response.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sagarc03/webroot"
)

// Dispatcher turns a resource into a response.
type Dispatcher interface {
	Dispatch(ctx context.Context, resource string) (webroot.Response, error)
}

// Recorder receives one exchange per handled request. Record must not block.
type Recorder interface {
	Record(e webroot.Exchange)
}

// Config holds per-session options. The zero value is usable.
type Config struct {
	ID         uuid.UUID
	RemoteAddr string
	Framer     Framer
	Recorder   Recorder
}

// Session serves one connection. It is not safe for concurrent use.
type Session struct {
	stream     Stream
	reader     *bufio.Reader
	dispatcher Dispatcher
	framer     Framer
	recorder   Recorder
	id         uuid.UUID
	remoteAddr string
	logger     *slog.Logger
	handled    int
}

func New(stream Stream, dispatcher Dispatcher, cfg Config) *Session {
	id := cfg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &Session{
		stream:     stream,
		reader:     bufio.NewReader(stream),
		dispatcher: dispatcher,
		framer:     cfg.Framer,
		recorder:   cfg.Recorder,
		id:         id,
		remoteAddr: cfg.RemoteAddr,
		logger:     slog.With("session_id", id, "remote_addr", cfg.RemoteAddr),
	}
}

// ID returns the session identifier used in logs and the access log.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Handled returns the number of requests answered so far.
func (s *Session) Handled() int {
	return s.handled
}

// Run serves requests until the session ends. It returns nil when a
// malformed request was rejected or the peer closed the connection between
// requests. Otherwise the error wraps webroot.ErrConnection or
// webroot.ErrFileRead.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Debug("client connected")

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("session: %w", err)
		}

		start := time.Now()

		raw, err := s.framer.ReadRequest(s.reader)
		if err != nil {
			if errors.Is(err, webroot.ErrMalformedRequest) {
				return s.reject(start, err)
			}
			if errors.Is(err, io.EOF) {
				s.logger.Debug("client closed connection", "handled", s.handled)
				return nil
			}
			s.logger.Debug("read request failed", "err", err)
			return fmt.Errorf("session: %w", err)
		}

		resource, ok := webroot.ValidateRequestLine(raw)
		s.logger.Debug("request line", "raw", raw, "valid", ok, "resource", resource)
		if !ok {
			return s.reject(start, webroot.ErrMalformedRequest)
		}

		resp, err := s.dispatcher.Dispatch(ctx, resource)
		if err != nil {
			s.logger.Error("dispatch failed", "resource", resource, "err", err)
			return fmt.Errorf("session: %w", err)
		}

		n, err := resp.WriteTo(s.stream)
		s.record(resource, resp.Status, n, start)
		if err != nil {
			s.logger.Error("write response failed", "resource", resource, "status", int(resp.Status), "err", err)
			return fmt.Errorf("session: %w: %w", webroot.ErrConnection, err)
		}

		s.handled++
		s.logger.Debug("sent response", "resource", resource, "status", int(resp.Status), "bytes", n)
	}
}

// reject answers a malformed request with 400 and ends the session.
func (s *Session) reject(start time.Time, cause error) error {
	resp := webroot.StatusOnly(webroot.StatusBadRequest)
	n, err := resp.WriteTo(s.stream)
	s.record("", resp.Status, n, start)
	if err != nil {
		s.logger.Error("write response failed", "status", int(resp.Status), "err", err)
		return fmt.Errorf("session: %w: %w", webroot.ErrConnection, err)
	}

	s.handled++
	s.logger.Debug("rejected malformed request", "err", cause)
	return nil
}

func (s *Session) record(resource string, status webroot.StatusCode, n int64, start time.Time) {
	if s.recorder == nil {
		return
	}

	now := time.Now()
	s.recorder.Record(webroot.Exchange{
		ID:         uuid.New(),
		SessionID:  s.id,
		RemoteAddr: s.remoteAddr,
		Resource:   resource,
		Status:     status,
		BytesSent:  n,
		Duration:   now.Sub(start),
		CreatedAt:  now.UTC(),
	})
}
