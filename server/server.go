// Package server accepts TCP connections and runs one session per
// connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/netutil"

	"github.com/sagarc03/webroot/session"
)

// DefaultBacklog is the number of connections served at once when Config
// leaves Backlog unset.
const DefaultBacklog = 10

type Config struct {
	Address     string
	Port        int
	Backlog     int
	ReadTimeout time.Duration
	Framer      session.Framer
	Recorder    session.Recorder
}

// Server owns the listener and the goroutines serving accepted connections.
type Server struct {
	cfg         Config
	dispatcher  session.Dispatcher
	listener    net.Listener
	isListening atomic.Bool

	mu       sync.Mutex
	conns    map[net.Conn]*session.ConnStream
	draining bool
	wg       sync.WaitGroup
}

func New(dispatcher session.Dispatcher, cfg Config) (*Server, error) {
	if dispatcher == nil {
		return nil, errors.New("server: dispatcher is required")
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = DefaultBacklog
	}

	return &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		conns:      make(map[net.Conn]*session.ConnStream),
	}, nil
}

// Listen binds the configured address. Port 0 picks a free port; Addr
// reports the bound one.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.cfg.Address, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	s.listener = netutil.LimitListener(ln, s.cfg.Backlog)
	s.isListening.Store(true)
	slog.Info("listening", "addr", ln.Addr().String(), "backlog", s.cfg.Backlog)
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Close or Shutdown is called or ctx is
// done. It returns nil after an orderly stop.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.isListening.Load() {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				slog.Warn("accept failed", "err", err)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		stream := session.WithReadTimeout(conn, s.cfg.ReadTimeout)
		s.track(conn, stream)
		s.wg.Add(1)
		go s.handle(ctx, conn, stream)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn, stream *session.ConnStream) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer func() { _ = conn.Close() }()

	sess := session.New(stream, s.dispatcher, session.Config{
		ID:         uuid.New(),
		RemoteAddr: conn.RemoteAddr().String(),
		Framer:     s.cfg.Framer,
		Recorder:   s.cfg.Recorder,
	})

	if err := sess.Run(ctx); err != nil {
		slog.Debug("session ended", "session_id", sess.ID(), "handled", sess.Handled(), "err", err)
		return
	}
	slog.Debug("session ended", "session_id", sess.ID(), "handled", sess.Handled())
}

func (s *Server) track(conn net.Conn, stream *session.ConnStream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining {
		stream.Interrupt()
	}
	s.conns[conn] = stream
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// Close stops accepting connections. Sessions in progress keep running.
func (s *Server) Close() error {
	if !s.isListening.CompareAndSwap(true, false) {
		return nil
	}
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Shutdown closes the listener and interrupts every session's reads, so
// idle sessions end at once and busy ones end after their current response.
// When ctx expires first the remaining connections are closed and ctx.Err()
// is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.Close(); err != nil {
		slog.Warn("close listener", "err", err)
	}

	s.mu.Lock()
	s.draining = true
	for _, stream := range s.conns {
		stream.Interrupt()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.mu.Unlock()
		<-done
		return ctx.Err()
	}
}

// Active returns the number of connections currently being served.
func (s *Server) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
