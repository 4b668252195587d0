package session

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// ReferenceReadTimeout is the per-read wait the server was designed around.
// It is not applied unless configured: without a timeout reads block until
// data arrives or the peer goes away.
const ReferenceReadTimeout = 2 * time.Second

// Stream is the byte channel of one connection. A Session borrows it and
// never closes it.
type Stream interface {
	io.Reader
	io.Writer
}

// ErrInterrupted is returned by reads on an interrupted ConnStream.
var ErrInterrupted = errors.New("stream interrupted")

// WithReadTimeout bounds every Read on conn to d. A d of zero or less sets
// no deadline, so reads wait indefinitely.
func WithReadTimeout(conn net.Conn, d time.Duration) *ConnStream {
	return &ConnStream{conn: conn, timeout: max(d, 0)}
}

// ConnStream is a Stream over a net.Conn. Interrupt unblocks a pending Read
// and fails every later one; writes are unaffected.
type ConnStream struct {
	conn    net.Conn
	timeout time.Duration

	mu          sync.Mutex
	interrupted bool
}

func (s *ConnStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	if s.interrupted {
		s.mu.Unlock()
		return 0, ErrInterrupted
	}
	if s.timeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
			s.mu.Unlock()
			return 0, err
		}
	}
	s.mu.Unlock()

	n, err := s.conn.Read(p)
	if err != nil && s.Interrupted() {
		return n, ErrInterrupted
	}
	return n, err
}

func (s *ConnStream) Write(p []byte) (int, error) {
	return s.conn.Write(p)
}

// Interrupt ends the session reading from s at its next or pending Read.
func (s *ConnStream) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interrupted = true
	_ = s.conn.SetReadDeadline(time.Now())
}

func (s *ConnStream) Interrupted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interrupted
}
