// Package accesslog persists served exchanges without slowing down sessions.
//
// Record hands an exchange to a bounded queue and returns at once. A single
// goroutine drains the queue into a webroot.AccessRepo. When the queue is
// full the exchange is dropped and counted.
package accesslog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sagarc03/webroot"
)

// DefaultQueueSize is used when NewWriter gets a size of zero or less.
const DefaultQueueSize = 256

type Writer struct {
	repo  webroot.AccessRepo
	queue chan webroot.Exchange
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	dropped atomic.Int64
	written atomic.Int64
	failed  atomic.Int64
}

func NewWriter(repo webroot.AccessRepo, queueSize int) (*Writer, error) {
	if repo == nil {
		return nil, errors.New("accesslog: repo is required")
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	w := &Writer{
		repo:  repo,
		queue: make(chan webroot.Exchange, queueSize),
		done:  make(chan struct{}),
	}
	go w.drain()
	return w, nil
}

// Record queues e for writing. It never blocks.
func (w *Writer) Record(e webroot.Exchange) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.dropped.Add(1)
		return
	}

	select {
	case w.queue <- e:
	default:
		n := w.dropped.Add(1)
		slog.Warn("access log queue full, dropping exchange", "resource", e.Resource, "dropped", n)
	}
}

func (w *Writer) drain() {
	defer close(w.done)

	for e := range w.queue {
		if err := w.repo.Record(context.Background(), e); err != nil {
			w.failed.Add(1)
			slog.Error("record exchange", "id", e.ID, "err", err)
			continue
		}
		w.written.Add(1)
	}
}

// Close stops accepting exchanges and waits for the queue to drain. If ctx
// ends first, Close returns ctx.Err() and the drain finishes in the
// background.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		slog.Debug("access log closed",
			"written", w.written.Load(), "failed", w.failed.Load(), "dropped", w.dropped.Load())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats reports how many exchanges were written, failed to write and were
// dropped.
type Stats struct {
	Written int64
	Failed  int64
	Dropped int64
}

func (w *Writer) Stats() Stats {
	return Stats{
		Written: w.written.Load(),
		Failed:  w.failed.Load(),
		Dropped: w.dropped.Load(),
	}
}
