// Package queue implements an in-memory job queue and an autoscaling worker
// pool that reconciles stock records.
package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fairyhunter13/flam-stock-sync/internal/model"
	"github.com/fairyhunter13/flam-stock-sync/internal/obs"
)

// Queue is a buffered job queue with a background broker. A run enqueues a
// finite listing, closes intake, and the broker closes Out once the backlog
// is flushed.
type Queue struct {
	mu      sync.Mutex
	backlog []model.StockRecord
	notify  chan struct{}
	out     chan model.StockRecord
	closed  atomic.Bool

	enqueued  atomic.Uint64
	processed atomic.Uint64
}

// New creates a Queue with a buffered output channel.
func New(outBuffer int) *Queue {
	if outBuffer <= 0 {
		outBuffer = 64
	}
	return &Queue{
		notify: make(chan struct{}, 1),
		out:    make(chan model.StockRecord, outBuffer),
	}
}

// Start runs the broker loop.
func (q *Queue) Start(ctx context.Context, highWatermark int) {
	go q.broker(ctx, highWatermark)
}

// broker moves backlog items to the output channel until intake is closed
// and nothing is left to move.
func (q *Queue) broker(ctx context.Context, highWatermark int) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	warned := false
	for {
		remaining, closed := q.flushOnce()
		if closed && remaining == 0 {
			close(q.out)
			return
		}
		if highWatermark > 0 && remaining > highWatermark && !warned {
			obs.Logger.Warn("queue_backlog_high", "backlog_size", remaining, "high_watermark", highWatermark)
			warned = true
		}
		select {
		case <-ctx.Done():
			return
		case <-q.notify:
		case <-ticker.C:
		}
	}
}

// flushOnce drains backlog into the output buffer and returns what is left
// together with the intake state observed under the same lock.
func (q *Queue) flushOnce() (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for n < len(q.backlog) && len(q.out) < cap(q.out) {
		q.out <- q.backlog[n]
		n++
	}
	q.backlog = q.backlog[n:]
	return len(q.backlog), q.closed.Load()
}

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Enqueue appends a record into the backlog and notifies the broker. It
// returns false once intake is closed.
func (q *Queue) Enqueue(rec model.StockRecord) bool {
	q.mu.Lock()
	if q.closed.Load() {
		q.mu.Unlock()
		return false
	}
	q.enqueued.Add(1)
	q.backlog = append(q.backlog, rec)
	q.mu.Unlock()
	q.wake()
	return true
}

// Out exposes the output channel of records. It is closed after intake
// closes and the backlog is empty.
func (q *Queue) Out() <-chan model.StockRecord { return q.out }

// BacklogSize returns the number of enqueued-but-not-yet-output records.
func (q *Queue) BacklogSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

// QueueDepth returns backlog plus buffered output items.
func (q *Queue) QueueDepth() int {
	return q.BacklogSize() + len(q.out)
}

// MarkProcessed increases the processed counter.
func (q *Queue) MarkProcessed() { q.processed.Add(1) }

// Metrics returns counters and sizes for observability.
func (q *Queue) Metrics() (enq, proc uint64, backlog, depth int) {
	enq = q.enqueued.Load()
	proc = q.processed.Load()
	backlog = q.BacklogSize()
	depth = q.QueueDepth()
	return enq, proc, backlog, depth
}

// CloseIntake disallows future enqueues.
func (q *Queue) CloseIntake() {
	q.mu.Lock()
	q.closed.Store(true)
	q.mu.Unlock()
	q.wake()
}

// IsClosed reports if intake has been closed.
func (q *Queue) IsClosed() bool { return q.closed.Load() }
