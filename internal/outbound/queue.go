// Package outbound buffers broker-bound wire records while the broker is
// unavailable and replays them in order once connectivity returns.
package outbound

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"stayhub.app/eventhub/internal/wire"
)

// PublishFunc performs one publish attempt against the broker.
type PublishFunc func(ctx context.Context, rec wire.Record) error

// Item is one queued wire record awaiting delivery.
type Item struct {
	Record     wire.Record
	EnqueuedAt time.Time
}

// Queue is the at-least-once delivery buffer. FIFO, unbounded (a documented
// simplification: no capacity bound or producer backpressure), with exactly
// one publish attempt in flight at a time.
type Queue struct {
	publish PublishFunc

	mu       sync.Mutex
	items    []Item
	draining bool
}

func NewQueue(publish PublishFunc) *Queue {
	return &Queue{publish: publish}
}

// Enqueue appends a record to the tail. Safe to call from any goroutine,
// including while a drain is in progress.
func (q *Queue) Enqueue(rec wire.Record) {
	q.mu.Lock()
	q.items = append(q.items, Item{Record: rec, EnqueuedAt: time.Now()})
	depth := len(q.items)
	q.mu.Unlock()

	slog.Debug("record queued for broker", "format", rec.Format.Name, "depth", depth)
}

// Len reports the current backlog depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain publishes the backlog head to tail. It runs at most once
// concurrently; a second call while draining returns immediately. On the
// first publish failure the remaining items stay queued and draining stops
// until the next connected transition.
func (q *Queue) Drain(ctx context.Context) {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true
	pending := len(q.items)
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}()

	if pending > 0 {
		slog.InfoContext(ctx, "draining delivery queue", "pending", pending)
	}

	for {
		if ctx.Err() != nil {
			return
		}

		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			return
		}
		head := q.items[0]
		q.mu.Unlock()

		if err := q.publish(ctx, head.Record); err != nil {
			// Abort instead of busy-looping against an unhealthy broker;
			// the head stays queued for the next drain.
			slog.WarnContext(ctx, "drain aborted on publish failure",
				"error", err,
				"format", head.Record.Format.Name,
				"remaining", q.Len())
			return
		}

		q.mu.Lock()
		q.items = q.items[1:]
		q.mu.Unlock()
	}
}
