package mqtt

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/sweeney/reset-supervisor/internal/logic"
)

var (
	// ErrQueueFull is returned when an event is dropped because the
	// publishing goroutine has fallen behind.
	ErrQueueFull = errors.New("mqtt: queue full")

	// ErrQueueClosed is returned after Close.
	ErrQueueClosed = errors.New("mqtt: queue closed")
)

type queued struct {
	event  *logic.Event
	system *SystemEvent
}

// Queue is a Publisher that hands messages to a single background goroutine,
// so callers on the 1 kHz control loop never wait on the broker.
type Queue struct {
	inner Publisher
	items chan queued
	done  chan struct{}

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

// NewQueue starts the publishing goroutine. size bounds how many messages
// may be waiting.
func NewQueue(inner Publisher, size int) *Queue {
	q := &Queue{
		inner: inner,
		items: make(chan queued, size),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for it := range q.items {
		if it.event != nil {
			if err := q.inner.Publish(*it.event); err != nil {
				log.Printf("publish error: %v", err)
			}
			continue
		}
		if err := q.inner.PublishSystem(*it.system); err != nil {
			log.Printf("failed to publish %s event: %v", it.system.Event, err)
		}
	}
}

func (q *Queue) enqueue(it queued) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.items <- it:
		return nil
	default:
		q.dropped.Add(1)
		return ErrQueueFull
	}
}

// Publish queues a supervisor event without blocking.
func (q *Queue) Publish(event logic.Event) error {
	return q.enqueue(queued{event: &event})
}

// PublishSystem queues a system event without blocking.
func (q *Queue) PublishSystem(event SystemEvent) error {
	return q.enqueue(queued{system: &event})
}

// Dropped returns how many messages were refused because the queue was full.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// IsConnected forwards to the wrapped publisher when it can report it.
func (q *Queue) IsConnected() bool {
	if cs, ok := q.inner.(ConnectionStatus); ok {
		return cs.IsConnected()
	}
	return false
}

// Close stops accepting messages, waits for the queued ones to be handed to
// the wrapped publisher, then closes it.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.items)
	q.mu.Unlock()

	<-q.done
	return q.inner.Close()
}
