package application

import (
	"errors"
	"sync"
)

var (
	ErrQueueClosed   = errors.New("queue closed")
	ErrQueueDetached = errors.New("queue consumer gone")
	ErrStopped       = errors.New("shutdown requested")
)

// Queue is an unbounded FIFO connecting exactly one producer to one
// consumer. Push never blocks.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	closed   bool
	detached bool
	ready    chan struct{}
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{}, 1)}
}

// Push appends v. It fails once the queue is closed or its consumer has
// detached.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	switch {
	case q.detached:
		q.mu.Unlock()
		return ErrQueueDetached
	case q.closed:
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	q.wake()
	return nil
}

// Close marks the end of input. Items already queued are still delivered.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wake()
}

// Detach is called by the consumer when it stops reading; pending items
// are dropped and further pushes fail.
func (q *Queue[T]) Detach() {
	q.mu.Lock()
	q.detached = true
	q.items = nil
	q.mu.Unlock()
}

// Pop blocks until an item is available, the queue is closed and drained
// (ErrQueueClosed), or done is closed (ErrStopped).
func (q *Queue[T]) Pop(done <-chan struct{}) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			q.mu.Unlock()
			return v, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return zero, ErrQueueClosed
		}

		select {
		case <-q.ready:
		case <-done:
			return zero, ErrStopped
		}
	}
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) wake() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
