// Package notify delivers domain events and emails off the request path.
package notify

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// Queue is a bounded FIFO drained by a single worker. Enqueue never blocks:
// when the buffer is full the new item is dropped and counted.
type Queue[T any] struct {
	name    string
	items   chan T
	dropped atomic.Int64
	logger  *zap.Logger
}

// NewQueue creates a queue holding at most size pending items.
func NewQueue[T any](name string, size int, logger *zap.Logger) *Queue[T] {
	if size < 1 {
		size = 1
	}
	return &Queue[T]{
		name:   name,
		items:  make(chan T, size),
		logger: logger.With(zap.String("queue", name)),
	}
}

// Enqueue adds item and reports whether it was accepted.
func (q *Queue[T]) Enqueue(item T) bool {
	select {
	case q.items <- item:
		return true
	default:
		n := q.dropped.Add(1)
		q.logger.Warn("Queue full, dropping item", zap.Int64("dropped_total", n))
		return false
	}
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Dropped returns how many items were rejected because the queue was full.
func (q *Queue[T]) Dropped() int64 {
	return q.dropped.Load()
}

// Run hands items to handle one at a time until ctx is done. Handler errors
// are logged and the item is discarded.
func (q *Queue[T]) Run(ctx context.Context, handle func(context.Context, T) error) {
	q.logger.Info("Queue worker started")
	defer q.logger.Info("Queue worker stopped", zap.Int("pending", q.Len()))

	for {
		select {
		case <-ctx.Done():
			return
		case item := <-q.items:
			if err := handle(ctx, item); err != nil {
				q.logger.Warn("Failed to handle item", zap.Error(err))
			}
		}
	}
}
