package queue

import "sync"

// Queue is a generic FIFO queue safe for use by one producer and one
// consumer running on different goroutines.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// New creates and returns a new Queue instance.
func New[T any]() *Queue[T] {
	return &Queue[T]{items: []T{}}
}

// Enqueue adds an element to the end of the queue.
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
}

// Drain removes every element and returns them in arrival order.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = []T{}
	return items
}
