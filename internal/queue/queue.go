package queue

import (
	"container/heap"
	"sync"
)

type entry[T any] struct {
	due   float64
	seq   uint64
	value T
}

// entries orders by due time, then by push order.
type entries[T any] []entry[T]

func (e entries[T]) Len() int { return len(e) }
func (e entries[T]) Less(i, j int) bool {
	if e[i].due != e[j].due {
		return e[i].due < e[j].due
	}
	return e[i].seq < e[j].seq
}
func (e entries[T]) Swap(i, j int) { e[i], e[j] = e[j], e[i] }
func (e *entries[T]) Push(x any) { *e = append(*e, x.(entry[T])) }
func (e *entries[T]) Pop() any {
	old := *e
	n := len(old)
	it := old[n-1]
	*e = old[:n-1]
	return it
}

// Delayed is a thread-safe queue releasing items once their due time has passed.
// Items due at the same time come out in push order.
type Delayed[T any] struct {
	mu    sync.Mutex
	items entries[T]
	seq   uint64
}

// NewDelayed creates a new empty queue.
func NewDelayed[T any]() *Delayed[T] {
	return &Delayed[T]{}
}

// Push adds an item that becomes available at due.
func (q *Delayed[T]) Push(due float64, v T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.items, entry[T]{due: due, seq: q.seq, value: v})
	q.seq++
}

// PopDue removes and returns the earliest item due at or before now.
func (q *Delayed[T]) PopDue(now float64) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 || q.items[0].due > now {
		var zero T
		return zero, false
	}
	return heap.Pop(&q.items).(entry[T]).value, true
}

// Empty returns true if the queue has no items.
func (q *Delayed[T]) Empty() bool {
	return q.Len() == 0
}

// Len returns the number of items waiting, due or not.
func (q *Delayed[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear removes all items.
func (q *Delayed[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = q.items[:0]
}

// Drain returns every item in delivery order and empties the queue.
func (q *Delayed[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, 0, len(q.items))
	for len(q.items) > 0 {
		out = append(out, heap.Pop(&q.items).(entry[T]).value)
	}
	return out
}
