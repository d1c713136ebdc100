// Package priorityqueue provides a binary heap over (key, payload) entries
// that can be ordered either by ascending or descending key.
package priorityqueue

import (
	"container/heap"
)

// Entry is a single element of the queue.
type Entry[T any] struct {
	Key     uint64
	Payload T
}

func NewEntry[T any](key uint64, payload T) Entry[T] {
	return Entry[T]{key, payload}
}

// PriorityQueue is a min (ascending) or max heap of entries. Entries with
// equal keys are popped in insertion order, which keeps the ordering
// deterministic for any input.
type PriorityQueue[T any] struct {
	h *entryHeap[T]
}

// New builds a queue out of the given entries in O(n).
func New[T any](entries []Entry[T], ascending bool) *PriorityQueue[T] {
	h := &entryHeap[T]{
		items:     make([]item[T], 0, len(entries)),
		ascending: ascending,
	}
	for _, e := range entries {
		h.items = append(h.items, item[T]{e, h.nextSeq})
		h.nextSeq++
	}
	heap.Init(h)
	return &PriorityQueue[T]{h}
}

func (q *PriorityQueue[T]) Len() int {
	return q.h.Len()
}

func (q *PriorityQueue[T]) IsEmpty() bool {
	return q.h.Len() == 0
}

// Insert adds a new entry to the queue.
func (q *PriorityQueue[T]) Insert(key uint64, payload T) {
	heap.Push(q.h, item[T]{Entry[T]{key, payload}, q.h.nextSeq})
	q.h.nextSeq++
}

// Pop removes and returns the entry with the lowest key, or the highest one
// for descending queues. It panics if the queue is empty, callers must check
// IsEmpty first.
func (q *PriorityQueue[T]) Pop() (uint64, T) {
	if q.IsEmpty() {
		panic("priorityqueue: pop from empty queue")
	}
	it := heap.Pop(q.h).(item[T])
	return it.entry.Key, it.entry.Payload
}

// Peek returns the next entry without removing it.
func (q *PriorityQueue[T]) Peek() (Entry[T], bool) {
	if q.IsEmpty() {
		return Entry[T]{}, false
	}
	return q.h.items[0].entry, true
}

// Drain empties the queue and returns its payloads in heap storage order,
// which is unspecified.
func (q *PriorityQueue[T]) Drain() []T {
	payloads := make([]T, 0, q.h.Len())
	for _, it := range q.h.items {
		payloads = append(payloads, it.entry.Payload)
	}
	q.h.items = q.h.items[:0]
	return payloads
}

type item[T any] struct {
	entry Entry[T]
	seq   uint64
}

// entryHeap implements heap.Interface.
type entryHeap[T any] struct {
	items     []item[T]
	ascending bool
	nextSeq   uint64
}

func (h *entryHeap[T]) Len() int { return len(h.items) }

func (h *entryHeap[T]) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.entry.Key == b.entry.Key {
		return a.seq < b.seq
	}
	if h.ascending {
		return a.entry.Key < b.entry.Key
	}
	return a.entry.Key > b.entry.Key
}

func (h *entryHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *entryHeap[T]) Push(x any) {
	h.items = append(h.items, x.(item[T]))
}

func (h *entryHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}
