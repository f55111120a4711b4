// Package viewstore keeps per-page view state in memory.
//
// Every page load owns one entry keyed by a random view id. Values are
// stored and returned by copy; callers treat them as immutable snapshots.
package viewstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/checkboard/pkg/metrics"
)

const defaultMaxSize = 10_000

// node is an entry in the recency list; head is the most recently used.
type node[V any] struct {
	id    string
	value V
	prev  *node[V]
	next  *node[V]
}

// Store is a bounded, concurrency-safe map from view id to view state.
type Store[V any] struct {
	mu      sync.Mutex
	items   map[string]*node[V]
	head    *node[V]
	tail    *node[V]
	maxSize int
}

// New creates an empty store.
func New[V any](opts ...Option) *Store[V] {
	c := config{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(&c)
	}
	return &Store[V]{
		items:   make(map[string]*node[V]),
		maxSize: c.maxSize,
	}
}

// NewID returns a fresh view id.
func NewID() string {
	return uuid.NewString()
}

// Put stores v under id, replacing any previous value, and marks it most
// recently used.
func (s *Store[V]) Put(_ context.Context, id string, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.items[id]; ok {
		n.value = v
		s.moveToFront(n)
		return
	}

	if s.maxSize > 0 && len(s.items) >= s.maxSize {
		s.evictOldest()
	}
	n := &node[V]{id: id, value: v}
	s.pushFront(n)
	s.items[id] = n
	metrics.UpdateViewStoreSize(len(s.items))
}

// Get returns the value stored under id.
func (s *Store[V]) Get(_ context.Context, id string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[id]
	if !ok {
		var zero V
		return zero, false
	}
	s.moveToFront(n)
	return n.value, true
}

// Update replaces the value under id with fn applied to it, under the store
// lock. It reports false when id is not present; fn must not block.
func (s *Store[V]) Update(_ context.Context, id string, fn func(V) V) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.items[id]
	if !ok {
		var zero V
		return zero, false
	}
	n.value = fn(n.value)
	s.moveToFront(n)
	return n.value, true
}

// Len returns the number of stored views.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Capacity returns the configured bound, 0 when unbounded.
func (s *Store[V]) Capacity() int {
	if s.maxSize < 0 {
		return 0
	}
	return s.maxSize
}

// evictOldest drops the tail. Must be called with s.mu held.
func (s *Store[V]) evictOldest() {
	if s.tail == nil {
		return
	}
	n := s.tail
	s.unlink(n)
	delete(s.items, n.id)
	metrics.RecordViewEviction()
}

func (s *Store[V]) pushFront(n *node[V]) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
}

func (s *Store[V]) moveToFront(n *node[V]) {
	if s.head == n {
		return
	}
	s.unlink(n)
	s.pushFront(n)
}

func (s *Store[V]) unlink(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		s.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
}
