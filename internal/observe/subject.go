// Package observe provides a current-value broadcast primitive used by the
// stores and view-models to publish complete state snapshots.
package observe

import "sync"

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Subject holds the latest value of T and broadcasts every published value
// to all subscribers. Callbacks run synchronously on the publishing
// goroutine, in subscription order, and never under the value lock, so a
// subscriber may call Value (or read its owner's state) freely. Publishing
// from inside a callback of the same Subject deadlocks.
type Subject[T any] struct {
	pub sync.Mutex // serializes Publish so deliveries keep their order

	mu     sync.Mutex
	value  T
	nextID int
	subs   []subscriber[T]
}

// New returns a Subject whose current value is initial.
func New[T any](initial T) *Subject[T] {
	return &Subject[T]{value: initial}
}

// Value returns the most recently published value.
func (s *Subject[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Publish stores v as the current value and delivers it to every subscriber.
func (s *Subject[T]) Publish(v T) {
	s.pub.Lock()
	defer s.pub.Unlock()

	s.mu.Lock()
	s.value = v
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

// Subscribe registers fn and immediately delivers the current value to it.
// The returned function removes the subscription; calling it more than once
// is harmless.
func (s *Subject[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.pub.Lock()
	defer s.pub.Unlock()

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	current := s.value
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Len reports the number of active subscribers.
func (s *Subject[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
