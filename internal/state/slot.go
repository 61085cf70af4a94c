package state

import (
	"sync"
)

// Slot holds the latest value of one piece of session state and replays it
// to observers. The zero value is not usable; create slots with NewSlot.
//
// Observers run synchronously on the goroutine calling Next or Subscribe,
// in subscription order. An observer may subscribe to or unsubscribe from
// any slot, but must not call Next on its own slot.
type Slot[T any] struct {
	deliverMu sync.Mutex // serialises broadcasts so observers see values in order

	mu     sync.Mutex
	value  T
	subs   []*Subscription[T]
	nextID int
}

// Subscription is an observer registration returned by Slot.Subscribe.
type Subscription[T any] struct {
	id   int
	slot *Slot[T]
	fn   func(T)

	// mu orders the replay before any value from a concurrent Next.
	mu sync.Mutex
}

// NewSlot creates a slot holding initial.
func NewSlot[T any](initial T) *Slot[T] {
	return &Slot[T]{value: initial}
}

// Current returns the latest value.
func (s *Slot[T]) Current() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Next replaces the value and delivers it to every observer.
func (s *Slot[T]) Next(v T) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	s.value = v
	subs := make([]*Subscription[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(v)
	}
}

// Subscribe registers fn, which immediately receives the current value and
// then every value passed to Next until the subscription is cancelled.
func (s *Slot[T]) Subscribe(fn func(T)) *Subscription[T] {
	sub := &Subscription[T]{slot: s, fn: fn}
	sub.mu.Lock()
	defer sub.mu.Unlock()

	s.mu.Lock()
	sub.id = s.nextID
	s.nextID++
	s.subs = append(s.subs, sub)
	current := s.value
	s.mu.Unlock()

	fn(current)
	return sub
}

// Unsubscribe stops delivery to this observer. Other observers and the held
// value are unaffected. Safe to call more than once and from inside fn.
func (sub *Subscription[T]) Unsubscribe() {
	s := sub.slot
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, other := range s.subs {
		if other.id == sub.id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

func (sub *Subscription[T]) deliver(v T) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.active() {
		sub.fn(v)
	}
}

func (sub *Subscription[T]) active() bool {
	s := sub.slot
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.subs {
		if other.id == sub.id {
			return true
		}
	}
	return false
}
