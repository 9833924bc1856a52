package lightstate

import (
	"container/list"
	"sync"

	"github.com/google/uuid"
)

// Handle identifies one subscription. Every Subscribe call returns a fresh
// handle, even when the same callback is registered twice.
type Handle string

type registration[T any] struct {
	handle Handle
	cb     Callback[T]
}

// Store holds a single value and an ordered set of subscribers.
//
// Set replaces the value and calls every subscriber with it, in registration
// order, on the caller's goroutine, before returning. Callbacks run outside
// the store lock so they may read the store or write to it again.
type Store[T any] struct {
	mu      sync.RWMutex
	current T
	order   *list.List
	index   map[Handle]*list.Element
}

// NewStore creates a store holding initial.
func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{
		current: initial,
		order:   list.New(),
		index:   map[Handle]*list.Element{},
	}
}

// Get returns the current value without copying it.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the current value and notifies subscribers.
func (s *Store[T]) Set(next T) {
	s.mu.Lock()
	s.current = next
	callbacks := s.snapshotLocked()
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(next)
	}
}

// Subscribe registers cb and returns its handle. A nil callback is accepted
// and skipped on notify.
func (s *Store[T]) Subscribe(cb Callback[T]) Handle {
	handle := Handle(uuid.NewString())
	s.mu.Lock()
	s.ensureLocked()
	s.index[handle] = s.order.PushBack(registration[T]{handle: handle, cb: cb})
	s.mu.Unlock()
	return handle
}

// Unsubscribe removes the registration for handle. Unknown or already removed
// handles are ignored.
func (s *Store[T]) Unsubscribe(handle Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	elem, ok := s.index[handle]
	if !ok {
		return
	}
	s.order.Remove(elem)
	delete(s.index, handle)
}

// UnsubscribeAll drops every registration.
func (s *Store[T]) UnsubscribeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = list.New()
	s.index = map[Handle]*list.Element{}
}

// Len reports the number of live registrations.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

func (s *Store[T]) ensureLocked() {
	if s.order == nil {
		s.order = list.New()
	}
	if s.index == nil {
		s.index = map[Handle]*list.Element{}
	}
}

func (s *Store[T]) snapshotLocked() []Callback[T] {
	if s.order == nil || s.order.Len() == 0 {
		return nil
	}
	out := make([]Callback[T], 0, s.order.Len())
	for elem := s.order.Front(); elem != nil; elem = elem.Next() {
		reg := elem.Value.(registration[T])
		if reg.cb != nil {
			out = append(out, reg.cb)
		}
	}
	return out
}
