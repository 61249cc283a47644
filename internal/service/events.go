package service

import "sync"

// SyncEvents is the cross-cutting notification boundary. Scheduled
// workouts and the user profile are not owned by the sync engine; after
// a pull they are handed off to their owning subsystems through
// fire-and-forget broadcasts, and gathered back through the request
// callbacks during push.
type SyncEvents[T any] struct {
	mu        sync.RWMutex
	listeners []func(T)
}

// Subscribe registers a listener. Listeners must not block; publishes
// run them synchronously on the publisher's goroutine.
func (e *SyncEvents[T]) Subscribe(fn func(T)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Publish broadcasts the payload to every listener. Fire-and-forget: no
// errors, no return values.
func (e *SyncEvents[T]) Publish(payload T) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, fn := range e.listeners {
		fn(payload)
	}
}
