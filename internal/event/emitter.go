// Package event provides a small typed publish/subscribe primitive.
package event

import "sync"

// Emitter delivers fired values to every registered handler.
// Handlers run on the goroutine that calls Fire, in registration order.
// The zero value is ready to use.
type Emitter[T any] struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers []subscription[T]
}

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// On registers a handler and returns a function that removes it.
// The returned function is safe to call more than once.
func (e *Emitter[T]) On(handler func(T)) (unsubscribe func()) {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.handlers = append(e.handlers, subscription[T]{id: id, fn: handler})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(id) })
	}
}

// Fire calls all handlers registered at the time of the call.
// Handlers added or removed while Fire runs take effect on the next call.
func (e *Emitter[T]) Fire(value T) {
	e.mu.RLock()
	handlers := e.handlers
	e.mu.RUnlock()

	for _, h := range handlers {
		h.fn(value)
	}
}

// Len returns the number of registered handlers.
func (e *Emitter[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers)
}

func (e *Emitter[T]) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Copy on write so a concurrent Fire keeps its snapshot intact.
	kept := make([]subscription[T], 0, len(e.handlers))
	for _, h := range e.handlers {
		if h.id != id {
			kept = append(kept, h)
		}
	}
	e.handlers = kept
}
