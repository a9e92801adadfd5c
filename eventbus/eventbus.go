// Package eventbus provides a small in-process publish/subscribe bus.
package eventbus

import (
	"fmt"
	"sync"

	"github.com/go-monolith/mono/pkg/types"
)

// Handler handles one emitted payload. A returned error is logged and does not
// stop delivery to the remaining handlers.
type Handler func(payload any) error

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers payloads synchronously, in subscription order.
type Bus struct {
	handlers map[string][]subscription
	nextID   uint64
	mu       sync.RWMutex
	logger   types.Logger
}

// New creates a Bus that reports handler failures to logger.
func New(logger types.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]subscription),
		logger:   logger,
	}
}

// On registers handler for eventType and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (b *Bus) On(eventType string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(eventType, id) })
	}
}

func (b *Bus) remove(eventType string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[eventType]) == 0 {
		delete(b.handlers, eventType)
	}
}

// Emit calls every handler of eventType with payload. Handlers added or
// removed during delivery take effect on the next Emit.
func (b *Bus) Emit(eventType string, payload any) {
	b.mu.RLock()
	subs := b.handlers[eventType]
	b.mu.RUnlock()

	for _, s := range subs {
		if err := b.call(s.handler, payload); err != nil {
			b.logger.WithError(err).Error("Event handler failed", "event", eventType)
		}
	}
}

func (b *Bus) call(h Handler, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(payload)
}

// Clear removes every handler.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[string][]subscription)
}

// HandlerCount returns the number of handlers for eventType.
func (b *Bus) HandlerCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
