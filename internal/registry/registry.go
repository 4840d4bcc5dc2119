// Package registry keeps the named handlers installed in a logging context.
package registry

import (
	"errors"
	"io"
	"sort"
	"sync"
)

// Registry maps handler names to installed handlers and guards access with a
// RWMutex. Handlers leaving the registry are closed by it.
type Registry[H io.Closer] struct {
	mu       sync.RWMutex
	handlers map[string]H
}

// New returns an empty registry.
func New[H io.Closer]() *Registry[H] {
	return &Registry[H]{handlers: make(map[string]H)}
}

// Get returns the handler installed under name.
func (r *Registry[H]) Get(name string) (H, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the installed handler names in sorted order.
func (r *Registry[H]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of installed handlers.
func (r *Registry[H]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.handlers)
}

// Install stores the given handlers, closing any handler they replace. When
// exclusive is set every other handler is closed and removed as well.
func (r *Registry[H]) Install(handlers map[string]H, exclusive bool) error {
	r.mu.Lock()
	var retired []H
	for name, old := range r.handlers {
		if _, replaced := handlers[name]; replaced || exclusive {
			retired = append(retired, old)
			delete(r.handlers, name)
		}
	}
	for name, h := range handlers {
		r.handlers[name] = h
	}
	r.mu.Unlock()

	return closeAll(retired)
}

// Close closes and removes every handler.
func (r *Registry[H]) Close() error {
	r.mu.Lock()
	retired := make([]H, 0, len(r.handlers))
	for name, h := range r.handlers {
		retired = append(retired, h)
		delete(r.handlers, name)
	}
	r.mu.Unlock()

	return closeAll(retired)
}

func closeAll[H io.Closer](handlers []H) error {
	var errs []error
	for _, h := range handlers {
		if err := h.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
