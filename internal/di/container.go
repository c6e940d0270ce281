// Package di provides a small service container with lazily built singletons
// and generic typed tokens.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves services by name.
type ServiceRegistry interface {
	Get(name string) any
	Has(name string) bool
}

// Container registers services and resolves them.
type Container interface {
	ServiceRegistry
	// Register stores an already built service.
	Register(name string, service any)
	// RegisterFactory stores a factory that is invoked once, on first Get.
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

type entry struct {
	once    sync.Once
	factory func(ServiceRegistry) any
	value   any
}

type container struct {
	mu       sync.RWMutex
	services map[string]*entry
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{services: make(map[string]*entry)}
}

func (c *container) Register(name string, service any) {
	e := &entry{value: service}
	e.once.Do(func() {})

	c.mu.Lock()
	c.services[name] = e
	c.mu.Unlock()
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	c.services[name] = &entry{factory: factory}
	c.mu.Unlock()
}

func (c *container) Has(name string) bool {
	c.mu.RLock()
	_, ok := c.services[name]
	c.mu.RUnlock()
	return ok
}

// Get resolves a service. It panics when the name was never registered,
// matching a wiring mistake that cannot be recovered at runtime.
func (c *container) Get(name string) any {
	c.mu.RLock()
	e, ok := c.services[name]
	c.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("di: service %q not registered", name))
	}

	// The lock is not held while building so factories can resolve
	// their own dependencies.
	e.once.Do(func() {
		e.value = e.factory(c)
	})
	return e.value
}
