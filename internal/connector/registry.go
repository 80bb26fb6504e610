package connector

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a fresh, unconnected Connector.
type Factory func() Connector

// Registry manages driver factories and the live connection held by each
// conversation.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	active    map[string]Connector // keyed by conversation ID
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		active:    make(map[string]Connector),
	}
}

// RegisterDriver registers a connector factory for a driver name.
func (r *Registry) RegisterDriver(driver string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[driver] = factory
}

// Drivers returns the registered driver names, sorted.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	drivers := make([]string, 0, len(r.factories))
	for d := range r.factories {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)
	return drivers
}

// Connect attaches a conversation to a database. A conversation holds at
// most one connection; connecting again replaces and closes the old one.
func (r *Registry) Connect(conversationID string, cfg ConnectionConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, ok := r.factories[cfg.Driver]
	if !ok {
		return fmt.Errorf("unsupported driver %q (available: %v)", cfg.Driver, r.driverList())
	}

	conn := factory()
	if err := conn.Connect(cfg); err != nil {
		return fmt.Errorf("connect %s database: %w", cfg.Driver, err)
	}

	if existing, ok := r.active[conversationID]; ok {
		existing.Disconnect()
	}
	r.active[conversationID] = conn
	return nil
}

// Get returns the live connection for a conversation.
func (r *Registry) Get(conversationID string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.active[conversationID]
	if !ok {
		return nil, fmt.Errorf("no database connected for this conversation")
	}
	return conn, nil
}

// Disconnect closes and removes a conversation's connection.
func (r *Registry) Disconnect(conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.active[conversationID]
	if !ok {
		return fmt.Errorf("no database connected for this conversation")
	}

	err := conn.Disconnect()
	delete(r.active, conversationID)
	return err
}

// CloseAll disconnects every live connection. Used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, conn := range r.active {
		conn.Disconnect()
		delete(r.active, id)
	}
}

func (r *Registry) driverList() []string {
	drivers := make([]string, 0, len(r.factories))
	for d := range r.factories {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)
	return drivers
}
