// Package session holds per-conversation state: history, the active
// response directive, and the cached schema description for the connected
// database.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tabletalk/tabletalk/internal/model"
	"github.com/tabletalk/tabletalk/internal/schema"
)

// ErrNotFound is returned when a conversation ID does not resolve.
var ErrNotFound = errors.New("conversation not found")

// Conversation is the unit of chat state. All access goes through methods;
// the mutex makes a conversation safe for concurrent handlers.
type Conversation struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	turns     []model.Turn
	directive string
	schema    *schema.Description
	driver    string
	database  string
}

// AppendTurn records one turn at the end of the history. History is
// append-only; truncation happens at read time in the context builder.
func (c *Conversation) AppendTurn(role model.Role, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, model.Turn{Role: role, Text: text})
}

// History returns a copy of the full turn list.
func (c *Conversation) History() []model.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// ClearHistory drops all recorded turns but keeps the connection, schema
// cache, and directive.
func (c *Conversation) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
}

// SetDirective stores the standing response-style instruction. An empty
// string clears it.
func (c *Conversation) SetDirective(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.directive = text
}

// Directive returns the current standing instruction, or "".
func (c *Conversation) Directive() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.directive
}

// SetSchema caches the description built after connecting. Reconnecting
// replaces it.
func (c *Conversation) SetSchema(desc *schema.Description) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schema = desc
}

// Schema returns the cached description, or nil before the first
// introspection.
func (c *Conversation) Schema() *schema.Description {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schema
}

// SetConnection records which database this conversation is attached to.
func (c *Conversation) SetConnection(driver, database string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.driver = driver
	c.database = database
	c.schema = nil
}

// Connection reports the attached driver and database names. Both are empty
// before the first connect.
func (c *Conversation) Connection() (driver, database string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.driver, c.database
}

// Manager owns the live conversations, keyed by ID.
type Manager struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
}

// NewManager returns an empty conversation manager.
func NewManager() *Manager {
	return &Manager{conversations: map[string]*Conversation{}}
}

// Create registers and returns a fresh conversation.
func (m *Manager) Create() *Conversation {
	conv := &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.conversations[conv.ID] = conv
	m.mu.Unlock()
	return conv
}

// Get resolves a conversation by ID.
func (m *Manager) Get(id string) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conv, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return conv, nil
}

// Delete removes a conversation. Deleting an unknown ID is a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.conversations, id)
	m.mu.Unlock()
}

// Len reports how many conversations are live.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conversations)
}
