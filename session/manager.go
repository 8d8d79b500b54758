package session

import (
	"context"
	"sync"
)

// Manager is the single owner of the current token. It is safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	token string
	store Store
}

// NewManager creates a [Manager] and loads any persisted token from store.
// A nil store defaults to a [MemoryStore].
func NewManager(ctx context.Context, store Store) (*Manager, error) {
	if store == nil {
		store = NewMemoryStore()
	}
	token, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Manager{token: token, store: store}, nil
}

// Token returns the current token, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// SignedIn reports whether a token is present.
func (m *Manager) SignedIn() bool {
	return m.Token() != ""
}

// Set replaces the token and persists it. The in-memory value is updated even
// when persistence fails so the running process stays signed in.
func (m *Manager) Set(ctx context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	if token == "" {
		return m.store.Delete(ctx)
	}
	return m.store.Save(ctx, token)
}

// Clear removes the token from memory and from the store.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()

	return m.store.Delete(ctx)
}
