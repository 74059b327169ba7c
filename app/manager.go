package app

import (
	"fmt"
	"sync"

	"contactimport/app/cache"
	"contactimport/app/interfaces"
	"contactimport/app/settings"
)

// Manager tracks active import sessions. Sessions are fully isolated from
// each other — the only shared piece is the read-only parse/analysis cache,
// which is safe for concurrent use. Two users importing at the same time get
// independent sessions that can be cancelled independently.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	store    interfaces.ContactStore
	settings settings.Settings
	cache    *cache.Cache
}

// NewManager creates a session manager. The cache is shared across sessions
// so re-submitting an identical file reuses parsed stages.
func NewManager(store interfaces.ContactStore, cfg settings.Settings) *Manager {
	var c *cache.Cache
	if cfg.EnableCache {
		c = cache.New(int64(cfg.CacheSizeLimitMB) * 1024 * 1024)
	}
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
		settings: cfg,
		cache:    c,
	}
}

// NewSession creates and registers a fresh session in the upload state.
func (m *Manager) NewSession(progress interfaces.ProgressCallback) *Session {
	session := NewSession(m.store, m.settings, m.cache, progress)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return session
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no session with id %q", id)
	}
	return session, nil
}

// Remove cancels and forgets a session. Completed sessions are removed
// without cancellation side effects since no work is in flight.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		session.Cancel()
	}
}

// ActiveCount returns the number of registered sessions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
