package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"docuchat/backend/internal/apperr"
)

// Manager owns every active session Store, keyed by an opaque id handed to
// the client. Sessions are isolated from each other; the manager itself is
// the only shared structure, guarded by a single mutex.
//
// A browser session ends when the tab closes, which an HTTP backend cannot
// observe, so sessions are also expired after a configurable idle TTL.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Store
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Store),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
}

// Create initializes a new empty session and returns its id.
func (m *Manager) Create() string {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = newStore()
	return id
}

// Get returns the Store for a session id, or apperr.ErrNotFound if the
// session never existed or has been torn down.
func (m *Manager) Get(id string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	store, ok := m.sessions[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return store, nil
}

// Delete tears a session down. Deleting an unknown id returns
// apperr.ErrNotFound so the API layer can answer 404.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// StartSweeper launches the background goroutine that expires idle
// sessions. It returns immediately; call Stop to shut the sweeper down.
func (m *Manager) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep(time.Now())
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweeper goroutine. Idempotent.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, store := range m.sessions {
		if store.idleSince(now, m.ttl) {
			delete(m.sessions, id)
			slog.Debug("Expired idle session", "session_id", id)
		}
	}
}

// Count reports the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
