// Package session owns the process-wide authentication state of the client
// and tells observers about every change to it.
package session

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/gophtasks/internal/client/client"
	"github.com/dmitrijs2005/gophtasks/internal/client/models"
	"github.com/dmitrijs2005/gophtasks/internal/logging"
)

type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "uninitialized"
}

// Snapshot is what observers see after a transition.
type Snapshot struct {
	Session *models.Session
	Loading bool
	State   State
}

type Observer func(Snapshot)

// Manager holds the current session. It restores the persisted session on
// Start and then follows the auth provider's transitions.
type Manager struct {
	auth   client.Auth
	logger logging.Logger

	mu          sync.Mutex
	state       State
	session     *models.Session
	started     bool
	eventSeen   bool
	unsubscribe func()
	observers   map[int]Observer
	nextID      int

	closeOnce sync.Once
}

func NewManager(auth client.Auth, l logging.Logger) *Manager {
	return &Manager{
		auth:      auth,
		logger:    l.With("module", "session"),
		observers: map[int]Observer{},
	}
}

// Start registers the auth listener and restores the persisted session.
// A failed restore is logged and leaves the manager unauthenticated. Only
// the first call has any effect.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.state = StateLoading
	m.mu.Unlock()

	unsubscribe := m.auth.OnAuthStateChange(m.onAuthStateChange)

	m.mu.Lock()
	m.unsubscribe = unsubscribe
	m.mu.Unlock()

	m.notify()

	restored, err := m.auth.GetSession(ctx)
	if err != nil {
		m.logger.Warn(ctx, "session restore failed", "error", err)
		restored = nil
	}

	m.mu.Lock()
	if m.eventSeen {
		m.mu.Unlock()
		m.logger.Debug(ctx, "discarding restored session, auth event arrived first")
		return
	}
	m.session = restored.Clone()
	m.state = stateOf(restored)
	m.mu.Unlock()

	m.notify()
}

func stateOf(s *models.Session) State {
	if s == nil {
		return StateUnauthenticated
	}
	return StateAuthenticated
}

func (m *Manager) onAuthStateChange(event models.AuthEvent, s *models.Session) {
	m.mu.Lock()
	if event == models.AuthTokenRefreshed && (m.session == nil || s == nil || m.session.UserID != s.UserID) {
		m.mu.Unlock()
		m.logger.Debug(context.Background(), "ignoring token refresh for a session that is gone")
		return
	}
	m.session = s.Clone()
	m.state = stateOf(s)
	m.eventSeen = true
	m.mu.Unlock()

	m.logger.Debug(context.Background(), "auth state changed", "event", string(event))
	m.notify()
}

// Close releases the auth listener. It is safe to call more than once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		unsubscribe := m.unsubscribe
		m.unsubscribe = nil
		m.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}
	})
}

func (m *Manager) Current() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Clone()
}

// Loading is true until the first restore or auth event settles the state.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateUninitialized || m.state == StateLoading
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		Session: m.session.Clone(),
		Loading: m.state == StateUninitialized || m.state == StateLoading,
		State:   m.state,
	}
}

// Subscribe adds an observer called on every transition, in subscription
// order. The returned func removes it.
func (m *Manager) Subscribe(o Observer) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.observers[id] = o
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

func (m *Manager) notify() {
	m.mu.Lock()
	snap := m.snapshotLocked()
	ids := make([]int, 0, len(m.observers))
	for id := range m.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	observers := make([]Observer, 0, len(ids))
	for _, id := range ids {
		observers = append(observers, m.observers[id])
	}
	m.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
}
