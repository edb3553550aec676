// Package conversation provides the in-memory store for in-progress review
// dialogues, keyed by the sender's contact number.
//
// State is process-local and lost on restart; abandoned conversations are
// retained indefinitely (LastUpdated exists for a future expiry sweep).
package conversation

import (
	"log/slog"
	"sync"
	"time"

	"github.com/reviewpipe/ReviewPipe/internal/models"
)

// Manager is a concurrency-safe map of contact number to ConversationState.
//
// Get/Update/Reset are individually safe, but a webhook turn is a
// read-transition-write sequence: callers must hold the per-user lock from
// Lock for the whole turn so that provider retries for the same sender
// cannot interleave. Different senders never contend.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]models.ConversationState
	locks    map[string]*sync.Mutex
}

// NewManager creates an empty conversation Manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]models.ConversationState),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Lock acquires the mutex for userID, creating it on first use, and returns
// the matching unlock function. Lock entries live for the process lifetime,
// mirroring the session map's no-eviction policy.
func (m *Manager) Lock(userID string) (unlock func()) {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Get returns the state for userID, or a fresh start-stage state stamped
// with the current time if none exists. Reading never mutates the store.
func (m *Manager) Get(userID string) models.ConversationState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[userID]
	if !ok {
		return models.ConversationState{Stage: models.StageStart, LastUpdated: time.Now()}
	}
	return state
}

// Update stores state for userID, stamping LastUpdated.
func (m *Manager) Update(userID string, state models.ConversationState) {
	state.LastUpdated = time.Now()

	m.mu.Lock()
	m.sessions[userID] = state
	m.mu.Unlock()

	slog.Debug("Manager.Update: conversation state stored", "user", userID, "stage", state.Stage)
}

// Reset removes the entry for userID. No-op if absent.
func (m *Manager) Reset(userID string) {
	m.mu.Lock()
	_, existed := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	slog.Debug("Manager.Reset: conversation state cleared", "user", userID, "existed", existed)
}

// Len reports the number of in-flight conversations. Used by tests and
// startup logging.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
