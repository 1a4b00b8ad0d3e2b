package state

import "sync"

// User states constants
const (
	None                 = "none"
	WaitingForMedicine   = "waiting_for_medicine"
	WaitingForSchedule   = "waiting_for_schedule"
	WaitingForContact    = "waiting_for_contact"
	WaitingForMissReason = "waiting_for_miss_reason"
)

// Tracker is what the bot needs from a state backend.
type Tracker interface {
	SetUserState(userID int64, state string)
	GetUserState(userID int64) string
	ClearUserState(userID int64)
}

// Manager manages user conversation states in memory
type Manager struct {
	userStates map[int64]string
	mu         sync.RWMutex
}

// NewManager creates a new state manager
func NewManager() *Manager {
	return &Manager{
		userStates: make(map[int64]string),
	}
}

// SetUserState sets the state for a user
func (m *Manager) SetUserState(userID int64, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userStates[userID] = state
}

// GetUserState gets the state for a user
func (m *Manager) GetUserState(userID int64) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, exists := m.userStates[userID]
	if !exists {
		return None
	}
	return state
}

// ClearUserState clears the state for a user
func (m *Manager) ClearUserState(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.userStates, userID)
}
