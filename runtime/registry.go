package runtime

import (
	"fmt"
	"sync"
	"tcp-chat/contract"
	"tcp-chat/domain"
	"tcp-chat/errors"

	"github.com/samber/lo"
)

// Registry tracks which sessions are currently live.
// It only holds references: each session handler owns its own lifecycle
// and is the one inserting and removing itself.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]contract.Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.SessionID]contract.Session),
	}
}

// Insert registers a session under its ID.
// A second insert of the same ID is rejected, the registry never holds duplicates.
func (r *Registry) Insert(session contract.Session) error {
	if session == nil {
		return errors.ErrNilSession
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := session.ID()
	if _, ok := r.sessions[id]; ok {
		return fmt.Errorf("%w: %s", errors.ErrAlreadyRegistered, id)
	}
	r.sessions[id] = session
	return nil
}

// Remove deregisters a session and reports whether it was present.
func (r *Registry) Remove(id domain.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Snapshot copies the current members.
// The returned slice is detached from the registry and can be iterated
// while other sessions keep joining and leaving.
func (r *Registry) Snapshot() []contract.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.sessions)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
