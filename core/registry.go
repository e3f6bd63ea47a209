package callruntime

import "sync"

// sessionRegistry indexes live sessions by call id. Call ids come from the
// telephony provider and are unique per live call, so a duplicate register is
// a caller bug.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*CallSession
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: map[string]*CallSession{}}
}

func (r *sessionRegistry) register(session *CallSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.CallID()]; ok {
		return ErrDuplicateCall
	}
	r.sessions[session.CallID()] = session
	return nil
}

func (r *sessionRegistry) lookup(callID string) (*CallSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[callID]
	return session, ok
}

// remove is idempotent.
func (r *sessionRegistry) remove(callID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, callID)
}

func (r *sessionRegistry) all() []*CallSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*CallSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

func (r *sessionRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
