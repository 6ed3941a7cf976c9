package auth

import "sync"

// Identity is the process-wide signed-in state. It is constructed once and
// handed to every gateway and collection so that each operation re-reads
// the current user id at call time; nothing may cache the value, otherwise
// a component could keep acting for a user who has logged out.
type Identity struct {
	mu     sync.RWMutex
	userID string
}

func NewIdentity() *Identity {
	return &Identity{}
}

// UserID returns the currently signed-in user id, or "" when signed out.
func (i *Identity) UserID() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.userID
}

func (i *Identity) Set(userID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.userID = userID
}

func (i *Identity) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.userID = ""
}
