package realtime

import "sync"

// Presence maps a user id to the set of open connection ids for that user.
// A user key exists iff its set is non-empty. Presence answers exactly one
// question for the rest of the system: who is reachable right now.
type Presence struct {
	mu    sync.RWMutex
	users map[string]map[string]struct{}
}

func NewPresence() *Presence {
	return &Presence{users: make(map[string]map[string]struct{})}
}

// Register adds a connection to the user's set. Registering the same
// connection twice is a no-op.
func (p *Presence) Register(userID, connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns, ok := p.users[userID]
	if !ok {
		conns = make(map[string]struct{})
		p.users[userID] = conns
	}
	conns[connID] = struct{}{}
}

// Unregister removes a connection from the user's set, dropping the user
// entry entirely when the last connection goes. Unknown users or connections
// are a no-op.
func (p *Presence) Unregister(userID, connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns, ok := p.users[userID]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(p.users, userID)
	}
}

// Count reports how many connections a user currently has. Diagnostics only;
// nothing may base correctness decisions on it.
func (p *Presence) Count(userID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.users[userID])
}

// Online reports how many distinct users are reachable right now.
func (p *Presence) Online() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.users)
}
