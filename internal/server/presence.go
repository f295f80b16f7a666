package server

import (
	"sync"
)

// PresenceRegistry maps user ids to their live client. A user has at most
// one bound client: binding again overwrites (latest session wins). The
// reverse map keyed by client handle makes Unbind safe against the
// disconnect race where a stale connection's cleanup runs after the same
// user has already rebound on a new connection.
type PresenceRegistry struct {
	mu       sync.RWMutex
	byUser   map[int]*Client
	byClient map[*Client]int
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		byUser:   make(map[int]*Client),
		byClient: make(map[*Client]int),
	}
}

func (p *PresenceRegistry) Bind(userId int, c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.byUser[userId]; ok && prev != c {
		delete(p.byClient, prev)
	}
	p.byUser[userId] = c
	p.byClient[c] = userId
}

// Unbind removes the entry for the given client only. A no-op when the
// client was never bound or its user has since rebound elsewhere.
func (p *PresenceRegistry) Unbind(c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	userId, ok := p.byClient[c]
	if !ok {
		return
	}

	delete(p.byClient, c)
	if p.byUser[userId] == c {
		delete(p.byUser, userId)
	}
}

func (p *PresenceRegistry) Lookup(userId int) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	c, ok := p.byUser[userId]
	return c, ok
}

func (p *PresenceRegistry) Online(userId int) bool {
	_, ok := p.Lookup(userId)
	return ok
}

// Clients returns a snapshot of every bound client, for broadcast.
func (p *PresenceRegistry) Clients() []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()

	clients := make([]*Client, 0, len(p.byClient))
	for c := range p.byClient {
		clients = append(clients, c)
	}
	return clients
}

func (p *PresenceRegistry) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byClient)
}
