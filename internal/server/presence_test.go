package server

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campuslink/campus-chat/internal/types"
)

func TestPresenceRegistry_BindLookupUnbind(t *testing.T) {
	p := NewPresenceRegistry()

	c := &Client{user: types.User{Id: 1, Name: "alice"}}
	p.Bind(1, c)

	got, ok := p.Lookup(1)
	assert.True(t, ok, "expected user 1 to be bound")
	assert.Same(t, c, got)
	assert.True(t, p.Online(1))
	assert.Equal(t, 1, p.Len())

	p.Unbind(c)
	_, ok = p.Lookup(1)
	assert.False(t, ok, "expected user 1 to be unbound")
	assert.False(t, p.Online(1))
	assert.Equal(t, 0, p.Len())
}

func TestPresenceRegistry_LatestSessionWins(t *testing.T) {
	p := NewPresenceRegistry()

	c1 := &Client{user: types.User{Id: 1}}
	c2 := &Client{user: types.User{Id: 1}}

	p.Bind(1, c1)
	p.Bind(1, c2)

	got, ok := p.Lookup(1)
	assert.True(t, ok)
	assert.Same(t, c2, got, "expected newest session to win")

	// the displaced session is no longer tracked at all
	assert.Equal(t, 1, p.Len())
}

func TestPresenceRegistry_StaleUnbindIsNoOp(t *testing.T) {
	p := NewPresenceRegistry()

	c1 := &Client{user: types.User{Id: 1}}
	c2 := &Client{user: types.User{Id: 1}}

	// user reconnects before the old connection's cleanup runs
	p.Bind(1, c1)
	p.Bind(1, c2)
	p.Unbind(c1)

	got, ok := p.Lookup(1)
	assert.True(t, ok, "stale unbind must not evict the newer binding")
	assert.Same(t, c2, got)
}

func TestPresenceRegistry_UnbindUnknownClient(t *testing.T) {
	p := NewPresenceRegistry()

	assert.NotPanics(t, func() {
		p.Unbind(&Client{user: types.User{Id: 9}})
	})
}

func TestPresenceRegistry_Clients(t *testing.T) {
	p := NewPresenceRegistry()

	c1 := &Client{user: types.User{Id: 1}}
	c2 := &Client{user: types.User{Id: 2}}
	p.Bind(1, c1)
	p.Bind(2, c2)

	clients := p.Clients()
	assert.Len(t, clients, 2)
	assert.Contains(t, clients, c1)
	assert.Contains(t, clients, c2)
}

func TestPresenceRegistry_ConcurrentRebind(t *testing.T) {
	p := NewPresenceRegistry()

	// hammer bind/unbind for the same user from racing goroutines; the
	// registry must never end up tracking a client its user map dropped
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		c := &Client{user: types.User{Id: 1}}
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.Bind(1, c)
		}()
		go func() {
			defer wg.Done()
			p.Unbind(c)
		}()
	}
	wg.Wait()

	p.mu.RLock()
	defer p.mu.RUnlock()
	assert.LessOrEqual(t, len(p.byUser), 1)
	assert.Equal(t, len(p.byUser), len(p.byClient), "forward and reverse maps must agree")
}
