package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps sessions in an in-process expirable LRU. State is process
// lifetime: a restart invalidates every session, and clients simply log in
// again.
type MemoryStore struct {
	cache *expirable.LRU[string, string]
}

// NewMemoryStore creates an in-memory session store. maxSessions bounds
// resident sessions (the least recently used one is evicted past the bound,
// which logs that client out early); ttl bounds session lifetime.
func NewMemoryStore(maxSessions int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: expirable.NewLRU[string, string](maxSessions, nil, ttl),
	}
}

// Put binds a hashed token to an identity id.
func (m *MemoryStore) Put(_ context.Context, tokenHash, identityID string) error {
	m.cache.Add(tokenHash, identityID)
	return nil
}

// Get returns the identity id bound to a hashed token.
func (m *MemoryStore) Get(_ context.Context, tokenHash string) (string, bool, error) {
	identityID, ok := m.cache.Get(tokenHash)
	return identityID, ok, nil
}

// Touch re-arms the TTL by re-inserting the entry.
func (m *MemoryStore) Touch(_ context.Context, tokenHash string) error {
	if identityID, ok := m.cache.Get(tokenHash); ok {
		m.cache.Add(tokenHash, identityID)
	}
	return nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(_ context.Context, tokenHash string) error {
	m.cache.Remove(tokenHash)
	return nil
}

// Len returns the number of live sessions. Used by the metrics refresher.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}
