package session

import (
	"context"
	"sync"
	"time"
)

// TokenStore persists the identity token of a session so it survives a restart. The
// query cache is never persisted. Load returns "" for an unknown session.
type TokenStore interface {
	Save(ctx context.Context, sessionID, token string, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

type memoryToken struct {
	token     string
	expiresAt time.Time
}

type MemoryTokenStore struct {
	mu     sync.Mutex
	now    func() time.Time
	tokens map[string]memoryToken
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		now:    time.Now,
		tokens: make(map[string]memoryToken),
	}
}

func (m *MemoryTokenStore) Save(_ context.Context, sessionID, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[sessionID] = memoryToken{token: token, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryTokenStore) Load(_ context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[sessionID]
	if !ok {
		return "", nil
	}
	if m.now().After(t.expiresAt) {
		delete(m.tokens, sessionID)
		return "", nil
	}
	return t.token, nil
}

func (m *MemoryTokenStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, sessionID)
	return nil
}
