package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rryowa/taskmarket/internal/models"
	"github.com/rryowa/taskmarket/internal/store"
)

// InMemoryStore держит токены и items в памяти под одним мьютексом.
// Используется тестами и бэкендом TOKEN_STORE=memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]string
	items  map[string]json.RawMessage
}

func New() *InMemoryStore {
	return &InMemoryStore{
		tokens: make(map[string]string),
		items:  make(map[string]json.RawMessage),
	}
}

func (m *InMemoryStore) SetToken(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[key] = value
	return nil
}

func (m *InMemoryStore) Token(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.tokens[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (m *InMemoryStore) DeleteToken(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, key)
	return nil
}

func (m *InMemoryStore) SetPair(_ context.Context, pair models.TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[store.KeyAccessToken] = pair.AccessToken
	m.tokens[store.KeyRefreshToken] = pair.RefreshToken
	return nil
}

func (m *InMemoryStore) Pair(ctx context.Context) (*models.TokenPair, error) {
	return store.PairFromTokens(ctx, m)
}

func (m *InMemoryStore) DeletePair(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, store.KeyAccessToken)
	delete(m.tokens, store.KeyRefreshToken)
	return nil
}

func (m *InMemoryStore) SetItem(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = raw
	return nil
}

func (m *InMemoryStore) Item(_ context.Context, key string, dst interface{}) error {
	m.mu.RLock()
	raw, ok := m.items[key]
	m.mu.RUnlock()

	if !ok {
		return store.ErrNotFound
	}
	return json.Unmarshal(raw, dst)
}

func (m *InMemoryStore) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}
