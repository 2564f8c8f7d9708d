package storage

import "sync"

// Keys for the identity fields persisted across app restarts.
const (
	KeyUserID = "userId"
	KeyToken  = "token"
	KeyOpenID = "openId"
)

// SnapshotKey returns the key under which a store persists its state
// snapshot.
func SnapshotKey(storeID string) string {
	return "store-" + storeID
}

// Storage is a small persisted key-value space, the local-storage analog the
// stores and the HTTP client read identity fields from.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// Memory is a map-backed Storage, used in tests and as a fallback when no
// data directory is available.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
