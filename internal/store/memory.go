package store

import "sync"

// MemoryStore keeps the slot in memory
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
	lock sync.Mutex

	// SaveErr, when set, is returned by Save instead of storing
	SaveErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith returns a store already holding data
func NewMemoryStoreWith(data []byte) *MemoryStore {
	return &MemoryStore{data: clone(data)}
}

func (m *MemoryStore) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.data), nil
}

func (m *MemoryStore) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if data == nil {
		data = []byte{}
	}
	m.data = clone(data)
	return nil
}

func (m *MemoryStore) Lock() (func() error, error) {
	m.lock.Lock()
	return func() error {
		m.lock.Unlock()
		return nil
	}, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
