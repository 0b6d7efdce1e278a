package settings

import "errors"

// ErrStoreClosed is returned by a Store used after Close.
var ErrStoreClosed = errors.New("settings store closed")

// Store is the durable key/value backend behind a State.
type Store interface {
	// Get returns the stored value for key, or def if nothing is stored.
	//
	// Parameters:
	//   - key: the storage key
	//   - def: the value returned when key is absent
	//
	// Returns:
	//   - float64: the stored value or def
	Get(key string, def float64) float64

	// Put stages a value. It is not durable until Commit returns nil.
	//
	// Parameters:
	//   - key: the storage key
	//   - value: the value to stage
	Put(key string, value float64)

	// Commit synchronously persists every staged value.
	//
	// Returns:
	//   - error: an error if the write failed; staged values are kept for the next Commit
	Commit() error

	// Close releases the backend.
	//
	// Returns:
	//   - error: an error if the backend failed to close
	Close() error
}

// memoryStore is a Store that never touches disk.
type memoryStore struct {
	values map[string]float64
	closed bool
}

var _ Store = &memoryStore{}

// NewMemoryStore creates a Store that keeps everything in process memory.
//
// Returns:
//   - Store: the in-memory store
func NewMemoryStore() Store {
	return &memoryStore{values: map[string]float64{}}
}

func (m *memoryStore) Get(key string, def float64) float64 {
	if v, ok := m.values[key]; ok {
		return v
	}
	return def
}

func (m *memoryStore) Put(key string, value float64) {
	m.values[key] = value
}

func (m *memoryStore) Commit() error {
	if m.closed {
		return ErrStoreClosed
	}
	return nil
}

func (m *memoryStore) Close() error {
	m.closed = true
	return nil
}
