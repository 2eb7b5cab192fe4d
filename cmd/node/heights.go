package main

import (
	"encoding/binary"
	"sync"

	"SplitLedger/internal/storage"
)

// keyHeight is the storage key for the node's current height.
var keyHeight = []byte("m:height")

// heightCounter is the node's monotonic height: one tick per successful
// mutating operation, persisted across restarts. It implements the
// settlement core's ContextSource.
type heightCounter struct {
	db *storage.Storage

	mu     sync.Mutex
	height uint64
}

// newHeightCounter loads the persisted height from storage.
func newHeightCounter(db *storage.Storage) *heightCounter {
	h := &heightCounter{db: db}

	if data, err := db.Get(keyHeight); err == nil && len(data) >= 8 {
		h.height = binary.BigEndian.Uint64(data)
	}

	return h
}

// Context returns the current height.
func (h *heightCounter) Context() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.height
}

// advance increments the height and persists it.
func (h *heightCounter) advance() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.height++

	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, h.height)
	_ = h.db.Set(keyHeight, data)
}

// set overwrites the height (snapshot restore).
func (h *heightCounter) set(height uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.height = height

	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, height)
	_ = h.db.Set(keyHeight, data)
}
