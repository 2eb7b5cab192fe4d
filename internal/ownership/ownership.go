package ownership

import (
	"errors"
	"fmt"
	"sync"

	"SplitLedger/internal/royalty"
	"SplitLedger/internal/storage"
)

// prefixOwner is the storage key prefix for artifact token owners.
var prefixOwner = []byte("o:")

var (
	// ErrAlreadyClaimed means the artifact token already has an owner.
	ErrAlreadyClaimed = errors.New("artifact token already claimed")

	// ErrUnknownArtifact means no owner is recorded for the artifact.
	ErrUnknownArtifact = errors.New("artifact token not found")

	// ErrNotOwner means the caller does not hold the artifact token.
	ErrNotOwner = errors.New("caller does not own the artifact token")
)

// Registry tracks who holds each artifact token. It implements the
// settlement core's OwnerSource.
type Registry struct {
	db *storage.Storage
	mu sync.Mutex
}

// New creates an ownership registry backed by the given storage.
func New(db *storage.Storage) *Registry {
	return &Registry{db: db}
}

// Claim records the initial owner of an artifact token. Called once at
// artifact registration; claiming an already-owned token fails.
func (r *Registry) Claim(id royalty.ArtifactID, owner royalty.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := makeOwnerKey(id)

	existing, err := r.db.Get(key)
	if err != nil {
		return fmt.Errorf("read owner:\n%w", err)
	}
	if existing != nil {
		return ErrAlreadyClaimed
	}

	if err := r.db.Set(key, owner[:]); err != nil {
		return fmt.Errorf("store owner:\n%w", err)
	}

	return nil
}

// Owner returns the current holder of the artifact token.
func (r *Registry) Owner(id royalty.ArtifactID) (royalty.Address, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.db.Get(makeOwnerKey(id))
	if err != nil || len(data) != 32 {
		return royalty.Address{}, false
	}

	var owner royalty.Address
	copy(owner[:], data)

	return owner, true
}

// Transfer moves the artifact token from its current holder to a new one.
// Only the current holder may transfer.
func (r *Registry) Transfer(id royalty.ArtifactID, from, to royalty.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := makeOwnerKey(id)

	data, err := r.db.Get(key)
	if err != nil {
		return fmt.Errorf("read owner:\n%w", err)
	}
	if len(data) != 32 {
		return ErrUnknownArtifact
	}

	var current royalty.Address
	copy(current[:], data)

	if current != from {
		return ErrNotOwner
	}

	if err := r.db.Set(key, to[:]); err != nil {
		return fmt.Errorf("store owner:\n%w", err)
	}

	return nil
}

// makeOwnerKey creates the storage key for an artifact token owner.
func makeOwnerKey(id royalty.ArtifactID) []byte {
	key := make([]byte, len(prefixOwner)+32)
	copy(key, prefixOwner)
	copy(key[len(prefixOwner):], id[:])

	return key
}
