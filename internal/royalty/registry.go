package royalty

import (
	"fmt"
	"sync"

	"SplitLedger/internal/codec"
	"SplitLedger/internal/storage"
)

// prefixArtifact is the storage key prefix for contribution records.
var prefixArtifact = []byte("a:")

// Registry owns the ArtifactID -> ContributionRecord mapping.
// Records are created at most once per identifier and are immutable.
type Registry struct {
	db  *storage.Storage
	ctx ContextSource

	mu    sync.RWMutex
	count int // number of registered artifacts, rebuilt from storage on startup
}

// NewRegistry creates a registry backed by the given storage.
func NewRegistry(db *storage.Storage, ctx ContextSource) *Registry {
	r := &Registry{db: db, ctx: ctx}
	r.loadCount()

	return r
}

// Create validates the contributor list, derives the content identifier and
// persists a new immutable record. Fails with ErrDuplicateArtifact if a
// record already exists for the derived identifier; no state is written on
// any failure.
func (r *Registry) Create(contributors []Contributor) (ArtifactID, error) {
	if err := validateContributors(contributors); err != nil {
		return ArtifactID{}, err
	}

	context := r.ctx.Context()

	id, err := DeriveArtifactID(contributors, context)
	if err != nil {
		return ArtifactID{}, fmt.Errorf("derive artifact id:\n%w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := makeArtifactKey(id)

	existing, err := r.db.Get(key)
	if err != nil {
		return ArtifactID{}, fmt.Errorf("read artifact record:\n%w", err)
	}
	if existing != nil {
		return ArtifactID{}, ErrDuplicateArtifact
	}

	record := ContributionRecord{
		ArtifactID:   id,
		Contributors: cloneContributors(contributors),
		RegisteredAt: context,
	}

	data, err := codec.Marshal(record)
	if err != nil {
		return ArtifactID{}, fmt.Errorf("encode artifact record:\n%w", err)
	}

	if err := r.db.Set(key, data); err != nil {
		return ArtifactID{}, fmt.Errorf("store artifact record:\n%w", err)
	}

	r.count++

	return id, nil
}

// Get retrieves a contribution record by identifier. Pure read.
func (r *Registry) Get(id ArtifactID) (ContributionRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := r.db.Get(makeArtifactKey(id))
	if err != nil || data == nil {
		return ContributionRecord{}, false
	}

	var record ContributionRecord
	if err := codec.Unmarshal(data, &record); err != nil {
		return ContributionRecord{}, false
	}

	return record, true
}

// Count returns the number of registered artifacts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.count
}

// loadCount rebuilds the artifact count from storage.
func (r *Registry) loadCount() {
	count := 0

	_ = r.db.IteratePrefix(prefixArtifact, func(key, value []byte) error {
		count++
		return nil
	})

	r.count = count
}

// validateContributors enforces the boundary constraints on a contributor list:
// 1..MaxContributors entries, each share in [0,ShareTotal], notes bounded,
// shares summing to exactly ShareTotal.
func validateContributors(contributors []Contributor) error {
	if len(contributors) == 0 || len(contributors) > MaxContributors {
		return ErrInvalidContributorCount
	}

	var sum uint64
	for _, c := range contributors {
		if c.Share > ShareTotal {
			return ErrInvalidShare
		}

		if len(c.Note) > MaxNoteLen {
			return ErrNoteTooLong
		}

		sum += c.Share
	}

	if sum != ShareTotal {
		return ErrInvalidShareSum
	}

	return nil
}

// cloneContributors copies the list so the stored record cannot alias
// caller-owned memory.
func cloneContributors(contributors []Contributor) []Contributor {
	out := make([]Contributor, len(contributors))
	copy(out, contributors)

	return out
}

// makeArtifactKey creates the storage key for a contribution record.
func makeArtifactKey(id ArtifactID) []byte {
	key := make([]byte, len(prefixArtifact)+32)
	copy(key, prefixArtifact)
	copy(key[len(prefixArtifact):], id[:])

	return key
}
