package governance

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"SplitLedger/internal/codec"
	"SplitLedger/internal/royalty"
	"SplitLedger/internal/storage"
)

// Storage keys.
var (
	prefixProposal = []byte("p:")            // p:<8-byte BE id> -> proposal bytes
	keyProposalSeq = []byte("m:proposalSeq") // next proposal id
)

const (
	// maxTitleLen bounds proposal titles.
	maxTitleLen = 128

	// maxDescriptionLen bounds proposal descriptions.
	maxDescriptionLen = 2048
)

var (
	// ErrProposalNotFound means no proposal exists for the given id.
	ErrProposalNotFound = errors.New("proposal not found")

	// ErrNotProposalOwner means the caller does not own the target artifact.
	ErrNotProposalOwner = errors.New("caller does not own the proposal's artifact")

	// ErrVotingClosed means the voting window has ended or never opened.
	ErrVotingClosed = errors.New("voting window is closed")

	// ErrVotingOpen means the voting window has not ended yet.
	ErrVotingOpen = errors.New("voting window is still open")

	// ErrAlreadyVoted means the address has already voted on the proposal.
	ErrAlreadyVoted = errors.New("address already voted")

	// ErrProposalClosed means the proposal has already been closed.
	ErrProposalClosed = errors.New("proposal already closed")

	// ErrInvalidProposal means a field fails boundary validation.
	ErrInvalidProposal = errors.New("invalid proposal")
)

// Proposal is one governance proposal attached to an artifact.
type Proposal struct {
	ID           uint64             `cbor:"id"`
	Artifact     royalty.ArtifactID `cbor:"artifact"`
	Title        string             `cbor:"title"`
	Description  string             `cbor:"description"`
	Creator      royalty.Address    `cbor:"creator"`
	ClosesAt     uint64             `cbor:"closes_at"` // height at which voting ends
	VotesFor     uint64             `cbor:"votes_for"`
	VotesAgainst uint64             `cbor:"votes_against"`
	Voters       []royalty.Address  `cbor:"voters"`
	Closed       bool               `cbor:"closed"`
	Passed       bool               `cbor:"passed"`
}

// Store holds proposals and their vote tallies. Creation and close are gated
// on the artifact token owner; voting is open to any address, once each,
// while the height window is open.
type Store struct {
	db     *storage.Storage
	owners royalty.OwnerSource
	ctx    royalty.ContextSource

	mu  sync.Mutex
	seq uint64 // next proposal id, persisted under keyProposalSeq
}

// New creates a proposal store backed by the given storage.
func New(db *storage.Storage, owners royalty.OwnerSource, ctx royalty.ContextSource) *Store {
	s := &Store{db: db, owners: owners, ctx: ctx}
	s.loadSeq()

	return s
}

// Create opens a new proposal for an artifact. The caller must own the
// artifact token; voting stays open for window heights from now.
func (s *Store) Create(artifact royalty.ArtifactID, title, description string, creator royalty.Address, window uint64) (uint64, error) {
	if title == "" || len(title) > maxTitleLen {
		return 0, fmt.Errorf("%w: bad title length %d", ErrInvalidProposal, len(title))
	}

	if len(description) > maxDescriptionLen {
		return 0, fmt.Errorf("%w: description too long", ErrInvalidProposal)
	}

	if window == 0 {
		return 0, fmt.Errorf("%w: zero voting window", ErrInvalidProposal)
	}

	owner, ok := s.owners.Owner(artifact)
	if !ok || owner != creator {
		return 0, ErrNotProposalOwner
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.seq

	proposal := Proposal{
		ID:          id,
		Artifact:    artifact,
		Title:       title,
		Description: description,
		Creator:     creator,
		ClosesAt:    s.ctx.Context() + window,
	}

	if err := s.putLocked(proposal); err != nil {
		return 0, err
	}

	s.seq++
	s.saveSeq()

	return id, nil
}

// Vote records one vote. Each address votes at most once, and only while
// the window is open.
func (s *Store) Vote(id uint64, voter royalty.Address, approve bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.getLocked(id)
	if err != nil {
		return err
	}

	if proposal.Closed {
		return ErrProposalClosed
	}

	if s.ctx.Context() >= proposal.ClosesAt {
		return ErrVotingClosed
	}

	for _, v := range proposal.Voters {
		if v == voter {
			return ErrAlreadyVoted
		}
	}

	if approve {
		proposal.VotesFor++
	} else {
		proposal.VotesAgainst++
	}

	proposal.Voters = append(proposal.Voters, voter)

	return s.putLocked(proposal)
}

// Close finalizes a proposal after its window has ended. Only the artifact
// token owner may close; the proposal passes if approvals strictly exceed
// rejections.
func (s *Store) Close(id uint64, caller royalty.Address) (Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.getLocked(id)
	if err != nil {
		return Proposal{}, err
	}

	if proposal.Closed {
		return Proposal{}, ErrProposalClosed
	}

	owner, ok := s.owners.Owner(proposal.Artifact)
	if !ok || owner != caller {
		return Proposal{}, ErrNotProposalOwner
	}

	if s.ctx.Context() < proposal.ClosesAt {
		return Proposal{}, ErrVotingOpen
	}

	proposal.Closed = true
	proposal.Passed = proposal.VotesFor > proposal.VotesAgainst

	if err := s.putLocked(proposal); err != nil {
		return Proposal{}, err
	}

	return proposal, nil
}

// Get retrieves a proposal by id.
func (s *Store) Get(id uint64) (Proposal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, err := s.getLocked(id)
	if err != nil {
		return Proposal{}, false
	}

	return proposal, true
}

// getLocked reads and decodes a proposal (caller must hold the mutex).
func (s *Store) getLocked(id uint64) (Proposal, error) {
	data, err := s.db.Get(makeProposalKey(id))
	if err != nil {
		return Proposal{}, fmt.Errorf("read proposal:\n%w", err)
	}
	if data == nil {
		return Proposal{}, ErrProposalNotFound
	}

	var proposal Proposal
	if err := codec.Unmarshal(data, &proposal); err != nil {
		return Proposal{}, fmt.Errorf("decode proposal:\n%w", err)
	}

	return proposal, nil
}

// putLocked encodes and stores a proposal (caller must hold the mutex).
func (s *Store) putLocked(proposal Proposal) error {
	data, err := codec.Marshal(proposal)
	if err != nil {
		return fmt.Errorf("encode proposal:\n%w", err)
	}

	if err := s.db.Set(makeProposalKey(proposal.ID), data); err != nil {
		return fmt.Errorf("store proposal:\n%w", err)
	}

	return nil
}

// loadSeq restores the next proposal id from storage.
func (s *Store) loadSeq() {
	data, err := s.db.Get(keyProposalSeq)
	if err != nil || len(data) < 8 {
		return
	}

	s.seq = binary.BigEndian.Uint64(data)
}

// saveSeq persists the next proposal id.
func (s *Store) saveSeq() {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, s.seq)
	_ = s.db.Set(keyProposalSeq, data)
}

// makeProposalKey creates the storage key for a proposal.
func makeProposalKey(id uint64) []byte {
	key := make([]byte, len(prefixProposal)+8)
	copy(key, prefixProposal)
	binary.BigEndian.PutUint64(key[len(prefixProposal):], id)

	return key
}
