package governance

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"SplitLedger/internal/royalty"
	"SplitLedger/internal/storage"
)

type stubContext struct {
	value uint64
}

func (s *stubContext) Context() uint64 {
	return s.value
}

type stubOwners map[royalty.ArtifactID]royalty.Address

func (o stubOwners) Owner(id royalty.ArtifactID) (royalty.Address, bool) {
	owner, ok := o[id]
	return owner, ok
}

func addr(b byte) royalty.Address {
	var a royalty.Address
	a[0] = b

	return a
}

// newTestStore wires a proposal store where addr(1) owns artifact {1}.
func newTestStore(t *testing.T) (*Store, *stubContext) {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	ctx := &stubContext{value: 10}
	owners := stubOwners{royalty.ArtifactID{1}: addr(1)}

	return New(db, owners, ctx), ctx
}

func TestCreateAndGet(t *testing.T) {
	store, _ := newTestStore(t)

	id, err := store.Create(royalty.ArtifactID{1}, "raise split", "details", addr(1), 5)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	proposal, ok := store.Get(id)
	if !ok {
		t.Fatal("proposal not found after create")
	}

	if proposal.Title != "raise split" {
		t.Errorf("title = %q", proposal.Title)
	}

	if proposal.ClosesAt != 15 {
		t.Errorf("ClosesAt = %d, want 15", proposal.ClosesAt)
	}

	if proposal.Closed {
		t.Error("new proposal already closed")
	}
}

func TestCreateNotOwner(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Create(royalty.ArtifactID{1}, "t", "", addr(2), 5)
	if !errors.Is(err, ErrNotProposalOwner) {
		t.Errorf("error = %v, want ErrNotProposalOwner", err)
	}
}

func TestCreateValidation(t *testing.T) {
	store, _ := newTestStore(t)

	cases := []struct {
		name        string
		title       string
		description string
		window      uint64
	}{
		{"empty title", "", "", 5},
		{"long title", strings.Repeat("t", maxTitleLen+1), "", 5},
		{"long description", "t", strings.Repeat("d", maxDescriptionLen+1), 5},
		{"zero window", "t", "", 0},
	}

	for _, tc := range cases {
		_, err := store.Create(royalty.ArtifactID{1}, tc.title, tc.description, addr(1), tc.window)
		if !errors.Is(err, ErrInvalidProposal) {
			t.Errorf("%s: error = %v, want ErrInvalidProposal", tc.name, err)
		}
	}
}

func TestVoteTally(t *testing.T) {
	store, _ := newTestStore(t)

	id, err := store.Create(royalty.ArtifactID{1}, "t", "", addr(1), 5)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Vote(id, addr(2), true); err != nil {
		t.Fatalf("Vote: %v", err)
	}

	if err := store.Vote(id, addr(3), false); err != nil {
		t.Fatalf("Vote: %v", err)
	}

	proposal, _ := store.Get(id)

	if proposal.VotesFor != 1 || proposal.VotesAgainst != 1 {
		t.Errorf("tally = %d/%d, want 1/1", proposal.VotesFor, proposal.VotesAgainst)
	}
}

func TestVoteTwice(t *testing.T) {
	store, _ := newTestStore(t)

	id, err := store.Create(royalty.ArtifactID{1}, "t", "", addr(1), 5)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Vote(id, addr(2), true); err != nil {
		t.Fatal(err)
	}

	if err := store.Vote(id, addr(2), false); !errors.Is(err, ErrAlreadyVoted) {
		t.Errorf("error = %v, want ErrAlreadyVoted", err)
	}
}

func TestVoteAfterWindow(t *testing.T) {
	store, ctx := newTestStore(t)

	id, err := store.Create(royalty.ArtifactID{1}, "t", "", addr(1), 5)
	if err != nil {
		t.Fatal(err)
	}

	ctx.value = 15

	if err := store.Vote(id, addr(2), true); !errors.Is(err, ErrVotingClosed) {
		t.Errorf("error = %v, want ErrVotingClosed", err)
	}
}

func TestVoteUnknownProposal(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Vote(99, addr(2), true); !errors.Is(err, ErrProposalNotFound) {
		t.Errorf("error = %v, want ErrProposalNotFound", err)
	}
}

func TestClose(t *testing.T) {
	store, ctx := newTestStore(t)

	id, err := store.Create(royalty.ArtifactID{1}, "t", "", addr(1), 5)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Vote(id, addr(2), true); err != nil {
		t.Fatal(err)
	}

	ctx.value = 15

	proposal, err := store.Close(id, addr(1))
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !proposal.Closed || !proposal.Passed {
		t.Errorf("closed=%v passed=%v, want true/true", proposal.Closed, proposal.Passed)
	}
}

func TestCloseWhileOpen(t *testing.T) {
	store, _ := newTestStore(t)

	id, err := store.Create(royalty.ArtifactID{1}, "t", "", addr(1), 5)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Close(id, addr(1)); !errors.Is(err, ErrVotingOpen) {
		t.Errorf("error = %v, want ErrVotingOpen", err)
	}
}

func TestCloseNotOwner(t *testing.T) {
	store, ctx := newTestStore(t)

	id, err := store.Create(royalty.ArtifactID{1}, "t", "", addr(1), 5)
	if err != nil {
		t.Fatal(err)
	}

	ctx.value = 15

	if _, err := store.Close(id, addr(2)); !errors.Is(err, ErrNotProposalOwner) {
		t.Errorf("error = %v, want ErrNotProposalOwner", err)
	}
}

func TestCloseTwice(t *testing.T) {
	store, ctx := newTestStore(t)

	id, err := store.Create(royalty.ArtifactID{1}, "t", "", addr(1), 5)
	if err != nil {
		t.Fatal(err)
	}

	ctx.value = 15

	if _, err := store.Close(id, addr(1)); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Close(id, addr(1)); !errors.Is(err, ErrProposalClosed) {
		t.Errorf("error = %v, want ErrProposalClosed", err)
	}
}

func TestTiedVoteFails(t *testing.T) {
	store, ctx := newTestStore(t)

	id, err := store.Create(royalty.ArtifactID{1}, "t", "", addr(1), 5)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Vote(id, addr(2), true); err != nil {
		t.Fatal(err)
	}

	if err := store.Vote(id, addr(3), false); err != nil {
		t.Fatal(err)
	}

	ctx.value = 15

	proposal, err := store.Close(id, addr(1))
	if err != nil {
		t.Fatal(err)
	}

	if proposal.Passed {
		t.Error("tied vote passed")
	}
}

func TestSeqPersistsAcrossRestart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	db, err := storage.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	ctx := &stubContext{value: 10}
	owners := stubOwners{royalty.ArtifactID{1}: addr(1)}

	store := New(db, owners, ctx)

	first, err := store.Create(royalty.ArtifactID{1}, "t", "", addr(1), 5)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = storage.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { db.Close() })

	reopened := New(db, owners, ctx)

	second, err := reopened.Create(royalty.ArtifactID{1}, "t2", "", addr(1), 5)
	if err != nil {
		t.Fatal(err)
	}

	if second != first+1 {
		t.Errorf("second id = %d, want %d", second, first+1)
	}
}
