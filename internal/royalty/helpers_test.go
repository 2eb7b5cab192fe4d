package royalty

import (
	"errors"
	"path/filepath"
	"testing"

	"SplitLedger/internal/storage"
)

// newTestStorage opens a pebble store in a temporary directory.
func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

// stubContext is a ContextSource with a settable value.
type stubContext struct {
	value uint64
}

func (s *stubContext) Context() uint64 {
	return s.value
}

// errInjected is the failure injected by fakeTransferrer.
var errInjected = errors.New("injected transfer failure")

// fakeTransferrer applies transfers against in-memory balances and can be
// programmed to fail on the nth call.
type fakeTransferrer struct {
	balances map[Address]uint64
	failAt   int // 1-based call index that fails; 0 means never
	calls    int
}

func newFakeTransferrer() *fakeTransferrer {
	return &fakeTransferrer{balances: make(map[Address]uint64)}
}

func (f *fakeTransferrer) Transfer(amount uint64, from, to Address) error {
	f.calls++

	if f.failAt != 0 && f.calls == f.failAt {
		return errInjected
	}

	if amount == 0 || from == to {
		return nil
	}

	if f.balances[from] < amount {
		return errors.New("insufficient funds")
	}

	f.balances[from] -= amount
	f.balances[to] += amount

	return nil
}

// stubOwners is an OwnerSource backed by a map.
type stubOwners map[ArtifactID]Address

func (o stubOwners) Owner(id ArtifactID) (Address, bool) {
	owner, ok := o[id]
	return owner, ok
}

// addr builds a test address from a single distinguishing byte.
func addr(b byte) Address {
	var a Address
	a[0] = b

	return a
}

// contributors builds a list with addresses 1..n and the given shares.
func contributors(shares ...uint64) []Contributor {
	list := make([]Contributor, len(shares))

	for i, share := range shares {
		list[i] = Contributor{Address: addr(byte(i + 1)), Share: share}
	}

	return list
}
