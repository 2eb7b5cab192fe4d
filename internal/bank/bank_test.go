package bank

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"SplitLedger/internal/royalty"
	"SplitLedger/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return New(db)
}

func addr(b byte) royalty.Address {
	var a royalty.Address
	a[0] = b

	return a
}

func TestMintAndBalance(t *testing.T) {
	store := newTestStore(t)

	if err := store.Mint(addr(1), 500); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if got := store.Balance(addr(1)); got != 500 {
		t.Errorf("balance = %d, want 500", got)
	}

	if got := store.Balance(addr(2)); got != 0 {
		t.Errorf("unknown account balance = %d, want 0", got)
	}
}

func TestMintZeroIsNoop(t *testing.T) {
	store := newTestStore(t)

	if err := store.Mint(addr(1), 0); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if got := store.Balance(addr(1)); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
}

func TestMintOverflow(t *testing.T) {
	store := newTestStore(t)

	if err := store.Mint(addr(1), math.MaxUint64); err != nil {
		t.Fatal(err)
	}

	if err := store.Mint(addr(1), 1); !errors.Is(err, ErrAccountOverflow) {
		t.Errorf("error = %v, want ErrAccountOverflow", err)
	}
}

func TestTransfer(t *testing.T) {
	store := newTestStore(t)

	if err := store.Mint(addr(1), 300); err != nil {
		t.Fatal(err)
	}

	if err := store.Transfer(100, addr(1), addr(2)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	if got := store.Balance(addr(1)); got != 200 {
		t.Errorf("source balance = %d, want 200", got)
	}

	if got := store.Balance(addr(2)); got != 100 {
		t.Errorf("destination balance = %d, want 100", got)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	store := newTestStore(t)

	if err := store.Mint(addr(1), 50); err != nil {
		t.Fatal(err)
	}

	err := store.Transfer(100, addr(1), addr(2))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}

	if got := store.Balance(addr(1)); got != 50 {
		t.Errorf("source balance changed by failed transfer: %d", got)
	}

	if got := store.Balance(addr(2)); got != 0 {
		t.Errorf("destination balance changed by failed transfer: %d", got)
	}
}

func TestTransferDestinationOverflow(t *testing.T) {
	store := newTestStore(t)

	if err := store.Mint(addr(1), 10); err != nil {
		t.Fatal(err)
	}

	if err := store.Mint(addr(2), math.MaxUint64); err != nil {
		t.Fatal(err)
	}

	err := store.Transfer(1, addr(1), addr(2))
	if !errors.Is(err, ErrAccountOverflow) {
		t.Fatalf("error = %v, want ErrAccountOverflow", err)
	}

	if got := store.Balance(addr(1)); got != 10 {
		t.Errorf("source balance changed by failed transfer: %d", got)
	}
}

func TestTransferZeroAndSelf(t *testing.T) {
	store := newTestStore(t)

	if err := store.Mint(addr(1), 100); err != nil {
		t.Fatal(err)
	}

	if err := store.Transfer(0, addr(1), addr(2)); err != nil {
		t.Errorf("zero transfer: %v", err)
	}

	if err := store.Transfer(50, addr(1), addr(1)); err != nil {
		t.Errorf("self transfer: %v", err)
	}

	if got := store.Balance(addr(1)); got != 100 {
		t.Errorf("balance = %d, want 100", got)
	}
}
