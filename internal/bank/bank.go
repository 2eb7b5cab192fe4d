package bank

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"SplitLedger/internal/royalty"
	"SplitLedger/internal/storage"
)

// prefixAccount is the storage key prefix for token accounts.
var prefixAccount = []byte("c:")

var (
	// ErrInsufficientFunds means the source account cannot cover a transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountOverflow means a credit would wrap a uint64 account balance.
	ErrAccountOverflow = errors.New("account balance overflow")
)

// Store holds native token accounts keyed by address. It implements the
// settlement core's Transferrer: a transfer debits and credits in one atomic
// batch or not at all. A missing account reads as zero.
type Store struct {
	db *storage.Storage
	mu sync.Mutex
}

// New creates an account store backed by the given storage.
func New(db *storage.Storage) *Store {
	return &Store{db: db}
}

// Balance returns the token balance for an address.
func (s *Store) Balance(addr royalty.Address) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.balanceLocked(addr)
}

// Mint credits freshly created tokens to an address. Used by the bootstrap
// mint and the faucet.
func (s *Store) Mint(addr royalty.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.balanceLocked(addr)

	next := balance + amount
	if next < balance {
		return ErrAccountOverflow
	}

	return s.setBalanceLocked(addr, next)
}

// Transfer moves amount from one address to another. Fails without any
// effect if the source balance is insufficient or the destination would
// overflow; both account writes land in one atomic batch.
func (s *Store) Transfer(amount uint64, from, to royalty.Address) error {
	if amount == 0 || from == to {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fromBalance := s.balanceLocked(from)
	if fromBalance < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, fromBalance, amount)
	}

	toBalance := s.balanceLocked(to)

	toNext := toBalance + amount
	if toNext < toBalance {
		return ErrAccountOverflow
	}

	pairs := []storage.KeyValue{
		{Key: makeAccountKey(from), Value: encodeBalance(fromBalance - amount)},
		{Key: makeAccountKey(to), Value: encodeBalance(toNext)},
	}

	if err := s.db.SetBatch(pairs); err != nil {
		return fmt.Errorf("apply transfer:\n%w", err)
	}

	return nil
}

// balanceLocked reads an account balance (caller must hold the mutex).
func (s *Store) balanceLocked(addr royalty.Address) uint64 {
	data, err := s.db.Get(makeAccountKey(addr))
	if err != nil || len(data) < 8 {
		return 0
	}

	return binary.BigEndian.Uint64(data)
}

// setBalanceLocked writes an account balance (caller must hold the mutex).
func (s *Store) setBalanceLocked(addr royalty.Address, balance uint64) error {
	return s.db.Set(makeAccountKey(addr), encodeBalance(balance))
}

// encodeBalance serializes a balance as 8 big-endian bytes.
func encodeBalance(balance uint64) []byte {
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, balance)

	return value
}

// makeAccountKey creates the storage key for a token account.
func makeAccountKey(addr royalty.Address) []byte {
	key := make([]byte, len(prefixAccount)+32)
	copy(key, prefixAccount)
	copy(key[len(prefixAccount):], addr[:])

	return key
}
