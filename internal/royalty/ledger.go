package royalty

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/zeebo/blake3"

	"SplitLedger/internal/storage"
)

// prefixBalance is the storage key prefix for royalty balances.
var prefixBalance = []byte("b:")

// EscrowAddress is the reserved principal holding collected-but-unwithdrawn
// royalty funds. Derived from a fixed label, so no private key exists for it.
var EscrowAddress = Address(blake3.Sum256([]byte("SplitLedger/royalty-escrow")))

// credit is one pending balance increase produced by a distribution.
type credit struct {
	addr   Address
	amount uint64
}

// Ledger owns the per-contributor accumulated royalty balances. Balances are
// increased only by the settlement engine and zeroed only by a successful
// withdrawal. A missing key reads as zero.
type Ledger struct {
	db        *storage.Storage
	transfers Transferrer
	escrow    Address // escrow holds undistributed royalty funds

	mu sync.Mutex
}

// NewLedger creates a ledger backed by the given storage. Withdrawals move
// funds out of the escrow account via the transferrer.
func NewLedger(db *storage.Storage, transfers Transferrer, escrow Address) *Ledger {
	return &Ledger{db: db, transfers: transfers, escrow: escrow}
}

// Balance returns the accumulated royalty balance for an address.
func (l *Ledger) Balance(addr Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balanceLocked(addr)
}

// Withdraw pays out a contributor's full accumulated balance.
//
// Ordering is confirm-then-clear: the external transfer runs first and the
// balance is zeroed only after it succeeds. A failed transfer leaves the
// balance untouched, so a transient failure can never lose funds. The mutex
// is held across both steps, which also rules out reentrant withdrawals.
func (l *Ledger) Withdraw(addr Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	amount := l.balanceLocked(addr)
	if amount == 0 {
		return 0, ErrNoBalance
	}

	if err := l.transfers.Transfer(amount, l.escrow, addr); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	if err := l.db.Delete(makeBalanceKey(addr)); err != nil {
		return 0, fmt.Errorf("clear balance:\n%w", err)
	}

	return amount, nil
}

// creditAll applies a batch of balance increases atomically. Called only by
// the settlement engine after every external transfer of the distribution
// has succeeded. Either all credits land or none do.
func (l *Ledger) creditAll(credits []credit) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Fold duplicate addresses so two shares for the same contributor
	// produce a single write.
	totals := make(map[Address]uint64, len(credits))
	order := make([]Address, 0, len(credits))

	for _, c := range credits {
		if _, seen := totals[c.addr]; !seen {
			order = append(order, c.addr)
		}

		totals[c.addr] += c.amount
	}

	pairs := make([]storage.KeyValue, 0, len(order))

	for _, addr := range order {
		current := l.balanceLocked(addr)

		next := current + totals[addr]
		if next < current {
			return ErrBalanceOverflow
		}

		value := make([]byte, 8)
		binary.BigEndian.PutUint64(value, next)

		pairs = append(pairs, storage.KeyValue{
			Key:   makeBalanceKey(addr),
			Value: value,
		})
	}

	if err := l.db.SetBatch(pairs); err != nil {
		return fmt.Errorf("apply credits:\n%w", err)
	}

	return nil
}

// balanceLocked reads a balance (caller must hold the mutex).
func (l *Ledger) balanceLocked(addr Address) uint64 {
	data, err := l.db.Get(makeBalanceKey(addr))
	if err != nil || len(data) < 8 {
		return 0
	}

	return binary.BigEndian.Uint64(data)
}

// makeBalanceKey creates the storage key for a royalty balance.
func makeBalanceKey(addr Address) []byte {
	key := make([]byte, len(prefixBalance)+32)
	copy(key, prefixBalance)
	copy(key[len(prefixBalance):], addr[:])

	return key
}
