package royalty

import (
	"fmt"
	"math/bits"

	"SplitLedger/internal/logger"
)

// Engine computes per-contributor settlement amounts and drives the
// all-or-nothing multi-transfer of a sale. It holds no persistent state of
// its own; the registry and ledger own theirs.
type Engine struct {
	registry  *Registry
	ledger    *Ledger
	transfers Transferrer
	owners    OwnerSource
	escrow    Address
}

// NewEngine creates a settlement engine over the given registry and ledger.
func NewEngine(registry *Registry, ledger *Ledger, transfers Transferrer, owners OwnerSource, escrow Address) *Engine {
	return &Engine{
		registry:  registry,
		ledger:    ledger,
		transfers: transfers,
		owners:    owners,
		escrow:    escrow,
	}
}

// Distribute splits salePrice across an artifact's contributors.
//
// Each amount is floor(salePrice * share / 100). The floored remainder (at
// most len(contributors)-1 units) stays with the caller and is never
// redistributed. Value moves caller -> escrow per contributor; ledger credits
// are applied in one atomic batch only after every transfer has succeeded.
// If a transfer fails partway, the completed transfers are reversed and the
// call reports ErrTransferFailed with no observable effects.
//
// Returns the exact sum credited across all contributors.
func (e *Engine) Distribute(id ArtifactID, salePrice uint64, caller Address) (uint64, error) {
	record, ok := e.registry.Get(id)
	if !ok {
		return 0, ErrNotFound
	}

	owner, ok := e.owners.Owner(id)
	if !ok || owner != caller {
		return 0, ErrNotAuthorized
	}

	amounts := make([]uint64, len(record.Contributors))

	var total uint64
	for i, c := range record.Contributors {
		amounts[i] = shareAmount(salePrice, c.Share)
		total += amounts[i] // cannot wrap: sum of floored shares <= salePrice
	}

	if err := e.collectTransfers(amounts, caller); err != nil {
		return 0, err
	}

	credits := make([]credit, len(record.Contributors))
	for i, c := range record.Contributors {
		credits[i] = credit{addr: c.Address, amount: amounts[i]}
	}

	if err := e.ledger.creditAll(credits); err != nil {
		// Credits are atomic, so nothing landed. Return the escrowed
		// funds before failing.
		e.refundTransfers(amounts, len(amounts), caller)
		return 0, fmt.Errorf("credit contributors:\n%w", err)
	}

	return total, nil
}

// collectTransfers moves each contributor's amount from the caller into
// escrow. On failure at transfer k, transfers 0..k-1 are reversed before the
// error is returned, so escrow and caller funds match the pre-call state.
func (e *Engine) collectTransfers(amounts []uint64, caller Address) error {
	for i, amount := range amounts {
		if err := e.transfers.Transfer(amount, caller, e.escrow); err != nil {
			e.refundTransfers(amounts, i, caller)
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}

	return nil
}

// refundTransfers reverses the first n completed escrow transfers.
func (e *Engine) refundTransfers(amounts []uint64, n int, caller Address) {
	for i := n - 1; i >= 0; i-- {
		if err := e.transfers.Transfer(amounts[i], e.escrow, caller); err != nil {
			// Escrow always holds the collected funds, so a refund
			// cannot lack balance; a failure here means the
			// transferrer itself is broken.
			logger.Error("refund transfer failed",
				"amount", amounts[i],
				"error", err,
			)
		}
	}
}

// shareAmount computes floor(salePrice * share / 100) without intermediate
// overflow. share <= 100, so the 128-bit product's high word stays below the
// divisor and the quotient always fits in uint64.
func shareAmount(salePrice, share uint64) uint64 {
	if share == 0 || salePrice == 0 {
		return 0
	}

	hi, lo := bits.Mul64(salePrice, share)
	quo, _ := bits.Div64(hi, lo, ShareTotal)

	return quo
}
