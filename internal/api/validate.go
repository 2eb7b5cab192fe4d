package api

import (
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"

	"SplitLedger/internal/royalty"
	"SplitLedger/internal/storage"
)

// prefixNonce is the storage key prefix for per-address request nonces.
var prefixNonce = []byte("n:")

// verifySignedRequest checks a request's structural integrity and Ed25519
// signature, and that its payload names the expected operation. Returns the
// verified caller address.
func verifySignedRequest(req SignedRequest, wantOp string) (royalty.Address, error) {
	if req.Payload.Op != wantOp {
		return royalty.Address{}, fmt.Errorf("operation mismatch: got %q, want %q", req.Payload.Op, wantOp)
	}

	caller, err := ParseAddress(req.Pubkey)
	if err != nil {
		return royalty.Address{}, err
	}

	sig, err := parseSignature(req.Signature)
	if err != nil {
		return royalty.Address{}, err
	}

	hash, err := HashPayload(req.Payload)
	if err != nil {
		return royalty.Address{}, err
	}

	if !ed25519.Verify(caller[:], hash[:], sig) {
		return royalty.Address{}, fmt.Errorf("invalid signature")
	}

	return caller, nil
}

// parseSignature decodes a hex-encoded 64-byte Ed25519 signature.
func parseSignature(s string) ([]byte, error) {
	sig, err := hex.DecodeString(s)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return nil, fmt.Errorf("invalid signature encoding")
	}

	return sig, nil
}

// NonceStore tracks the highest nonce seen per address. Requiring strictly
// increasing nonces makes signed requests single-use.
type NonceStore struct {
	db *storage.Storage
	mu sync.Mutex
}

// NewNonceStore creates a nonce store backed by the given storage.
func NewNonceStore(db *storage.Storage) *NonceStore {
	return &NonceStore{db: db}
}

// Check verifies that nonce is strictly greater than the last accepted nonce
// for the address and records it. A fresh address starts at zero, so the
// first valid nonce is 1.
func (n *NonceStore) Check(addr royalty.Address, nonce uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	key := makeNonceKey(addr)

	var last uint64
	if data, err := n.db.Get(key); err == nil && len(data) >= 8 {
		last = binary.BigEndian.Uint64(data)
	}

	if nonce <= last {
		return fmt.Errorf("stale nonce: got %d, last accepted %d", nonce, last)
	}

	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, nonce)

	if err := n.db.Set(key, value); err != nil {
		return fmt.Errorf("store nonce:\n%w", err)
	}

	return nil
}

// Last returns the last accepted nonce for an address (zero for a fresh
// address). Clients use this to resume their nonce sequence.
func (n *NonceStore) Last(addr royalty.Address) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	data, err := n.db.Get(makeNonceKey(addr))
	if err != nil || len(data) < 8 {
		return 0
	}

	return binary.BigEndian.Uint64(data)
}

// makeNonceKey creates the storage key for an address's nonce.
func makeNonceKey(addr royalty.Address) []byte {
	key := make([]byte, len(prefixNonce)+32)
	copy(key, prefixNonce)
	copy(key[len(prefixNonce):], addr[:])

	return key
}
