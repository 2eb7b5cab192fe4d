package client

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"SplitLedger/internal/api"
)

// Wallet holds an Ed25519 keypair and the nonce sequence for signed
// requests. The public key is the wallet's address.
type Wallet struct {
	privKey ed25519.PrivateKey
	pubKey  ed25519.PublicKey
	nonce   uint64 // last used nonce
}

// NewWallet creates a wallet with a fresh random keypair.
func NewWallet() (*Wallet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key:\n%w", err)
	}

	return &Wallet{privKey: priv, pubKey: pub}, nil
}

// LoadWallet reads a private key file written by Save.
func LoadWallet(path string) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file:\n%w", err)
	}

	if len(data) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid key size: got %d, want %d", len(data), ed25519.PrivateKeySize)
	}

	priv := ed25519.PrivateKey(data)

	return &Wallet{
		privKey: priv,
		pubKey:  priv.Public().(ed25519.PublicKey),
	}, nil
}

// Save writes the private key to a file readable only by the owner.
func (w *Wallet) Save(path string) error {
	if err := os.WriteFile(path, w.privKey, 0600); err != nil {
		return fmt.Errorf("save key to %s:\n%w", path, err)
	}

	return nil
}

// Address returns the wallet's 32-byte address.
func (w *Wallet) Address() [32]byte {
	var addr [32]byte
	copy(addr[:], w.pubKey)

	return addr
}

// AddressHex returns the wallet's address as a hex string.
func (w *Wallet) AddressHex() string {
	return hex.EncodeToString(w.pubKey)
}

// SetNonce sets the last used nonce (after querying the node).
func (w *Wallet) SetNonce(nonce uint64) {
	w.nonce = nonce
}

// nextNonce returns the next nonce in the sequence.
func (w *Wallet) nextNonce() uint64 {
	w.nonce++
	return w.nonce
}

// sign builds a signed request for the payload, filling in the next nonce.
func (w *Wallet) sign(p api.Payload) (api.SignedRequest, error) {
	p.Nonce = w.nextNonce()

	req, err := api.SignPayload(p, w.privKey)
	if err != nil {
		return api.SignedRequest{}, fmt.Errorf("sign payload:\n%w", err)
	}

	return req, nil
}
