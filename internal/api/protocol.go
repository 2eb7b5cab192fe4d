package api

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"SplitLedger/internal/codec"
	"SplitLedger/internal/royalty"
)

// Operation names carried in signed payloads. Each mutating endpoint accepts
// exactly one operation, so a signature cannot be replayed against a
// different endpoint.
const (
	OpCreateArtifact   = "create-artifact"
	OpDistribute       = "distribute"
	OpWithdraw         = "withdraw"
	OpTransferArtifact = "transfer-artifact"
	OpCreateProposal   = "create-proposal"
	OpVote             = "vote"
	OpCloseProposal    = "close-proposal"
)

// ContributorEntry is the wire form of one contributor.
type ContributorEntry struct {
	Address string `json:"address" cbor:"address"` // hex-encoded 32-byte address
	Share   uint64 `json:"share" cbor:"share"`
	Note    string `json:"note,omitempty" cbor:"note,omitempty"`
}

// Payload is the signed body of a mutating request. Client and server encode
// it with deterministic CBOR before hashing, so both sides derive identical
// signing bytes regardless of JSON field order.
type Payload struct {
	Op           string             `json:"op" cbor:"op"`
	Nonce        uint64             `json:"nonce" cbor:"nonce"`
	Artifact     string             `json:"artifact,omitempty" cbor:"artifact,omitempty"`
	Contributors []ContributorEntry `json:"contributors,omitempty" cbor:"contributors,omitempty"`
	SalePrice    uint64             `json:"salePrice,omitempty" cbor:"sale_price,omitempty"`
	To           string             `json:"to,omitempty" cbor:"to,omitempty"`
	Proposal     uint64             `json:"proposal,omitempty" cbor:"proposal,omitempty"`
	Title        string             `json:"title,omitempty" cbor:"title,omitempty"`
	Description  string             `json:"description,omitempty" cbor:"description,omitempty"`
	Approve      bool               `json:"approve,omitempty" cbor:"approve,omitempty"`
	Window       uint64             `json:"window,omitempty" cbor:"window,omitempty"`
}

// SignedRequest is the envelope for mutating requests: the payload, the
// caller's Ed25519 public key (which is their address) and a signature over
// the payload hash.
type SignedRequest struct {
	Payload   Payload `json:"payload"`
	Pubkey    string  `json:"pubkey"`    // hex-encoded 32-byte public key
	Signature string  `json:"signature"` // hex-encoded 64-byte signature
}

// HashPayload computes the signing hash: blake3 over the payload's
// deterministic CBOR encoding.
func HashPayload(p Payload) ([32]byte, error) {
	data, err := codec.Marshal(p)
	if err != nil {
		return [32]byte{}, fmt.Errorf("encode payload:\n%w", err)
	}

	return blake3.Sum256(data), nil
}

// SignPayload builds a signed request for the given payload and key.
func SignPayload(p Payload, priv ed25519.PrivateKey) (SignedRequest, error) {
	hash, err := HashPayload(p)
	if err != nil {
		return SignedRequest{}, err
	}

	pub := priv.Public().(ed25519.PublicKey)

	return SignedRequest{
		Payload:   p,
		Pubkey:    hex.EncodeToString(pub),
		Signature: hex.EncodeToString(ed25519.Sign(priv, hash[:])),
	}, nil
}

// ParseAddress decodes a hex-encoded 32-byte address.
func ParseAddress(s string) (royalty.Address, error) {
	data, err := hex.DecodeString(s)
	if err != nil || len(data) != 32 {
		return royalty.Address{}, fmt.Errorf("invalid address: %q", s)
	}

	var addr royalty.Address
	copy(addr[:], data)

	return addr, nil
}

// ParseArtifactID decodes a hex-encoded 32-byte artifact identifier.
func ParseArtifactID(s string) (royalty.ArtifactID, error) {
	data, err := hex.DecodeString(s)
	if err != nil || len(data) != 32 {
		return royalty.ArtifactID{}, fmt.Errorf("invalid artifact id: %q", s)
	}

	var id royalty.ArtifactID
	copy(id[:], data)

	return id, nil
}

// ParseContributors converts wire contributor entries to core contributors.
func ParseContributors(entries []ContributorEntry) ([]royalty.Contributor, error) {
	contributors := make([]royalty.Contributor, len(entries))

	for i, e := range entries {
		addr, err := ParseAddress(e.Address)
		if err != nil {
			return nil, fmt.Errorf("contributor %d:\n%w", i, err)
		}

		contributors[i] = royalty.Contributor{
			Address: addr,
			Share:   e.Share,
			Note:    e.Note,
		}
	}

	return contributors, nil
}
