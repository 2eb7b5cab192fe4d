package royalty

import (
	"fmt"

	"github.com/zeebo/blake3"

	"SplitLedger/internal/codec"
)

// identityPayload is the canonical hash input for artifact identity.
// Field order is irrelevant: deterministic CBOR sorts map keys.
type identityPayload struct {
	Contributors []Contributor `cbor:"contributors"`
	Context      uint64        `cbor:"context"`
}

// DeriveArtifactID computes the content-derived identifier for an artifact:
// blake3 over the deterministic CBOR encoding of the ordered contributor list
// and the context discriminator. Pure and side-effect free; identical inputs
// always yield the identical identifier.
func DeriveArtifactID(contributors []Contributor, context uint64) (ArtifactID, error) {
	data, err := codec.Marshal(identityPayload{
		Contributors: contributors,
		Context:      context,
	})
	if err != nil {
		return ArtifactID{}, fmt.Errorf("encode identity payload:\n%w", err)
	}

	return ArtifactID(blake3.Sum256(data)), nil
}
