package royalty

const (
	// MaxContributors is the maximum number of contributors per artifact.
	MaxContributors = 5

	// ShareTotal is the required sum of all contributor shares (percent).
	ShareTotal = 100

	// MaxNoteLen is the maximum length of a contributor note in bytes.
	MaxNoteLen = 256
)

// Address is a 32-byte principal identifier (an Ed25519 public key).
type Address [32]byte

// ArtifactID is the content-derived 32-byte artifact identifier.
type ArtifactID [32]byte

// Contributor is one entry in an artifact's royalty split.
type Contributor struct {
	Address Address `cbor:"address"` // Address is the contributor's principal
	Share   uint64  `cbor:"share"`   // Share is the integer percentage of proceeds
	Note    string  `cbor:"note"`    // Note is a short free-form annotation
}

// ContributionRecord is the immutable registration of an artifact's split.
// Created exactly once per ArtifactID and never modified or deleted.
type ContributionRecord struct {
	ArtifactID   ArtifactID    `cbor:"artifact_id"`
	Contributors []Contributor `cbor:"contributors"`
	RegisteredAt uint64        `cbor:"registered_at"` // context value at creation
}
