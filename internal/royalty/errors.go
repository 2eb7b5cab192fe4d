package royalty

import "errors"

// Error taxonomy for the settlement core. All failures are reported as
// explicit values so callers can distinguish bad requests from transient
// system failures with errors.Is.
var (
	// ErrInvalidShareSum means the contributor shares do not sum to exactly 100.
	ErrInvalidShareSum = errors.New("contributor shares must sum to 100")

	// ErrInvalidContributorCount means the contributor list is empty or too long.
	ErrInvalidContributorCount = errors.New("contributor count out of range")

	// ErrInvalidShare means a single share is outside [0,100].
	ErrInvalidShare = errors.New("contributor share out of range")

	// ErrNoteTooLong means a contributor note exceeds MaxNoteLen bytes.
	ErrNoteTooLong = errors.New("contributor note too long")

	// ErrDuplicateArtifact means a record already exists for the derived identifier.
	ErrDuplicateArtifact = errors.New("artifact already registered")

	// ErrNotFound means no record exists for the given artifact identifier.
	ErrNotFound = errors.New("artifact not found")

	// ErrNotAuthorized means the caller does not own the artifact token.
	ErrNotAuthorized = errors.New("caller is not the artifact owner")

	// ErrTransferFailed means an external value transfer did not complete.
	// The enclosing operation leaves no partial effects behind.
	ErrTransferFailed = errors.New("value transfer failed")

	// ErrNoBalance means the contributor has no royalties to withdraw.
	ErrNoBalance = errors.New("no royalty balance")

	// ErrBalanceOverflow means a credit would wrap a uint64 balance.
	ErrBalanceOverflow = errors.New("royalty balance overflow")
)
