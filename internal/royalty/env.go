package royalty

// Collaborator interfaces supplied by the host environment. The core never
// implements these; cmd/node wires concrete implementations in.

// ContextSource provides the monotonic discriminator mixed into artifact
// identity derivation (the node's current height).
type ContextSource interface {
	Context() uint64
}

// Transferrer moves value between principals. A call either fully succeeds
// or fully fails before returning.
type Transferrer interface {
	Transfer(amount uint64, from, to Address) error
}

// OwnerSource resolves the current owner of an artifact token.
type OwnerSource interface {
	Owner(id ArtifactID) (Address, bool)
}
