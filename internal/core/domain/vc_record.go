package domain

// VerifiedCredential is the current on-chain representation of a
// singleton-backed credential: the coin carrying it, the provider identity
// authorized to update its proofs, and the committed proof hash.
type VerifiedCredential struct {
	Coin            Coin
	LauncherID      Bytes32
	InnerPuzzleHash Bytes32
	ProofProvider   Bytes32
	ProofHash       *Bytes32
}

// VCRecord pairs a credential with its confirmation state. A confirmed
// height of zero means the launch is still pending and not yet
// authoritative.
type VCRecord struct {
	VC              VerifiedCredential
	ConfirmedHeight uint32
}

// IsConfirmed returns whether the credential's latest representation has
// been confirmed on chain.
func (r VCRecord) IsConfirmed() bool {
	return r.ConfirmedHeight != 0
}
