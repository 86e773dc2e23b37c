package domain

// CoinType distinguishes the protocol-level flavor of a tracked coin.
type CoinType int

const (
	// CoinTypeNormal is a plain value coin.
	CoinTypeNormal CoinType = iota
	// CoinTypeCAT is a fungible-token coin.
	CoinTypeCAT
	// CoinTypeNFT is a provenant singleton coin.
	CoinTypeNFT
	// CoinTypeDataLayer is a data-layer singleton coin.
	CoinTypeDataLayer
	// CoinTypeVC is a verified-credential coin.
	CoinTypeVC
	// CoinTypeClawback is a coin wrapped by a clawback decorator.
	CoinTypeClawback
)

// CoinRecord is the lifecycle row tracked for every coin the wallet cares
// about. Invariant: Spent == (SpentHeight != 0) after every committed write.
type CoinRecord struct {
	Coin            Coin
	ConfirmedHeight uint32
	SpentHeight     uint32
	Spent           bool
	CoinType        CoinType
	Metadata        []byte
	WalletType      WalletKind
	WalletID        uint32
}

// Name returns the primary key of the record.
func (r CoinRecord) Name() Bytes32 {
	return r.Coin.Name()
}

// Validate checks the spent-flag invariant.
func (r CoinRecord) Validate() error {
	if r.Spent != (r.SpentHeight != 0) {
		return ErrInconsistentSpentState
	}
	return nil
}
