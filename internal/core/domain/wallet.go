package domain

import "context"

// WalletKind is the closed enumeration of wallet kinds the state manager
// can own.
type WalletKind int

const (
	// WalletKindStandard holds the chain's native currency.
	WalletKindStandard WalletKind = iota
	// WalletKindCAT holds a fungible token.
	WalletKindCAT
	// WalletKindNFT holds provenant singletons.
	WalletKindNFT
	// WalletKindDataLayer holds data-layer singletons.
	WalletKindDataLayer
	// WalletKindVC holds verified credentials.
	WalletKindVC
)

func (k WalletKind) String() string {
	switch k {
	case WalletKindStandard:
		return "standard"
	case WalletKindCAT:
		return "cat"
	case WalletKindNFT:
		return "nft"
	case WalletKindDataLayer:
		return "data_layer"
	case WalletKindVC:
		return "vc"
	default:
		return "unknown"
	}
}

// Wallet is the minimal surface every wallet kind exposes. Capabilities
// beyond this are opt-in interfaces, so unsupported operations fail at the
// type level instead of at runtime dispatch.
type Wallet interface {
	ID() uint32
	Kind() WalletKind
}

// LayerDescriber is implemented by wallets that can describe the puzzle
// stack of the assets they hold. Trading requires it for offered assets.
type LayerDescriber interface {
	GetPuzzleInfo(ctx context.Context, assetID Bytes32) (PuzzleInfo, error)
}

// CoinSelector is implemented by wallets that can pick spendable coins to
// cover an amount. VC wallets never implement it.
type CoinSelector interface {
	SelectCoins(ctx context.Context, amount uint64) ([]Coin, error)
}

// PuzzleHashProvider is implemented by wallets that can derive fresh
// receive addresses for payments back to this side of a trade.
type PuzzleHashProvider interface {
	GetNewPuzzleHash(ctx context.Context) (Bytes32, error)
}
