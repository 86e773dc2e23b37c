package ports

import (
	"context"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/pkg/program"
)

// PuzzleVM evaluates a puzzle against a solution, returning the conditions
// it enforces. The wallet treats evaluation as a pure function.
type PuzzleVM interface {
	Run(puzzle, solution *program.Program) (*program.Program, error)
}

// KeyResolver maps a puzzle hash to the secret key material able to sign
// for it. The concrete representation is opaque to the wallet core.
type KeyResolver interface {
	Resolve(puzzleHash domain.Bytes32) (interface{}, error)
}

// Signer aggregates the individual spend signatures of a bundle.
type Signer interface {
	Sign(
		ctx context.Context,
		spends []domain.CoinSpend,
		keys KeyResolver,
	) ([domain.AggregateSignatureSize]byte, error)
}

// CoinState is the chain's view of a coin's lifecycle.
type CoinState struct {
	Coin          domain.Coin
	CreatedHeight uint32
	SpentHeight   uint32
}

// ChainSource fetches spends and coin states from the network layer.
type ChainSource interface {
	// FetchParentSpend returns the spend that created the given coin, or nil
	// if the peer does not know it.
	FetchParentSpend(ctx context.Context, coinID domain.Bytes32) (*domain.CoinSpend, error)
	// GetCoinStates returns the current state of the given coins.
	GetCoinStates(ctx context.Context, coinIDs []domain.Bytes32) ([]CoinState, error)
}
