package chainsource

import (
	"context"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/internal/core/ports"
)

type offlineChainSource struct{}

// NewOffline returns a chain source for running the wallet without network
// connectivity. Parent spends are reported as unknown and coin states as
// empty, so trades are constructed purely from the local stores.
func NewOffline() ports.ChainSource {
	return offlineChainSource{}
}

func (offlineChainSource) FetchParentSpend(
	_ context.Context, _ domain.Bytes32,
) (*domain.CoinSpend, error) {
	return nil, nil
}

func (offlineChainSource) GetCoinStates(
	_ context.Context, _ []domain.Bytes32,
) ([]ports.CoinState, error) {
	return nil, nil
}
