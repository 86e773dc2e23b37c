package trade

import (
	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/pkg/program"
)

// SpendMatcher decides whether a spend belongs to the asset family it
// recognizes, given the already-peeled outer layer stack. Exactly one
// matcher may claim a spend; zero claims mean the spend is not an asset
// spend and passes through lowering untouched.
type SpendMatcher interface {
	Name() string
	Match(spend domain.CoinSpend, layers []domain.AssetTypeLayer) bool
}

// DefaultMatchers covers the asset families the wallet can lower.
func DefaultMatchers() []SpendMatcher {
	return []SpendMatcher{
		standardMatcher{},
		catMatcher{},
		nftMatcher{},
		dataLayerMatcher{},
	}
}

// standardMatcher recognizes bare spends of the native currency: no outer
// layers and a delegated-puzzle shaped solution.
type standardMatcher struct{}

func (m standardMatcher) Name() string { return "standard" }

func (m standardMatcher) Match(spend domain.CoinSpend, layers []domain.AssetTypeLayer) bool {
	if len(layers) != 0 {
		return false
	}
	delegated, err := spend.Solution.At("rf")
	if err != nil {
		return false
	}
	_, err = conditionsFromDelegated(delegatedBase(spend.Solution, delegated))
	return err == nil
}

// delegatedBase resolves the quoted conditions program, looking through a
// graftroot marker when one is present.
func delegatedBase(solution, delegated *program.Program) *program.Program {
	graftrootSolution, err := solution.At("rrf")
	if err == nil && isGraftrootSolution(graftrootSolution) {
		if base, err := graftrootSolution.At("rf"); err == nil {
			return base
		}
	}
	return delegated
}

type catMatcher struct{}

func (m catMatcher) Name() string { return "cat" }

func (m catMatcher) Match(_ domain.CoinSpend, layers []domain.AssetTypeLayer) bool {
	return len(layers) > 0 && layers[0].Kind == domain.AssetTypeCAT
}

// nftMatcher recognizes provenant singletons: uniqueness, metadata and
// ownership stacked in that order.
type nftMatcher struct{}

func (m nftMatcher) Name() string { return "nft" }

func (m nftMatcher) Match(_ domain.CoinSpend, layers []domain.AssetTypeLayer) bool {
	return len(layers) >= 3 &&
		layers[0].Kind == domain.AssetTypeSingleton &&
		layers[1].Kind == domain.AssetTypeMetadata &&
		layers[2].Kind == domain.AssetTypeOwnership
}

// dataLayerMatcher recognizes merkle-root singletons: a metadata layer
// holding the root with no ownership layer beneath it.
type dataLayerMatcher struct{}

func (m dataLayerMatcher) Name() string { return "data_layer" }

func (m dataLayerMatcher) Match(_ domain.CoinSpend, layers []domain.AssetTypeLayer) bool {
	if len(layers) < 2 ||
		layers[0].Kind != domain.AssetTypeSingleton ||
		layers[1].Kind != domain.AssetTypeMetadata {
		return false
	}
	return len(layers) == 2 || layers[2].Kind != domain.AssetTypeOwnership
}
