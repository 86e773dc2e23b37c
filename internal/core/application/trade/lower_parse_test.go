package trade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/pkg/program"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

type greedyMatcher struct{}

func (m greedyMatcher) Name() string { return "greedy" }
func (m greedyMatcher) Match(domain.CoinSpend, []domain.AssetTypeLayer) bool {
	return true
}

func requestedPaymentSpend(t *testing.T) (domain.CoinSpend, domain.RequestPayment) {
	t.Helper()
	desc := standardDescription()
	request := domain.RequestPayment{
		Payments: []domain.Payment{{
			Address: b32(5),
			Amount:  5,
			Memos:   [][]byte{b32s(5)},
		}},
	}
	spend, remaining, err := desc.CreateSpendForActions([]solver.Solver{
		domain.OfferedAmount{Amount: 1000}.ToSolver(),
		request.ToSolver(),
	})
	require.NoError(t, err)
	require.Empty(t, remaining)
	return spend, request
}

func TestSpendToOfferRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	spend, _ := requestedPaymentSpend(t)
	bundle := domain.SpendBundle{CoinSpends: []domain.CoinSpend{spend}}
	bundle.AggregatedSignature[0] = 0xc0

	offer, err := svc.SpendToOffer(context.Background(), bundle)
	require.NoError(t, err)
	require.Len(t, offer.CoinSpends, 2)
	assert.True(t, offer.CoinSpends[0].IsDummyCarrier())
	require.Len(t, offer.RealCoinSpends(), 1)

	// The lowered solution carries the legacy placeholder, not the marker.
	lowered := offer.RealCoinSpends()[0]
	graftrootSlot, err := lowered.Solution.At("rrf")
	require.NoError(t, err)
	assert.True(t, graftrootSlot.IsNil())

	recovered, err := OfferToSpend(offer)
	require.NoError(t, err)
	require.Len(t, recovered.CoinSpends, 1)
	assert.Equal(t, spend.Coin, recovered.CoinSpends[0].Coin)
	assert.True(t, recovered.CoinSpends[0].PuzzleReveal.Equal(spend.PuzzleReveal))
	assert.True(t, recovered.CoinSpends[0].Solution.Equal(spend.Solution))
	assert.Equal(t, bundle.AggregatedSignature, recovered.AggregatedSignature)
}

func TestSpendToOfferBytesRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	spend, _ := requestedPaymentSpend(t)
	bundle := domain.SpendBundle{CoinSpends: []domain.CoinSpend{spend}}
	bundle.AggregatedSignature[95] = 0x99

	raw, err := svc.SpendToOfferBytes(context.Background(), bundle)
	require.NoError(t, err)

	recovered, err := OfferBytesToSpend(raw)
	require.NoError(t, err)
	require.Len(t, recovered.CoinSpends, 1)
	assert.True(t, recovered.CoinSpends[0].Solution.Equal(spend.Solution))
	assert.Equal(t, bundle.AggregatedSignature, recovered.AggregatedSignature)
}

func TestSpendToOfferDLInclusionRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	desc := standardDescription()
	inclusion := domain.RequireDLInclusion{
		LauncherIDs:   []domain.Bytes32{b32(6)},
		ValuesToProve: [][]domain.Bytes32{{b32(7)}},
	}
	spend, remaining, err := desc.CreateSpendForActions([]solver.Solver{
		domain.OfferedAmount{Amount: 1}.ToSolver(),
		inclusion.ToSolver(),
	})
	require.NoError(t, err)
	require.Empty(t, remaining)

	offer, err := svc.SpendToOffer(
		context.Background(), domain.SpendBundle{CoinSpends: []domain.CoinSpend{spend}},
	)
	require.NoError(t, err)
	require.Len(t, offer.CoinSpends, 2)
	assert.True(t, offer.CoinSpends[0].IsDummyCarrier())

	// With an inclusion requirement the placeholder has five empty slots.
	lowered := offer.RealCoinSpends()[0]
	graftrootSlot, err := lowered.Solution.At("rrf")
	require.NoError(t, err)
	assert.Equal(t, 5, graftrootSlot.ListLen())

	recovered, err := OfferToSpend(offer)
	require.NoError(t, err)
	require.Len(t, recovered.CoinSpends, 1)
	assert.True(t, recovered.CoinSpends[0].Solution.Equal(spend.Solution))

	_, gotActions, err := DescribeSpend(recovered.CoinSpends[0])
	require.NoError(t, err)
	require.Len(t, gotActions, 2)
	gotInclusion, ok := gotActions[0].(domain.RequireDLInclusion)
	require.True(t, ok)
	assert.Equal(t, inclusion.LauncherIDs, gotInclusion.LauncherIDs)
	assert.Equal(t, inclusion.ValuesToProve, gotInclusion.ValuesToProve)
}

func TestSpendToOfferPassesThroughUnrecognizedSpends(t *testing.T) {
	svc, _ := newTestService(t)
	spend := domain.CoinSpend{
		Coin: domain.Coin{
			ParentCoinID: b32(1),
			PuzzleHash:   b32(2),
			Amount:       1,
		},
		PuzzleReveal: program.NewAtom(b32s(3)),
		Solution:     program.NewAtom([]byte{0x01}),
	}

	offer, err := svc.SpendToOffer(
		context.Background(), domain.SpendBundle{CoinSpends: []domain.CoinSpend{spend}},
	)
	require.NoError(t, err)
	require.Len(t, offer.CoinSpends, 1)
	assert.True(t, offer.CoinSpends[0].Solution.Equal(spend.Solution))
	assert.True(t, offer.CoinSpends[0].PuzzleReveal.Equal(spend.PuzzleReveal))
}

func TestSpendToOfferAmbiguousMatch(t *testing.T) {
	svc, _ := newTestService(t)
	svc.matchers = append(svc.matchers, greedyMatcher{})
	spend, _ := requestedPaymentSpend(t)

	_, err := svc.SpendToOffer(
		context.Background(), domain.SpendBundle{CoinSpends: []domain.CoinSpend{spend}},
	)
	require.ErrorIs(t, err, domain.ErrAmbiguousSpend)
}

func TestLegacyRPPuzzleToAssetTypes(t *testing.T) {
	layers := []domain.AssetTypeLayer{{
		Kind:   domain.AssetTypeCAT,
		Params: solver.Solver{"tail": solver.HexBytes32(b32(2))},
	}}
	assetTypes, err := curryAssetTypes(layers)
	require.NoError(t, err)

	request := domain.RequestPayment{
		AssetTypes: assetTypes,
		Payments:   []domain.Payment{{Address: b32(5), Amount: 5}},
	}
	puzzle, err := request.LegacyPuzzle()
	require.NoError(t, err)

	// Decomposing the legacy puzzle yields the exact curry entries the
	// bridge produced for the same layers.
	got, err := LegacyRPPuzzleToAssetTypes(puzzle)
	require.NoError(t, err)
	assert.Equal(t, assetTypes, got)
}

func TestLegacyRPPuzzleToAssetTypesBaseModNotFound(t *testing.T) {
	_, err := LegacyRPPuzzleToAssetTypes(program.FromInt(1))
	require.ErrorIs(t, err, domain.ErrBaseModNotFound)
}
