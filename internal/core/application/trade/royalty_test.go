package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

func TestCalculateRoyaltyPayments(t *testing.T) {
	nft1, nft2 := b32(1), b32(2)
	addr1, addr2 := b32(11), b32(12)
	drivers := map[domain.Bytes32]domain.PuzzleInfo{
		nft1: royaltyNFTDriver(nft1, addr1, 250),
		nft2: royaltyNFTDriver(nft2, addr2, 300),
	}

	t.Run("single nft", func(t *testing.T) {
		payments, err := CalculateRoyaltyPayments(OfferTerms{nft1: 1}, 1000, drivers)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, addr1, payments[0].Address)
		assert.Equal(t, uint64(25), payments[0].Amount)
		require.Len(t, payments[0].Memos, 1)
		assert.Equal(t, addr1[:], payments[0].Memos[0])
	})

	t.Run("two nfts split the paid amount first", func(t *testing.T) {
		payments, err := CalculateRoyaltyPayments(
			OfferTerms{nft1: 1, nft2: 1}, 1001, drivers,
		)
		require.NoError(t, err)
		require.Len(t, payments, 2)
		// Each share is floor(1001 / 2) before the percentage applies, and
		// the payments come out ordered by asset id.
		assert.Equal(t, addr1, payments[0].Address)
		assert.Equal(t, uint64(12), payments[0].Amount)
		assert.Equal(t, addr2, payments[1].Address)
		assert.Equal(t, uint64(15), payments[1].Amount)
	})

	t.Run("non royalty assets owe nothing", func(t *testing.T) {
		catID := b32(3)
		catDrivers := map[domain.Bytes32]domain.PuzzleInfo{
			catID: domain.NewPuzzleInfo(domain.AssetTypeLayer{
				Kind:   domain.AssetTypeCAT,
				Params: solver.Solver{"tail": solver.HexBytes32(catID)},
			}),
		}
		payments, err := CalculateRoyaltyPayments(
			OfferTerms{NativeAssetID: -5, catID: 5}, 1000, catDrivers,
		)
		require.NoError(t, err)
		assert.Empty(t, payments)
	})

	t.Run("both sides derive identical payments", func(t *testing.T) {
		forOffered, err := CalculateRoyaltyPayments(OfferTerms{nft1: 1}, 12345, drivers)
		require.NoError(t, err)
		forRequested, err := CalculateRoyaltyPayments(OfferTerms{nft1: -1}, 12345, drivers)
		require.NoError(t, err)
		assert.Equal(t, forOffered, forRequested)
	})
}
