package domain

import (
	"testing"

	"github.com/coinset-network/coinset-wallet/pkg/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpendBundleCodecRoundTrip(t *testing.T) {
	bundle := SpendBundle{
		CoinSpends: []CoinSpend{
			{
				Coin:         Coin{ParentCoinID: tb32(1), PuzzleHash: tb32(2), Amount: 1200},
				PuzzleReveal: program.FromInt(1),
				Solution: program.FromList(
					program.FromList(program.FromInt(51), program.NewAtom(make([]byte, 32)), program.FromInt(100)),
				),
			},
			{
				Coin:         Coin{ParentCoinID: ZeroBytes32, PuzzleHash: tb32(3), Amount: 0},
				PuzzleReveal: program.Nil(),
				Solution:     program.NewPair(program.FromInt(7), program.Nil()),
			},
		},
	}
	bundle.AggregatedSignature[0] = 0xc0

	decoded, err := SpendBundleFromBytes(bundle.ToBytes())
	require.NoError(t, err)

	require.Len(t, decoded.CoinSpends, 2)
	for i := range bundle.CoinSpends {
		assert.Equal(t, bundle.CoinSpends[i].Coin, decoded.CoinSpends[i].Coin)
		assert.True(t, decoded.CoinSpends[i].PuzzleReveal.Equal(bundle.CoinSpends[i].PuzzleReveal))
		assert.True(t, decoded.CoinSpends[i].Solution.Equal(bundle.CoinSpends[i].Solution))
	}
	assert.Equal(t, bundle.AggregatedSignature, decoded.AggregatedSignature)
}

func TestSpendBundleFromBytesRejectsTruncated(t *testing.T) {
	bundle := SpendBundle{
		CoinSpends: []CoinSpend{{
			Coin:         Coin{ParentCoinID: tb32(1), PuzzleHash: tb32(2), Amount: 5},
			PuzzleReveal: program.FromInt(1),
			Solution:     program.Nil(),
		}},
	}
	encoded := bundle.ToBytes()

	_, err := SpendBundleFromBytes(nil)
	require.Error(t, err)

	_, err = SpendBundleFromBytes(encoded[:len(encoded)-10])
	require.Error(t, err)

	// trailing garbage after the signature
	_, err = SpendBundleFromBytes(append(encoded, 0x00))
	require.Error(t, err)
}
