package trade

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
)

func confirmedRecord(parent domain.Bytes32, amount uint64, walletID, height uint32) domain.CoinRecord {
	return domain.CoinRecord{
		Coin: domain.Coin{
			ParentCoinID: parent,
			PuzzleHash:   b32(0xaa),
			Amount:       amount,
		},
		ConfirmedHeight: height,
		WalletType:      domain.WalletKindStandard,
		WalletID:        walletID,
	}
}

func TestRegisterWallet(t *testing.T) {
	svc, _ := newTestService(t)
	assetX := b32(2)

	require.NoError(t, svc.RegisterWallet(
		NewCATWallet(2, assetX, newInMemoryCoinRepo()), assetX,
	))

	t.Run("duplicate wallet id", func(t *testing.T) {
		err := svc.RegisterWallet(NewCATWallet(2, b32(3), newInMemoryCoinRepo()), b32(3))
		require.Error(t, err)
	})

	t.Run("duplicate asset id", func(t *testing.T) {
		err := svc.RegisterWallet(NewCATWallet(3, assetX, newInMemoryCoinRepo()), assetX)
		require.Error(t, err)
	})
}

func TestSelectCoins(t *testing.T) {
	svc, coins := newTestService(t)
	ctx := context.Background()
	for i, amount := range []uint64{10, 3, 5} {
		require.NoError(t, coins.AddCoinRecord(
			ctx, confirmedRecord(b32(byte(i+1)), amount, 1, 100),
		))
	}
	spent := confirmedRecord(b32(9), 100, 1, 100)
	spent.Spent = true
	spent.SpentHeight = 101
	require.NoError(t, coins.AddCoinRecord(ctx, spent))

	t.Run("smallest coins first", func(t *testing.T) {
		selected, err := svc.SelectCoins(ctx, 1, 8)
		require.NoError(t, err)
		require.Len(t, selected, 2)
		assert.Equal(t, uint64(3), selected[0].Amount)
		assert.Equal(t, uint64(5), selected[1].Amount)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		_, err := svc.SelectCoins(ctx, 1, 1000)
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	})

	t.Run("unknown wallet", func(t *testing.T) {
		_, err := svc.SelectCoins(ctx, 99, 1)
		require.Error(t, err)
	})

	t.Run("vc wallets cannot select", func(t *testing.T) {
		require.NoError(t, svc.RegisterWallet(NewVCWallet(4, newInMemoryVCRepo())))
		_, err := svc.SelectCoins(ctx, 4, 1)
		require.ErrorIs(t, err, domain.ErrUnsupportedOperation)
	})
}

func TestPrefetchParentSpends(t *testing.T) {
	svc, _ := newTestService(t)
	svc.chain = mockChain{
		fetch: func(_ context.Context, coinID domain.Bytes32) (*domain.CoinSpend, error) {
			return &domain.CoinSpend{
				Coin: domain.Coin{PuzzleHash: coinID, Amount: 1},
			}, nil
		},
	}

	coins := []domain.Coin{
		{ParentCoinID: b32(1), PuzzleHash: b32(0xaa), Amount: 1},
		{ParentCoinID: b32(2), PuzzleHash: b32(0xaa), Amount: 2},
		{ParentCoinID: b32(3), PuzzleHash: b32(0xaa), Amount: 3},
	}
	spends, err := svc.PrefetchParentSpends(context.Background(), coins)
	require.NoError(t, err)
	require.Len(t, spends, 3)
	for _, coin := range coins {
		spend, ok := spends[coin.ParentCoinID]
		require.True(t, ok)
		require.NotNil(t, spend)
		assert.Equal(t, coin.ParentCoinID, spend.Coin.PuzzleHash)
	}
}

func TestPrefetchParentSpendsPropagatesErrors(t *testing.T) {
	svc, _ := newTestService(t)
	failing := b32(2)
	svc.chain = mockChain{
		fetch: func(_ context.Context, coinID domain.Bytes32) (*domain.CoinSpend, error) {
			if coinID == failing {
				return nil, fmt.Errorf("peer disconnected")
			}
			return &domain.CoinSpend{}, nil
		},
	}

	_, err := svc.PrefetchParentSpends(context.Background(), []domain.Coin{
		{ParentCoinID: b32(1)},
		{ParentCoinID: failing},
	})
	require.Error(t, err)
}

func TestCoinLifecycle(t *testing.T) {
	svc, coins := newTestService(t)
	ctx := context.Background()

	early := confirmedRecord(b32(1), 100, 1, 100)
	late := confirmedRecord(b32(2), 200, 1, 105)
	require.NoError(t, svc.ConfirmCoins(ctx, []domain.CoinRecord{early, late}))

	require.NoError(t, svc.MarkCoinsSpent(ctx, []domain.Bytes32{early.Name()}, 110))
	record, err := coins.GetCoinRecord(ctx, early.Name())
	require.NoError(t, err)
	assert.True(t, record.Spent)
	assert.Equal(t, uint32(110), record.SpentHeight)

	// Rolling back under the second confirmation deletes it and resets the
	// spent flag set above it.
	require.NoError(t, svc.HandleReorg(ctx, 102))
	_, err = coins.GetCoinRecord(ctx, late.Name())
	require.ErrorIs(t, err, domain.ErrCoinNotFound)
	record, err = coins.GetCoinRecord(ctx, early.Name())
	require.NoError(t, err)
	assert.False(t, record.Spent)
	assert.Zero(t, record.SpentHeight)
}

func TestNewNonce(t *testing.T) {
	first := NewNonce()
	second := NewNonce()
	assert.NotEqual(t, domain.ZeroBytes32, first)
	assert.NotEqual(t, first, second)
}
