package trade

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/internal/core/ports"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

type inMemoryCoinRepo struct {
	lock    sync.Mutex
	records map[domain.Bytes32]domain.CoinRecord
}

func newInMemoryCoinRepo() *inMemoryCoinRepo {
	return &inMemoryCoinRepo{records: map[domain.Bytes32]domain.CoinRecord{}}
}

func (r *inMemoryCoinRepo) AddCoinRecord(_ context.Context, record domain.CoinRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	r.records[record.Name()] = record
	return nil
}

func (r *inMemoryCoinRepo) GetCoinRecord(
	_ context.Context, name domain.Bytes32,
) (*domain.CoinRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	record, ok := r.records[name]
	if !ok {
		return nil, domain.ErrCoinNotFound
	}
	return &record, nil
}

func (r *inMemoryCoinRepo) GetCoinRecords(
	_ context.Context,
	names []domain.Bytes32,
	includeSpent bool,
	startHeight, endHeight uint32,
) ([]domain.CoinRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := []domain.CoinRecord{}
	for _, name := range names {
		record, ok := r.records[name]
		if !ok {
			continue
		}
		if !includeSpent && record.Spent {
			continue
		}
		if record.ConfirmedHeight < startHeight || record.ConfirmedHeight >= endHeight {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (r *inMemoryCoinRepo) GetCoinRecordsBetween(
	_ context.Context, walletID uint32, start, end int, reverse bool,
) ([]domain.CoinRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	all := []domain.CoinRecord{}
	for _, record := range r.records {
		if record.WalletID == walletID {
			all = append(all, record)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if reverse {
			return all[i].ConfirmedHeight > all[j].ConfirmedHeight
		}
		return all[i].ConfirmedHeight < all[j].ConfirmedHeight
	})
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r *inMemoryCoinRepo) GetUnspentCoinsForWallet(
	_ context.Context, walletID uint32,
) ([]domain.CoinRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := []domain.CoinRecord{}
	for _, record := range r.records {
		if record.WalletID == walletID && !record.Spent {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *inMemoryCoinRepo) GetAllUnspentCoins(_ context.Context) ([]domain.CoinRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := []domain.CoinRecord{}
	for _, record := range r.records {
		if !record.Spent {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *inMemoryCoinRepo) CountSmallUnspent(_ context.Context, cutoff uint64) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	count := 0
	for _, record := range r.records {
		if !record.Spent && record.Coin.Amount < cutoff {
			count++
		}
	}
	return count, nil
}

func (r *inMemoryCoinRepo) SetSpent(_ context.Context, name domain.Bytes32, height uint32) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	record, ok := r.records[name]
	if !ok {
		return domain.ErrCoinNotFound
	}
	record.Spent = true
	record.SpentHeight = height
	r.records[name] = record
	return nil
}

func (r *inMemoryCoinRepo) RollbackToBlock(_ context.Context, height uint32) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for name, record := range r.records {
		if record.ConfirmedHeight > height {
			delete(r.records, name)
			continue
		}
		if record.Spent && record.SpentHeight > height {
			record.Spent = false
			record.SpentHeight = 0
			r.records[name] = record
		}
	}
	return nil
}

type inMemoryVCRepo struct {
	lock    sync.Mutex
	records map[domain.Bytes32]domain.VCRecord
}

func newInMemoryVCRepo() *inMemoryVCRepo {
	return &inMemoryVCRepo{records: map[domain.Bytes32]domain.VCRecord{}}
}

func (r *inMemoryVCRepo) AddOrReplaceVCRecord(_ context.Context, record domain.VCRecord) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.records[record.VC.LauncherID] = record
	return nil
}

func (r *inMemoryVCRepo) GetVCRecord(
	_ context.Context, launcherID domain.Bytes32,
) (*domain.VCRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	record, ok := r.records[launcherID]
	if !ok {
		return nil, domain.ErrVCNotFound
	}
	return &record, nil
}

func (r *inMemoryVCRepo) GetVCRecordByCoinID(
	_ context.Context, coinID domain.Bytes32,
) (*domain.VCRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, record := range r.records {
		if record.VC.Coin.Name() == coinID {
			return &record, nil
		}
	}
	return nil, domain.ErrVCNotFound
}

func (r *inMemoryVCRepo) GetUnconfirmedVCs(_ context.Context) ([]domain.VCRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := []domain.VCRecord{}
	for _, record := range r.records {
		if !record.IsConfirmed() {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *inMemoryVCRepo) GetVCRecordsByProvider(
	_ context.Context, provider domain.Bytes32,
) ([]domain.VCRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	out := []domain.VCRecord{}
	for _, record := range r.records {
		if record.IsConfirmed() && record.VC.ProofProvider == provider {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *inMemoryVCRepo) ListVCRecords(
	_ context.Context, startIndex, count int,
) ([]domain.VCRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	all := []domain.VCRecord{}
	for _, record := range r.records {
		all = append(all, record)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].VC.LauncherID.Hex() < all[j].VC.LauncherID.Hex()
	})
	if startIndex > len(all) {
		startIndex = len(all)
	}
	end := startIndex + count
	if end > len(all) {
		end = len(all)
	}
	return all[startIndex:end], nil
}

func (r *inMemoryVCRepo) DeleteVCRecord(_ context.Context, launcherID domain.Bytes32) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.records, launcherID)
	return nil
}

type mockRepoManager struct {
	coins *inMemoryCoinRepo
	vcs   *inMemoryVCRepo
}

func (m mockRepoManager) CoinRepository() domain.CoinRepository { return m.coins }
func (m mockRepoManager) VCRepository() domain.VCRepository     { return m.vcs }
func (m mockRepoManager) Close()                                {}

func (m mockRepoManager) RunTransaction(
	ctx context.Context,
	_ bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	return handler(ctx)
}

type mockChain struct {
	fetch func(ctx context.Context, coinID domain.Bytes32) (*domain.CoinSpend, error)
}

func (m mockChain) FetchParentSpend(
	ctx context.Context, coinID domain.Bytes32,
) (*domain.CoinSpend, error) {
	if m.fetch == nil {
		return nil, nil
	}
	return m.fetch(ctx, coinID)
}

func (m mockChain) GetCoinStates(
	_ context.Context, _ []domain.Bytes32,
) ([]ports.CoinState, error) {
	return nil, nil
}

func b32(b byte) domain.Bytes32 {
	var out domain.Bytes32
	out[31] = b
	return out
}

func b32s(b byte) []byte {
	id := b32(b)
	return id[:]
}

func newTestService(t *testing.T) (*Service, *inMemoryCoinRepo) {
	t.Helper()
	coins := newInMemoryCoinRepo()
	svc, err := NewService(
		mockRepoManager{coins: coins, vcs: newInMemoryVCRepo()},
		mockChain{},
		NewStandardWallet(1, []byte("test seed"), coins),
	)
	require.NoError(t, err)
	return svc, coins
}

// royaltyNFTDriver builds the driver description of a provenant singleton
// owing percentage basis points to royaltyAddress on every transfer.
func royaltyNFTDriver(
	launcherID, royaltyAddress domain.Bytes32, percentage uint64,
) domain.PuzzleInfo {
	return domain.NewPuzzleInfo(
		domain.AssetTypeLayer{
			Kind: domain.AssetTypeSingleton,
			Params: solver.Solver{
				"launcher_id": solver.HexBytes32(launcherID),
				"launcher_ph": solver.HexBytes32(b32(0xee)),
			},
		},
		domain.AssetTypeLayer{
			Kind: domain.AssetTypeMetadata,
			Params: solver.Solver{
				"metadata":     "0x80",
				"updater_hash": solver.HexBytes32(b32(0xdd)),
			},
		},
		domain.AssetTypeLayer{
			Kind: domain.AssetTypeOwnership,
			Params: solver.Solver{
				"owner": "()",
				"transfer_program": solver.Solver{
					"type":               "royalty transfer program",
					"launcher_id":        solver.HexBytes32(launcherID),
					"royalty_address":    solver.HexBytes32(royaltyAddress),
					"royalty_percentage": strconv.FormatUint(percentage, 10),
				},
			},
		},
	)
}
