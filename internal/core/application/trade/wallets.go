package trade

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

// coinPicker is the shared coin-selection behavior of every value-holding
// wallet: smallest coins first until the amount is covered.
type coinPicker struct {
	walletID uint32
	coins    domain.CoinRepository
}

func (p coinPicker) SelectCoins(ctx context.Context, amount uint64) ([]domain.Coin, error) {
	records, err := p.coins.GetUnspentCoinsForWallet(ctx, p.walletID)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Coin.Amount < records[j].Coin.Amount
	})

	selected := []domain.Coin{}
	total := uint64(0)
	for _, record := range records {
		selected = append(selected, record.Coin)
		total += record.Coin.Amount
		if total >= amount {
			return selected, nil
		}
	}
	return nil, fmt.Errorf(
		"%w: wallet %d holds %d, needs %d",
		domain.ErrInsufficientFunds, p.walletID, total, amount,
	)
}

func (p coinPicker) Balance(ctx context.Context) (uint64, error) {
	records, err := p.coins.GetUnspentCoinsForWallet(ctx, p.walletID)
	if err != nil {
		return 0, err
	}
	total := uint64(0)
	for _, record := range records {
		total += record.Coin.Amount
	}
	return total, nil
}

// StandardWallet holds the chain's native currency and derives the receive
// addresses the rest of the registry pays back to.
type StandardWallet struct {
	coinPicker

	seed []byte

	lock    sync.Mutex
	counter uint64
}

func NewStandardWallet(id uint32, seed []byte, coins domain.CoinRepository) *StandardWallet {
	return &StandardWallet{
		coinPicker: coinPicker{walletID: id, coins: coins},
		seed:       seed,
	}
}

func (w *StandardWallet) ID() uint32              { return w.walletID }
func (w *StandardWallet) Kind() domain.WalletKind { return domain.WalletKindStandard }

// GetNewPuzzleHash derives the next unused receive puzzle hash.
func (w *StandardWallet) GetNewPuzzleHash(_ context.Context) (domain.Bytes32, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	h := sha256.New()
	h.Write(w.seed)
	h.Write(binary.BigEndian.AppendUint64(nil, w.counter))
	w.counter++

	var out domain.Bytes32
	copy(out[:], h.Sum(nil))
	return out, nil
}

// CATWallet holds one fungible token line.
type CATWallet struct {
	coinPicker

	assetID domain.Bytes32
}

func NewCATWallet(id uint32, assetID domain.Bytes32, coins domain.CoinRepository) *CATWallet {
	return &CATWallet{
		coinPicker: coinPicker{walletID: id, coins: coins},
		assetID:    assetID,
	}
}

func (w *CATWallet) ID() uint32              { return w.walletID }
func (w *CATWallet) Kind() domain.WalletKind { return domain.WalletKindCAT }

func (w *CATWallet) GetPuzzleInfo(_ context.Context, assetID domain.Bytes32) (domain.PuzzleInfo, error) {
	if assetID != w.assetID {
		return domain.PuzzleInfo{}, fmt.Errorf(
			"wallet %d does not own asset %s", w.walletID, assetID.Hex(),
		)
	}
	return domain.NewPuzzleInfo(domain.AssetTypeLayer{
		Kind:   domain.AssetTypeCAT,
		Params: solver.Solver{"tail": solver.HexBytes32(w.assetID)},
	}), nil
}

// NFTWallet holds provenant singletons, one driver description per launcher.
type NFTWallet struct {
	coinPicker

	lock    sync.Mutex
	drivers map[domain.Bytes32]domain.PuzzleInfo
}

func NewNFTWallet(id uint32, coins domain.CoinRepository) *NFTWallet {
	return &NFTWallet{
		coinPicker: coinPicker{walletID: id, coins: coins},
		drivers:    map[domain.Bytes32]domain.PuzzleInfo{},
	}
}

func (w *NFTWallet) ID() uint32              { return w.walletID }
func (w *NFTWallet) Kind() domain.WalletKind { return domain.WalletKindNFT }

// TrackAsset records the driver description of a singleton this wallet owns.
func (w *NFTWallet) TrackAsset(assetID domain.Bytes32, driver domain.PuzzleInfo) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.drivers[assetID] = driver
}

func (w *NFTWallet) GetPuzzleInfo(_ context.Context, assetID domain.Bytes32) (domain.PuzzleInfo, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	driver, ok := w.drivers[assetID]
	if !ok {
		return domain.PuzzleInfo{}, fmt.Errorf(
			"wallet %d does not own asset %s", w.walletID, assetID.Hex(),
		)
	}
	return driver, nil
}

// DataLayerWallet holds merkle-root singletons.
type DataLayerWallet struct {
	coinPicker

	lock    sync.Mutex
	drivers map[domain.Bytes32]domain.PuzzleInfo
}

func NewDataLayerWallet(id uint32, coins domain.CoinRepository) *DataLayerWallet {
	return &DataLayerWallet{
		coinPicker: coinPicker{walletID: id, coins: coins},
		drivers:    map[domain.Bytes32]domain.PuzzleInfo{},
	}
}

func (w *DataLayerWallet) ID() uint32              { return w.walletID }
func (w *DataLayerWallet) Kind() domain.WalletKind { return domain.WalletKindDataLayer }

// TrackLauncher records the driver description of a data-layer singleton.
func (w *DataLayerWallet) TrackLauncher(launcherID domain.Bytes32, driver domain.PuzzleInfo) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.drivers[launcherID] = driver
}

func (w *DataLayerWallet) GetPuzzleInfo(_ context.Context, assetID domain.Bytes32) (domain.PuzzleInfo, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	driver, ok := w.drivers[assetID]
	if !ok {
		return domain.PuzzleInfo{}, fmt.Errorf(
			"wallet %d does not track launcher %s", w.walletID, assetID.Hex(),
		)
	}
	return driver, nil
}

// VCWallet holds verified credentials. It deliberately implements no coin
// selection and reports no balance: credentials are not spendable value.
type VCWallet struct {
	walletID uint32
	vcs      domain.VCRepository
}

func NewVCWallet(id uint32, vcs domain.VCRepository) *VCWallet {
	return &VCWallet{walletID: id, vcs: vcs}
}

func (w *VCWallet) ID() uint32              { return w.walletID }
func (w *VCWallet) Kind() domain.WalletKind { return domain.WalletKindVC }

func (w *VCWallet) Balance(_ context.Context) (uint64, error) {
	return 0, nil
}

// GetVC returns the newest confirmed representation of a credential.
func (w *VCWallet) GetVC(ctx context.Context, launcherID domain.Bytes32) (*domain.VCRecord, error) {
	return w.vcs.GetVCRecord(ctx, launcherID)
}
