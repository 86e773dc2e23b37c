package trade

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/thanhpk/randstr"
	"golang.org/x/sync/errgroup"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/internal/core/ports"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

const parentSpendFetchLimit = 8

// Service owns the wallet registry and drives trade construction: bridging
// legacy offers, lowering them to spends and parsing received bundles. It
// serializes coin selection per wallet so two concurrent trades can never
// pick the same coin.
type Service struct {
	repoManager ports.RepoManager
	chain       ports.ChainSource
	matchers    []SpendMatcher

	mainWallet domain.Wallet
	wallets    map[uint32]domain.Wallet
	byAsset    map[domain.Bytes32]uint32

	lock        sync.Mutex
	walletLocks map[uint32]*sync.Mutex
}

// NewService builds the trade service around the main wallet holding the
// native currency. The main wallet must be able to derive receive addresses.
func NewService(
	repoManager ports.RepoManager,
	chain ports.ChainSource,
	mainWallet domain.Wallet,
) (*Service, error) {
	if _, ok := mainWallet.(domain.PuzzleHashProvider); !ok {
		return nil, fmt.Errorf("main wallet must provide receive puzzle hashes")
	}
	svc := &Service{
		repoManager: repoManager,
		chain:       chain,
		matchers:    DefaultMatchers(),
		mainWallet:  mainWallet,
		wallets:     map[uint32]domain.Wallet{mainWallet.ID(): mainWallet},
		byAsset:     map[domain.Bytes32]uint32{},
		walletLocks: map[uint32]*sync.Mutex{},
	}
	return svc, nil
}

// RegisterWallet adds a wallet to the registry, owning the given asset ids.
func (s *Service) RegisterWallet(wallet domain.Wallet, assetIDs ...domain.Bytes32) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.wallets[wallet.ID()]; ok {
		return fmt.Errorf("wallet id %d already registered", wallet.ID())
	}
	for _, assetID := range assetIDs {
		if owner, ok := s.byAsset[assetID]; ok {
			return fmt.Errorf(
				"asset %s already owned by wallet %d", assetID.Hex(), owner,
			)
		}
	}
	s.wallets[wallet.ID()] = wallet
	for _, assetID := range assetIDs {
		s.byAsset[assetID] = wallet.ID()
	}
	log.Debugf("registered %s wallet %d", wallet.Kind(), wallet.ID())
	return nil
}

func (s *Service) walletForAsset(
	_ context.Context, assetID domain.Bytes32,
) (domain.Wallet, error) {
	if assetID == NativeAssetID {
		return s.mainWallet, nil
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	walletID, ok := s.byAsset[assetID]
	if !ok {
		return nil, fmt.Errorf("%w: asset %s", domain.ErrWalletNotIntegrated, assetID.Hex())
	}
	return s.wallets[walletID], nil
}

func (s *Service) newPuzzleHash(ctx context.Context) (domain.Bytes32, error) {
	return s.mainWallet.(domain.PuzzleHashProvider).GetNewPuzzleHash(ctx)
}

// walletLock returns the per-wallet mutex guarding coin selection.
func (s *Service) walletLock(walletID uint32) *sync.Mutex {
	s.lock.Lock()
	defer s.lock.Unlock()

	mtx, ok := s.walletLocks[walletID]
	if !ok {
		mtx = &sync.Mutex{}
		s.walletLocks[walletID] = mtx
	}
	return mtx
}

// SelectCoins picks spendable coins of a wallet covering amount. The wallet
// lock is held across the selection so concurrent trades never double-select.
func (s *Service) SelectCoins(
	ctx context.Context, walletID uint32, amount uint64,
) ([]domain.Coin, error) {
	s.lock.Lock()
	wallet, ok := s.wallets[walletID]
	s.lock.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown wallet id %d", walletID)
	}
	selector, ok := wallet.(domain.CoinSelector)
	if !ok {
		return nil, fmt.Errorf("%w: %s wallets cannot select coins",
			domain.ErrUnsupportedOperation, wallet.Kind())
	}

	mtx := s.walletLock(walletID)
	mtx.Lock()
	defer mtx.Unlock()
	return selector.SelectCoins(ctx, amount)
}

// Offer is a lowered trade ready to hand to the signer.
type Offer struct {
	ID    string
	Nonce domain.Bytes32
	Spec  solver.Solver
}

// NewNonce returns a fresh random trade nonce.
func NewNonce() domain.Bytes32 {
	var out domain.Bytes32
	copy(out[:], randstr.Bytes(32))
	return out
}

// CreateOffer bridges a legacy offer dictionary into the generic action
// encoding and binds its requested payments to a fresh nonce.
func (s *Service) CreateOffer(
	ctx context.Context,
	offerDict OfferTerms,
	driverDict map[domain.Bytes32]domain.PuzzleInfo,
	tradeSpec solver.Solver,
	fee uint64,
) (*Offer, error) {
	spec, err := s.OldRequestToNew(ctx, offerDict, driverDict, tradeSpec, fee)
	if err != nil {
		return nil, err
	}

	offer := &Offer{
		ID:    uuid.NewString(),
		Nonce: NewNonce(),
		Spec:  spec,
	}
	// Requested payments without an explicit nonce bind to the trade nonce,
	// so their announcements cannot be replayed across offers.
	if spec.Has("dependencies") {
		dependencies, err := spec.GetList("dependencies")
		if err != nil {
			return nil, err
		}
		for _, dependency := range dependencies {
			if name, err := dependency.GetString("type"); err != nil ||
				name != domain.ActionNameRequestPayment {
				continue
			}
			if !dependency.Has("nonce") {
				dependency["nonce"] = solver.HexBytes32(offer.Nonce)
			}
		}
	}

	log.Debugf("created offer %s", offer.ID)
	return offer, nil
}

// PrefetchParentSpends fans out over the chain source to fetch the spends
// that created the given coins, keyed by parent coin id. The fan-out is
// bounded and honors the caller's cancellation.
func (s *Service) PrefetchParentSpends(
	ctx context.Context, coins []domain.Coin,
) (map[domain.Bytes32]*domain.CoinSpend, error) {
	out := map[domain.Bytes32]*domain.CoinSpend{}
	var outMtx sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parentSpendFetchLimit)
	for _, coin := range coins {
		parentID := coin.ParentCoinID
		g.Go(func() error {
			spend, err := s.chain.FetchParentSpend(ctx, parentID)
			if err != nil {
				return err
			}
			outMtx.Lock()
			out[parentID] = spend
			outMtx.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ConfirmCoins records newly confirmed coins in one transaction boundary.
func (s *Service) ConfirmCoins(ctx context.Context, records []domain.CoinRecord) error {
	_, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			for _, record := range records {
				if err := s.repoManager.CoinRepository().AddCoinRecord(ctx, record); err != nil {
					return nil, err
				}
			}
			return nil, nil
		},
	)
	return err
}

// MarkCoinsSpent flags the given coins spent at height in one transaction
// boundary.
func (s *Service) MarkCoinsSpent(
	ctx context.Context, names []domain.Bytes32, height uint32,
) error {
	_, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			for _, name := range names {
				if err := s.repoManager.CoinRepository().SetSpent(ctx, name, height); err != nil {
					return nil, err
				}
			}
			return nil, nil
		},
	)
	return err
}

// HandleReorg rolls the coin store back to the given height after a chain
// reorganization.
func (s *Service) HandleReorg(ctx context.Context, height uint32) error {
	log.Infof("rolling wallet state back to height %d", height)
	_, err := s.repoManager.RunTransaction(
		ctx, false, func(ctx context.Context) (interface{}, error) {
			return nil, s.repoManager.CoinRepository().RollbackToBlock(ctx, height)
		},
	)
	return err
}
