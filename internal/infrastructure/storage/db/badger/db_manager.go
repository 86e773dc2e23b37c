package dbbadger

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

const (
	coinTxKey = "tx"
	vcTxKey   = "vtx"
)

type repoManager struct {
	coinStore *badgerhold.Store
	vcStore   *badgerhold.Store

	coinRepository domain.CoinRepository
	vcRepository   domain.VCRepository
}

// NewRepoManager opens (or creates if not exists) the badger stores on disk.
// It expects a base data dir and an optional logger, and creates a dedicated
// directory for coins and vcs.
func NewRepoManager(baseDbDir string, logger badger.Logger) (ports.RepoManager, error) {
	coinDb, err := createDb(filepath.Join(baseDbDir, "coins"), logger)
	if err != nil {
		return nil, fmt.Errorf("opening coins db: %w", err)
	}

	vcDb, err := createDb(filepath.Join(baseDbDir, "vcs"), logger)
	if err != nil {
		return nil, fmt.Errorf("opening vcs db: %w", err)
	}

	rm := &repoManager{
		coinStore: coinDb,
		vcStore:   vcDb,
	}
	rm.coinRepository = newCoinRepositoryImpl(rm)
	rm.vcRepository = newVCRepositoryImpl(rm)

	return rm, nil
}

func (rm *repoManager) CoinRepository() domain.CoinRepository {
	return rm.coinRepository
}

func (rm *repoManager) VCRepository() domain.VCRepository {
	return rm.vcRepository
}

func (rm *repoManager) Close() {
	rm.coinStore.Close()
	rm.vcStore.Close()
}

// RunTransaction runs the handler against a single pair of store
// transactions. Both stores commit only after the handler returns without
// error; a failing handler discards every pending write.
func (rm *repoManager) RunTransaction(
	ctx context.Context,
	readOnly bool,
	handler func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	coinTx := rm.coinStore.Badger().NewTransaction(!readOnly)
	defer coinTx.Discard()
	vcTx := rm.vcStore.Badger().NewTransaction(!readOnly)
	defer vcTx.Discard()

	txCtx := context.WithValue(ctx, coinTxKey, coinTx)
	txCtx = context.WithValue(txCtx, vcTxKey, vcTx)

	res, err := handler(txCtx)
	if err != nil {
		return nil, err
	}

	if !readOnly {
		if err := coinTx.Commit(); err != nil {
			return nil, err
		}
		if err := vcTx.Commit(); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger
	opts.Compression = options.ZSTD

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
