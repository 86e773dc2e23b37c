package dbbadger

import (
	"context"
	"errors"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type coinRepositoryImpl struct {
	db *repoManager
}

func newCoinRepositoryImpl(db *repoManager) domain.CoinRepository {
	return coinRepositoryImpl{db}
}

func (c coinRepositoryImpl) AddCoinRecord(
	ctx context.Context, record domain.CoinRecord,
) error {
	if err := record.Validate(); err != nil {
		return err
	}

	return c.update(ctx, func(tx *badger.Txn) error {
		return c.db.coinStore.TxUpsert(tx, record.Name(), record)
	})
}

func (c coinRepositoryImpl) GetCoinRecord(
	ctx context.Context, name domain.Bytes32,
) (*domain.CoinRecord, error) {
	var record domain.CoinRecord
	err := c.view(ctx, func(tx *badger.Txn) error {
		return c.db.coinStore.TxGet(tx, name, &record)
	})
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrCoinNotFound
		}
		return nil, err
	}

	return &record, nil
}

func (c coinRepositoryImpl) GetCoinRecords(
	ctx context.Context,
	names []domain.Bytes32,
	includeSpent bool,
	startHeight, endHeight uint32,
) ([]domain.CoinRecord, error) {
	records := make([]domain.CoinRecord, 0, len(names))
	err := c.view(ctx, func(tx *badger.Txn) error {
		for _, name := range names {
			var record domain.CoinRecord
			if err := c.db.coinStore.TxGet(tx, name, &record); err != nil {
				if errors.Is(err, badgerhold.ErrNotFound) {
					continue
				}
				return err
			}
			if !includeSpent && record.Spent {
				continue
			}
			if record.ConfirmedHeight < startHeight ||
				record.ConfirmedHeight >= endHeight {
				continue
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (c coinRepositoryImpl) GetCoinRecordsBetween(
	ctx context.Context,
	walletID uint32,
	start, end int,
	reverse bool,
) ([]domain.CoinRecord, error) {
	records, err := c.findCoinRecords(
		ctx, badgerhold.Where("WalletID").Eq(walletID),
	)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		if reverse {
			i, j = j, i
		}
		return records[i].ConfirmedHeight < records[j].ConfirmedHeight
	})

	if start > len(records) {
		start = len(records)
	}
	if end > len(records) {
		end = len(records)
	}
	if start >= end {
		return nil, nil
	}

	return records[start:end], nil
}

func (c coinRepositoryImpl) GetUnspentCoinsForWallet(
	ctx context.Context, walletID uint32,
) ([]domain.CoinRecord, error) {
	return c.findCoinRecords(
		ctx,
		badgerhold.Where("WalletID").Eq(walletID).And("Spent").Eq(false),
	)
}

func (c coinRepositoryImpl) GetAllUnspentCoins(
	ctx context.Context,
) ([]domain.CoinRecord, error) {
	return c.findCoinRecords(ctx, badgerhold.Where("Spent").Eq(false))
}

func (c coinRepositoryImpl) CountSmallUnspent(
	ctx context.Context, cutoff uint64,
) (int, error) {
	records, err := c.findCoinRecords(ctx, badgerhold.Where("Spent").Eq(false))
	if err != nil {
		return 0, err
	}

	count := 0
	for _, record := range records {
		if record.Coin.Amount < cutoff {
			count++
		}
	}

	return count, nil
}

func (c coinRepositoryImpl) SetSpent(
	ctx context.Context, name domain.Bytes32, height uint32,
) error {
	return c.update(ctx, func(tx *badger.Txn) error {
		var record domain.CoinRecord
		if err := c.db.coinStore.TxGet(tx, name, &record); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrCoinNotFound
			}
			return err
		}

		record.Spent = true
		record.SpentHeight = height

		return c.db.coinStore.TxUpdate(tx, name, record)
	})
}

func (c coinRepositoryImpl) RollbackToBlock(
	ctx context.Context, height uint32,
) error {
	return c.update(ctx, func(tx *badger.Txn) error {
		if err := c.db.coinStore.TxDeleteMatching(
			tx, domain.CoinRecord{},
			badgerhold.Where("ConfirmedHeight").Gt(height),
		); err != nil {
			return err
		}

		var spentAfter []domain.CoinRecord
		if err := c.db.coinStore.TxFind(
			tx, &spentAfter, badgerhold.Where("SpentHeight").Gt(height),
		); err != nil {
			return err
		}

		for _, record := range spentAfter {
			record.Spent = false
			record.SpentHeight = 0
			if err := c.db.coinStore.TxUpdate(
				tx, record.Name(), record,
			); err != nil {
				return err
			}
		}

		return nil
	})
}

func (c coinRepositoryImpl) findCoinRecords(
	ctx context.Context, query *badgerhold.Query,
) ([]domain.CoinRecord, error) {
	var records []domain.CoinRecord
	err := c.view(ctx, func(tx *badger.Txn) error {
		return c.db.coinStore.TxFind(tx, &records, query)
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (c coinRepositoryImpl) view(
	ctx context.Context, fn func(tx *badger.Txn) error,
) error {
	if tx, ok := ctx.Value(coinTxKey).(*badger.Txn); ok {
		return fn(tx)
	}

	tx := c.db.coinStore.Badger().NewTransaction(false)
	defer tx.Discard()

	return fn(tx)
}

func (c coinRepositoryImpl) update(
	ctx context.Context, fn func(tx *badger.Txn) error,
) error {
	if tx, ok := ctx.Value(coinTxKey).(*badger.Txn); ok {
		return fn(tx)
	}

	tx := c.db.coinStore.Badger().NewTransaction(true)
	defer tx.Discard()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}
