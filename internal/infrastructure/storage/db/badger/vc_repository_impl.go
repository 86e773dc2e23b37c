package dbbadger

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type vcRepositoryImpl struct {
	db *repoManager
}

func newVCRepositoryImpl(db *repoManager) domain.VCRepository {
	return vcRepositoryImpl{db}
}

func (v vcRepositoryImpl) AddOrReplaceVCRecord(
	ctx context.Context, record domain.VCRecord,
) error {
	return v.update(ctx, func(tx *badger.Txn) error {
		return v.db.vcStore.TxUpsert(tx, record.VC.LauncherID, record)
	})
}

func (v vcRepositoryImpl) GetVCRecord(
	ctx context.Context, launcherID domain.Bytes32,
) (*domain.VCRecord, error) {
	var record domain.VCRecord
	err := v.view(ctx, func(tx *badger.Txn) error {
		return v.db.vcStore.TxGet(tx, launcherID, &record)
	})
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrVCNotFound
		}
		return nil, err
	}

	return &record, nil
}

func (v vcRepositoryImpl) GetVCRecordByCoinID(
	ctx context.Context, coinID domain.Bytes32,
) (*domain.VCRecord, error) {
	records, err := v.findVCRecords(ctx, &badgerhold.Query{})
	if err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].VC.Coin.Name() == coinID {
			return &records[i], nil
		}
	}

	return nil, domain.ErrVCNotFound
}

func (v vcRepositoryImpl) GetUnconfirmedVCs(
	ctx context.Context,
) ([]domain.VCRecord, error) {
	return v.findVCRecords(
		ctx, badgerhold.Where("ConfirmedHeight").Eq(uint32(0)),
	)
}

func (v vcRepositoryImpl) GetVCRecordsByProvider(
	ctx context.Context, provider domain.Bytes32,
) ([]domain.VCRecord, error) {
	records, err := v.findVCRecords(
		ctx, badgerhold.Where("ConfirmedHeight").Gt(uint32(0)),
	)
	if err != nil {
		return nil, err
	}

	byProvider := make([]domain.VCRecord, 0, len(records))
	for _, record := range records {
		if record.VC.ProofProvider == provider {
			byProvider = append(byProvider, record)
		}
	}

	return byProvider, nil
}

func (v vcRepositoryImpl) ListVCRecords(
	ctx context.Context, startIndex, count int,
) ([]domain.VCRecord, error) {
	records, err := v.findVCRecords(ctx, &badgerhold.Query{})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return bytes.Compare(
			records[i].VC.LauncherID[:], records[j].VC.LauncherID[:],
		) < 0
	})

	if startIndex >= len(records) {
		return nil, nil
	}
	end := startIndex + count
	if count <= 0 || end > len(records) {
		end = len(records)
	}

	return records[startIndex:end], nil
}

func (v vcRepositoryImpl) DeleteVCRecord(
	ctx context.Context, launcherID domain.Bytes32,
) error {
	err := v.update(ctx, func(tx *badger.Txn) error {
		return v.db.vcStore.TxDelete(tx, launcherID, domain.VCRecord{})
	})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return domain.ErrVCNotFound
	}

	return err
}

func (v vcRepositoryImpl) findVCRecords(
	ctx context.Context, query *badgerhold.Query,
) ([]domain.VCRecord, error) {
	var records []domain.VCRecord
	err := v.view(ctx, func(tx *badger.Txn) error {
		return v.db.vcStore.TxFind(tx, &records, query)
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (v vcRepositoryImpl) view(
	ctx context.Context, fn func(tx *badger.Txn) error,
) error {
	if tx, ok := ctx.Value(vcTxKey).(*badger.Txn); ok {
		return fn(tx)
	}

	tx := v.db.vcStore.Badger().NewTransaction(false)
	defer tx.Discard()

	return fn(tx)
}

func (v vcRepositoryImpl) update(
	ctx context.Context, fn func(tx *badger.Txn) error,
) error {
	if tx, ok := ctx.Value(vcTxKey).(*badger.Txn); ok {
		return fn(tx)
	}

	tx := v.db.vcStore.Badger().NewTransaction(true)
	defer tx.Discard()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}
