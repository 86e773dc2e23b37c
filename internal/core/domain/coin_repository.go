package domain

import "context"

// CoinRepository is the persistent store of coin lifecycle records.
// Write operations run inside a transaction boundary per logical update;
// queries may run concurrently with writes under snapshot isolation.
type CoinRepository interface {
	// AddCoinRecord inserts the record, replacing any existing row with the
	// same coin name. It fails if the record violates Validate.
	AddCoinRecord(ctx context.Context, record CoinRecord) error
	// GetCoinRecord returns the record with the given coin name, or
	// ErrCoinNotFound.
	GetCoinRecord(ctx context.Context, name Bytes32) (*CoinRecord, error)
	// GetCoinRecords returns the records among names confirmed inside
	// [startHeight, endHeight), optionally excluding spent coins. Missing
	// names are skipped, not errors.
	GetCoinRecords(
		ctx context.Context,
		names []Bytes32,
		includeSpent bool,
		startHeight, endHeight uint32,
	) ([]CoinRecord, error)
	// GetCoinRecordsBetween pages a wallet's records ordered by confirmation
	// height.
	GetCoinRecordsBetween(
		ctx context.Context,
		walletID uint32,
		start, end int,
		reverse bool,
	) ([]CoinRecord, error)
	// GetUnspentCoinsForWallet returns the wallet's unspent set.
	GetUnspentCoinsForWallet(ctx context.Context, walletID uint32) ([]CoinRecord, error)
	// GetAllUnspentCoins returns the global unspent set.
	GetAllUnspentCoins(ctx context.Context) ([]CoinRecord, error)
	// CountSmallUnspent counts unspent coins with amount below cutoff.
	CountSmallUnspent(ctx context.Context, cutoff uint64) (int, error)
	// SetSpent marks the coin spent at the given height.
	SetSpent(ctx context.Context, name Bytes32, height uint32) error
	// RollbackToBlock deletes every record confirmed after height and resets
	// to unspent every record spent after it, atomically.
	RollbackToBlock(ctx context.Context, height uint32) error
}
