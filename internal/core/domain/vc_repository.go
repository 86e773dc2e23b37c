package domain

import "context"

// VCRepository is the persistent store of verified credential records. Only
// the newest representation of each launcher id is retained: the launcher id
// is the primary key and upserts replace.
type VCRepository interface {
	// AddOrReplaceVCRecord stores the record, replacing any row with the same
	// launcher id.
	AddOrReplaceVCRecord(ctx context.Context, record VCRecord) error
	// GetVCRecord returns the record for the launcher id, or ErrVCNotFound.
	GetVCRecord(ctx context.Context, launcherID Bytes32) (*VCRecord, error)
	// GetVCRecordByCoinID returns the record whose current coin has the given
	// id, or ErrVCNotFound.
	GetVCRecordByCoinID(ctx context.Context, coinID Bytes32) (*VCRecord, error)
	// GetUnconfirmedVCs returns every record still pending confirmation.
	GetUnconfirmedVCs(ctx context.Context) ([]VCRecord, error)
	// GetVCRecordsByProvider returns the confirmed records authorized by the
	// given proof provider. Unconfirmed launches are not yet authoritative
	// and are excluded.
	GetVCRecordsByProvider(ctx context.Context, provider Bytes32) ([]VCRecord, error)
	// ListVCRecords pages through all records.
	ListVCRecords(ctx context.Context, startIndex, count int) ([]VCRecord, error)
	// DeleteVCRecord removes the record for the launcher id.
	DeleteVCRecord(ctx context.Context, launcherID Bytes32) error
}
