package ports

import (
	"context"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
)

// RepoManager gives access to every repository and to the transaction
// boundary wrapping logical updates. A crash mid-update must never leave a
// partially applied record: either the whole handler commits or none of it.
type RepoManager interface {
	CoinRepository() domain.CoinRepository
	VCRepository() domain.VCRepository

	Close()

	RunTransaction(
		ctx context.Context,
		readOnly bool,
		handler func(ctx context.Context) (interface{}, error),
	) (interface{}, error)
}

// Transaction defines the method to commit or discard a database transaction.
type Transaction interface {
	Commit() error
	Discard()
}
