package domain

import "errors"

var (
	// ErrDriverMismatch is thrown when a caller-declared asset driver disagrees
	// with the one derived from the owning wallet.
	ErrDriverMismatch = errors.New("declared asset driver does not match the wallet-derived driver")
	// ErrWalletNotIntegrated is thrown when the wallet owning an offered asset
	// cannot describe its puzzle layers.
	ErrWalletNotIntegrated = errors.New("wallet is not properly integrated for trading")
	// ErrAmbiguousSpend is thrown when more than one matcher claims a spend.
	ErrAmbiguousSpend = errors.New("multiple ways to describe spend")
	// ErrUnconsumedActions is thrown when lowering leaves actions unattached to
	// any resulting spend.
	ErrUnconsumedActions = errors.New("unable to attach every action to a spend")
	// ErrMultipleDLInclusions is thrown when a spend carries more than one
	// data-layer inclusion graftroot.
	ErrMultipleDLInclusions = errors.New("legacy offers only support one graftroot for dl inclusions")
	// ErrUnknownActionType is thrown when a generic action map carries an
	// unrecognized discriminant.
	ErrUnknownActionType = errors.New("unknown action type")
	// ErrBaseModNotFound is thrown when a legacy requested-payment puzzle does
	// not contain the settlement template anywhere in its stack.
	ErrBaseModNotFound = errors.New("could not find the settlement template in the requested payments puzzle")
	// ErrCoinNotFound ...
	ErrCoinNotFound = errors.New("coin record not found")
	// ErrVCNotFound ...
	ErrVCNotFound = errors.New("verified credential record not found")
	// ErrUnsupportedOperation is thrown when a wallet kind does not support
	// the requested capability, eg. coin selection on a VC wallet.
	ErrUnsupportedOperation = errors.New("operation not supported by this wallet kind")
	// ErrInsufficientFunds is thrown when coin selection cannot cover the
	// requested amount.
	ErrInsufficientFunds = errors.New("not enough spendable coins to cover the requested amount")
	// ErrInconsistentSpentState is thrown when a coin record violates
	// spent == (spent_height != 0).
	ErrInconsistentSpentState = errors.New("coin record spent flag disagrees with its spent height")
)
