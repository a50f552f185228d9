package ledger

import "errors"

var (
	ErrInvalidAmount      = errors.New("ledger amount must be a non-zero integer")
	ErrInvalidType        = errors.New("unknown ledger entry type")
	ErrInsufficientFunds  = errors.New("insufficient wallet balance")
	ErrDuplicateReference = errors.New("duplicate reference")
	ErrReferenceConflict  = errors.New("reference conflicts with different amount")
	ErrLockTimeout        = errors.New("wallet lock wait timed out, retry the operation")
)
