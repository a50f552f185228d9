package wallet

import "errors"

var (
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrInvalidType   = errors.New("entry type not allowed for this operation")
)
