package market

import "errors"

var (
	ErrEventNotFound = errors.New("event not found")
	ErrNoQuote       = errors.New("no cached odds for this market")
)
