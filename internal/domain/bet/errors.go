package bet

import "errors"

var (
	ErrNotFound           = errors.New("bet not found")
	ErrInvalidStake       = errors.New("stake must be a positive amount within the limit")
	ErrInvalidBetType     = errors.New("invalid bet type")
	ErrInvalidSelections  = errors.New("selections do not match the bet type")
	ErrInvalidOdds        = errors.New("odds must be at least 1.01")
	ErrEventNotFound      = errors.New("event not found")
	ErrMarketClosed       = errors.New("event or market is closed for betting")
	ErrInvalidState       = errors.New("bet is not in a state that allows this operation")
	ErrInvalidOutcome     = errors.New("settlement outcomes do not cover all selections")
	ErrCashoutUnavailable = errors.New("no cashout valuation available for this bet")
)
