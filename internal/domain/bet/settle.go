package bet

import (
	"github.com/shopspring/decimal"

	"github.com/betpulse/betpulse-api/internal/pkg/odds"
)

// SelectionOutcome is one resolved leg from the settlement feed.
type SelectionOutcome struct {
	Market    string  `json:"market"`
	Selection string  `json:"selection"`
	Outcome   Outcome `json:"outcome"`
}

// applyOutcomes matches feed outcomes onto the bet's selections. Every
// leg must end up resolved or the settlement is rejected; a partially
// settled bet has no decidable aggregate.
func applyOutcomes(selections Selections, outcomes []SelectionOutcome) (Selections, error) {
	resolved := make(Selections, len(selections))
	copy(resolved, selections)

	for _, out := range outcomes {
		if !out.Outcome.Valid() {
			return nil, ErrInvalidOutcome
		}
		matched := false
		for i := range resolved {
			if resolved[i].Market == out.Market && resolved[i].Selection == out.Selection {
				resolved[i].Outcome = out.Outcome
				matched = true
			}
		}
		if !matched {
			return nil, ErrInvalidOutcome
		}
	}

	for i := range resolved {
		if resolved[i].Outcome == "" {
			return nil, ErrInvalidOutcome
		}
	}
	return resolved, nil
}

// aggregate folds resolved legs into the bet's terminal state and payout.
//
// Any lost leg loses the whole bet. Void legs drop out of the price (the
// leg collapses to 1.0). All legs void refunds the full stake.
func aggregate(selections Selections, stake int64) (Status, int64) {
	allVoid := true
	prices := make([]decimal.Decimal, 0, len(selections))

	for _, sel := range selections {
		switch sel.Outcome {
		case OutcomeLose:
			return StatusLost, 0
		case OutcomeWin:
			allVoid = false
			prices = append(prices, sel.Odds)
		case OutcomeVoid:
			// collapses to 1.0, contributes nothing to the price
		}
	}

	if allVoid {
		return StatusVoid, stake
	}
	return StatusWon, odds.PotentialWin(stake, prices)
}
