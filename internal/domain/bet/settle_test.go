package bet

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func leg(market, selection, price string) Selection {
	return Selection{
		Market:    market,
		Selection: selection,
		Odds:      decimal.RequireFromString(price),
	}
}

func outcome(market, selection string, o Outcome) SelectionOutcome {
	return SelectionOutcome{Market: market, Selection: selection, Outcome: o}
}

func TestApplyOutcomesResolvesAllLegs(t *testing.T) {
	selections := Selections{
		leg("match_winner", "home", "1.50"),
		leg("total_runs", "over_160", "2.00"),
	}
	resolved, err := applyOutcomes(selections, []SelectionOutcome{
		outcome("match_winner", "home", OutcomeWin),
		outcome("total_runs", "over_160", OutcomeLose),
	})
	if err != nil {
		t.Fatalf("applyOutcomes failed: %v", err)
	}
	if resolved[0].Outcome != OutcomeWin || resolved[1].Outcome != OutcomeLose {
		t.Fatalf("outcomes not applied: %+v", resolved)
	}
}

func TestApplyOutcomesRejectsPartialSettlement(t *testing.T) {
	selections := Selections{
		leg("match_winner", "home", "1.50"),
		leg("total_runs", "over_160", "2.00"),
	}
	_, err := applyOutcomes(selections, []SelectionOutcome{
		outcome("match_winner", "home", OutcomeWin),
	})
	if !errors.Is(err, ErrInvalidOutcome) {
		t.Fatalf("expected ErrInvalidOutcome for unresolved leg, got %v", err)
	}
}

func TestApplyOutcomesRejectsUnknownLeg(t *testing.T) {
	selections := Selections{leg("match_winner", "home", "1.50")}
	_, err := applyOutcomes(selections, []SelectionOutcome{
		outcome("match_winner", "home", OutcomeWin),
		outcome("first_goal", "away", OutcomeWin),
	})
	if !errors.Is(err, ErrInvalidOutcome) {
		t.Fatalf("expected ErrInvalidOutcome for unknown leg, got %v", err)
	}
}

func TestApplyOutcomesRejectsBadOutcome(t *testing.T) {
	selections := Selections{leg("match_winner", "home", "1.50")}
	_, err := applyOutcomes(selections, []SelectionOutcome{
		outcome("match_winner", "home", Outcome("draw")),
	})
	if !errors.Is(err, ErrInvalidOutcome) {
		t.Fatalf("expected ErrInvalidOutcome for unknown outcome value, got %v", err)
	}
}

func TestAggregateSingleWin(t *testing.T) {
	selections := Selections{leg("match_winner", "home", "2.50")}
	selections[0].Outcome = OutcomeWin

	status, payout := aggregate(selections, 1000)
	if status != StatusWon || payout != 2500 {
		t.Fatalf("expected won/2500, got %s/%d", status, payout)
	}
}

func TestAggregateMultipleWin(t *testing.T) {
	selections := Selections{
		leg("match_winner", "home", "1.50"),
		leg("total_runs", "over_160", "2.00"),
	}
	selections[0].Outcome = OutcomeWin
	selections[1].Outcome = OutcomeWin

	status, payout := aggregate(selections, 500)
	if status != StatusWon || payout != 1500 {
		t.Fatalf("expected won/1500, got %s/%d", status, payout)
	}
}

func TestAggregateAnyLostLegLosesBet(t *testing.T) {
	selections := Selections{
		leg("match_winner", "home", "1.50"),
		leg("total_runs", "over_160", "2.00"),
		leg("top_scorer", "player_9", "4.00"),
	}
	selections[0].Outcome = OutcomeWin
	selections[1].Outcome = OutcomeLose
	selections[2].Outcome = OutcomeWin

	status, payout := aggregate(selections, 1000)
	if status != StatusLost || payout != 0 {
		t.Fatalf("expected lost/0, got %s/%d", status, payout)
	}
}

func TestAggregateVoidLegCollapsesToEvens(t *testing.T) {
	selections := Selections{
		leg("match_winner", "home", "1.50"),
		leg("total_runs", "over_160", "2.00"),
	}
	selections[0].Outcome = OutcomeWin
	selections[1].Outcome = OutcomeVoid

	status, payout := aggregate(selections, 500)
	if status != StatusWon || payout != 750 {
		t.Fatalf("expected won/750 with void leg dropped, got %s/%d", status, payout)
	}
}

func TestAggregateAllVoidRefundsStake(t *testing.T) {
	selections := Selections{
		leg("match_winner", "home", "1.50"),
		leg("total_runs", "over_160", "2.00"),
	}
	selections[0].Outcome = OutcomeVoid
	selections[1].Outcome = OutcomeVoid

	status, payout := aggregate(selections, 777)
	if status != StatusVoid || payout != 777 {
		t.Fatalf("expected void/777 refund, got %s/%d", status, payout)
	}
}

func TestAggregatePayoutTruncatesFractionalMinorUnits(t *testing.T) {
	selections := Selections{leg("match_winner", "home", "1.333")}
	selections[0].Outcome = OutcomeWin

	_, payout := aggregate(selections, 100)
	if payout != 133 {
		t.Fatalf("expected truncated payout 133, got %d", payout)
	}
}

func TestAggregateNoFloatDrift(t *testing.T) {
	// 1000 * 1.10^3 must be exactly 1331, which binary floats get wrong.
	selections := Selections{
		leg("m1", "a", "1.10"),
		leg("m2", "b", "1.10"),
		leg("m3", "c", "1.10"),
	}
	for i := range selections {
		selections[i].Outcome = OutcomeWin
	}

	_, payout := aggregate(selections, 1000)
	if payout != 1331 {
		t.Fatalf("expected exact 1331, got %d", payout)
	}
}
