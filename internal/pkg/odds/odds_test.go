package odds_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/betpulse/betpulse-api/internal/pkg/odds"
)

func TestParseRejectsBelowMinimum(t *testing.T) {
	cases := []string{"1.00", "0.5", "-2", "abc", ""}
	for _, c := range cases {
		if _, err := odds.Parse(c); !errors.Is(err, odds.ErrInvalidOdds) {
			t.Errorf("Parse(%q): expected ErrInvalidOdds, got %v", c, err)
		}
	}

	d, err := odds.Parse("1.01")
	if err != nil {
		t.Fatalf("Parse(1.01) failed: %v", err)
	}
	if !d.Equal(odds.MinOdds) {
		t.Fatalf("expected 1.01, got %s", d)
	}
}

func TestPotentialWinSingle(t *testing.T) {
	price := decimal.RequireFromString("2.50")
	if win := odds.PotentialWin(1000, []decimal.Decimal{price}); win != 2500 {
		t.Fatalf("expected 2500, got %d", win)
	}
}

func TestPotentialWinMultiple(t *testing.T) {
	prices := []decimal.Decimal{
		decimal.RequireFromString("1.50"),
		decimal.RequireFromString("2.00"),
	}
	if win := odds.PotentialWin(500, prices); win != 1500 {
		t.Fatalf("expected 1500, got %d", win)
	}
}

func TestPotentialWinTruncates(t *testing.T) {
	// 100 * 1.333 = 133.3 -> 133, never rounded up
	price := decimal.RequireFromString("1.333")
	if win := odds.PotentialWin(100, []decimal.Decimal{price}); win != 133 {
		t.Fatalf("expected 133, got %d", win)
	}
}

func TestPotentialWinNoFloatDrift(t *testing.T) {
	// 0.1-style prices that misbehave under float64 must stay exact
	prices := []decimal.Decimal{
		decimal.RequireFromString("1.10"),
		decimal.RequireFromString("1.10"),
		decimal.RequireFromString("1.10"),
	}
	// 1000 * 1.331 = 1331 exactly
	if win := odds.PotentialWin(1000, prices); win != 1331 {
		t.Fatalf("expected 1331, got %d", win)
	}
}
