package market

import (
	"time"

	"github.com/betpulse/betpulse-api/internal/domain/bet"
)

// Event is a row in the events catalog. The catalog is consulted by the
// bet engine but owned by whatever feeds it (fixtures import, simulator).
type Event struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Sport     string          `db:"sport" json:"sport"`
	League    string          `db:"league" json:"league,omitempty"`
	HomeTeam  string          `db:"home_team" json:"home_team,omitempty"`
	AwayTeam  string          `db:"away_team" json:"away_team,omitempty"`
	Status    bet.EventStatus `db:"status" json:"status"`
	StartTime time.Time       `db:"start_time" json:"start_time"`
	EndTime   time.Time       `db:"end_time" json:"end_time"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// OddsQuote is the cached current price set for one market of an event.
// Prices are decimal strings keyed by selection name.
type OddsQuote struct {
	EventID   string            `json:"event_id"`
	Market    string            `json:"market"`
	Prices    map[string]string `json:"prices"`
	UpdatedAt time.Time         `json:"updated_at"`
}
