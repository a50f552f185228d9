package bet

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type is the bet composition: one leg, all legs must win, or system.
type Type string

const (
	TypeSingle   Type = "single"
	TypeMultiple Type = "multiple"
	TypeSystem   Type = "system"
)

func (t Type) Valid() bool {
	return t == TypeSingle || t == TypeMultiple || t == TypeSystem
}

// Status is the bet lifecycle state. A bet leaves pending exactly once.
type Status string

const (
	StatusPending Status = "pending"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
	StatusVoid    Status = "void"
	StatusCashout Status = "cashout"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusVoid || s == StatusCashout
}

// Outcome is the result of one selection.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeVoid Outcome = "void"
)

func (o Outcome) Valid() bool {
	return o == OutcomeWin || o == OutcomeLose || o == OutcomeVoid
}

// Selection is one leg of a bet. Odds are decimal and serialized as
// strings so no float ever touches payout arithmetic.
type Selection struct {
	Market    string          `json:"market"`
	Selection string          `json:"selection"`
	Odds      decimal.Decimal `json:"odds"`
	Outcome   Outcome         `json:"outcome,omitempty"`
}

// Selections is stored as a JSONB column.
type Selections []Selection

func (s Selections) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *Selections) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	case nil:
		*s = nil
		return nil
	}
	return errors.New("bet: cannot scan selections")
}

// Bet is the persisted bet record. Stake and win amounts are integers in
// minor currency units.
type Bet struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	Seq           int64         `db:"seq" json:"-"`
	UserID        uuid.UUID     `db:"user_id" json:"user_id"`
	EventID       string        `db:"event_id" json:"event_id"`
	EventName     string        `db:"event_name" json:"event_name"`
	Sport         string        `db:"sport" json:"sport"`
	Type          Type          `db:"bet_type" json:"bet_type"`
	Selections    Selections    `db:"selections" json:"selections"`
	Stake         int64         `db:"stake" json:"stake"`
	PotentialWin  int64         `db:"potential_win" json:"potential_win"`
	ActualWin     sql.NullInt64 `db:"actual_win" json:"actual_win,omitempty"`
	Status        Status        `db:"status" json:"status"`
	IsLive        bool          `db:"is_live" json:"is_live"`
	PlacedAt      time.Time     `db:"placed_at" json:"placed_at"`
	SettledAt     sql.NullTime  `db:"settled_at" json:"settled_at,omitempty"`
	CashoutAmount sql.NullInt64 `db:"cashout_amount" json:"cashout_amount,omitempty"`
	CashoutAt     sql.NullTime  `db:"cashout_at" json:"cashout_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// EventStatus mirrors the catalog's view of an event.
type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventLive      EventStatus = "live"
	EventFinished  EventStatus = "finished"
	EventCancelled EventStatus = "cancelled"
)

// EventInfo is what the engine needs to know about an event at placement
// time. Supplied by the external catalog, never owned here.
type EventInfo struct {
	ID        string
	Name      string
	Sport     string
	Status    EventStatus
	StartTime time.Time
	EndTime   time.Time
}

// MarketGateway is the external odds supplier consulted at placement and
// trusted for cashout valuations.
type MarketGateway interface {
	IsMarketOpen(ctx context.Context, eventID, market string) (bool, error)
	// CurrentCashoutValue returns the live valuation for a bet; ok is
	// false when no valuation is available.
	CurrentCashoutValue(ctx context.Context, betID uuid.UUID) (value int64, ok bool, err error)
}

// EventCatalog supplies event metadata.
type EventCatalog interface {
	GetEvent(ctx context.Context, eventID string) (*EventInfo, error)
}
