package ledger

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// EntryType classifies a balance-affecting event.
type EntryType string

const (
	TypeDeposit    EntryType = "deposit"
	TypeWithdrawal EntryType = "withdrawal"
	TypeBetStake   EntryType = "bet_stake"
	TypeBetPayout  EntryType = "bet_payout"
	TypeBonus      EntryType = "bonus"
	TypeRefund     EntryType = "refund"
	TypeCashback   EntryType = "cashback"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeBetStake, TypeBetPayout, TypeBonus, TypeRefund, TypeCashback:
		return true
	}
	return false
}

// Entry is one immutable ledger fact. Amount is signed and in minor
// currency units; BalanceAfter is the user's derived balance once this
// entry is applied. Entries are never updated or deleted; corrections
// happen through compensating entries.
type Entry struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	Seq          int64          `db:"seq" json:"-"`
	UserID       uuid.UUID      `db:"user_id" json:"user_id"`
	Type         EntryType      `db:"type" json:"type"`
	Amount       int64          `db:"amount" json:"amount"`
	Currency     string         `db:"currency" json:"currency"`
	BalanceAfter int64          `db:"balance_after" json:"balance_after"`
	RelatedBetID uuid.NullUUID  `db:"related_bet_id" json:"related_bet_id,omitempty"`
	Reference    sql.NullString `db:"reference" json:"reference,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// Input describes an entry to be appended.
type Input struct {
	UserID       uuid.UUID
	Type         EntryType
	Amount       int64 // signed
	RelatedBetID uuid.NullUUID
	Reference    string // optional idempotency key, unique per (user, type)
}

// Filter narrows a history query.
type Filter struct {
	Type EntryType // empty = all types
	From time.Time // zero = unbounded
	To   time.Time // zero = unbounded
}
