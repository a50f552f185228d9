package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/betpulse/betpulse-api/internal/domain/ledger"
	"github.com/betpulse/betpulse-api/internal/pkg/metrics"
)

// Meta ties a wallet mutation to the bet or external operation behind it.
type Meta struct {
	BetID     uuid.NullUUID
	Reference string
}

// Service is the wallet accessor: balance reads plus debit/credit that go
// through the ledger's per-user serialization. It owns no state of its
// own; the balance is always derived from the ledger.
type Service struct {
	ledger *ledger.Repository
}

func NewService(ledgerRepo *ledger.Repository) *Service {
	return &Service{ledger: ledgerRepo}
}

// Entry types are directional: a debit may only carry money-out types and
// a credit money-in types, so a mislabelled call cannot invert a balance.
var debitTypes = map[ledger.EntryType]struct{}{
	ledger.TypeWithdrawal: {},
	ledger.TypeBetStake:   {},
}

var creditTypes = map[ledger.EntryType]struct{}{
	ledger.TypeDeposit:   {},
	ledger.TypeBetPayout: {},
	ledger.TypeBonus:     {},
	ledger.TypeRefund:    {},
	ledger.TypeCashback:  {},
}

// GetBalance returns the derived balance in minor units.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.ledger.Balance(ctx, userID)
}

// Debit appends a negative entry. Fails with ledger.ErrInsufficientFunds
// when the derived balance cannot cover amount at the serialization point.
func (s *Service) Debit(ctx context.Context, userID uuid.UUID, amount int64, entryType ledger.EntryType, meta Meta) (*ledger.Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, ok := debitTypes[entryType]; !ok {
		return nil, ErrInvalidType
	}
	entry, err := s.ledger.Append(ctx, ledger.Input{
		UserID:       userID,
		Type:         entryType,
		Amount:       -amount,
		RelatedBetID: meta.BetID,
		Reference:    meta.Reference,
	})
	return s.observe(userID, entry, err, "wallet debit applied")
}

// DebitInTx is Debit running inside the caller's transaction, so a stake
// debit and the bet row it funds commit or roll back as one unit.
func (s *Service) DebitInTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, entryType ledger.EntryType, meta Meta) (*ledger.Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, ok := debitTypes[entryType]; !ok {
		return nil, ErrInvalidType
	}
	entry, err := s.ledger.AppendInTx(ctx, tx, ledger.Input{
		UserID:       userID,
		Type:         entryType,
		Amount:       -amount,
		RelatedBetID: meta.BetID,
		Reference:    meta.Reference,
	})
	return s.observe(userID, entry, err, "wallet debit applied")
}

// Credit appends a positive entry. Credits have no balance floor check.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount int64, entryType ledger.EntryType, meta Meta) (*ledger.Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, ok := creditTypes[entryType]; !ok {
		return nil, ErrInvalidType
	}
	entry, err := s.ledger.Append(ctx, ledger.Input{
		UserID:       userID,
		Type:         entryType,
		Amount:       amount,
		RelatedBetID: meta.BetID,
		Reference:    meta.Reference,
	})
	return s.observe(userID, entry, err, "wallet credit applied")
}

// CreditInTx is Credit inside the caller's transaction.
func (s *Service) CreditInTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, entryType ledger.EntryType, meta Meta) (*ledger.Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, ok := creditTypes[entryType]; !ok {
		return nil, ErrInvalidType
	}
	entry, err := s.ledger.AppendInTx(ctx, tx, ledger.Input{
		UserID:       userID,
		Type:         entryType,
		Amount:       amount,
		RelatedBetID: meta.BetID,
		Reference:    meta.Reference,
	})
	return s.observe(userID, entry, err, "wallet credit applied")
}

// Deposit credits external funds into the wallet.
func (s *Service) Deposit(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*ledger.Entry, error) {
	return s.Credit(ctx, userID, amount, ledger.TypeDeposit, Meta{Reference: reference})
}

// Withdraw debits funds out of the wallet.
func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID, amount int64, reference string) (*ledger.Entry, error) {
	return s.Debit(ctx, userID, amount, ledger.TypeWithdrawal, Meta{Reference: reference})
}

// History lists the user's ledger entries newest-first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, f ledger.Filter, cursor string, limit int) ([]ledger.Entry, string, error) {
	return s.ledger.History(ctx, userID, f, cursor, limit)
}

func (s *Service) observe(userID uuid.UUID, entry *ledger.Entry, err error, msg string) (*ledger.Entry, error) {
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientFunds):
			metrics.InsufficientFunds.Inc()
		case errors.Is(err, ledger.ErrLockTimeout):
			metrics.LockTimeouts.Inc()
		}
		return nil, err
	}

	metrics.LedgerEntries.WithLabelValues(string(entry.Type)).Inc()
	log.Info().
		Str("user_id", userID.String()).
		Str("type", string(entry.Type)).
		Int64("amount", entry.Amount).
		Int64("balance_after", entry.BalanceAfter).
		Msg(msg)
	return entry, nil
}
