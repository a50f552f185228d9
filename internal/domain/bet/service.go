package bet

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/betpulse/betpulse-api/internal/domain/ledger"
	"github.com/betpulse/betpulse-api/internal/domain/wallet"
	"github.com/betpulse/betpulse-api/internal/pkg/metrics"
	"github.com/betpulse/betpulse-api/internal/pkg/odds"
	"github.com/betpulse/betpulse-api/internal/pkg/pgtx"
)

// SelectionInput is one leg of a placement request. Odds arrive as a
// decimal string straight from the odds feed the client saw.
type SelectionInput struct {
	Market    string `json:"market" validate:"required"`
	Selection string `json:"selection" validate:"required"`
	Odds      string `json:"odds" validate:"required"`
}

// PlaceInput is a validated placement request.
type PlaceInput struct {
	EventID    string
	BetType    Type
	Selections []SelectionInput
	Stake      int64
}

// Service is the bet engine: it ties wallet mutations to bet records so a
// bet can never exist without its stake debit, and a payout can never be
// applied twice.
type Service struct {
	db       *sqlx.DB
	repo     *Repository
	wallet   *wallet.Service
	gateway  MarketGateway
	catalog  EventCatalog
	maxStake int64
}

func NewService(db *sqlx.DB, repo *Repository, walletSvc *wallet.Service, gateway MarketGateway, catalog EventCatalog, maxStake int64) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		wallet:   walletSvc,
		gateway:  gateway,
		catalog:  catalog,
		maxStake: maxStake,
	}
}

// PlaceBet validates the request against the catalog and gateway, then
// debits the stake and creates the pending bet in one transaction.
// External lookups happen before the transaction so the per-user wallet
// lock is never held across network I/O.
func (s *Service) PlaceBet(ctx context.Context, userID uuid.UUID, in PlaceInput) (*Bet, error) {
	if in.Stake <= 0 || (s.maxStake > 0 && in.Stake > s.maxStake) {
		return nil, ErrInvalidStake
	}
	if !in.BetType.Valid() {
		return nil, ErrInvalidBetType
	}
	switch in.BetType {
	case TypeSingle:
		if len(in.Selections) != 1 {
			return nil, ErrInvalidSelections
		}
	default:
		if len(in.Selections) < 2 {
			return nil, ErrInvalidSelections
		}
	}

	selections := make(Selections, 0, len(in.Selections))
	prices := make([]decimal.Decimal, 0, len(in.Selections))
	for _, sel := range in.Selections {
		price, err := odds.Parse(sel.Odds)
		if err != nil {
			return nil, ErrInvalidOdds
		}
		selections = append(selections, Selection{
			Market:    sel.Market,
			Selection: sel.Selection,
			Odds:      price,
		})
		prices = append(prices, price)
	}

	ev, err := s.catalog.GetEvent(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, ErrEventNotFound
	}
	if ev.Status != EventUpcoming && ev.Status != EventLive {
		return nil, ErrMarketClosed
	}
	for _, sel := range selections {
		open, err := s.gateway.IsMarketOpen(ctx, in.EventID, sel.Market)
		if err != nil {
			return nil, err
		}
		if !open {
			return nil, ErrMarketClosed
		}
	}

	b := &Bet{
		ID:           uuid.New(),
		UserID:       userID,
		EventID:      ev.ID,
		EventName:    ev.Name,
		Sport:        ev.Sport,
		Type:         in.BetType,
		Selections:   selections,
		Stake:        in.Stake,
		PotentialWin: odds.PotentialWin(in.Stake, prices),
		Status:       StatusPending,
		IsLive:       ev.Status == EventLive,
		PlacedAt:     time.Now(),
	}

	err = pgtx.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		_, err := s.wallet.DebitInTx(ctx, tx, userID, in.Stake, ledger.TypeBetStake, wallet.Meta{
			BetID:     uuid.NullUUID{UUID: b.ID, Valid: true},
			Reference: "stake:" + b.ID.String(),
		})
		if err != nil {
			return err
		}
		return s.repo.CreateInTx(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}

	metrics.BetsPlaced.Inc()
	log.Info().
		Str("bet_id", b.ID.String()).
		Str("user_id", userID.String()).
		Str("event_id", b.EventID).
		Int64("stake", b.Stake).
		Int64("potential_win", b.PotentialWin).
		Msg("bet placed")
	return b, nil
}

// Settle resolves a pending bet. It is idempotent: a bet already in a
// terminal state is returned unchanged and nothing is credited again.
// The payout credit and the status flip commit in one transaction, so a
// failed credit leaves the bet pending and the settlement retryable.
func (s *Service) Settle(ctx context.Context, betID uuid.UUID, outcomes []SelectionOutcome) (*Bet, error) {
	var settled *Bet
	err := pgtx.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		b, err := s.repo.GetForUpdateInTx(ctx, tx, betID)
		if err != nil {
			return err
		}
		if b.Status.Terminal() {
			settled = b
			return nil
		}

		resolved, err := applyOutcomes(b.Selections, outcomes)
		if err != nil {
			return err
		}
		status, payout := aggregate(resolved, b.Stake)

		now := time.Now()
		b.Selections = resolved
		b.Status = status
		b.SettledAt = sql.NullTime{Time: now, Valid: true}
		b.ActualWin = sql.NullInt64{Int64: 0, Valid: true}

		switch status {
		case StatusWon:
			if _, err := s.wallet.CreditInTx(ctx, tx, b.UserID, payout, ledger.TypeBetPayout, wallet.Meta{
				BetID:     uuid.NullUUID{UUID: b.ID, Valid: true},
				Reference: "payout:" + b.ID.String(),
			}); err != nil {
				return err
			}
			b.ActualWin = sql.NullInt64{Int64: payout, Valid: true}
		case StatusVoid:
			if _, err := s.wallet.CreditInTx(ctx, tx, b.UserID, b.Stake, ledger.TypeRefund, wallet.Meta{
				BetID:     uuid.NullUUID{UUID: b.ID, Valid: true},
				Reference: "refund:" + b.ID.String(),
			}); err != nil {
				return err
			}
		}

		if err := s.repo.SettleInTx(ctx, tx, b); err != nil {
			return err
		}
		settled = b

		metrics.BetsSettled.WithLabelValues(string(status)).Inc()
		log.Info().
			Str("bet_id", b.ID.String()).
			Str("user_id", b.UserID.String()).
			Str("status", string(status)).
			Int64("payout", payout).
			Msg("bet settled")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// Cashout settles a live pending bet early at the gateway-supplied value.
// The engine trusts the valuation; it only enforces state legality.
func (s *Service) Cashout(ctx context.Context, userID, betID uuid.UUID, amount int64) (*Bet, error) {
	if amount <= 0 {
		return nil, ErrCashoutUnavailable
	}

	var out *Bet
	err := pgtx.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		b, err := s.repo.GetForUpdateInTx(ctx, tx, betID)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrNotFound
		}
		if b.Status != StatusPending || !b.IsLive {
			return ErrInvalidState
		}

		if _, err := s.wallet.CreditInTx(ctx, tx, b.UserID, amount, ledger.TypeBetPayout, wallet.Meta{
			BetID:     uuid.NullUUID{UUID: b.ID, Valid: true},
			Reference: "cashout:" + b.ID.String(),
		}); err != nil {
			return err
		}

		now := time.Now()
		b.Status = StatusCashout
		b.ActualWin = sql.NullInt64{Int64: amount, Valid: true}
		b.CashoutAmount = sql.NullInt64{Int64: amount, Valid: true}
		b.CashoutAt = sql.NullTime{Time: now, Valid: true}
		b.SettledAt = sql.NullTime{Time: now, Valid: true}

		if err := s.repo.SettleInTx(ctx, tx, b); err != nil {
			return err
		}
		out = b

		metrics.BetsSettled.WithLabelValues(string(StatusCashout)).Inc()
		log.Info().
			Str("bet_id", b.ID.String()).
			Str("user_id", b.UserID.String()).
			Int64("cashout_amount", amount).
			Msg("bet cashed out")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetBet returns one of the user's bets.
func (s *Service) GetBet(ctx context.Context, userID, betID uuid.UUID) (*Bet, error) {
	b, err := s.repo.GetByID(ctx, betID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrNotFound
	}
	return b, nil
}

// ListBets lists the user's bets newest-first.
func (s *Service) ListBets(ctx context.Context, userID uuid.UUID, status Status, cursor string, limit int) ([]Bet, string, error) {
	return s.repo.ListByUser(ctx, userID, status, cursor, limit)
}

// CashoutValue asks the gateway for the current live valuation.
func (s *Service) CashoutValue(ctx context.Context, betID uuid.UUID) (int64, error) {
	value, ok, err := s.gateway.CurrentCashoutValue(ctx, betID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrCashoutUnavailable
	}
	return value, nil
}
