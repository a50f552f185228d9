package bet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CreateInTx inserts a pending bet inside the caller's transaction so it
// commits atomically with the stake debit.
func (r *Repository) CreateInTx(ctx context.Context, tx *sqlx.Tx, b *Bet) error {
	row := tx.QueryRowxContext(ctx, `
		INSERT INTO bets (id, user_id, event_id, event_name, sport, bet_type, selections,
		                  stake, potential_win, status, is_live, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq, created_at, updated_at
	`, b.ID, b.UserID, b.EventID, b.EventName, b.Sport, string(b.Type), b.Selections,
		b.Stake, b.PotentialWin, string(b.Status), b.IsLive, b.PlacedAt)
	if err := row.Scan(&b.Seq, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("insert bet: %w", err)
	}
	return nil
}

// GetByID fetches one bet.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Bet, error) {
	var b Bet
	err := r.db.GetContext(ctx, &b, `SELECT * FROM bets WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bet: %w", err)
	}
	return &b, nil
}

// GetForUpdateInTx fetches one bet with a row lock. Settlement and
// cashout both load through this so only one of them can advance a
// pending bet.
func (r *Repository) GetForUpdateInTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Bet, error) {
	var b Bet
	err := tx.GetContext(ctx, &b, `SELECT * FROM bets WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bet for update: %w", err)
	}
	return &b, nil
}

// SettleInTx writes the terminal state. The status guard means a bet that
// already left pending is never overwritten, even on a racing retry.
func (r *Repository) SettleInTx(ctx context.Context, tx *sqlx.Tx, b *Bet) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE bets
		SET status = $1, selections = $2, actual_win = $3, settled_at = $4,
		    cashout_amount = $5, cashout_at = $6, updated_at = now()
		WHERE id = $7 AND status = 'pending'
	`, string(b.Status), b.Selections, b.ActualWin, b.SettledAt, b.CashoutAmount, b.CashoutAt, b.ID)
	if err != nil {
		return fmt.Errorf("settle bet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("settle bet rows: %w", err)
	}
	if n == 0 {
		return ErrInvalidState
	}
	return nil
}

// ListByUser returns the user's bets newest-first with cursor pagination.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, status Status, cursor string, limit int) ([]Bet, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT * FROM bets WHERE user_id = $1`
	args := []interface{}{userID}

	if status != "" {
		args = append(args, string(status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if cursor != "" {
		before, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", err)
		}
		args = append(args, before)
		query += fmt.Sprintf(" AND seq < $%d", len(args))
	}

	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY seq DESC LIMIT $%d", len(args))

	var bets []Bet
	if err := r.db.SelectContext(ctx, &bets, query, args...); err != nil {
		return nil, "", fmt.Errorf("list bets: %w", err)
	}

	next := ""
	if len(bets) > limit {
		bets = bets[:limit]
		next = strconv.FormatInt(bets[limit-1].Seq, 10)
	}
	return bets, next, nil
}
