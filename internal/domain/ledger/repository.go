package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/betpulse/betpulse-api/internal/pkg/pgtx"
)

// Repository is the append-only ledger store. The user's balance is never
// a mutable column: it is the balance_after of the newest entry, and new
// entries are computed from it while holding the user's wallet row lock.
type Repository struct {
	db          *sqlx.DB
	currency    string
	lockTimeout time.Duration
}

func NewRepository(db *sqlx.DB, currency string, lockTimeout time.Duration) *Repository {
	return &Repository{db: db, currency: currency, lockTimeout: lockTimeout}
}

// EnsureWallet creates the per-user wallet row used as the lock anchor.
func (r *Repository) EnsureWallet(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallets (user_id, currency)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, r.currency)
	return err
}

// LockWallet takes the per-user mutation lock inside tx. The wait is
// bounded by the configured lock_timeout; exceeding it returns
// ErrLockTimeout, which callers may retry.
func (r *Repository) LockWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (user_id, currency)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, r.currency); err != nil {
		return fmt.Errorf("ensure wallet: %w", err)
	}

	// SET LOCAL scopes the timeout to this transaction.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", r.lockTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}

	var locked uuid.UUID
	err := tx.GetContext(ctx, &locked, `SELECT user_id FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "55P03" {
			return ErrLockTimeout
		}
		return fmt.Errorf("lock wallet: %w", err)
	}
	return nil
}

// AppendInTx appends one entry inside the caller's transaction. It takes
// the wallet lock, derives balance_after from the newest entry, enforces
// the non-negative balance floor and reference idempotency, and inserts.
func (r *Repository) AppendInTx(ctx context.Context, tx *sqlx.Tx, in Input) (*Entry, error) {
	if in.Amount == 0 {
		return nil, ErrInvalidAmount
	}
	if !in.Type.Valid() {
		return nil, ErrInvalidType
	}

	if err := r.LockWallet(ctx, tx, in.UserID); err != nil {
		return nil, err
	}

	// Idempotent replay: same (user, type, reference) with the same
	// amount returns the original entry instead of double-applying.
	if in.Reference != "" {
		existing, err := r.getByReference(ctx, tx, in.UserID, in.Type, in.Reference)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.Amount != in.Amount {
				return nil, ErrReferenceConflict
			}
			return existing, nil
		}
	}

	var prev int64
	err := tx.GetContext(ctx, &prev, `
		SELECT balance_after
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`, in.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read latest entry: %w", err)
	}

	next := prev + in.Amount
	if next < 0 {
		return nil, ErrInsufficientFunds
	}

	entry := Entry{
		ID:           uuid.New(),
		UserID:       in.UserID,
		Type:         in.Type,
		Amount:       in.Amount,
		Currency:     r.currency,
		BalanceAfter: next,
		RelatedBetID: in.RelatedBetID,
	}
	if in.Reference != "" {
		entry.Reference = sql.NullString{String: in.Reference, Valid: true}
	}

	row := tx.QueryRowxContext(ctx, `
		INSERT INTO ledger_entries (id, user_id, type, amount, currency, balance_after, related_bet_id, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq, created_at
	`, entry.ID, entry.UserID, string(entry.Type), entry.Amount, entry.Currency, entry.BalanceAfter, entry.RelatedBetID, entry.Reference)
	if err := row.Scan(&entry.Seq, &entry.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateReference
		}
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}

	return &entry, nil
}

func (r *Repository) getByReference(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, t EntryType, reference string) (*Entry, error) {
	var entry Entry
	err := tx.GetContext(ctx, &entry, `
		SELECT * FROM ledger_entries
		WHERE user_id = $1 AND type = $2 AND reference = $3
		LIMIT 1
	`, userID, string(t), reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("entry by reference: %w", err)
	}
	return &entry, nil
}

// Append appends one entry in its own transaction.
func (r *Repository) Append(ctx context.Context, in Input) (*Entry, error) {
	var entry *Entry
	err := pgtx.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		entry, err = r.AppendInTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Latest returns the user's newest entry, or nil for a fresh wallet.
func (r *Repository) Latest(ctx context.Context, userID uuid.UUID) (*Entry, error) {
	var entry Entry
	err := r.db.GetContext(ctx, &entry, `
		SELECT * FROM ledger_entries
		WHERE user_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest entry: %w", err)
	}
	return &entry, nil
}

// Balance returns the derived balance: balance_after of the newest entry,
// 0 when the user has no entries.
func (r *Repository) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	entry, err := r.Latest(ctx, userID)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return 0, nil
	}
	return entry.BalanceAfter, nil
}

// History returns entries newest-first with cursor pagination. The cursor
// is the seq of the last entry from the previous page.
func (r *Repository) History(ctx context.Context, userID uuid.UUID, f Filter, cursor string, limit int) ([]Entry, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT * FROM ledger_entries WHERE user_id = $1`
	args := []interface{}{userID}

	if f.Type != "" {
		args = append(args, string(f.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
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

	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, "", fmt.Errorf("ledger history: %w", err)
	}

	next := ""
	if len(entries) > limit {
		entries = entries[:limit]
		next = strconv.FormatInt(entries[limit-1].Seq, 10)
	}
	return entries, next, nil
}
