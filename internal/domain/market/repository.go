package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/betpulse/betpulse-api/internal/domain/bet"
)

// Repository reads and seeds the events catalog in Postgres.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetEvent returns one event, or nil when unknown.
func (r *Repository) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	var ev Event
	err := r.db.GetContext(ctx, &ev, `SELECT * FROM events WHERE id = $1`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &ev, nil
}

// Upsert inserts or refreshes an event from the fixtures feed.
func (r *Repository) Upsert(ctx context.Context, ev *Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, name, sport, league, home_team, away_team, status, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			sport = EXCLUDED.sport,
			league = EXCLUDED.league,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			status = EXCLUDED.status,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			updated_at = now()
	`, ev.ID, ev.Name, ev.Sport, ev.League, ev.HomeTeam, ev.AwayTeam, string(ev.Status), ev.StartTime, ev.EndTime)
	if err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	return nil
}

// UpdateStatus moves an event through its lifecycle.
func (r *Repository) UpdateStatus(ctx context.Context, eventID string, status bet.EventStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE events SET status = $1, updated_at = now() WHERE id = $2`, string(status), eventID)
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// ListByStatus lists events in one lifecycle state, soonest first.
func (r *Repository) ListByStatus(ctx context.Context, status bet.EventStatus, limit int) ([]Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var events []Event
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM events
		WHERE status = $1
		ORDER BY start_time ASC
		LIMIT $2
	`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Catalog adapts the repository to the bet engine's EventCatalog.
type Catalog struct {
	repo *Repository
}

func NewCatalog(repo *Repository) *Catalog {
	return &Catalog{repo: repo}
}

func (c *Catalog) GetEvent(ctx context.Context, eventID string) (*bet.EventInfo, error) {
	ev, err := c.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, nil
	}
	return &bet.EventInfo{
		ID:        ev.ID,
		Name:      ev.Name,
		Sport:     ev.Sport,
		Status:    ev.Status,
		StartTime: ev.StartTime,
		EndTime:   ev.EndTime,
	}, nil
}
