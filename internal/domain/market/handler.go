package market

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/betpulse/betpulse-api/internal/domain/bet"
	"github.com/betpulse/betpulse-api/internal/pkg/response"
	"github.com/betpulse/betpulse-api/internal/pkg/validator"
)

// Handler serves the public event catalog and cached odds, plus the
// admin-only seeding endpoints that feed the catalog.
type Handler struct {
	repo   *Repository
	quotes *RedisGateway
}

func NewHandler(repo *Repository, quotes *RedisGateway) *Handler {
	return &Handler{repo: repo, quotes: quotes}
}

// List returns events in one lifecycle state, upcoming by default.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := bet.EventStatus(q.Get("status"))
	if status == "" {
		status = bet.EventUpcoming
	}
	if !validEventStatus(status) {
		response.BadRequest(w, "unknown status")
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	events, err := h.repo.ListByStatus(r.Context(), status, limit)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, events)
}

// Get returns one event by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ev, err := h.repo.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.InternalError(w)
		return
	}
	if ev == nil {
		response.NotFound(w, "event not found")
		return
	}
	response.OK(w, ev)
}

// Odds returns the cached quote for one market of an event.
func (h *Handler) Odds(w http.ResponseWriter, r *http.Request) {
	if h.quotes == nil {
		response.NotFound(w, "odds feed is not available")
		return
	}

	quote, err := h.quotes.GetQuote(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "market"))
	if errors.Is(err, ErrNoQuote) {
		response.NotFound(w, "no odds for this market")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, quote)
}

type upsertEventRequest struct {
	ID        string    `json:"id" validate:"required,max=64"`
	Name      string    `json:"name" validate:"required,max=255"`
	Sport     string    `json:"sport" validate:"required,sport"`
	League    string    `json:"league" validate:"max=128"`
	HomeTeam  string    `json:"home_team" validate:"max=128"`
	AwayTeam  string    `json:"away_team" validate:"max=128"`
	Status    string    `json:"status" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func validEventStatus(s bet.EventStatus) bool {
	switch s {
	case bet.EventUpcoming, bet.EventLive, bet.EventFinished, bet.EventCancelled:
		return true
	}
	return false
}

// Upsert creates or refreshes a catalog event.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}
	if !validEventStatus(bet.EventStatus(req.Status)) {
		response.BadRequest(w, "unknown status")
		return
	}

	ev := &Event{
		ID:        req.ID,
		Name:      req.Name,
		Sport:     req.Sport,
		League:    req.League,
		HomeTeam:  req.HomeTeam,
		AwayTeam:  req.AwayTeam,
		Status:    bet.EventStatus(req.Status),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := h.repo.Upsert(r.Context(), ev); err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, ev)
}

// UpdateStatus moves an event through its lifecycle.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if !validEventStatus(bet.EventStatus(req.Status)) {
		response.BadRequest(w, "unknown status")
		return
	}

	err := h.repo.UpdateStatus(r.Context(), chi.URLParam(r, "id"), bet.EventStatus(req.Status))
	if errors.Is(err, ErrEventNotFound) {
		response.NotFound(w, "event not found")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"id": chi.URLParam(r, "id"), "status": req.Status})
}

func (h *Handler) Routes(authMiddleware, adminOnly func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/odds/{market}", h.Odds)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(adminOnly)
		r.Put("/", h.Upsert)
		r.Put("/{id}/status", h.UpdateStatus)
	})
	return r
}
