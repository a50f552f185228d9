package bet

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/betpulse/betpulse-api/internal/domain/ledger"
	"github.com/betpulse/betpulse-api/internal/middleware"
	"github.com/betpulse/betpulse-api/internal/pkg/response"
	"github.com/betpulse/betpulse-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type placeBetRequest struct {
	EventID    string           `json:"event_id" validate:"required"`
	BetType    string           `json:"bet_type" validate:"required,bet_type"`
	Selections []SelectionInput `json:"selections" validate:"required,min=1,dive"`
	Stake      int64            `json:"stake" validate:"required,gt=0"`
}

// Place accepts a new bet. The stake debit and the bet row are created
// together or not at all.
func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req placeBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	b, err := h.svc.PlaceBet(r.Context(), userID, PlaceInput{
		EventID:    req.EventID,
		BetType:    Type(req.BetType),
		Selections: req.Selections,
		Stake:      req.Stake,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, b)
}

// List returns the user's bets, optionally filtered by status.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	q := r.URL.Query()
	status := Status(q.Get("status"))
	if status != "" && !status.Terminal() && status != StatusPending {
		response.BadRequest(w, "unknown status")
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	bets, next, err := h.svc.ListBets(r.Context(), userID, status, q.Get("cursor"), limit)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.WithMeta(w, bets, response.Meta{
		NextCursor: next,
		Limit:      limit,
		HasMore:    next != "",
	})
}

// Get returns one bet by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	betID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid bet id")
		return
	}

	b, err := h.svc.GetBet(r.Context(), userID, betID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, b)
}

// Cashout settles a live pending bet at the gateway's current valuation.
func (h *Handler) Cashout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	betID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid bet id")
		return
	}

	value, err := h.svc.CashoutValue(r.Context(), betID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	b, err := h.svc.Cashout(r.Context(), userID, betID, value)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, b)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "bet not found")
	case errors.Is(err, ErrEventNotFound):
		response.NotFound(w, "event not found")
	case errors.Is(err, ErrInvalidStake),
		errors.Is(err, ErrInvalidBetType),
		errors.Is(err, ErrInvalidSelections),
		errors.Is(err, ErrInvalidOdds):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrMarketClosed):
		response.Conflict(w, "event or market is closed for betting")
	case errors.Is(err, ErrInvalidState):
		response.Conflict(w, "bet is not in a state that allows this operation")
	case errors.Is(err, ErrCashoutUnavailable):
		response.Conflict(w, "cashout is not available for this bet")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		response.Conflict(w, "insufficient wallet balance")
	case errors.Is(err, ledger.ErrLockTimeout):
		response.TooManyRequests(w, "wallet busy, retry the operation")
	default:
		response.InternalError(w)
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Place)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/cashout", h.Cashout)
	return r
}
