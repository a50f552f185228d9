package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/betpulse/betpulse-api/internal/domain/ledger"
	"github.com/betpulse/betpulse-api/internal/middleware"
	"github.com/betpulse/betpulse-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type walletRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

type entryResponse struct {
	Entry   *ledger.Entry `json:"entry"`
	Balance int64         `json:"balance"`
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.handleMutation(w, r, func(ctx context.Context, userID uuid.UUID, req walletRequest) (*ledger.Entry, error) {
		return h.svc.Deposit(ctx, userID, req.Amount, req.Reference)
	})
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.handleMutation(w, r, func(ctx context.Context, userID uuid.UUID, req walletRequest) (*ledger.Entry, error) {
		return h.svc.Withdraw(ctx, userID, req.Amount, req.Reference)
	})
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	balance, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"balance": balance})
}

// Transactions lists the user's ledger history with cursor pagination.
// Query params: type, from, to (RFC3339), cursor, limit.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	q := r.URL.Query()
	var f ledger.Filter
	if t := q.Get("type"); t != "" {
		f.Type = ledger.EntryType(t)
		if !f.Type.Valid() {
			response.BadRequest(w, "unknown entry type")
			return
		}
	}
	if from := q.Get("from"); from != "" {
		ts, err := time.Parse(time.RFC3339, from)
		if err != nil {
			response.BadRequest(w, "invalid from timestamp")
			return
		}
		f.From = ts
	}
	if to := q.Get("to"); to != "" {
		ts, err := time.Parse(time.RFC3339, to)
		if err != nil {
			response.BadRequest(w, "invalid to timestamp")
			return
		}
		f.To = ts
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	entries, next, err := h.svc.History(r.Context(), userID, f, q.Get("cursor"), limit)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.WithMeta(w, entries, response.Meta{
		NextCursor: next,
		Limit:      limit,
		HasMore:    next != "",
	})
}

func (h *Handler) handleMutation(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID uuid.UUID, req walletRequest) (*ledger.Entry, error)) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req walletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	entry, err := fn(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidAmount):
			response.BadRequest(w, "amount must be greater than zero")
		case errors.Is(err, ledger.ErrInsufficientFunds):
			response.Conflict(w, "insufficient wallet balance")
		case errors.Is(err, ledger.ErrReferenceConflict):
			response.Conflict(w, "reference already used with a different amount")
		case errors.Is(err, ledger.ErrLockTimeout):
			response.TooManyRequests(w, "wallet busy, retry the operation")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, entryResponse{Entry: entry, Balance: entry.BalanceAfter})
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/deposit", h.Deposit)
	r.Post("/withdraw", h.Withdraw)
	r.Get("/balance", h.Balance)
	r.Get("/transactions", h.Transactions)
	return r
}
