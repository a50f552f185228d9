package market

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/betpulse/betpulse-api/internal/domain/bet"
	"github.com/betpulse/betpulse-api/internal/middleware"
	"github.com/betpulse/betpulse-api/internal/pkg/jwt"
)

func newTestRouter(db *sqlx.DB) (chi.Router, *jwt.Service) {
	jwtService := jwt.NewService("test-secret", time.Minute)
	handler := NewHandler(NewRepository(db), nil)

	r := chi.NewRouter()
	r.Mount("/events", handler.Routes(middleware.Auth(jwtService), middleware.RequireAdmin()))
	return r, jwtService
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func upsertBody(id string) map[string]interface{} {
	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	return map[string]interface{}{
		"id":         id,
		"name":       "Rangpur Riders vs Comilla Victorians",
		"sport":      "cricket",
		"league":     "BPL",
		"home_team":  "Rangpur Riders",
		"away_team":  "Comilla Victorians",
		"status":     "upcoming",
		"start_time": start,
		"end_time":   start.Add(4 * time.Hour),
	}
}

func TestEventSeedingRequiresAdminRole(t *testing.T) {
	// Role checks reject before any repository access.
	router, jwtService := newTestRouter(nil)

	rr := doJSON(t, router, http.MethodPut, "/events/", "", upsertBody("bpl-2026-h1"))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	playerToken, err := jwtService.GenerateAccessToken(uuid.New(), "player")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	rr = doJSON(t, router, http.MethodPut, "/events/", playerToken, upsertBody("bpl-2026-h1"))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for player, got %d", rr.Code)
	}
	rr = doJSON(t, router, http.MethodPut, "/events/bpl-2026-h1/status", playerToken, map[string]string{"status": "live"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for player status update, got %d", rr.Code)
	}
}

func TestEventSeedingOverHTTP(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	router, jwtService := newTestRouter(db)
	adminToken, err := jwtService.GenerateAccessToken(uuid.New(), "admin")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	rr := doJSON(t, router, http.MethodPut, "/events/", adminToken, upsertBody("bpl-2026-h2"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, http.MethodGet, "/events/bpl-2026-h2", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for public get, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, http.MethodPut, "/events/bpl-2026-h2/status", adminToken, map[string]string{"status": "live"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var out struct {
		Data Event `json:"data"`
	}
	rr = doJSON(t, router, http.MethodGet, "/events/bpl-2026-h2", "", nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Data.Status != bet.EventLive {
		t.Fatalf("expected live, got %s", out.Data.Status)
	}

	rr = doJSON(t, router, http.MethodPut, "/events/no-such-event/status", adminToken, map[string]string{"status": "live"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown event, got %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodPut, "/events/", adminToken, map[string]string{"id": "x"})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for incomplete body, got %d body=%s", rr.Code, rr.Body.String())
	}
}
