package wallet_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"github.com/betpulse/betpulse-api/internal/domain/wallet"
	"github.com/betpulse/betpulse-api/internal/middleware"
	"github.com/betpulse/betpulse-api/internal/pkg/jwt"
)

func newTestRouter(db *sqlx.DB) (chi.Router, *jwt.Service) {
	jwtService := jwt.NewService("test-secret", time.Minute)
	handler := wallet.NewHandler(newTestService(db))

	r := chi.NewRouter()
	r.Mount("/wallet", handler.Routes(middleware.Auth(jwtService)))
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

func TestWalletEndpointsRequireAuth(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	router, _ := newTestRouter(db)

	rr := doJSON(t, router, http.MethodGet, "/wallet/balance", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
}

func TestWalletDepositAndBalanceOverHTTP(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	userID := createTestUser(t, db)
	router, jwtService := newTestRouter(db)
	token, err := jwtService.GenerateAccessToken(userID, "player")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	rr := doJSON(t, router, http.MethodPost, "/wallet/deposit", token, map[string]interface{}{
		"amount":    2500,
		"reference": "gateway-tx-1",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			Balance int64 `json:"balance"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Data.Balance != 2500 {
		t.Fatalf("expected balance 2500 in response, got %d", out.Data.Balance)
	}

	rr = doJSON(t, router, http.MethodGet, "/wallet/balance", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Data.Balance != 2500 {
		t.Fatalf("expected balance 2500, got %d", out.Data.Balance)
	}
}

func TestWalletWithdrawOverdraftReturns409(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	userID := createTestUser(t, db)
	router, jwtService := newTestRouter(db)
	token, err := jwtService.GenerateAccessToken(userID, "player")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	rr := doJSON(t, router, http.MethodPost, "/wallet/deposit", token, map[string]interface{}{
		"amount":    100,
		"reference": "gateway-tx-2",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("deposit failed: %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, http.MethodPost, "/wallet/withdraw", token, map[string]interface{}{
		"amount":    500,
		"reference": "payout-req-1",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for overdraft, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWalletTransactionsFilterByType(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	userID := createTestUser(t, db)
	router, jwtService := newTestRouter(db)
	token, err := jwtService.GenerateAccessToken(userID, "player")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	for i := 0; i < 3; i++ {
		rr := doJSON(t, router, http.MethodPost, "/wallet/deposit", token, map[string]interface{}{
			"amount":    100,
			"reference": fmt.Sprintf("dep-%d", i),
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("deposit %d failed: %d", i, rr.Code)
		}
	}
	rr := doJSON(t, router, http.MethodPost, "/wallet/withdraw", token, map[string]interface{}{
		"amount":    50,
		"reference": "wd-0",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("withdraw failed: %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodGet, "/wallet/transactions?type=deposit", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var out struct {
		Data []struct {
			Type string `json:"type"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Data) != 3 {
		t.Fatalf("expected 3 deposit entries, got %d", len(out.Data))
	}
	for _, e := range out.Data {
		if e.Type != "deposit" {
			t.Fatalf("filter leaked entry of type %s", e.Type)
		}
	}
}
