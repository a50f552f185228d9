package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/betpulse/betpulse-api/internal/domain/user"
	"github.com/betpulse/betpulse-api/internal/pkg/jwt"
	"github.com/betpulse/betpulse-api/internal/pkg/password"
)

type fakeUserRepo struct {
	byEmail *user.User
	byID    *user.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error { return nil }
func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return f.byID, nil
}
func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return f.byEmail, nil
}
func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return nil
}
func (f *fakeUserRepo) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error { return nil }
func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error        { return nil }

func TestLoginHandlerReturnsToken(t *testing.T) {
	hash, _ := password.Hash("password123")
	u := &user.User{ID: uuid.New(), Email: "player@example.com", PasswordHash: hash, Role: user.RolePlayer, Currency: "BDT", CreatedAt: time.Now()}
	repo := &fakeUserRepo{byEmail: u, byID: u}
	jwtService := jwt.NewService("secret", time.Minute)
	svc := NewService(repo, jwtService, nil, "BDT")
	h := NewHandler(svc)

	body, _ := json.Marshal(LoginRequest{Email: u.Email, Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var out struct {
		Success bool `json:"success"`
		Data    struct {
			Tokens struct {
				AccessToken string `json:"access_token"`
			} `json:"tokens"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Data.Tokens.AccessToken == "" {
		t.Fatal("expected access token in response")
	}
}

func TestLoginHandlerWrongPasswordReturns401(t *testing.T) {
	hash, _ := password.Hash("password123")
	u := &user.User{ID: uuid.New(), Email: "player@example.com", PasswordHash: hash, Role: user.RolePlayer, Currency: "BDT", CreatedAt: time.Now()}
	repo := &fakeUserRepo{byEmail: u, byID: u}
	jwtService := jwt.NewService("secret", time.Minute)
	svc := NewService(repo, jwtService, nil, "BDT")
	h := NewHandler(svc)

	body, _ := json.Marshal(LoginRequest{Email: u.Email, Password: "wrong-password"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestLoginHandlerBannedReturns403(t *testing.T) {
	hash, _ := password.Hash("password123")
	u := &user.User{ID: uuid.New(), Email: "banned@example.com", PasswordHash: hash, Role: user.RolePlayer, Currency: "BDT", IsBanned: true, CreatedAt: time.Now()}
	repo := &fakeUserRepo{byEmail: u, byID: u}
	jwtService := jwt.NewService("secret", time.Minute)
	svc := NewService(repo, jwtService, nil, "BDT")
	h := NewHandler(svc)

	body, _ := json.Marshal(LoginRequest{Email: u.Email, Password: "password123"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}
