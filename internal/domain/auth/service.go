package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/betpulse/betpulse-api/internal/domain/ledger"
	"github.com/betpulse/betpulse-api/internal/domain/user"
	"github.com/betpulse/betpulse-api/internal/pkg/jwt"
	"github.com/betpulse/betpulse-api/internal/pkg/password"
)

// Service handles authentication business logic
type Service struct {
	userRepo        user.Repository
	jwtService      *jwt.Service
	ledgerRepo      *ledger.Repository
	defaultCurrency string
}

// NewService creates auth service
func NewService(userRepo user.Repository, jwtService *jwt.Service, ledgerRepo *ledger.Repository, defaultCurrency string) *Service {
	return &Service{
		userRepo:        userRepo,
		jwtService:      jwtService,
		ledgerRepo:      ledgerRepo,
		defaultCurrency: defaultCurrency,
	}
}

// Register creates a new player account and seeds its wallet row so the
// first deposit has a lock anchor to grab.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)

	existing, _ := s.userRepo.GetByEmail(ctx, req.Email)
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         user.RolePlayer,
		Currency:     currency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	if err := s.ledgerRepo.EnsureWallet(ctx, u.ID); err != nil {
		return nil, err
	}

	return s.buildAuthResponse(u)
}

// Login authenticates user
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)

	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}

	if !password.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if u.IsBanned {
		return nil, ErrUserBanned
	}

	_ = s.userRepo.UpdateLastLogin(ctx, u.ID)

	return s.buildAuthResponse(u)
}

// GetCurrentUser returns current user by ID
func (s *Service) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}

	resp := NewUserResponse(u.ID, u.Email, string(u.Role), u.Currency, u.CreatedAt)
	return &resp, nil
}

func (s *Service) buildAuthResponse(u *user.User) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User: NewUserResponse(u.ID, u.Email, string(u.Role), u.Currency, u.CreatedAt),
		Tokens: TokensResponse{
			AccessToken: accessToken,
			ExpiresIn:   int(s.jwtService.GetAccessTTL().Seconds()),
			TokenType:   "Bearer",
		},
	}, nil
}
