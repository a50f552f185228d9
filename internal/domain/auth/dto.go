package auth

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest for POST /auth/register
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Currency string `json:"currency" validate:"omitempty,currency"`
}

// LoginRequest for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse returned after login/register
type AuthResponse struct {
	User   UserResponse   `json:"user"`
	Tokens TokensResponse `json:"tokens"`
}

// UserResponse represents user in API response
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Currency  string    `json:"currency"`
	CreatedAt string    `json:"created_at"`
}

// TokensResponse represents tokens in API response
type TokensResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // seconds until access token expires
	TokenType   string `json:"token_type"`
}

// NewUserResponse creates UserResponse from user data
func NewUserResponse(id uuid.UUID, email, role, currency string, createdAt time.Time) UserResponse {
	return UserResponse{
		ID:        id,
		Email:     email,
		Role:      role,
		Currency:  currency,
		CreatedAt: createdAt.Format(time.RFC3339),
	}
}
