// Package identity talks to the service that owns credentials and issues
// bearer tokens. Nothing in this package writes profile records.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrUnavailable        = errors.New("identity provider unavailable")
)

// Account is the provider-side record. Its ID becomes the profile ID.
type Account struct {
	ID    uuid.UUID
	Email string
}

// Session is an issued token pair.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
}

// Provider is implemented by SupabaseProvider and LocalProvider.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Account, error)
	SignIn(ctx context.Context, email, password string) (*Account, *Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Account, *Session, error)
	// Verify resolves an access token to the account it was issued for.
	// ErrInvalidToken means the token is bad; ErrUnavailable means the
	// provider could not be asked.
	Verify(ctx context.Context, accessToken string) (*Account, error)
	SignOut(ctx context.Context, accessToken string) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}
