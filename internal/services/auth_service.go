package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/repository"
)

// AuthService runs the session operations. Credentials are checked by the
// identity provider only.
type AuthService struct {
	provider identity.Provider
	users    repository.UserRepository
}

func NewAuthService(provider identity.Provider, users repository.UserRepository) *AuthService {
	return &AuthService{provider: provider, users: users}
}

// Login fails with the same error whether the email is unknown, the password
// is wrong, the profile is missing or the provider failed.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if normalizeEmail(req.Email) == "" || req.Password == "" {
		return nil, invalidCredentials(nil)
	}

	account, session, err := s.provider.SignIn(ctx, normalizeEmail(req.Email), req.Password)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidCredentials) {
			slog.ErrorContext(ctx, "login could not reach identity provider", "operation", "login", "error", err)
		}
		return nil, invalidCredentials(err)
	}

	user, err := s.profileFor(ctx, account)
	if err != nil {
		slog.WarnContext(ctx, "login for account without profile", "account_id", account.ID, "error", err)
		if signOutErr := s.provider.SignOut(ctx, session.AccessToken); signOutErr != nil {
			slog.WarnContext(ctx, "failed to end orphan session", "account_id", account.ID, "error", signOutErr)
		}
		return nil, invalidCredentials(err)
	}

	return loginResponse(user, session), nil
}

// Refresh exchanges a refresh token for a new session.
func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.LoginResponse, error) {
	if req.RefreshToken == "" {
		return nil, newError(ErrUnauthenticated, "refresh token required")
	}

	account, session, err := s.provider.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			return nil, newError(ErrUnauthenticated, "invalid or expired refresh token")
		}
		return nil, upstream("refresh session", err)
	}

	user, err := s.profileFor(ctx, account)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrForbidden, "no user profile for this account")
		}
		return nil, upstream("refresh session", err)
	}

	return loginResponse(user, session), nil
}

// Logout ends the session behind token. It never fails: a missing or
// already invalid token leaves nothing to end.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.provider.SignOut(ctx, token); err != nil && !errors.Is(err, identity.ErrInvalidToken) {
		slog.WarnContext(ctx, "logout failed at identity provider", "error", err)
	}
}

// Me returns the caller's profile.
func (s *AuthService) Me(ctx context.Context, caller *Caller) (*models.User, error) {
	if err := RequireCaller(caller); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, userLookupError("load profile", err)
	}
	return user, nil
}

func (s *AuthService) profileFor(ctx context.Context, account *identity.Account) (*models.User, error) {
	return s.users.FindByID(ctx, account.ID)
}

func invalidCredentials(cause error) *Error {
	return &Error{Kind: ErrInvalidCredentials, Message: "invalid email or password", Err: cause}
}

func loginResponse(user *models.User, session *identity.Session) *dto.LoginResponse {
	return &dto.LoginResponse{
		User:  user,
		Token: session.AccessToken,
		Session: dto.SessionResponse{
			AccessToken:  session.AccessToken,
			RefreshToken: session.RefreshToken,
			TokenType:    session.TokenType,
			ExpiresAt:    session.ExpiresAt.Unix(),
			User:         user,
		},
	}
}
