package services

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/repository"
	"github.com/google/uuid"
)

// Caller is the verified identity behind a request together with the role
// stored on its profile.
type Caller struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  models.Role
}

func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == models.RoleAdmin
}

// AccessService turns a bearer token into a Caller. The role always comes
// from the stored profile, never from anything the client sends.
type AccessService struct {
	provider identity.Provider
	users    repository.UserRepository
}

func NewAccessService(provider identity.Provider, users repository.UserRepository) *AccessService {
	return &AccessService{provider: provider, users: users}
}

func (s *AccessService) Resolve(ctx context.Context, token string) (*Caller, error) {
	if token == "" {
		return nil, newError(ErrUnauthenticated, "authentication token required")
	}

	account, err := s.provider.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidToken) {
			return nil, newError(ErrUnauthenticated, "invalid or expired token")
		}
		return nil, &Error{Kind: ErrServiceUnavailable, Message: "identity provider unavailable", Err: err}
	}

	return s.resolveRole(ctx, account)
}

func (s *AccessService) resolveRole(ctx context.Context, account *identity.Account) (*Caller, error) {
	profile, err := s.users.FindByID(ctx, account.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrForbidden, "no user profile for this account")
	}
	if err != nil {
		return nil, upstream("resolve caller role", err)
	}

	return &Caller{
		ID:    profile.ID,
		Email: profile.Email,
		Name:  profile.Name,
		Role:  profile.Role,
	}, nil
}

func RequireCaller(caller *Caller) error {
	if caller == nil {
		return newError(ErrUnauthenticated, "authentication required")
	}
	return nil
}

// RequireAdmin checks that the caller holds the ADMIN role. action completes
// the sentence "only administrators may ...".
func RequireAdmin(caller *Caller, action string) error {
	if err := RequireCaller(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return newError(ErrForbidden, "only administrators may "+action)
	}
	return nil
}

// GuardSelfUpdate rejects a caller changing their own role, admins included.
func GuardSelfUpdate(caller *Caller, targetID uuid.UUID, changesRole bool) error {
	if caller.ID == targetID && changesRole {
		return newError(ErrInvalidOperation, "you cannot change your own access level")
	}
	return nil
}

func GuardSelfDelete(caller *Caller, targetID uuid.UUID) error {
	if caller.ID == targetID {
		return newError(ErrInvalidOperation, "you cannot delete your own account")
	}
	return nil
}

// CanModifyProduct allows the owner of the product or any admin.
func CanModifyProduct(caller *Caller, product *models.Product) error {
	if product.OwnerID == caller.ID || caller.IsAdmin() {
		return nil
	}
	return newError(ErrForbidden, "you can only modify your own products")
}
