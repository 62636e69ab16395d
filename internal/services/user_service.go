package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/repository"
	"github.com/google/uuid"
)

type UserService struct {
	users    repository.UserRepository
	products repository.ProductRepository
	provider identity.Provider
}

func NewUserService(users repository.UserRepository, products repository.ProductRepository, provider identity.Provider) *UserService {
	return &UserService{users: users, products: products, provider: provider}
}

func (s *UserService) List(ctx context.Context, caller *Caller) ([]models.User, error) {
	if err := RequireCaller(caller); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, upstream("list users", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, caller *Caller, id uuid.UUID) (*models.User, error) {
	if err := RequireCaller(caller); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, userLookupError("get user", err)
	}
	return user, nil
}

func (s *UserService) Create(ctx context.Context, caller *Caller, req *dto.CreateUserRequest) (*models.User, error) {
	if err := RequireAdmin(caller, "create users"); err != nil {
		return nil, err
	}
	return s.register(ctx, req)
}

// CreateEmployee is Create with the same defaults; the handler also reports
// which administrator registered the employee.
func (s *UserService) CreateEmployee(ctx context.Context, caller *Caller, req *dto.CreateUserRequest) (*models.User, error) {
	if err := RequireAdmin(caller, "register employees"); err != nil {
		return nil, err
	}
	return s.register(ctx, req)
}

// Bootstrap registers the first administrator when no ADMIN profile exists.
// It reports whether a user was created.
func (s *UserService) Bootstrap(ctx context.Context, name, email, password string) (*models.User, bool, error) {
	admins, err := s.users.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, false, upstream("count administrators", err)
	}
	if admins > 0 {
		return nil, false, nil
	}

	role := string(models.RoleAdmin)
	user, err := s.register(ctx, &dto.CreateUserRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     &role,
	})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// register creates the provider account and then the profile. When the
// profile cannot be written the account is deleted again; if that fails too
// the error is ErrPartialRegistration.
func (s *UserService) register(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	if violations := ValidateUser(req); len(violations) > 0 {
		return nil, invalidInput(violations)
	}

	email := normalizeEmail(req.Email)
	role := models.RoleUser
	if req.Role != nil {
		role = parseRole(*req.Role)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, newError(ErrConflict, "email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, upstream("check email", err)
	}

	account, err := s.provider.SignUp(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrAccountExists) {
			return nil, newError(ErrConflict, "email already registered")
		}
		return nil, upstream("create account", err)
	}

	user := &models.User{
		ID:    account.ID,
		Name:  strings.TrimSpace(req.Name),
		Email: email,
		Role:  role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, s.compensate(ctx, account, err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *UserService) compensate(ctx context.Context, account *identity.Account, cause error) error {
	slog.WarnContext(ctx, "profile insert failed, removing provider account",
		"account_id", account.ID, "error", cause)

	if err := s.provider.DeleteAccount(ctx, account.ID); err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
		slog.ErrorContext(ctx, "registration left an account without a profile",
			"operation", "register user", "account_id", account.ID, "error", err)
		return &Error{
			Kind:    ErrPartialRegistration,
			Message: "registration failed and the created account could not be removed",
			Err:     errors.Join(cause, err),
		}
	}

	if errors.Is(cause, repository.ErrDuplicate) {
		return &Error{Kind: ErrConflict, Message: "email already registered", Err: cause}
	}
	return upstream("create user profile", cause)
}

func (s *UserService) Update(ctx context.Context, caller *Caller, id uuid.UUID, req *dto.UpdateUserRequest) (*models.User, error) {
	if err := RequireAdmin(caller, "update users"); err != nil {
		return nil, err
	}
	if err := GuardSelfUpdate(caller, id, req.Role != nil); err != nil {
		return nil, err
	}
	if violations := ValidateUserPatch(req); len(violations) > 0 {
		return nil, invalidInput(violations)
	}

	changes := make(map[string]interface{})
	if req.Name != nil {
		changes["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		changes["email"] = normalizeEmail(*req.Email)
	}
	if req.Role != nil {
		changes["role"] = parseRole(*req.Role)
	}

	user, err := s.users.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &Error{Kind: ErrConflict, Message: "email already registered", Err: err}
		}
		return nil, userLookupError("update user", err)
	}
	return user, nil
}

// Delete removes the profile and then the provider account. A user that
// still owns products cannot be deleted.
func (s *UserService) Delete(ctx context.Context, caller *Caller, id uuid.UUID) error {
	if err := RequireAdmin(caller, "delete users"); err != nil {
		return err
	}
	if err := GuardSelfDelete(caller, id); err != nil {
		return err
	}

	if _, err := s.users.FindByID(ctx, id); err != nil {
		return userLookupError("delete user", err)
	}

	owned, err := s.products.CountByOwner(ctx, id)
	if err != nil {
		return upstream("count user products", err)
	}
	if owned > 0 {
		return newError(ErrConflict, fmt.Sprintf("user still owns %d products; reassign or delete them first", owned))
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return userLookupError("delete user", err)
	}

	if err := s.provider.DeleteAccount(ctx, id); err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
		slog.ErrorContext(ctx, "profile deleted but provider account remains",
			"operation", "delete user", "account_id", id, "error", err)
	}
	return nil
}

func userLookupError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "user not found")
	}
	return upstream(op, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseRole(role string) models.Role {
	return models.Role(strings.ToUpper(strings.TrimSpace(role)))
}
