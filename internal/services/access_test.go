package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCallerFromToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, created, err := f.userService.Bootstrap(ctx, "Administrador", "admin@example.com", "segredo1")
	require.NoError(t, err)
	require.True(t, created)

	login, err := f.authService.Login(ctx, &dto.LoginRequest{Email: "admin@example.com", Password: "segredo1"})
	require.NoError(t, err)

	caller, err := f.access.Resolve(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, caller.ID)
	assert.Equal(t, models.RoleAdmin, caller.Role)
	assert.True(t, caller.IsAdmin())
}

func TestResolveRejectsMissingAndInvalidTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.access.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.access.Resolve(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveProviderUnavailableIsNotAnAuthFailure(t *testing.T) {
	f := newFixture(t)
	provider := &fakeProvider{verifyErr: fmt.Errorf("%w: connection refused", identity.ErrUnavailable)}
	access := NewAccessService(provider, f.users)

	_, err := access.Resolve(context.Background(), "token")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveWithoutProfileFailsClosed(t *testing.T) {
	f := newFixture(t)
	provider := &fakeProvider{account: &identity.Account{ID: uuid.New(), Email: "ghost@example.com"}}
	access := NewAccessService(provider, f.users)

	_, err := access.Resolve(context.Background(), "token")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestResolveRoleComesFromProfile(t *testing.T) {
	f := newFixture(t)
	user := f.seedCaller(t, "Bruno", "bruno@example.com", models.RoleUser)
	provider := &fakeProvider{account: &identity.Account{ID: user.ID, Email: user.Email}}
	access := NewAccessService(provider, f.users)

	caller, err := access.Resolve(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, caller.Role)
	assert.False(t, caller.IsAdmin())
}

func TestGates(t *testing.T) {
	admin := &Caller{ID: uuid.New(), Role: models.RoleAdmin}
	user := &Caller{ID: uuid.New(), Role: models.RoleUser}
	other := &Caller{ID: uuid.New(), Role: models.RoleUser}

	assert.ErrorIs(t, RequireAdmin(nil, "create users"), ErrUnauthenticated)
	assert.NoError(t, RequireAdmin(admin, "create users"))
	err := RequireAdmin(user, "create users")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "only administrators may create users", MessageOf(err))

	assert.ErrorIs(t, GuardSelfUpdate(admin, admin.ID, true), ErrInvalidOperation)
	assert.NoError(t, GuardSelfUpdate(admin, admin.ID, false))
	assert.NoError(t, GuardSelfUpdate(admin, user.ID, true))

	assert.ErrorIs(t, GuardSelfDelete(admin, admin.ID), ErrInvalidOperation)
	assert.NoError(t, GuardSelfDelete(admin, user.ID))

	product := &models.Product{OwnerID: user.ID}
	assert.NoError(t, CanModifyProduct(user, product))
	assert.NoError(t, CanModifyProduct(admin, product))
	assert.ErrorIs(t, CanModifyProduct(other, product), ErrForbidden)
}
