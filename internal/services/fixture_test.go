package services

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	users    *repository.GormUserRepository
	products *repository.GormProductRepository
	provider *identity.LocalProvider

	access      *AccessService
	userService *UserService
	productSvc  *ProductService
	authService *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	provider, err := identity.NewLocalProvider(db, identity.LocalOptions{
		Secret:        "test-secret",
		AccessExpiry:  time.Hour,
		RefreshExpiry: time.Hour,
	})
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	products := repository.NewProductRepository(db)
	return &fixture{
		db:          db,
		users:       users,
		products:    products,
		provider:    provider,
		access:      NewAccessService(provider, users),
		userService: NewUserService(users, products, provider),
		productSvc:  NewProductService(products),
		authService: NewAuthService(provider, users),
	}
}

// seedCaller writes a profile directly, without a provider account.
func (f *fixture) seedCaller(t *testing.T, name, email string, role models.Role) *Caller {
	t.Helper()
	u := &models.User{Name: name, Email: email, Role: role}
	require.NoError(t, f.users.Create(context.Background(), u))
	return &Caller{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func (f *fixture) seedProduct(t *testing.T, owner *Caller, name string, quantity int, price float64) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     name,
		Brand:    "Ypê",
		Category: "Limpeza",
		Quantity: quantity,
		Price:    price,
		OwnerID:  owner.ID,
	}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) countUsers(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.User{}).Count(&n).Error)
	return n
}

// fakeProvider overrides the provider calls a test needs; any other call
// panics on the nil embedded interface.
type fakeProvider struct {
	identity.Provider

	account   *identity.Account
	signUpErr error
	verifyErr error
	deleteErr error
	deleted   []uuid.UUID
}

func (p *fakeProvider) SignUp(_ context.Context, email, _ string) (*identity.Account, error) {
	if p.signUpErr != nil {
		return nil, p.signUpErr
	}
	p.account = &identity.Account{ID: uuid.New(), Email: email}
	return p.account, nil
}

func (p *fakeProvider) Verify(_ context.Context, _ string) (*identity.Account, error) {
	if p.verifyErr != nil {
		return nil, p.verifyErr
	}
	return p.account, nil
}

func (p *fakeProvider) DeleteAccount(_ context.Context, id uuid.UUID) error {
	p.deleted = append(p.deleted, id)
	return p.deleteErr
}

// failingUsers fails every profile insert.
type failingUsers struct {
	repository.UserRepository
	err error
}

func (r failingUsers) Create(context.Context, *models.User) error {
	return r.err
}

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }
