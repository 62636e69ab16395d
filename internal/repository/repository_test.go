package repository

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repo *GormUserRepository, name, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, Role: role}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepositoryCreateAndFind(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := seedUser(t, repo, "Maria", "maria@example.com", "")
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, models.RoleUser, u.Role, "absent role defaults to USER")

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", byID.Email)

	byEmail, err := repo.FindByEmail(ctx, "  MARIA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)

	seedUser(t, repo, "Maria", "maria@example.com", models.RoleUser)
	err := repo.Create(context.Background(), &models.User{Name: "Outra", Email: "maria@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepositoryUpdateIsSparse(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := seedUser(t, repo, "Maria", "maria@example.com", models.RoleUser)
	updated, err := repo.Update(ctx, u.ID, map[string]interface{}{"name": "Maria Silva"})
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", updated.Name)
	assert.Equal(t, "maria@example.com", updated.Email)
	assert.Equal(t, models.RoleUser, updated.Role)

	_, err = repo.Update(ctx, uuid.New(), map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepositoryDeleteAndCount(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	admin := seedUser(t, repo, "Admin", "admin@example.com", models.RoleAdmin)
	seedUser(t, repo, "Maria", "maria@example.com", models.RoleUser)

	count, err := repo.CountByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(ctx, admin.ID))
	assert.ErrorIs(t, repo.Delete(ctx, admin.ID), ErrNotFound)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestProductRepositoryFilters(t *testing.T) {
	db := testutil.NewDB(t)
	users := NewUserRepository(db)
	products := NewProductRepository(db)
	ctx := context.Background()

	owner := seedUser(t, users, "Dono", "dono@example.com", models.RoleUser)
	other := seedUser(t, users, "Outro", "outro@example.com", models.RoleUser)

	items := []models.Product{
		{Name: "Detergente Neutro", Brand: "Ypê", Category: "Limpeza", Quantity: 10, Price: 2.5, OwnerID: owner.ID},
		{Name: "Desinfetante", Brand: "Veja", Category: "Limpeza", Quantity: 0, Price: 7, OwnerID: owner.ID},
		{Name: "Sabonete 100%", Brand: "Dove", Category: "Higiene", Quantity: 3, Price: 4, OwnerID: other.ID},
	}
	for i := range items {
		require.NoError(t, products.Create(ctx, &items[i]))
	}

	all, err := products.List(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byName, err := products.List(ctx, ProductFilter{Name: "deter"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Detergente Neutro", byName[0].Name)

	literal, err := products.List(ctx, ProductFilter{Name: "100%"})
	require.NoError(t, err)
	assert.Len(t, literal, 1, "wildcards in the search term are matched literally")

	conj, err := products.List(ctx, ProductFilter{Category: "Limpeza", Available: true})
	require.NoError(t, err)
	require.Len(t, conj, 1)
	assert.Equal(t, "Ypê", conj[0].Brand)

	exactCategory, err := products.List(ctx, ProductFilter{Category: "limpeza"})
	require.NoError(t, err)
	assert.Empty(t, exactCategory)

	foldCategory, err := products.List(ctx, ProductFilter{CategoryFold: "limpeza", OrderByName: true})
	require.NoError(t, err)
	require.Len(t, foldCategory, 2)
	assert.Equal(t, "Desinfetante", foldCategory[0].Name)

	foldBrand, err := products.List(ctx, ProductFilter{BrandFold: "DOVE"})
	require.NoError(t, err)
	assert.Len(t, foldBrand, 1)

	threshold := 3
	low, err := products.List(ctx, ProductFilter{MaxQuantity: &threshold})
	require.NoError(t, err)
	assert.Len(t, low, 2)

	mine, err := products.List(ctx, ProductFilter{OwnerID: &owner.ID, WithOwner: true})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.NotNil(t, mine[0].Owner)
	assert.Equal(t, "dono@example.com", mine[0].Owner.Email)

	count, err := products.CountByOwner(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestProductRepositoryUpdateAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	users := NewUserRepository(db)
	products := NewProductRepository(db)
	ctx := context.Background()

	owner := seedUser(t, users, "Dono", "dono@example.com", models.RoleUser)
	p := &models.Product{Name: "Vassoura", Brand: "Bettanin", Category: "Utilidades", Quantity: 2, Price: 19.9, OwnerID: owner.ID}
	require.NoError(t, products.Create(ctx, p))

	updated, err := products.Update(ctx, p.ID, map[string]interface{}{"quantity": 4})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)
	assert.Equal(t, "Vassoura", updated.Name)
	assert.Equal(t, 19.9, updated.Price)

	require.NoError(t, products.Delete(ctx, p.ID))
	assert.ErrorIs(t, products.Delete(ctx, p.ID), ErrNotFound)
	_, err = products.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
