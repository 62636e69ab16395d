package repository

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// UserRepository is the store contract for profile records.
type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// Update applies only the given columns and returns the stored record.
	Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}

// ProductFilter is a conjunction: every non-zero field must match.
type ProductFilter struct {
	// Name and Brand match case-insensitive substrings.
	Name  string
	Brand string
	// Category matches exactly.
	Category string
	// CategoryFold and BrandFold match whole values, ignoring case.
	CategoryFold string
	BrandFold    string
	Available    bool
	MaxQuantity  *int
	OwnerID      *uuid.UUID
	WithOwner    bool
	OrderByName  bool
}

// ProductRepository is the store contract for products.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
