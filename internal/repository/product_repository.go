package repository

import (
	"context"
	"strings"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if filter.Name != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(filter.Name))
	}
	if filter.Brand != "" {
		query = query.Where(`LOWER(brand) LIKE ? ESCAPE '\'`, containsPattern(filter.Brand))
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.CategoryFold != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(filter.CategoryFold))
	}
	if filter.BrandFold != "" {
		query = query.Where("LOWER(brand) = ?", strings.ToLower(filter.BrandFold))
	}
	if filter.Available {
		query = query.Where("quantity > 0")
	}
	if filter.MaxQuantity != nil {
		query = query.Where("quantity <= ?", *filter.MaxQuantity)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.WithOwner {
		query = query.Preload("Owner")
	}
	if filter.OrderByName {
		query = query.Order("name ASC")
	} else {
		query = query.Order("created_at DESC")
	}

	products := make([]models.Product, 0)
	if err := query.Find(&products).Error; err != nil {
		return nil, translate(err)
	}
	return products, nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error)
}

func (r *GormProductRepository) Update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*models.Product, error) {
	db := r.db.WithContext(ctx)
	if len(changes) > 0 {
		result := db.Model(&models.Product{}).Where("id = ?", id).Updates(changes)
		if result.Error != nil {
			return nil, translate(result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.FindByID(ctx, id)
}

func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormProductRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, translate(err)
}

func containsPattern(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
