package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/repository"
	"github.com/google/uuid"
)

const DefaultLowStockThreshold = 5

type ProductService struct {
	products repository.ProductRepository
}

func NewProductService(products repository.ProductRepository) *ProductService {
	return &ProductService{products: products}
}

// ListPublic backs the storefront and needs no caller.
func (s *ProductService) ListPublic(ctx context.Context) ([]models.Product, error) {
	return s.list(ctx, "list products", repository.ProductFilter{})
}

func (s *ProductService) List(ctx context.Context, caller *Caller, query dto.ProductQuery) ([]models.Product, error) {
	if err := RequireCaller(caller); err != nil {
		return nil, err
	}
	return s.list(ctx, "list products", repository.ProductFilter{
		Name:      strings.TrimSpace(query.Name),
		Brand:     strings.TrimSpace(query.Brand),
		Category:  strings.TrimSpace(query.Category),
		Available: query.Available,
		WithOwner: true,
	})
}

func (s *ProductService) ByCategory(ctx context.Context, caller *Caller, category string) ([]models.Product, error) {
	if err := RequireCaller(caller); err != nil {
		return nil, err
	}
	return s.list(ctx, "search products by category", repository.ProductFilter{CategoryFold: category, OrderByName: true})
}

func (s *ProductService) ByBrand(ctx context.Context, caller *Caller, brand string) ([]models.Product, error) {
	if err := RequireCaller(caller); err != nil {
		return nil, err
	}
	return s.list(ctx, "search products by brand", repository.ProductFilter{BrandFold: brand, OrderByName: true})
}

// Mine lists the products owned by the caller.
func (s *ProductService) Mine(ctx context.Context, caller *Caller) ([]models.Product, error) {
	if err := RequireCaller(caller); err != nil {
		return nil, err
	}
	ownerID := caller.ID
	return s.list(ctx, "list own products", repository.ProductFilter{OwnerID: &ownerID, WithOwner: true})
}

// LowStock lists products whose quantity is at most threshold.
func (s *ProductService) LowStock(ctx context.Context, caller *Caller, threshold int) ([]models.Product, error) {
	if err := RequireCaller(caller); err != nil {
		return nil, err
	}
	if threshold < 0 {
		return nil, invalidInput([]string{"threshold must be a non-negative integer"})
	}
	return s.list(ctx, "list low stock products", repository.ProductFilter{MaxQuantity: &threshold, OrderByName: true})
}

func (s *ProductService) Statistics(ctx context.Context, caller *Caller) (*dto.ProductStatistics, error) {
	if err := RequireCaller(caller); err != nil {
		return nil, err
	}
	products, err := s.list(ctx, "compute statistics", repository.ProductFilter{})
	if err != nil {
		return nil, err
	}
	stats := ComputeStatistics(products)
	return &stats, nil
}

// ComputeStatistics aggregates the given products. The stock value is
// rounded to cents.
func ComputeStatistics(products []models.Product) dto.ProductStatistics {
	stats := dto.ProductStatistics{Total: len(products)}
	for _, p := range products {
		if p.InStock() {
			stats.Available++
		} else {
			stats.OutOfStock++
		}
		stats.StockValue += p.Price * float64(p.Quantity)
	}
	stats.StockValue = math.Round(stats.StockValue*100) / 100
	return stats
}

func (s *ProductService) Get(ctx context.Context, caller *Caller, id uuid.UUID) (*models.Product, error) {
	if err := RequireCaller(caller); err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, productLookupError("get product", err)
	}
	return product, nil
}

// Create stores a product owned by the caller.
func (s *ProductService) Create(ctx context.Context, caller *Caller, req *dto.CreateProductRequest) (*models.Product, error) {
	if err := RequireCaller(caller); err != nil {
		return nil, err
	}
	violations := ValidateProduct(req)
	if caller.ID == uuid.Nil {
		violations = append(violations, "owner is required")
	}
	if len(violations) > 0 {
		return nil, invalidInput(violations)
	}

	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Brand:       strings.TrimSpace(req.Brand),
		Category:    strings.TrimSpace(req.Category),
		Quantity:    *req.Quantity,
		Photo:       req.Photo,
		Description: req.Description,
		OwnerID:     caller.ID,
	}
	if req.Price != nil {
		product.Price = *req.Price
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, upstream("create product", err)
	}
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, caller *Caller, id uuid.UUID, req *dto.UpdateProductRequest) (*models.Product, error) {
	if err := RequireCaller(caller); err != nil {
		return nil, err
	}
	if violations := ValidateProductPatch(req); len(violations) > 0 {
		return nil, invalidInput(violations)
	}

	changes := make(map[string]interface{})
	if req.Name != nil {
		changes["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Brand != nil {
		changes["brand"] = strings.TrimSpace(*req.Brand)
	}
	if req.Category != nil {
		changes["category"] = strings.TrimSpace(*req.Category)
	}
	if req.Quantity != nil {
		changes["quantity"] = *req.Quantity
	}
	if req.Price != nil {
		changes["price"] = *req.Price
	}
	if req.Photo != nil {
		changes["photo"] = *req.Photo
	}
	if req.Description != nil {
		changes["description"] = *req.Description
	}

	return s.modify(ctx, caller, id, "update product", changes)
}

// UpdateStock sets the quantity only.
func (s *ProductService) UpdateStock(ctx context.Context, caller *Caller, id uuid.UUID, quantity *int) (*models.Product, error) {
	if err := RequireCaller(caller); err != nil {
		return nil, err
	}
	if violations := ValidateStock(quantity); len(violations) > 0 {
		return nil, invalidInput(violations)
	}
	return s.modify(ctx, caller, id, "update stock", map[string]interface{}{"quantity": *quantity})
}

func (s *ProductService) Delete(ctx context.Context, caller *Caller, id uuid.UUID) error {
	if err := RequireCaller(caller); err != nil {
		return err
	}
	if _, err := s.authorize(ctx, caller, id, "delete product"); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return productLookupError("delete product", err)
	}
	return nil
}

func (s *ProductService) modify(ctx context.Context, caller *Caller, id uuid.UUID, op string, changes map[string]interface{}) (*models.Product, error) {
	if _, err := s.authorize(ctx, caller, id, op); err != nil {
		return nil, err
	}
	product, err := s.products.Update(ctx, id, changes)
	if err != nil {
		return nil, productLookupError(op, err)
	}
	return product, nil
}

// authorize loads the product and checks the caller may change it.
func (s *ProductService) authorize(ctx context.Context, caller *Caller, id uuid.UUID, op string) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, productLookupError(op, err)
	}
	if err := CanModifyProduct(caller, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) list(ctx context.Context, op string, filter repository.ProductFilter) ([]models.Product, error) {
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, upstream(op, err)
	}
	return products, nil
}

func productLookupError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "product not found")
	}
	return upstream(op, err)
}
