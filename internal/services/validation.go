package services

import (
	"regexp"
	"strings"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/models"
	"github.com/go-playground/validator/v10"
)

const (
	minNameLength     = 2
	minPasswordLength = 6
)

var (
	validate = validator.New()
	// local@domain.tld, no whitespace
	emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Validators return violations in field order; an empty result means valid.

func ValidateUser(req *dto.CreateUserRequest) []string {
	var violations []string
	violations = checkName(violations, req.Name)
	violations = checkEmail(violations, req.Email)
	if len(req.Password) < minPasswordLength {
		violations = append(violations, "password must be at least 6 characters")
	}
	if req.Role != nil {
		violations = checkRole(violations, *req.Role)
	}
	return violations
}

func ValidateUserPatch(req *dto.UpdateUserRequest) []string {
	var violations []string
	if req.Name != nil {
		violations = checkName(violations, *req.Name)
	}
	if req.Email != nil {
		violations = checkEmail(violations, *req.Email)
	}
	if req.Role != nil {
		violations = checkRole(violations, *req.Role)
	}
	if req.Name == nil && req.Email == nil && req.Role == nil {
		violations = append(violations, "no fields to update")
	}
	return violations
}

func ValidateProduct(req *dto.CreateProductRequest) []string {
	var violations []string
	violations = checkName(violations, req.Name)
	if strings.TrimSpace(req.Brand) == "" {
		violations = append(violations, "brand is required")
	}
	if strings.TrimSpace(req.Category) == "" {
		violations = append(violations, "category is required")
	}
	if req.Quantity == nil {
		violations = append(violations, "quantity is required")
	} else {
		violations = checkQuantity(violations, *req.Quantity)
	}
	if req.Price != nil {
		violations = checkPrice(violations, *req.Price)
	}
	return violations
}

func ValidateProductPatch(req *dto.UpdateProductRequest) []string {
	var violations []string
	if req.Name != nil {
		violations = checkName(violations, *req.Name)
	}
	if req.Brand != nil && strings.TrimSpace(*req.Brand) == "" {
		violations = append(violations, "brand cannot be empty")
	}
	if req.Category != nil && strings.TrimSpace(*req.Category) == "" {
		violations = append(violations, "category cannot be empty")
	}
	if req.Quantity != nil {
		violations = checkQuantity(violations, *req.Quantity)
	}
	if req.Price != nil {
		violations = checkPrice(violations, *req.Price)
	}
	if req.IsEmpty() {
		violations = append(violations, "no fields to update")
	}
	return violations
}

func ValidateStock(quantity *int) []string {
	if quantity == nil {
		return []string{"quantity is required"}
	}
	return checkQuantity(nil, *quantity)
}

func checkName(violations []string, name string) []string {
	if len([]rune(strings.TrimSpace(name))) < minNameLength {
		return append(violations, "name must be at least 2 characters")
	}
	return violations
}

func checkEmail(violations []string, email string) []string {
	email = strings.TrimSpace(email)
	if email == "" {
		return append(violations, "email is required")
	}
	if !emailShape.MatchString(email) || validate.Var(email, "email") != nil {
		return append(violations, "email must be a valid address")
	}
	return violations
}

func checkRole(violations []string, role string) []string {
	if !models.Role(strings.ToUpper(strings.TrimSpace(role))).Valid() {
		return append(violations, "role must be ADMIN or USER")
	}
	return violations
}

func checkQuantity(violations []string, quantity int) []string {
	if quantity < 0 {
		return append(violations, "quantity must be a non-negative integer")
	}
	return violations
}

func checkPrice(violations []string, price float64) []string {
	if price < 0 {
		return append(violations, "price must be non-negative")
	}
	return violations
}
