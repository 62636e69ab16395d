package handlers

import (
	"net/url"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) ListPublic(c *fiber.Ctx) error {
	products, err := h.productService.ListPublic(c.UserContext())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, products, "", fiber.Map{"total": len(products)})
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	var query dto.ProductQuery
	if err := c.QueryParser(&query); err != nil {
		return badRequest("invalid query parameters")
	}

	products, err := h.productService.List(c.UserContext(), middleware.GetCaller(c), query)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, products, "", fiber.Map{
		"total":   len(products),
		"filtros": echoFilters(query),
	})
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "product")
	if err != nil {
		return err
	}
	product, err := h.productService.Get(c.UserContext(), middleware.GetCaller(c), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, product, "", nil)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	product, err := h.productService.Create(c.UserContext(), middleware.GetCaller(c), &req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, product, "product created successfully", nil)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "product")
	if err != nil {
		return err
	}
	var req dto.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	product, err := h.productService.Update(c.UserContext(), middleware.GetCaller(c), id, &req)
	if err != nil {
		return mutationError(err)
	}
	return respond(c, fiber.StatusOK, product, "product updated successfully", nil)
}

func (h *ProductHandler) UpdateStock(c *fiber.Ctx) error {
	id, err := parseID(c, "product")
	if err != nil {
		return err
	}
	var req dto.UpdateStockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("quantity must be a non-negative integer")
	}

	product, err := h.productService.UpdateStock(c.UserContext(), middleware.GetCaller(c), id, req.Quantity)
	if err != nil {
		return mutationError(err)
	}
	return respond(c, fiber.StatusOK, product, "stock updated successfully", nil)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "product")
	if err != nil {
		return err
	}
	if err := h.productService.Delete(c.UserContext(), middleware.GetCaller(c), id); err != nil {
		return mutationError(err)
	}
	return respond(c, fiber.StatusOK, nil, "product deleted successfully", nil)
}

func (h *ProductHandler) ByCategory(c *fiber.Ctx) error {
	category, err := pathParam(c, "categoria")
	if err != nil {
		return err
	}
	products, err := h.productService.ByCategory(c.UserContext(), middleware.GetCaller(c), category)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, products, "", fiber.Map{"total": len(products), "categoria": category})
}

func (h *ProductHandler) ByBrand(c *fiber.Ctx) error {
	brand, err := pathParam(c, "marca")
	if err != nil {
		return err
	}
	products, err := h.productService.ByBrand(c.UserContext(), middleware.GetCaller(c), brand)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, products, "", fiber.Map{"total": len(products), "marca": brand})
}

func (h *ProductHandler) Mine(c *fiber.Ctx) error {
	products, err := h.productService.Mine(c.UserContext(), middleware.GetCaller(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, products, "", fiber.Map{"total": len(products)})
}

func (h *ProductHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.productService.Statistics(c.UserContext(), middleware.GetCaller(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, stats, "", nil)
}

// LowStock reads the threshold from ?limite=, defaulting to 5.
func (h *ProductHandler) LowStock(c *fiber.Ctx) error {
	threshold := services.DefaultLowStockThreshold
	if raw := c.Query("limite"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest("limite must be an integer")
		}
		threshold = n
	}

	products, err := h.productService.LowStock(c.UserContext(), middleware.GetCaller(c), threshold)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, products, "", fiber.Map{"total": len(products), "limite": threshold})
}

func echoFilters(q dto.ProductQuery) fiber.Map {
	filters := fiber.Map{}
	if q.Name != "" {
		filters["nome"] = q.Name
	}
	if q.Brand != "" {
		filters["marca"] = q.Brand
	}
	if q.Category != "" {
		filters["categoria"] = q.Category
	}
	if q.Available {
		filters["disponivel"] = true
	}
	return filters
}

// pathParam returns a route param decoded from its percent-encoded form, so
// "Higiene%20Pessoal" matches the stored "Higiene Pessoal".
func pathParam(c *fiber.Ctx, key string) (string, error) {
	value, err := url.PathUnescape(c.Params(key))
	if err != nil {
		return "", badRequest("invalid " + key)
	}
	return value, nil
}
