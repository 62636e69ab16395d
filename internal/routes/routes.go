package routes

import (
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Users   *handlers.UserHandler
	Product *handlers.ProductHandler
	Health  *handlers.HealthHandler
}

func Setup(app *fiber.App, access *services.AccessService, h Handlers) {
	api := app.Group("/api")
	protected := middleware.Authenticate(access)

	api.Get("/health", h.Health.Check)

	// Auth: login, logout and refresh are public
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/logout", h.Auth.Logout)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Get("/verify", protected, h.Auth.Verify)

	// Users: every route authenticated, admin checks happen in the service.
	// Auth is attached per route so unknown paths still reach NotFound.
	users := api.Group("/usuarios")
	users.Get("/", protected, h.Users.List)
	users.Post("/", protected, h.Users.Create)
	users.Post("/funcionario", protected, h.Users.CreateEmployee)
	users.Get("/:id", protected, h.Users.Get)
	users.Put("/:id", protected, h.Users.Update)
	users.Delete("/:id", protected, h.Users.Delete)

	// Products: only the storefront listing is public
	products := api.Group("/produtos")
	products.Get("/publicos", h.Product.ListPublic)
	products.Get("/", protected, h.Product.List)
	products.Get("/estatisticas", protected, h.Product.Statistics)
	products.Get("/estoque-baixo", protected, h.Product.LowStock)
	products.Get("/categoria/:categoria", protected, h.Product.ByCategory)
	products.Get("/marca/:marca", protected, h.Product.ByBrand)
	products.Get("/meus", protected, h.Product.Mine)
	products.Get("/:id", protected, h.Product.Get)
	products.Post("/", protected, h.Product.Create)
	products.Put("/:id", protected, h.Product.Update)
	products.Patch("/:id/estoque", protected, h.Product.UpdateStock)
	products.Delete("/:id", protected, h.Product.Delete)

	app.Use(handlers.NotFound)
}
