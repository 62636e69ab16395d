package handlers

import (
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, resp, "login successful", nil)
}

// Logout accepts requests without a token and always succeeds.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.authService.Logout(c.UserContext(), middleware.BearerToken(c))
	return respond(c, fiber.StatusOK, nil, "logged out successfully", nil)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	resp, err := h.authService.Refresh(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, resp, "", nil)
}

// Verify returns the profile behind the bearer token.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	user, err := h.authService.Me(c.UserContext(), middleware.GetCaller(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user, "", nil)
}
