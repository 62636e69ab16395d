package handlers

import (
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.userService.List(c.UserContext(), middleware.GetCaller(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, users, "", fiber.Map{"total": len(users)})
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "user")
	if err != nil {
		return err
	}
	user, err := h.userService.Get(c.UserContext(), middleware.GetCaller(c), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, user, "", nil)
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	user, err := h.userService.Create(c.UserContext(), middleware.GetCaller(c), &req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, user, "user created successfully", nil)
}

// CreateEmployee also reports which administrator registered the employee.
func (h *UserHandler) CreateEmployee(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	caller := middleware.GetCaller(c)
	user, err := h.userService.CreateEmployee(c.UserContext(), caller, &req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, user, "employee registered successfully", fiber.Map{
		"cadastradoPor": caller.Name,
	})
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "user")
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	user, err := h.userService.Update(c.UserContext(), middleware.GetCaller(c), id, &req)
	if err != nil {
		return mutationError(err)
	}
	return respond(c, fiber.StatusOK, user, "user updated successfully", nil)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "user")
	if err != nil {
		return err
	}
	if err := h.userService.Delete(c.UserContext(), middleware.GetCaller(c), id); err != nil {
		return mutationError(err)
	}
	return respond(c, fiber.StatusOK, nil, "user deleted successfully", nil)
}

func parseID(c *fiber.Ctx, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, badRequest("invalid " + what + " id")
	}
	return id, nil
}
