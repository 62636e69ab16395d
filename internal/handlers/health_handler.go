package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db       *gorm.DB
	provider string
}

func NewHealthHandler(db *gorm.DB, provider string) *HealthHandler {
	return &HealthHandler{db: db, provider: provider}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	code := fiber.StatusOK
	status, dbStatus := "ok", "ok"
	if err := database.Ping(c.UserContext(), h.db); err != nil {
		code = fiber.StatusServiceUnavailable
		status, dbStatus = "degraded", "unhealthy"
	}

	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Identity:  h.provider,
	})
}
