package handler

import (
	"go-dropship-admin/internal/ws"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db  *gorm.DB
	hub *ws.Hub
}

func NewHealthHandler(db *gorm.DB, hub *ws.Hub) *HealthHandler {
	return &HealthHandler{db: db, hub: hub}
}

// Health reports database reachability and live audit feed clients
// GET /healthz
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   false,
			"message":  "Database unreachable",
			"database": "down",
		})
	}

	clients := 0
	if h.hub != nil {
		clients = h.hub.ClientCount()
	}
	return c.JSON(fiber.Map{
		"status":     true,
		"database":   "up",
		"ws_clients": clients,
	})
}
