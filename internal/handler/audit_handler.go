package handler

import (
	"go-dropship-admin/internal/middleware"
	"go-dropship-admin/internal/repository"
	"go-dropship-admin/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuditHandler struct {
	audit service.AuditService
}

func NewAuditHandler(audit service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListAuditLogs returns the panel's audit trail, newest first
// GET /api/<panel>/audit-logs?module=&entity_id=&limit=&offset=
func (h *AuditHandler) ListAuditLogs(c *fiber.Ctx) error {
	filter := repository.AuditFilter{
		Module: c.Query("module"),
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if id := c.QueryInt("entity_id", 0); id > 0 {
		filter.EntityID = uint(id)
	}

	page, err := h.audit.List(c.UserContext(), middleware.ActorFrom(c), middleware.PanelFrom(c), filter)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(fiber.Map{"status": true, "audit_logs": page})
}
