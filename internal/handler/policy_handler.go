package handler

import (
	"go-dropship-admin/internal/middleware"
	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/service"

	"github.com/gofiber/fiber/v2"
)

type PolicyHandler struct {
	policy service.PolicyService
}

func NewPolicyHandler(policy service.PolicyService) *PolicyHandler {
	return &PolicyHandler{policy: policy}
}

func (h *PolicyHandler) Register(router fiber.Router, perm PermissionFor) {
	router.Get("/permissions", perm(model.ActionView), h.ListPermissions)
	router.Patch("/permissions/:id", perm(model.ActionUpdate), h.SetPermissionStatus)
	router.Get("/staff/:id/grants", perm(model.ActionView), h.ListStaffGrants)
	router.Put("/staff/:id/grants", perm(model.ActionUpdate), h.SetStaffGrants)
	router.Put("/staff/:id/role", perm(model.ActionUpdate), h.AssignRole)
	router.Put("/roles/:id/grants", perm(model.ActionUpdate), h.SetRoleGrants)
}

// ListPermissions returns the panel's permission catalogue
// GET /api/<panel>/permissions
func (h *PolicyHandler) ListPermissions(c *fiber.Ctx) error {
	perms, err := h.policy.ListPermissions(c.UserContext(), middleware.PanelFrom(c))
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(fiber.Map{"status": true, "permissions": perms})
}

// SetPermissionStatus switches a feature on or off platform-wide
// PATCH /api/admin/permissions/:id
func (h *PolicyHandler) SetPermissionStatus(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return middleware.Fail(c, service.NewValidationError("Invalid permission ID"))
	}

	var req struct {
		Status *bool `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil || req.Status == nil {
		return middleware.Fail(c, service.NewValidationError("status must be a boolean"))
	}

	perm, err := h.policy.SetPermissionStatus(c.UserContext(), middleware.ActorFrom(c), middleware.PanelFrom(c), id, *req.Status)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(fiber.Map{
		"status":     true,
		"message":    "Permission updated successfully",
		"permission": perm,
	})
}

// ListStaffGrants returns the explicit grants of one staff member
// GET /api/<panel>/staff/:id/grants
func (h *PolicyHandler) ListStaffGrants(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return middleware.Fail(c, service.NewValidationError("Invalid staff ID"))
	}

	grants, err := h.policy.ListStaffGrants(c.UserContext(), middleware.ActorFrom(c), middleware.PanelFrom(c), id)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(fiber.Map{"status": true, "grants": grants})
}

// SetStaffGrants upserts explicit grants for one staff member
// PUT /api/<panel>/staff/:id/grants
func (h *PolicyHandler) SetStaffGrants(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return middleware.Fail(c, service.NewValidationError("Invalid staff ID"))
	}

	var req service.GrantsRequest
	if err := c.BodyParser(&req); err != nil {
		return middleware.Fail(c, service.NewValidationError("Invalid request body"))
	}

	grants, err := h.policy.SetStaffGrants(c.UserContext(), middleware.ActorFrom(c), middleware.PanelFrom(c), id, req)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(fiber.Map{
		"status":  true,
		"message": "Staff permissions updated successfully",
		"grants":  grants,
	})
}

// SetRoleGrants upserts the grants of a role
// PUT /api/<panel>/roles/:id/grants
func (h *PolicyHandler) SetRoleGrants(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return middleware.Fail(c, service.NewValidationError("Invalid role ID"))
	}

	var req service.GrantsRequest
	if err := c.BodyParser(&req); err != nil {
		return middleware.Fail(c, service.NewValidationError("Invalid request body"))
	}

	role, err := h.policy.SetRoleGrants(c.UserContext(), middleware.ActorFrom(c), middleware.PanelFrom(c), id, req)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(fiber.Map{
		"status":  true,
		"message": "Role permissions updated successfully",
		"role":    role,
	})
}

// AssignRole sets or clears the role of a staff member
// PUT /api/<panel>/staff/:id/role
func (h *PolicyHandler) AssignRole(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return middleware.Fail(c, service.NewValidationError("Invalid staff ID"))
	}

	var req struct {
		RoleID *uint `json:"role_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return middleware.Fail(c, service.NewValidationError("Invalid request body"))
	}

	staff, err := h.policy.AssignRole(c.UserContext(), middleware.ActorFrom(c), middleware.PanelFrom(c), id, req.RoleID)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(fiber.Map{
		"status":  true,
		"message": "Role assigned successfully",
		"staff":   staff,
	})
}
