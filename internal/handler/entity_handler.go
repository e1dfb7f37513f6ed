package handler

import (
	"context"
	"fmt"

	"go-dropship-admin/internal/middleware"
	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PermissionFor builds the authorization middleware for one action of a module.
type PermissionFor func(action string) fiber.Handler

// EntityHandler serves the CRUD, trash and bulk routes of one entity collection.
type EntityHandler[T model.Record] struct {
	lifecycle service.LifecycleManager[T]
	bulk      service.BulkCoordinator[T]
	resource  string
}

func NewEntityHandler[T model.Record](lifecycle service.LifecycleManager[T], bulk service.BulkCoordinator[T], resource string) *EntityHandler[T] {
	return &EntityHandler[T]{lifecycle: lifecycle, bulk: bulk, resource: resource}
}

// Register mounts the collection under /<resource>. Static segments are
// registered before /:id so they are never captured as an id.
func (h *EntityHandler[T]) Register(router fiber.Router, perm PermissionFor) {
	r := router.Group("/" + h.resource)

	r.Get("/", perm(model.ActionView), h.List)
	r.Get("/trashed", perm(model.ActionTrashListing), h.Trashed)
	r.Post("/", perm(model.ActionCreate), h.Create)

	r.Delete("/bulk", perm(model.ActionPermanentDelete), h.bulkHandler(service.BulkPurge))
	r.Patch("/bulk/restore", perm(model.ActionRestore), h.bulkHandler(service.BulkRestore))
	r.Delete("/bulk/trash", perm(model.ActionSoftDelete), h.bulkHandler(service.BulkTrash))

	r.Get("/:id", perm(model.ActionView), h.Get)
	r.Put("/:id", perm(model.ActionUpdate), h.Update)
	r.Delete("/:id", perm(model.ActionSoftDelete), h.SoftDelete)
	r.Patch("/:id/restore", perm(model.ActionRestore), h.Restore)
	r.Delete("/:id/destroy", perm(model.ActionPermanentDelete), h.Destroy)
}

func (h *EntityHandler[T]) module() string {
	return h.lifecycle.Config().Module
}

func (h *EntityHandler[T]) key() string {
	return h.lifecycle.Config().EntityType
}

// List returns active entities
// GET /api/<panel>/<resource>
func (h *EntityHandler[T]) List(c *fiber.Ctx) error {
	return h.list(c, model.ListActive)
}

// Trashed returns entities in the trash
// GET /api/<panel>/<resource>/trashed
func (h *EntityHandler[T]) Trashed(c *fiber.Ctx) error {
	return h.list(c, model.ListTrashed)
}

func (h *EntityHandler[T]) list(c *fiber.Ctx, status model.ListStatus) error {
	entities, err := h.lifecycle.List(c.UserContext(), status)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(fiber.Map{"status": true, h.resource: entities})
}

// Get returns one entity, trashed or not
// GET /api/<panel>/<resource>/:id
func (h *EntityHandler[T]) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return middleware.Fail(c, service.NewValidationError("Invalid %s ID", h.key()))
	}

	entity, err := h.lifecycle.Get(c.UserContext(), id)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(fiber.Map{"status": true, h.key(): entity})
}

// Create handles entity creation
// POST /api/<panel>/<resource>
func (h *EntityHandler[T]) Create(c *fiber.Ctx) error {
	var entity T
	if err := c.BodyParser(&entity); err != nil {
		return middleware.Fail(c, service.NewValidationError("Invalid request body"))
	}

	created, err := h.lifecycle.Create(c.UserContext(), middleware.ActorFrom(c), &entity)
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  true,
		"message": fmt.Sprintf("%s created successfully", h.module()),
		h.key():   created,
	})
}

// Update merges the request body into an active entity
// PUT /api/<panel>/<resource>/:id
func (h *EntityHandler[T]) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return middleware.Fail(c, service.NewValidationError("Invalid %s ID", h.key()))
	}

	updated, err := h.lifecycle.Update(c.UserContext(), middleware.ActorFrom(c), id, func(entity *T) error {
		return c.BodyParser(entity)
	})
	if err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(fiber.Map{
		"status":  true,
		"message": fmt.Sprintf("%s updated successfully", h.module()),
		h.key():   updated,
	})
}

// SoftDelete moves an entity to the trash
// DELETE /api/<panel>/<resource>/:id
func (h *EntityHandler[T]) SoftDelete(c *fiber.Ctx) error {
	return h.transition(c, h.lifecycle.SoftDelete, "%s moved to trash")
}

// Restore brings an entity back from the trash
// PATCH /api/<panel>/<resource>/:id/restore
func (h *EntityHandler[T]) Restore(c *fiber.Ctx) error {
	return h.transition(c, h.lifecycle.Restore, "%s restored successfully")
}

// Destroy permanently deletes an entity
// DELETE /api/<panel>/<resource>/:id/destroy
func (h *EntityHandler[T]) Destroy(c *fiber.Ctx) error {
	return h.transition(c, h.lifecycle.Purge, "%s permanently deleted")
}

func (h *EntityHandler[T]) transition(c *fiber.Ctx, op func(context.Context, *model.ActorIdentity, uint) error, message string) error {
	id, err := paramID(c)
	if err != nil {
		return middleware.Fail(c, service.NewValidationError("Invalid %s ID", h.key()))
	}

	if err := op(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return middleware.Fail(c, err)
	}
	return c.JSON(fiber.Map{
		"status":  true,
		"message": fmt.Sprintf(message, h.module()),
	})
}

type bulkRequest struct {
	IDs IDList `json:"ids"`
}

// bulkHandler applies op to every id in the body. The batch answers 200 even
// when every item failed; per-item outcomes are in succeeded and failed.
// DELETE /api/<panel>/<resource>/bulk, PATCH .../bulk/restore, DELETE .../bulk/trash
func (h *EntityHandler[T]) bulkHandler(op service.BulkOp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req bulkRequest
		if err := c.BodyParser(&req); err != nil {
			return middleware.Fail(c, service.NewValidationError("ids must be a comma separated string or an array of positive integers"))
		}

		result, err := h.bulk.Apply(c.UserContext(), middleware.ActorFrom(c), req.IDs, op)
		if err != nil {
			return middleware.Fail(c, err)
		}
		return c.JSON(fiber.Map{
			"status":    true,
			"message":   fmt.Sprintf("Bulk %s processed: %d succeeded, %d failed", op, len(result.Succeeded), len(result.Failed)),
			"succeeded": result.Succeeded,
			"failed":    result.Failed,
		})
	}
}
