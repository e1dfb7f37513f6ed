package handler

import (
	"context"

	"go-dropship-admin/internal/audit"
	"go-dropship-admin/internal/middleware"
	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/repository"
	"go-dropship-admin/internal/service"
	"go-dropship-admin/internal/ws"
	"go-dropship-admin/pkg/jwt"
	"go-dropship-admin/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Dependencies is everything the HTTP surface is wired from.
type Dependencies struct {
	DB              *gorm.DB
	Resolver        service.ActorResolver
	Authorizer      service.Authorizer
	Policy          service.PolicyService
	Audit           service.AuditService
	Auth            service.AuthService
	Recorder        audit.Recorder
	Cache           service.DecisionCache
	Signer          *jwt.Signer
	Hub             *ws.Hub
	BulkConcurrency int
	Log             *logger.Logger
}

// Register mounts /healthz, /metrics, /ws, /api/auth and one /api/<panel>
// group per panel.
func Register(app *fiber.App, deps Dependencies) {
	health := NewHealthHandler(deps.DB, deps.Hub)
	app.Get("/healthz", health.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if deps.Hub != nil {
		registerWebsocket(app, deps.Hub)
	}

	api := app.Group("/api")
	if deps.Auth != nil {
		api.Post("/auth/login", NewAuthHandler(deps.Auth).Login)
	}

	policy := NewPolicyHandler(deps.Policy)
	auditLogs := NewAuditHandler(deps.Audit)

	for _, panel := range model.Panels {
		router := api.Group("/"+panel.Slug(), middleware.ResolveActor(panel, deps.Resolver, deps.Signer))

		for _, module := range model.PanelModules(panel) {
			mountEntity(router, panel, module, deps)
		}

		policy.Register(router, deps.permissionFor(model.ModulePermission))
		router.Get("/audit-logs", deps.permissionFor(model.ModuleAudit)(model.ActionView), auditLogs.ListAuditLogs)
	}
}

func (d Dependencies) permissionFor(module string) PermissionFor {
	return func(action string) fiber.Handler {
		return middleware.RequirePermission(d.Authorizer, d.Recorder, module, action)
	}
}

func (d Dependencies) invalidateDecisions(ctx context.Context) error {
	if d.Cache == nil {
		return nil
	}
	return d.Cache.Invalidate(ctx)
}

func mountEntity(router fiber.Router, panel model.Panel, module string, deps Dependencies) {
	switch module {
	case model.ModuleBrand:
		mount[model.Brand](router, deps, "brands", service.EntityConfig[model.Brand]{
			EntityType: "brand", Panel: panel, Module: module,
		})
	case model.ModuleCategory:
		mount[model.Category](router, deps, "categories", service.EntityConfig[model.Category]{
			EntityType: "category", Panel: panel, Module: module,
		})
	case model.ModuleProduct:
		mount[model.Product](router, deps, "products", service.EntityConfig[model.Product]{
			EntityType: "product", Panel: panel, Module: module,
		})
	case model.ModuleWarehouse:
		mount[model.Warehouse](router, deps, "warehouses", service.EntityConfig[model.Warehouse]{
			EntityType: "warehouse", Panel: panel, Module: module,
		})
	case model.ModulePincode:
		mount[model.Pincode](router, deps, "pincodes", service.EntityConfig[model.Pincode]{
			EntityType: "pincode", Panel: panel, Module: module,
		})
	case model.ModuleSupplier:
		mount[model.Principal](router, deps, "suppliers", principalConfig(panel, module, "supplier", model.RoleSupplier),
			repository.PrincipalRoleScope(model.RoleSupplier))
	case model.ModuleDropshipper:
		mount[model.Principal](router, deps, "dropshippers", principalConfig(panel, module, "dropshipper", model.RoleDropshipper),
			repository.PrincipalRoleScope(model.RoleDropshipper))
	case model.ModuleRole:
		roles := repository.NewSoftDeleteRepository[model.Role](deps.DB, ownedScopes(panel, repository.RolePanelScope(panel), "owner_id")...)
		mountRepo(router, deps, "roles", roleConfig(panel, deps), roles.WithPurgeCleanup(repository.PurgeRoleReferences))
	case model.ModuleStaff:
		staff := repository.NewSoftDeleteRepository[model.Staff](deps.DB, ownedScopes(panel, repository.StaffPanelScope(panel), "admin_id")...)
		mountRepo(router, deps, "staff", staffConfig(panel, deps), staff.WithPurgeCleanup(repository.PurgeStaffReferences))
	}
}

func mount[T model.Record](router fiber.Router, deps Dependencies, resource string, cfg service.EntityConfig[T], scopes ...repository.Scope) {
	mountRepo(router, deps, resource, cfg, repository.NewSoftDeleteRepository[T](deps.DB, scopes...))
}

func mountRepo[T model.Record](router fiber.Router, deps Dependencies, resource string, cfg service.EntityConfig[T], repo *repository.SoftDeleteRepository[T]) {
	lifecycle := service.NewLifecycleManager[T](repo, cfg, deps.Recorder, deps.Log)
	bulk := service.NewBulkCoordinator[T](lifecycle, deps.BulkConcurrency, deps.Log)
	NewEntityHandler[T](lifecycle, bulk, resource).Register(router, deps.permissionFor(cfg.Module))
}

// ownedScopes adds per-account ownership outside the admin panel.
func ownedScopes(panel model.Panel, panelScope repository.Scope, ownerColumn string) []repository.Scope {
	if panel == model.PanelAdmin {
		return []repository.Scope{panelScope}
	}
	return []repository.Scope{panelScope, repository.OwnerScope(ownerColumn)}
}

func principalConfig(panel model.Panel, module, entityType string, role model.PrincipalRole) service.EntityConfig[model.Principal] {
	return service.EntityConfig[model.Principal]{
		EntityType: entityType,
		Panel:      panel,
		Module:     module,
		Prepare: func(_ *model.ActorIdentity, p, _ *model.Principal) {
			p.Role = role
		},
	}
}

func roleConfig(panel model.Panel, deps Dependencies) service.EntityConfig[model.Role] {
	return service.EntityConfig[model.Role]{
		EntityType: "role",
		Panel:      panel,
		Module:     model.ModuleRole,
		Prepare: func(actor *model.ActorIdentity, r, previous *model.Role) {
			r.Panel = panel
			r.Permissions = nil
			if previous == nil {
				r.OwnerID = actor.PrincipalID()
			} else {
				r.OwnerID = previous.OwnerID
			}
		},
		// Trashing or purging a role changes what its holders may do.
		OnChange: deps.invalidateDecisions,
	}
}

func staffConfig(panel model.Panel, deps Dependencies) service.EntityConfig[model.Staff] {
	return service.EntityConfig[model.Staff]{
		EntityType: "staff",
		Panel:      panel,
		Module:     model.ModuleStaff,
		Prepare: func(actor *model.ActorIdentity, s, previous *model.Staff) {
			s.Panel = panel
			s.Admin = nil
			s.Role = nil
			if previous == nil {
				s.AdminID = actor.PrincipalID()
				s.RoleID = nil
			} else {
				s.AdminID = previous.AdminID
				s.RoleID = previous.RoleID
			}
		},
		OnChange: deps.invalidateDecisions,
	}
}

func registerWebsocket(app *fiber.App, hub *ws.Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		hub.Register <- c
		defer func() { hub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
