package middleware

import (
	"strconv"
	"strings"

	"go-dropship-admin/internal/audit"
	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/service"
	"go-dropship-admin/pkg/jwt"
	"go-dropship-admin/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

const (
	localActor = "actor"
	localPanel = "panel"
)

// ResolveActor identifies the caller of a panel route from the x-<panel>-id and
// x-<panel>-role headers, or from a bearer token carrying the same pair, and
// stores the resolved identity for downstream handlers.
func ResolveActor(panel model.Panel, resolver service.ActorResolver, signer *jwt.Signer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rawID := strings.TrimSpace(c.Get(panel.IDHeader()))
		role := c.Get(panel.RoleHeader())

		var id int64
		switch {
		case rawID != "":
			parsed, err := strconv.ParseInt(rawID, 10, 64)
			if err != nil {
				return abort(c, fiber.StatusBadRequest, "Header "+panel.IDHeader()+" must be numeric")
			}
			id = parsed

		case c.Get(fiber.HeaderAuthorization) != "" && signer != nil:
			parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return abort(c, fiber.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>")
			}
			claims, err := signer.ValidateToken(parts[1])
			if err != nil {
				return abort(c, fiber.StatusUnauthorized, "Invalid or expired token")
			}
			id, role = claims.ActorID, claims.ActorRole

		default:
			return abort(c, fiber.StatusBadRequest, "Missing "+panel.IDHeader()+" header")
		}

		actor, err := resolver.Resolve(c.UserContext(), id, role)
		if err != nil {
			return Fail(c, err)
		}
		if actor.Panel() != panel {
			return abort(c, fiber.StatusForbidden, "Account belongs to another panel")
		}

		c.Locals(localActor, actor)
		c.Locals(localPanel, panel)
		c.SetUserContext(model.WithActor(c.UserContext(), actor))
		return c.Next()
	}
}

// ActorFrom returns the identity stored by ResolveActor.
func ActorFrom(c *fiber.Ctx) *model.ActorIdentity {
	actor, _ := c.Locals(localActor).(*model.ActorIdentity)
	return actor
}

func PanelFrom(c *fiber.Ctx) model.Panel {
	panel, _ := c.Locals(localPanel).(model.Panel)
	return panel
}

// RequirePermission authorizes the resolved actor for one (module, action) of the
// route's panel. Denials are written to the audit trail.
func RequirePermission(authz service.Authorizer, recorder audit.Recorder, module, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		if actor == nil {
			return abort(c, fiber.StatusUnauthorized, "Unauthenticated")
		}
		panel := PanelFrom(c)

		decision, err := authz.Authorize(c.UserContext(), actor, service.PermissionKey{
			Panel:  panel,
			Module: module,
			Action: action,
		})
		if err != nil {
			return Fail(c, err)
		}
		if decision.Allowed {
			return c.Next()
		}

		if recorder != nil {
			rec := audit.NewRecord(actor, panel, module, action)
			rec.Outcome = model.OutcomeDenied
			rec.Reason = decision.Reason
			if id, err := strconv.ParseUint(c.Params("id"), 10, 64); err == nil {
				rec.EntityID = uint(id)
			}
			if err := recorder.Record(c.UserContext(), rec); err != nil {
				logger.Default().Named("http").Warnf("audit record for denied %s %s not stored: %v", module, action, err)
			}
		}
		return abort(c, fiber.StatusForbidden, decision.Reason)
	}
}

// RequirePrincipal rejects delegated staff outright.
func RequirePrincipal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		if actor == nil {
			return abort(c, fiber.StatusUnauthorized, "Unauthenticated")
		}
		if actor.IsDelegated() {
			return abort(c, fiber.StatusForbidden, "Only account owners can perform this action")
		}
		return c.Next()
	}
}
