package service

import (
	"context"
	"errors"
	"fmt"

	"go-dropship-admin/internal/audit"
	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/repository"
	"go-dropship-admin/pkg/logger"

	"gorm.io/gorm"
)

// GrantInput sets one permission on a staff member or role.
type GrantInput struct {
	PermissionID uint `json:"permission_id" validate:"required"`
	Status       bool `json:"status"`
}

type GrantsRequest struct {
	Grants []GrantInput `json:"grants" validate:"required,min=1,dive"`
}

// PolicyService administers the permission catalogue and the grants the
// Authorizer reads. Every successful write invalidates cached decisions before
// it returns.
type PolicyService interface {
	ListPermissions(ctx context.Context, panel model.Panel) ([]model.GlobalPermission, error)
	SetPermissionStatus(ctx context.Context, actor *model.ActorIdentity, panel model.Panel, id uint, status bool) (*model.GlobalPermission, error)
	ListStaffGrants(ctx context.Context, actor *model.ActorIdentity, panel model.Panel, staffID uint) ([]model.StaffPermissionGrant, error)
	SetStaffGrants(ctx context.Context, actor *model.ActorIdentity, panel model.Panel, staffID uint, req GrantsRequest) ([]model.StaffPermissionGrant, error)
	SetRoleGrants(ctx context.Context, actor *model.ActorIdentity, panel model.Panel, roleID uint, req GrantsRequest) (*model.Role, error)
	AssignRole(ctx context.Context, actor *model.ActorIdentity, panel model.Panel, staffID uint, roleID *uint) (*model.Staff, error)
}

type policyService struct {
	db        *gorm.DB
	permRepo  repository.PermissionRepository
	staffRepo repository.StaffRepository
	roleRepo  repository.RoleRepository
	cache     DecisionCache
	recorder  audit.Recorder
	log       *logger.Logger
}

func NewPolicyService(
	db *gorm.DB,
	permRepo repository.PermissionRepository,
	staffRepo repository.StaffRepository,
	roleRepo repository.RoleRepository,
	cache DecisionCache,
	recorder audit.Recorder,
	log *logger.Logger,
) PolicyService {
	if cache == nil {
		cache = NoopDecisionCache{}
	}
	return &policyService{
		db:        db,
		permRepo:  permRepo,
		staffRepo: staffRepo,
		roleRepo:  roleRepo,
		cache:     cache,
		recorder:  recorder,
		log:       log.Named("policy"),
	}
}

func (s *policyService) ListPermissions(ctx context.Context, panel model.Panel) ([]model.GlobalPermission, error) {
	perms, err := s.permRepo.ListByPanel(ctx, panel)
	if err != nil {
		return nil, NewInternalError(err)
	}
	return perms, nil
}

func (s *policyService) SetPermissionStatus(ctx context.Context, actor *model.ActorIdentity, panel model.Panel, id uint, status bool) (*model.GlobalPermission, error) {
	rec := s.newRecord(actor, panel, "global_permission", id)

	if panel != model.PanelAdmin {
		return nil, s.finish(ctx, rec, NewPermissionDeniedError("Only the admin panel can change platform-wide permissions"))
	}

	perm, err := s.permRepo.FindByID(ctx, id)
	if err != nil {
		return nil, s.finish(ctx, rec, lookupError(err, "Permission not found"))
	}
	rec.Before = audit.Snapshot(perm)

	if _, err := s.permRepo.SetStatus(ctx, id, status); err != nil {
		return nil, s.finish(ctx, rec, NewInternalError(err))
	}
	perm.Status = status
	rec.After = audit.Snapshot(perm)
	return perm, s.finish(ctx, rec, s.invalidate(ctx))
}

func (s *policyService) ListStaffGrants(ctx context.Context, actor *model.ActorIdentity, panel model.Panel, staffID uint) ([]model.StaffPermissionGrant, error) {
	if _, err := s.managedStaff(ctx, actor, panel, staffID); err != nil {
		return nil, err
	}
	grants, err := s.permRepo.ListStaffGrants(ctx, staffID)
	if err != nil {
		return nil, NewInternalError(err)
	}
	return grants, nil
}

func (s *policyService) SetStaffGrants(ctx context.Context, actor *model.ActorIdentity, panel model.Panel, staffID uint, req GrantsRequest) ([]model.StaffPermissionGrant, error) {
	rec := s.newRecord(actor, panel, "staff_grant", staffID)

	staff, err := s.managedStaff(ctx, actor, panel, staffID)
	if err != nil {
		return nil, s.finish(ctx, rec, err)
	}
	if err := s.checkGrants(ctx, staff.Panel, req); err != nil {
		return nil, s.finish(ctx, rec, err)
	}
	if before, err := s.permRepo.ListStaffGrants(ctx, staffID); err == nil {
		rec.Before = audit.Snapshot(before)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.permRepo.WithTx(tx)
		for _, g := range req.Grants {
			if err := repo.UpsertStaffGrant(ctx, &model.StaffPermissionGrant{
				StaffID:      staffID,
				PermissionID: g.PermissionID,
				Status:       g.Status,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.finish(ctx, rec, NewInternalError(err))
	}

	grants, err := s.permRepo.ListStaffGrants(ctx, staffID)
	if err != nil {
		return nil, s.finish(ctx, rec, NewInternalError(err))
	}
	rec.After = audit.Snapshot(grants)
	return grants, s.finish(ctx, rec, s.invalidate(ctx))
}

func (s *policyService) SetRoleGrants(ctx context.Context, actor *model.ActorIdentity, panel model.Panel, roleID uint, req GrantsRequest) (*model.Role, error) {
	rec := s.newRecord(actor, panel, "role_grant", roleID)

	if actor.IsDelegated() && actor.Staff != nil && actor.Staff.RoleID != nil && *actor.Staff.RoleID == roleID {
		return nil, s.finish(ctx, rec, NewPermissionDeniedError("Staff cannot change the grants of their own role"))
	}

	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		return nil, s.finish(ctx, rec, lookupError(err, "Role not found"))
	}
	if role.Panel != panel || (panel != model.PanelAdmin && role.OwnerID != actor.PrincipalID()) {
		return nil, s.finish(ctx, rec, NewNotFoundError("Role not found"))
	}
	if err := s.checkGrants(ctx, role.Panel, req); err != nil {
		return nil, s.finish(ctx, rec, err)
	}
	rec.Before = audit.Snapshot(role.Permissions)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.permRepo.WithTx(tx)
		for _, g := range req.Grants {
			if err := repo.UpsertRoleGrant(ctx, &model.RolePermission{
				RoleID:       roleID,
				PermissionID: g.PermissionID,
				Status:       g.Status,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.finish(ctx, rec, NewInternalError(err))
	}

	role, err = s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		return nil, s.finish(ctx, rec, lookupError(err, "Role not found"))
	}
	rec.After = audit.Snapshot(role.Permissions)
	return role, s.finish(ctx, rec, s.invalidate(ctx))
}

func (s *policyService) AssignRole(ctx context.Context, actor *model.ActorIdentity, panel model.Panel, staffID uint, roleID *uint) (*model.Staff, error) {
	rec := s.newRecord(actor, panel, "staff_role", staffID)

	staff, err := s.managedStaff(ctx, actor, panel, staffID)
	if err != nil {
		return nil, s.finish(ctx, rec, err)
	}
	rec.Before = audit.Snapshot(map[string]*uint{"role_id": staff.RoleID})

	if roleID != nil {
		role, err := s.roleRepo.FindByID(ctx, *roleID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.finish(ctx, rec, NewValidationError("Role %d does not exist or is trashed", *roleID))
		}
		if err != nil {
			return nil, s.finish(ctx, rec, NewInternalError(err))
		}
		if role.Panel != staff.Panel {
			return nil, s.finish(ctx, rec, NewValidationError("Role %d belongs to the %s panel", *roleID, role.Panel))
		}
		if staff.Panel != model.PanelAdmin && role.OwnerID != staff.AdminID {
			return nil, s.finish(ctx, rec, NewValidationError("Role %d belongs to another account", *roleID))
		}
	}

	n, err := s.staffRepo.AssignRole(ctx, staffID, roleID)
	if err != nil {
		return nil, s.finish(ctx, rec, NewInternalError(err))
	}
	if n == 0 {
		return nil, s.finish(ctx, rec, NewNotFoundError("Staff not found"))
	}

	staff.RoleID = roleID
	rec.After = audit.Snapshot(map[string]*uint{"role_id": roleID})
	return staff, s.finish(ctx, rec, s.invalidate(ctx))
}

// managedStaff loads an active staff member the actor may administer: same
// panel, and outside the admin panel, owned by the actor's principal. Staff
// never manage their own permissions.
func (s *policyService) managedStaff(ctx context.Context, actor *model.ActorIdentity, panel model.Panel, staffID uint) (*model.Staff, error) {
	if actor.IsDelegated() && actor.ID == staffID {
		return nil, NewPermissionDeniedError("Staff cannot change their own permissions")
	}

	staff, err := s.staffRepo.FindByID(ctx, staffID)
	if err != nil {
		return nil, lookupError(err, "Staff not found")
	}
	if staff.Panel != panel {
		return nil, NewNotFoundError("Staff not found")
	}
	if panel != model.PanelAdmin && staff.AdminID != actor.PrincipalID() {
		return nil, NewNotFoundError("Staff not found")
	}
	return staff, nil
}

func (s *policyService) checkGrants(ctx context.Context, panel model.Panel, req GrantsRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	for _, g := range req.Grants {
		perm, err := s.permRepo.FindByID(ctx, g.PermissionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewValidationError("Permission %d does not exist", g.PermissionID)
		}
		if err != nil {
			return NewInternalError(err)
		}
		if perm.Panel != panel {
			return NewValidationError("Permission %d belongs to the %s panel", g.PermissionID, perm.Panel)
		}
	}
	return nil
}

func (s *policyService) invalidate(ctx context.Context) error {
	if err := s.cache.Invalidate(ctx); err != nil {
		return NewInternalError(fmt.Errorf("invalidate decision cache: %w", err))
	}
	return nil
}

func (s *policyService) newRecord(actor *model.ActorIdentity, panel model.Panel, entityType string, id uint) *model.AuditRecord {
	rec := audit.NewRecord(actor, panel, model.ModulePermission, model.ActionUpdate)
	rec.EntityType = entityType
	rec.EntityID = id
	return rec
}

func (s *policyService) finish(ctx context.Context, rec *model.AuditRecord, err error) error {
	if err != nil {
		rec.Outcome = model.OutcomeFailed
		rec.Reason = MessageOf(err)
		if KindOf(err) == KindInternal {
			s.log.Errorf(err, "%s %d failed (correlation_id=%s)", rec.EntityType, rec.EntityID, rec.CorrelationID)
			err = withCorrelation(err, rec.CorrelationID.String())
		}
	}
	if s.recorder != nil {
		if recErr := s.recorder.Record(ctx, rec); recErr != nil {
			s.log.Warnf("audit record for %s %d not stored: %v", rec.EntityType, rec.EntityID, recErr)
		}
	}
	return err
}

func lookupError(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError("%s", notFound)
	}
	return NewInternalError(err)
}
