package repository

import (
	"context"
	"errors"

	"go-dropship-admin/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PermissionRepository interface {
	WithTx(tx *gorm.DB) PermissionRepository

	FindByKey(ctx context.Context, panel model.Panel, module, action string) (*model.GlobalPermission, error)
	FindByID(ctx context.Context, id uint) (*model.GlobalPermission, error)
	ListByPanel(ctx context.Context, panel model.Panel) ([]model.GlobalPermission, error)
	SetStatus(ctx context.Context, id uint, status bool) (int64, error)
	SeedDefaults(ctx context.Context) error

	FindStaffGrant(ctx context.Context, staffID, permissionID uint) (*model.StaffPermissionGrant, error)
	// FindRoleGrant only sees grants of roles that are still active.
	FindRoleGrant(ctx context.Context, roleID, permissionID uint) (*model.RolePermission, error)
	ListStaffGrants(ctx context.Context, staffID uint) ([]model.StaffPermissionGrant, error)
	UpsertStaffGrant(ctx context.Context, grant *model.StaffPermissionGrant) error
	UpsertRoleGrant(ctx context.Context, grant *model.RolePermission) error
}

type permissionRepo struct {
	db *gorm.DB
}

func NewPermissionRepo(db *gorm.DB) PermissionRepository {
	return &permissionRepo{db}
}

func (r *permissionRepo) WithTx(tx *gorm.DB) PermissionRepository {
	return &permissionRepo{tx}
}

func (r *permissionRepo) FindByKey(ctx context.Context, panel model.Panel, module, action string) (*model.GlobalPermission, error) {
	var perm model.GlobalPermission
	err := r.db.WithContext(ctx).
		Where("panel = ? AND module = ? AND action = ?", panel, module, action).
		First(&perm).Error
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *permissionRepo) FindByID(ctx context.Context, id uint) (*model.GlobalPermission, error) {
	var perm model.GlobalPermission
	if err := r.db.WithContext(ctx).First(&perm, id).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *permissionRepo) ListByPanel(ctx context.Context, panel model.Panel) ([]model.GlobalPermission, error) {
	perms := []model.GlobalPermission{}
	err := r.db.WithContext(ctx).Where("panel = ?", panel).Order("module ASC, id ASC").Find(&perms).Error
	return perms, err
}

func (r *permissionRepo) SetStatus(ctx context.Context, id uint, status bool) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.GlobalPermission{}).Where("id = ?", id).Update("status", status)
	return res.RowsAffected, res.Error
}

// SeedDefaults creates the default catalogue entries that don't exist yet.
// Existing rows keep their status.
func (r *permissionRepo) SeedDefaults(ctx context.Context) error {
	for _, p := range model.DefaultGlobalPermissions() {
		_, err := r.FindByKey(ctx, p.Panel, p.Module, p.Action)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			perm := p
			if err := r.db.WithContext(ctx).Create(&perm).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *permissionRepo) FindStaffGrant(ctx context.Context, staffID, permissionID uint) (*model.StaffPermissionGrant, error) {
	var grant model.StaffPermissionGrant
	err := r.db.WithContext(ctx).
		Where("staff_id = ? AND permission_id = ?", staffID, permissionID).
		First(&grant).Error
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *permissionRepo) FindRoleGrant(ctx context.Context, roleID, permissionID uint) (*model.RolePermission, error) {
	var grant model.RolePermission
	err := r.db.WithContext(ctx).
		Joins("JOIN roles ON roles.id = role_permissions.role_id AND roles.deleted_at IS NULL").
		Where("role_permissions.role_id = ? AND role_permissions.permission_id = ?", roleID, permissionID).
		First(&grant).Error
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *permissionRepo) ListStaffGrants(ctx context.Context, staffID uint) ([]model.StaffPermissionGrant, error) {
	grants := []model.StaffPermissionGrant{}
	err := r.db.WithContext(ctx).Preload("Permission").Where("staff_id = ?", staffID).Find(&grants).Error
	return grants, err
}

func (r *permissionRepo) UpsertStaffGrant(ctx context.Context, grant *model.StaffPermissionGrant) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "staff_id"}, {Name: "permission_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(grant).Error
}

func (r *permissionRepo) UpsertRoleGrant(ctx context.Context, grant *model.RolePermission) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "role_id"}, {Name: "permission_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(grant).Error
}
