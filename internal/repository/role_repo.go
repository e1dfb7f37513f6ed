package repository

import (
	"context"

	"go-dropship-admin/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Role, error)
	FindByName(ctx context.Context, panel model.Panel, name string) (*model.Role, error)
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

// FindByID returns an active role with its grants.
func (r *roleRepo) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Preload("Permissions.Permission").First(&role, id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByName(ctx context.Context, panel model.Panel, name string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Where("panel = ? AND name = ?", panel, name).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// RolePanelScope limits a lifecycle repository to roles of one panel.
func RolePanelScope(panel model.Panel) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("panel = ?", panel)
	}
}

// PurgeRoleReferences drops the grants of a purged role and unassigns it from staff.
func PurgeRoleReferences(tx *gorm.DB, roleID uint) error {
	if err := tx.Where("role_id = ?", roleID).Delete(&model.RolePermission{}).Error; err != nil {
		return err
	}
	return tx.Unscoped().Model(&model.Staff{}).Where("role_id = ?", roleID).Update("role_id", nil).Error
}
