package repository

import (
	"context"

	"go-dropship-admin/internal/model"

	"gorm.io/gorm"
)

type StaffRepository interface {
	// FindByID returns an active staff member with its owning principal preloaded.
	FindByID(ctx context.Context, id uint) (*model.Staff, error)
	FindByEmail(ctx context.Context, email string) (*model.Staff, error)
	AssignRole(ctx context.Context, staffID uint, roleID *uint) (int64, error)
}

type staffRepo struct {
	db *gorm.DB
}

func NewStaffRepo(db *gorm.DB) StaffRepository {
	return &staffRepo{db}
}

func (r *staffRepo) FindByID(ctx context.Context, id uint) (*model.Staff, error) {
	var staff model.Staff
	if err := r.db.WithContext(ctx).Preload("Admin").First(&staff, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepo) FindByEmail(ctx context.Context, email string) (*model.Staff, error) {
	var staff model.Staff
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&staff).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepo) AssignRole(ctx context.Context, staffID uint, roleID *uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Staff{}).Where("id = ?", staffID).Update("role_id", roleID)
	return res.RowsAffected, res.Error
}

// StaffPanelScope limits a lifecycle repository to staff working in one panel.
func StaffPanelScope(panel model.Panel) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("panel = ?", panel)
	}
}

// PurgeStaffReferences drops the direct grants of a purged staff member.
func PurgeStaffReferences(tx *gorm.DB, staffID uint) error {
	return tx.Where("staff_id = ?", staffID).Delete(&model.StaffPermissionGrant{}).Error
}
