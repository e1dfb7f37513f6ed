package repository

import (
	"context"

	"go-dropship-admin/internal/model"

	"gorm.io/gorm"
)

type PrincipalRepository interface {
	// FindByIDAndRole treats the role as part of the key: an id with another
	// role is reported as gorm.ErrRecordNotFound.
	FindByIDAndRole(ctx context.Context, id uint, role model.PrincipalRole) (*model.Principal, error)
	FindByEmail(ctx context.Context, email string) (*model.Principal, error)
	Create(ctx context.Context, principal *model.Principal) error
	UpdatePassword(ctx context.Context, id uint, hashedPassword string) error
}

type principalRepo struct {
	db *gorm.DB
}

func NewPrincipalRepo(db *gorm.DB) PrincipalRepository {
	return &principalRepo{db}
}

func (r *principalRepo) FindByIDAndRole(ctx context.Context, id uint, role model.PrincipalRole) (*model.Principal, error) {
	var principal model.Principal
	if err := r.db.WithContext(ctx).Where("id = ? AND role = ?", id, role).First(&principal).Error; err != nil {
		return nil, err
	}
	return &principal, nil
}

func (r *principalRepo) FindByEmail(ctx context.Context, email string) (*model.Principal, error) {
	var principal model.Principal
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&principal).Error; err != nil {
		return nil, err
	}
	return &principal, nil
}

func (r *principalRepo) Create(ctx context.Context, principal *model.Principal) error {
	return r.db.WithContext(ctx).Create(principal).Error
}

func (r *principalRepo) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	return r.db.WithContext(ctx).Model(&model.Principal{}).Where("id = ?", id).Update("password", hashedPassword).Error
}

// PrincipalRoleScope limits a lifecycle repository to principals of one role.
func PrincipalRoleScope(role model.PrincipalRole) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("role = ?", role)
	}
}
