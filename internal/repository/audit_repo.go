package repository

import (
	"context"

	"go-dropship-admin/internal/model"

	"gorm.io/gorm"
)

type AuditFilter struct {
	Panel       model.Panel
	PrincipalID uint
	Module      string
	EntityID    uint
	Limit       int
	Offset      int
}

type AuditRepository interface {
	Create(ctx context.Context, record *model.AuditRecord) error
	List(ctx context.Context, filter AuditFilter) ([]model.AuditRecord, int64, error)
}

type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db}
}

func (r *auditRepo) Create(ctx context.Context, record *model.AuditRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *auditRepo) List(ctx context.Context, filter AuditFilter) ([]model.AuditRecord, int64, error) {
	var (
		records = []model.AuditRecord{}
		count   int64
	)

	query := r.db.WithContext(ctx).Model(&model.AuditRecord{})
	if filter.Panel != "" {
		query = query.Where("panel = ?", filter.Panel)
	}
	if filter.PrincipalID != 0 {
		query = query.Where("principal_id = ?", filter.PrincipalID)
	}
	if filter.Module != "" {
		query = query.Where("module = ?", filter.Module)
	}
	if filter.EntityID != 0 {
		query = query.Where("entity_id = ?", filter.EntityID)
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := query.Order("id DESC").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, count, nil
}
