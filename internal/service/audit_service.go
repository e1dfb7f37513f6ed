package service

import (
	"context"

	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/repository"
)

const maxAuditPage = 200

type AuditLogPage struct {
	Records []model.AuditRecord `json:"records"`
	Total   int64               `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

type AuditService interface {
	// List returns the panel's trail. Outside the admin panel an actor only sees
	// records attributed to its own principal.
	List(ctx context.Context, actor *model.ActorIdentity, panel model.Panel, filter repository.AuditFilter) (*AuditLogPage, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) List(ctx context.Context, actor *model.ActorIdentity, panel model.Panel, filter repository.AuditFilter) (*AuditLogPage, error) {
	filter.Panel = panel
	if panel != model.PanelAdmin {
		filter.PrincipalID = actor.PrincipalID()
	}
	if filter.Limit <= 0 || filter.Limit > maxAuditPage {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, NewInternalError(err)
	}
	return &AuditLogPage{Records: records, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}
