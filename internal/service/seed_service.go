package service

import (
	"context"
	"errors"

	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/repository"
	"go-dropship-admin/pkg/logger"

	"gorm.io/gorm"
)

// AdminAccount is the bootstrap platform admin created by Seed.
type AdminAccount struct {
	Name     string
	Email    string
	Password string
}

var DefaultAdminAccount = AdminAccount{
	Name:     "Platform Administrator",
	Email:    "admin@example.com",
	Password: "admin12345",
}

type SeedService interface {
	// Seed creates the default permission catalogue and the bootstrap admin.
	// Existing rows are left untouched, so it is safe to run on every start.
	Seed(ctx context.Context, admin AdminAccount) error
}

type seedService struct {
	permRepo      repository.PermissionRepository
	principalRepo repository.PrincipalRepository
	log           *logger.Logger
}

func NewSeedService(permRepo repository.PermissionRepository, principalRepo repository.PrincipalRepository, log *logger.Logger) SeedService {
	return &seedService{permRepo: permRepo, principalRepo: principalRepo, log: log.Named("seed")}
}

func (s *seedService) Seed(ctx context.Context, admin AdminAccount) error {
	if err := s.permRepo.SeedDefaults(ctx); err != nil {
		return NewInternalError(err)
	}
	s.log.Info("Default permissions seeded")

	_, err := s.principalRepo.FindByEmail(ctx, admin.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return NewInternalError(err)
	}

	principal := &model.Principal{
		Name:  admin.Name,
		Email: admin.Email,
		Role:  model.RoleAdmin,
	}
	if err := principal.SetPassword(admin.Password); err != nil {
		return NewInternalError(err)
	}
	if err := s.principalRepo.Create(ctx, principal); err != nil {
		return NewInternalError(err)
	}
	s.log.Infof("Admin principal created: %s (id=%d)", admin.Email, principal.ID)
	return nil
}
