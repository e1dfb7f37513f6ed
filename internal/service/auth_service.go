package service

import (
	"context"
	"errors"

	"go-dropship-admin/internal/repository"
	"go-dropship-admin/pkg/jwt"

	"gorm.io/gorm"
)

// StaffTokenRole is the role claim carried by tokens issued to staff.
const StaffTokenRole = "staff"

var ErrInvalidCredentials = NewValidationError("Invalid email or password")

type AuthService interface {
	// Login exchanges credentials for an actor token. Principals are matched
	// first, then staff.
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	// IssueToken signs a token for an existing actor without a password.
	IssueToken(ctx context.Context, actorID uint, role string) (*LoginResponse, error)
	ResetPassword(ctx context.Context, email, newPassword string) error
}

type LoginResponse struct {
	Token     string `json:"token"`
	ActorID   uint   `json:"actor_id"`
	ActorRole string `json:"actor_role"`
	Name      string `json:"name"`
}

type authService struct {
	principalRepo repository.PrincipalRepository
	staffRepo     repository.StaffRepository
	resolver      ActorResolver
	signer        *jwt.Signer
}

func NewAuthService(principalRepo repository.PrincipalRepository, staffRepo repository.StaffRepository, resolver ActorResolver, signer *jwt.Signer) AuthService {
	return &authService{
		principalRepo: principalRepo,
		staffRepo:     staffRepo,
		resolver:      resolver,
		signer:        signer,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	principal, err := s.principalRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !principal.CheckPassword(password) {
			return nil, ErrInvalidCredentials
		}
		return s.sign(principal.ID, string(principal.Role), principal.Name)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, NewInternalError(err)
	}

	staff, err := s.staffRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, NewInternalError(err)
	}
	if !staff.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return s.sign(staff.ID, StaffTokenRole, staff.Name)
}

func (s *authService) IssueToken(ctx context.Context, actorID uint, role string) (*LoginResponse, error) {
	actor, err := s.resolver.Resolve(ctx, int64(actorID), role)
	if err != nil {
		return nil, err
	}
	return s.sign(actor.ID, actor.Role, actor.Name())
}

func (s *authService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if len(newPassword) < 8 || len(newPassword) > 72 {
		return NewValidationError("Password must be between 8 and 72 characters")
	}

	principal, err := s.principalRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError("No account registered for %s", email)
	}
	if err != nil {
		return NewInternalError(err)
	}

	if err := principal.SetPassword(newPassword); err != nil {
		return NewInternalError(err)
	}
	if err := s.principalRepo.UpdatePassword(ctx, principal.ID, principal.Password); err != nil {
		return NewInternalError(err)
	}
	return nil
}

func (s *authService) sign(id uint, role, name string) (*LoginResponse, error) {
	token, err := s.signer.GenerateToken(int64(id), role)
	if err != nil {
		return nil, NewInternalError(err)
	}
	return &LoginResponse{Token: token, ActorID: id, ActorRole: role, Name: name}, nil
}
