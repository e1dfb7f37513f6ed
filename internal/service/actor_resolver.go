package service

import (
	"context"
	"errors"
	"strings"

	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/repository"

	"gorm.io/gorm"
)

type ActorResolver interface {
	// Resolve identifies the caller. Business absence is a NotFound AppError;
	// only storage failures come back as Internal.
	Resolve(ctx context.Context, claimedID int64, claimedRole string) (*model.ActorIdentity, error)
}

type actorResolver struct {
	principalRepo repository.PrincipalRepository
	staffRepo     repository.StaffRepository
}

func NewActorResolver(principalRepo repository.PrincipalRepository, staffRepo repository.StaffRepository) ActorResolver {
	return &actorResolver{
		principalRepo: principalRepo,
		staffRepo:     staffRepo,
	}
}

func (r *actorResolver) Resolve(ctx context.Context, claimedID int64, claimedRole string) (*model.ActorIdentity, error) {
	if claimedID <= 0 {
		return nil, NewValidationError("User ID must be a positive integer")
	}
	claimedRole = strings.TrimSpace(claimedRole)
	if claimedRole == "" {
		return nil, NewValidationError("User role is required")
	}
	id := uint(claimedID)

	if role, ok := model.ParsePrincipalRole(claimedRole); ok {
		principal, err := r.principalRepo.FindByIDAndRole(ctx, id, role)
		if err != nil {
			return nil, absenceOrInternal(err, MsgActorNotFound)
		}
		return model.NewPrincipalActor(principal), nil
	}

	// Staff role strings are free-form: look up by id alone and keep the
	// claimed role for the record.
	staff, err := r.staffRepo.FindByID(ctx, id)
	if err != nil {
		return nil, absenceOrInternal(err, MsgActorNotFound)
	}
	return model.NewStaffActor(staff, claimedRole), nil
}

func absenceOrInternal(err error, notFoundMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError("%s", notFoundMsg)
	}
	return NewInternalError(err)
}
