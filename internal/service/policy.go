package service

import (
	"context"
	"errors"

	"go-dropship-admin/internal/metrics"
	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/repository"

	"gorm.io/gorm"
)

const (
	ReasonPrincipal       = "principal"
	ReasonGranted         = "granted"
	ReasonFeatureDisabled = "feature disabled platform-wide"
	ReasonNoGrant         = "staff lacks explicit grant"
)

// Decision is the outcome of one authorization check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

func Allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }

func Deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// PermissionKey identifies one capability.
type PermissionKey struct {
	Panel  model.Panel
	Module string
	Action string
}

// GlobalPolicyGate is the platform-wide kill switch.
type GlobalPolicyGate interface {
	// Lookup returns the enabled permission row, or nil when the row is missing
	// or switched off.
	Lookup(ctx context.Context, key PermissionKey) (*model.GlobalPermission, error)
}

type globalPolicyGate struct {
	repo repository.PermissionRepository
}

func NewGlobalPolicyGate(repo repository.PermissionRepository) GlobalPolicyGate {
	return &globalPolicyGate{repo: repo}
}

func (g *globalPolicyGate) Lookup(ctx context.Context, key PermissionKey) (*model.GlobalPermission, error) {
	perm, err := g.repo.FindByKey(ctx, key.Panel, key.Module, key.Action)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !perm.Status {
		return nil, nil
	}
	return perm, nil
}

// StaffPermissionEngine answers whether a staff member holds a grant for an
// enabled permission.
type StaffPermissionEngine interface {
	HasGrant(ctx context.Context, staff *model.Staff, permission *model.GlobalPermission) (bool, error)
}

type staffPermissionEngine struct {
	repo repository.PermissionRepository
}

func NewStaffPermissionEngine(repo repository.PermissionRepository) StaffPermissionEngine {
	return &staffPermissionEngine{repo: repo}
}

// HasGrant consults the direct staff grant first; when one exists its status is
// final. Otherwise the grant of the staff's active role decides.
func (e *staffPermissionEngine) HasGrant(ctx context.Context, staff *model.Staff, permission *model.GlobalPermission) (bool, error) {
	direct, err := e.repo.FindStaffGrant(ctx, staff.ID, permission.ID)
	switch {
	case err == nil:
		return direct.Status, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}

	if staff.RoleID == nil {
		return false, nil
	}
	viaRole, err := e.repo.FindRoleGrant(ctx, *staff.RoleID, permission.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return viaRole.Status, nil
}

// Authorizer is the single decision point every mutating request goes through.
type Authorizer interface {
	Authorize(ctx context.Context, actor *model.ActorIdentity, key PermissionKey) (Decision, error)
}

type authorizer struct {
	gate   GlobalPolicyGate
	engine StaffPermissionEngine
	cache  DecisionCache
}

func NewAuthorizer(gate GlobalPolicyGate, engine StaffPermissionEngine, cache DecisionCache) Authorizer {
	if cache == nil {
		cache = NoopDecisionCache{}
	}
	return &authorizer{gate: gate, engine: engine, cache: cache}
}

func (a *authorizer) Authorize(ctx context.Context, actor *model.ActorIdentity, key PermissionKey) (Decision, error) {
	if !actor.IsDelegated() {
		a.observe(actor, key, Allow(ReasonPrincipal))
		return Allow(ReasonPrincipal), nil
	}

	cached, version, hit := a.cache.Get(ctx, actor.ID, key)
	if hit {
		a.observe(actor, key, cached)
		return cached, nil
	}

	d, err := a.decideStaff(ctx, actor.Staff, key)
	if err != nil {
		return Decision{}, NewInternalError(err)
	}
	a.cache.Put(ctx, version, actor.ID, key, d)
	a.observe(actor, key, d)
	return d, nil
}

func (a *authorizer) decideStaff(ctx context.Context, staff *model.Staff, key PermissionKey) (Decision, error) {
	if staff == nil {
		return Deny(ReasonNoGrant), nil
	}

	perm, err := a.gate.Lookup(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	if perm == nil {
		return Deny(ReasonFeatureDisabled), nil
	}

	granted, err := a.engine.HasGrant(ctx, staff, perm)
	if err != nil {
		return Decision{}, err
	}
	if !granted {
		return Deny(ReasonNoGrant), nil
	}
	return Allow(ReasonGranted), nil
}

func (a *authorizer) observe(actor *model.ActorIdentity, key PermissionKey, d Decision) {
	outcome := "deny"
	if d.Allowed {
		outcome = "allow"
	}
	metrics.AuthorizationDecisions.WithLabelValues(string(key.Panel), key.Module, actor.Kind.String(), outcome).Inc()
}

// Require turns a Deny into a PermissionDenied AppError.
func Require(ctx context.Context, a Authorizer, actor *model.ActorIdentity, key PermissionKey) error {
	d, err := a.Authorize(ctx, actor, key)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return NewPermissionDeniedError(d.Reason)
	}
	return nil
}
