package model

import (
	"context"
	"strings"
)

// PrincipalRole is the closed set of top-level account roles.
type PrincipalRole string

const (
	RoleAdmin       PrincipalRole = "admin"
	RoleSupplier    PrincipalRole = "supplier"
	RoleDropshipper PrincipalRole = "dropshipper"
)

// ParsePrincipalRole reports whether s names a principal role. Matching is exact.
func ParsePrincipalRole(s string) (PrincipalRole, bool) {
	switch PrincipalRole(s) {
	case RoleAdmin, RoleSupplier, RoleDropshipper:
		return PrincipalRole(s), true
	}
	return "", false
}

// Panel is the dashboard a principal of this role works in.
func (r PrincipalRole) Panel() Panel {
	switch r {
	case RoleAdmin:
		return PanelAdmin
	case RoleSupplier:
		return PanelSupplier
	case RoleDropshipper:
		return PanelDropshipper
	}
	return ""
}

// Panel is the dashboard a request is served from. It is also the first element
// of every permission key.
type Panel string

const (
	PanelAdmin       Panel = "Admin"
	PanelSupplier    Panel = "Supplier"
	PanelDropshipper Panel = "Dropshipper"
)

var Panels = []Panel{PanelAdmin, PanelSupplier, PanelDropshipper}

// Slug is the lower-case form used in URLs and actor headers.
func (p Panel) Slug() string {
	return strings.ToLower(string(p))
}

func (p Panel) IDHeader() string {
	return "x-" + p.Slug() + "-id"
}

func (p Panel) RoleHeader() string {
	return "x-" + p.Slug() + "-role"
}

func ParsePanel(s string) (Panel, bool) {
	for _, p := range Panels {
		if strings.EqualFold(string(p), s) {
			return p, true
		}
	}
	return "", false
}

type ActorKind int

const (
	ActorPrincipal ActorKind = iota + 1
	ActorDelegatedStaff
)

func (k ActorKind) String() string {
	switch k {
	case ActorPrincipal:
		return "principal"
	case ActorDelegatedStaff:
		return "staff"
	}
	return "unknown"
}

// ActorIdentity is the resolved caller of a request.
//
// For a principal, Principal is the account itself. For delegated staff, Staff
// is set and Principal is the owning account the staff acts for (nil when the
// owner is no longer active).
type ActorIdentity struct {
	ID            uint
	Role          string
	Kind          ActorKind
	PrincipalRole PrincipalRole
	Principal     *Principal
	Staff         *Staff
}

func NewPrincipalActor(p *Principal) *ActorIdentity {
	return &ActorIdentity{
		ID:            p.ID,
		Role:          string(p.Role),
		Kind:          ActorPrincipal,
		PrincipalRole: p.Role,
		Principal:     p,
	}
}

func NewStaffActor(s *Staff, claimedRole string) *ActorIdentity {
	return &ActorIdentity{
		ID:        s.ID,
		Role:      claimedRole,
		Kind:      ActorDelegatedStaff,
		Principal: s.Admin,
		Staff:     s,
	}
}

func (a *ActorIdentity) IsDelegated() bool {
	return a.Kind == ActorDelegatedStaff
}

// PrincipalID is the business account audit records are attributed to.
func (a *ActorIdentity) PrincipalID() uint {
	if a.Kind == ActorDelegatedStaff {
		if a.Staff != nil {
			return a.Staff.AdminID
		}
		return 0
	}
	return a.ID
}

// Panel is the only dashboard the actor may act in.
func (a *ActorIdentity) Panel() Panel {
	if a.Kind == ActorDelegatedStaff {
		if a.Staff != nil {
			return a.Staff.Panel
		}
		return ""
	}
	return a.PrincipalRole.Panel()
}

func (a *ActorIdentity) Name() string {
	switch {
	case a.Staff != nil:
		return a.Staff.Name
	case a.Principal != nil:
		return a.Principal.Name
	}
	return ""
}

type actorContextKey struct{}

// WithActor stores the request's actor so storage scopes can see it.
func WithActor(ctx context.Context, actor *ActorIdentity) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) *ActorIdentity {
	if ctx == nil {
		return nil
	}
	actor, _ := ctx.Value(actorContextKey{}).(*ActorIdentity)
	return actor
}
