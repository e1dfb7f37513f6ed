package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/repository"
	"go-dropship-admin/pkg/database"
	"go-dropship-admin/pkg/logger"
	"go-dropship-admin/pkg/redis"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var staffSeq atomic.Int64

type fixture struct {
	db         *gorm.DB
	principals repository.PrincipalRepository
	staff      repository.StaffRepository
	roles      repository.RoleRepository
	perms      repository.PermissionRepository
	recorder   *memoryRecorder
	log        *logger.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.NewTestDB(t)
	require.NoError(t, model.AutoMigrate(db))

	f := &fixture{
		db:         db,
		principals: repository.NewPrincipalRepo(db),
		staff:      repository.NewStaffRepo(db),
		roles:      repository.NewRoleRepo(db),
		perms:      repository.NewPermissionRepo(db),
		recorder:   &memoryRecorder{},
		log:        logger.New().WithOutput(io.Discard),
	}
	require.NoError(t, f.perms.SeedDefaults(context.Background()))
	return f
}

func (f *fixture) principal(t *testing.T, email string, role model.PrincipalRole) *model.Principal {
	t.Helper()
	p := &model.Principal{Name: email, Email: email, Password: "hash", Role: role}
	require.NoError(t, f.principals.Create(context.Background(), p))
	return p
}

func (f *fixture) staffMember(t *testing.T, owner *model.Principal, panel model.Panel) *model.Staff {
	t.Helper()
	s := &model.Staff{
		Name:     "staff of " + owner.Email,
		Email:    fmt.Sprintf("staff%d@example.com", staffSeq.Add(1)),
		Password: "hash",
		Panel:    panel,
		AdminID:  owner.ID,
	}
	require.NoError(t, f.db.Create(s).Error)
	loaded, err := f.staff.FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	return loaded
}

func (f *fixture) role(t *testing.T, owner *model.Principal, panel model.Panel, name string) *model.Role {
	t.Helper()
	r := &model.Role{Name: name, Panel: panel, OwnerID: owner.ID}
	require.NoError(t, f.db.Create(r).Error)
	return r
}

func (f *fixture) permission(t *testing.T, panel model.Panel, module, action string) *model.GlobalPermission {
	t.Helper()
	perm, err := f.perms.FindByKey(context.Background(), panel, module, action)
	require.NoError(t, err)
	return perm
}

func (f *fixture) grant(t *testing.T, staff *model.Staff, perm *model.GlobalPermission, status bool) {
	t.Helper()
	require.NoError(t, f.perms.UpsertStaffGrant(context.Background(), &model.StaffPermissionGrant{
		StaffID: staff.ID, PermissionID: perm.ID, Status: status,
	}))
}

func (f *fixture) authorizer(cache DecisionCache) Authorizer {
	return NewAuthorizer(NewGlobalPolicyGate(f.perms), NewStaffPermissionEngine(f.perms), cache)
}

func (f *fixture) policy(cache DecisionCache) PolicyService {
	return NewPolicyService(f.db, f.perms, f.staff, f.roles, cache, f.recorder, f.log)
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []model.AuditRecord
}

func (r *memoryRecorder) Record(_ context.Context, rec *model.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *rec)
	return nil
}

func (r *memoryRecorder) all() []model.AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.AuditRecord(nil), r.records...)
}

// memoryStore stands in for Redis in decision cache tests.
type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
	fail   bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return "", errStoreDown
	}
	v, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *memoryStore) SetWithExpire(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	s.values[key] = value.(string)
	return nil
}

func (s *memoryStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errStoreDown
	}
	n, _ := strconv.ParseInt(s.values[key], 10, 64)
	n++
	s.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

type storeError string

func (e storeError) Error() string { return string(e) }

const errStoreDown = storeError("store unavailable")
