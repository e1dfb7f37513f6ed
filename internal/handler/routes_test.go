package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"go-dropship-admin/internal/audit"
	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/repository"
	"go-dropship-admin/internal/service"
	"go-dropship-admin/pkg/database"
	"go-dropship-admin/pkg/jwt"
	"go-dropship-admin/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	app    *fiber.App
	db     *gorm.DB
	perms  repository.PermissionRepository
	signer *jwt.Signer
	audit  repository.AuditRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := database.NewTestDB(t)
	require.NoError(t, model.AutoMigrate(db))

	log := logger.New().WithOutput(io.Discard)
	principals := repository.NewPrincipalRepo(db)
	staff := repository.NewStaffRepo(db)
	roles := repository.NewRoleRepo(db)
	perms := repository.NewPermissionRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	require.NoError(t, perms.SeedDefaults(context.Background()))

	signer := jwt.NewSigner("test-secret", "test", time.Hour)
	recorder := audit.NewMultiRecorder(log, audit.NewDBRecorder(auditRepo))
	cache := service.NoopDecisionCache{}
	resolver := service.NewActorResolver(principals, staff)

	app := fiber.New()
	Register(app, Dependencies{
		DB:       db,
		Resolver: resolver,
		Authorizer: service.NewAuthorizer(
			service.NewGlobalPolicyGate(perms),
			service.NewStaffPermissionEngine(perms),
			cache,
		),
		Policy:          service.NewPolicyService(db, perms, staff, roles, cache, recorder, log),
		Audit:           service.NewAuditService(auditRepo),
		Auth:            service.NewAuthService(principals, staff, resolver, signer),
		Recorder:        recorder,
		Cache:           cache,
		Signer:          signer,
		BulkConcurrency: 2,
		Log:             log,
	})
	return &testServer{app: app, db: db, perms: perms, signer: signer, audit: auditRepo}
}

func (s *testServer) principal(t *testing.T, email string, role model.PrincipalRole) *model.Principal {
	t.Helper()
	p := &model.Principal{Name: email, Email: email, PlainPassword: "password123", Role: role}
	require.NoError(t, s.db.Create(p).Error)
	return p
}

func (s *testServer) staff(t *testing.T, owner *model.Principal, panel model.Panel, email string) *model.Staff {
	t.Helper()
	st := &model.Staff{Name: email, Email: email, PlainPassword: "password123", Panel: panel, AdminID: owner.ID}
	require.NoError(t, s.db.Create(st).Error)
	return st
}

func (s *testServer) brand(t *testing.T, name string) *model.Brand {
	t.Helper()
	b := &model.Brand{Name: name}
	require.NoError(t, s.db.Create(b).Error)
	return b
}

type call struct {
	method  string
	path    string
	body    string
	headers map[string]string
}

func (s *testServer) do(t *testing.T, c call) (int, map[string]interface{}) {
	t.Helper()
	var body io.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]interface{}{}
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

func adminHeaders(id uint) map[string]string {
	return map[string]string{"x-admin-id": strconv.FormatUint(uint64(id), 10), "x-admin-role": "admin"}
}

func TestActorResolution(t *testing.T) {
	s := newTestServer(t)
	admin := s.principal(t, "admin@example.com", model.RoleAdmin)
	supplier := s.principal(t, "supplier@example.com", model.RoleSupplier)

	tests := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"missing id", nil, http.StatusBadRequest},
		{"non-numeric id", map[string]string{"x-admin-id": "abc", "x-admin-role": "admin"}, http.StatusBadRequest},
		{"unknown actor", map[string]string{"x-admin-id": "9999", "x-admin-role": "admin"}, http.StatusNotFound},
		{"role mismatch", map[string]string{"x-admin-id": strconv.Itoa(int(admin.ID)), "x-admin-role": "supplier"}, http.StatusNotFound},
		{"principal of another panel", map[string]string{"x-admin-id": strconv.Itoa(int(supplier.ID)), "x-admin-role": "supplier"}, http.StatusForbidden},
		{"admin", adminHeaders(admin.ID), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, call{method: http.MethodGet, path: "/api/admin/brands", headers: tt.headers})
			assert.Equal(t, tt.status, status)
			if tt.status != http.StatusOK {
				assert.Equal(t, false, body["status"])
				assert.NotEmpty(t, body["message"])
			}
		})
	}

	t.Run("unknown actor message", func(t *testing.T) {
		_, body := s.do(t, call{method: http.MethodGet, path: "/api/admin/brands", headers: map[string]string{"x-admin-id": "9999", "x-admin-role": "admin"}})
		assert.Equal(t, service.MsgActorNotFound, body["message"])
	})
}

func TestBearerToken(t *testing.T) {
	s := newTestServer(t)
	s.principal(t, "admin@example.com", model.RoleAdmin)

	status, body := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   `{"email":"admin@example.com","password":"password123"}`,
	})
	require.Equal(t, http.StatusOK, status)
	token := body["auth"].(map[string]interface{})["token"].(string)

	status, _ = s.do(t, call{method: http.MethodGet, path: "/api/admin/brands", headers: map[string]string{"Authorization": "Bearer " + token}})
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, call{method: http.MethodGet, path: "/api/admin/brands", headers: map[string]string{"Authorization": "Bearer garbage"}})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, call{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   `{"email":"admin@example.com","password":"wrong-password"}`,
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestStaffAuthorization(t *testing.T) {
	s := newTestServer(t)
	admin := s.principal(t, "admin@example.com", model.RoleAdmin)
	clerk := s.staff(t, admin, model.PanelAdmin, "clerk@example.com")
	brand := s.brand(t, "Acme")
	headers := map[string]string{"x-admin-id": strconv.Itoa(int(clerk.ID)), "x-admin-role": "catalogue-editor"}
	path := "/api/admin/brands/" + strconv.Itoa(int(brand.ID))

	status, body := s.do(t, call{method: http.MethodDelete, path: path, headers: headers})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, service.ReasonNoGrant, body["message"])

	denied, _, err := s.audit.List(context.Background(), repository.AuditFilter{Panel: model.PanelAdmin})
	require.NoError(t, err)
	require.NotEmpty(t, denied)
	assert.Equal(t, model.OutcomeDenied, denied[0].Outcome)
	assert.Equal(t, brand.ID, denied[0].EntityID)

	perm, err := s.perms.FindByKey(context.Background(), model.PanelAdmin, model.ModuleBrand, model.ActionSoftDelete)
	require.NoError(t, err)
	status, _ = s.do(t, call{
		method:  http.MethodPut,
		path:    "/api/admin/staff/" + strconv.Itoa(int(clerk.ID)) + "/grants",
		body:    `{"grants":[{"permission_id":` + strconv.Itoa(int(perm.ID)) + `,"status":true}]}`,
		headers: adminHeaders(admin.ID),
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, call{method: http.MethodDelete, path: path, headers: headers})
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(t, call{
		method:  http.MethodPatch,
		path:    "/api/admin/permissions/" + strconv.Itoa(int(perm.ID)),
		body:    `{"status":false}`,
		headers: adminHeaders(admin.ID),
	})
	require.Equal(t, http.StatusOK, status, body)

	status, body = s.do(t, call{method: http.MethodPatch, path: path + "/restore", headers: headers})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, service.ReasonNoGrant, body["message"])

	status, body = s.do(t, call{method: http.MethodDelete, path: path, headers: headers})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, service.ReasonFeatureDisabled, body["message"])
}

func TestEntityLifecycleRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.principal(t, "admin@example.com", model.RoleAdmin)
	headers := adminHeaders(admin.ID)

	status, body := s.do(t, call{method: http.MethodPost, path: "/api/admin/brands", body: `{"name":"Acme"}`, headers: headers})
	require.Equal(t, http.StatusCreated, status, body)
	id := int(body["brand"].(map[string]interface{})["id"].(float64))
	path := "/api/admin/brands/" + strconv.Itoa(id)

	status, body = s.do(t, call{method: http.MethodPost, path: "/api/admin/brands", body: `{}`, headers: headers})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, call{method: http.MethodPatch, path: path + "/restore", headers: headers})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, service.MsgNotInTrash, body["message"])

	status, _ = s.do(t, call{method: http.MethodDelete, path: path, headers: headers})
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, call{method: http.MethodDelete, path: path, headers: headers})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, service.MsgAlreadyTrashed, body["message"])

	status, body = s.do(t, call{method: http.MethodGet, path: "/api/admin/brands/trashed", headers: headers})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["brands"], 1)

	status, body = s.do(t, call{method: http.MethodGet, path: "/api/admin/brands", headers: headers})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["brands"], 0)

	status, body = s.do(t, call{method: http.MethodPut, path: path, body: `{"name":"Renamed"}`, headers: headers})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(t, call{method: http.MethodPatch, path: path + "/restore", headers: headers})
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, call{method: http.MethodPut, path: path, body: `{"name":"Renamed"}`, headers: headers})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Renamed", body["brand"].(map[string]interface{})["name"])

	status, _ = s.do(t, call{method: http.MethodDelete, path: path + "/destroy", headers: headers})
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, call{method: http.MethodGet, path: path, headers: headers})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, call{method: http.MethodGet, path: "/api/admin/brands/abc", headers: headers})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestBulkRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.principal(t, "admin@example.com", model.RoleAdmin)
	headers := adminHeaders(admin.ID)
	first := s.brand(t, "First")
	second := s.brand(t, "Second")

	ids := strconv.Itoa(int(first.ID)) + "," + strconv.Itoa(int(second.ID)) + ",999"
	status, body := s.do(t, call{method: http.MethodDelete, path: "/api/admin/brands/bulk", body: `{"ids":"` + ids + `"}`, headers: headers})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["status"])

	succeeded := body["succeeded"].([]interface{})
	require.Len(t, succeeded, 2)
	assert.Equal(t, "First", succeeded[0].(map[string]interface{})["name"])
	assert.Equal(t, "Second", succeeded[1].(map[string]interface{})["name"])

	failed := body["failed"].([]interface{})
	require.Len(t, failed, 1)
	item := failed[0].(map[string]interface{})
	assert.EqualValues(t, 999, item["id"])
	assert.Nil(t, item["name"])
	assert.Equal(t, service.ReasonNotFound, item["reason"])

	third := s.brand(t, "Third")
	status, body = s.do(t, call{
		method:  http.MethodDelete,
		path:    "/api/admin/brands/bulk/trash",
		body:    `{"ids":[` + strconv.Itoa(int(third.ID)) + `]}`,
		headers: headers,
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["succeeded"], 1)

	status, body = s.do(t, call{
		method:  http.MethodPatch,
		path:    "/api/admin/brands/bulk/restore",
		body:    `{"ids":["` + strconv.Itoa(int(third.ID)) + `"]}`,
		headers: headers,
	})
	require.Equal(t, http.StatusOK, status, body)
	assert.Len(t, body["succeeded"], 1)

	status, _ = s.do(t, call{method: http.MethodDelete, path: "/api/admin/brands/bulk", body: `{"ids":"1,x"}`, headers: headers})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, call{method: http.MethodDelete, path: "/api/admin/brands/bulk", body: `{"ids":[]}`, headers: headers})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSupplierPanelIsolation(t *testing.T) {
	s := newTestServer(t)
	alice := s.principal(t, "alice@example.com", model.RoleSupplier)
	bob := s.principal(t, "bob@example.com", model.RoleSupplier)
	aliceStaff := s.staff(t, alice, model.PanelSupplier, "alice-staff@example.com")
	s.staff(t, bob, model.PanelSupplier, "bob-staff@example.com")

	headers := map[string]string{"x-supplier-id": strconv.Itoa(int(alice.ID)), "x-supplier-role": "supplier"}
	status, body := s.do(t, call{method: http.MethodGet, path: "/api/supplier/staff", headers: headers})
	require.Equal(t, http.StatusOK, status)
	list := body["staff"].([]interface{})
	require.Len(t, list, 1)
	assert.EqualValues(t, aliceStaff.ID, list[0].(map[string]interface{})["id"])

	status, _ = s.do(t, call{method: http.MethodGet, path: "/api/supplier/brands", headers: headers})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, call{
		method:  http.MethodPost,
		path:    "/api/supplier/roles",
		body:    `{"name":"Packer","panel":"Admin","owner_id":999}`,
		headers: headers,
	})
	require.Equal(t, http.StatusCreated, status, body)
	role := body["role"].(map[string]interface{})
	assert.Equal(t, string(model.PanelSupplier), role["panel"])
	assert.EqualValues(t, alice.ID, role["owner_id"])
}

func TestHealthAndAuditLogs(t *testing.T) {
	s := newTestServer(t)
	admin := s.principal(t, "admin@example.com", model.RoleAdmin)

	status, body := s.do(t, call{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "up", body["database"])

	status, _ = s.do(t, call{method: http.MethodPost, path: "/api/admin/brands", body: `{"name":"Logged"}`, headers: adminHeaders(admin.ID)})
	require.Equal(t, http.StatusCreated, status)

	status, body = s.do(t, call{method: http.MethodGet, path: "/api/admin/audit-logs?module=Brand", headers: adminHeaders(admin.ID)})
	require.Equal(t, http.StatusOK, status, body)
	page := body["audit_logs"].(map[string]interface{})
	assert.EqualValues(t, 1, page["total"])
	records := page["records"].([]interface{})
	require.Len(t, records, 1)
	assert.Equal(t, "brand", records[0].(map[string]interface{})["entity_type"])
}
