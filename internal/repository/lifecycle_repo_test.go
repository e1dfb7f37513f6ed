package repository_test

import (
	"context"
	"testing"
	"time"

	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/repository"
	"go-dropship-admin/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db := database.NewTestDB(t)
	require.NoError(t, model.AutoMigrate(db))
	return db
}

func createBrand(t *testing.T, repo *repository.SoftDeleteRepository[model.Brand], name string) *model.Brand {
	brand := &model.Brand{Name: name}
	require.NoError(t, repo.Create(context.Background(), brand))
	return brand
}

func TestSoftDeleteRepository_Transitions(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSoftDeleteRepository[model.Brand](setupTestDB(t))
	brand := createBrand(t, repo, "Acme")

	t.Run("soft delete only matches active rows", func(t *testing.T) {
		n, err := repo.SoftDelete(ctx, brand.ID, 7, "admin", time.Now())
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		n, err = repo.SoftDelete(ctx, brand.ID, 7, "admin", time.Now())
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)

		trashed, err := repo.FindByID(ctx, brand.ID)
		require.NoError(t, err)
		assert.True(t, trashed.IsTrashed())
		require.NotNil(t, trashed.DeletedBy)
		assert.EqualValues(t, 7, *trashed.DeletedBy)
		require.NotNil(t, trashed.DeletedByRole)
		assert.Equal(t, "admin", *trashed.DeletedByRole)
	})

	t.Run("restore clears the trash trail", func(t *testing.T) {
		n, err := repo.Restore(ctx, brand.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		restored, err := repo.FindByID(ctx, brand.ID)
		require.NoError(t, err)
		assert.False(t, restored.IsTrashed())
		assert.Nil(t, restored.DeletedBy)
		assert.Nil(t, restored.DeletedByRole)

		n, err = repo.Restore(ctx, brand.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
	})

	t.Run("update is refused while trashed", func(t *testing.T) {
		_, err := repo.SoftDelete(ctx, brand.ID, 7, "admin", time.Now())
		require.NoError(t, err)

		brand.Name = "Renamed"
		n, err := repo.Update(ctx, brand)
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
	})

	t.Run("purge removes the row in any state", func(t *testing.T) {
		n, err := repo.Purge(ctx, brand.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		_, err = repo.FindByID(ctx, brand.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

		n, err = repo.Purge(ctx, brand.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
	})
}

func TestSoftDeleteRepository_ListPartitions(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSoftDeleteRepository[model.Brand](setupTestDB(t))
	active := createBrand(t, repo, "Active")
	trashed := createBrand(t, repo, "Trashed")
	_, err := repo.SoftDelete(ctx, trashed.ID, 1, "admin", time.Now())
	require.NoError(t, err)

	activeList, err := repo.List(ctx, model.ListActive)
	require.NoError(t, err)
	trashList, err := repo.List(ctx, model.ListTrashed)
	require.NoError(t, err)
	all, err := repo.List(ctx, model.ListAll)
	require.NoError(t, err)

	require.Len(t, activeList, 1)
	assert.Equal(t, active.ID, activeList[0].ID)
	require.Len(t, trashList, 1)
	assert.Equal(t, trashed.ID, trashList[0].ID)
	assert.Len(t, all, 2)
}

func TestSoftDeleteRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSoftDeleteRepository[model.Brand](setupTestDB(t))
	brand := &model.Brand{Name: "Acme", IsFrontend: true}
	brand.CreatedBy = 3
	require.NoError(t, repo.Create(ctx, brand))

	brand.Name = "Acme Corp"
	brand.IsFrontend = false
	brand.CreatedBy = 99
	n, err := repo.Update(ctx, brand)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	stored, err := repo.FindByID(ctx, brand.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", stored.Name)
	assert.False(t, stored.IsFrontend, "zero values are written")
	assert.EqualValues(t, 3, stored.CreatedBy, "created_by is never overwritten")
}

func TestSoftDeleteRepository_Scopes(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	supplier := &model.Principal{Name: "Supplier", Email: "s@example.com", Password: "x", Role: model.RoleSupplier}
	dropshipper := &model.Principal{Name: "Dropshipper", Email: "d@example.com", Password: "x", Role: model.RoleDropshipper}
	require.NoError(t, db.Create(supplier).Error)
	require.NoError(t, db.Create(dropshipper).Error)

	suppliers := repository.NewSoftDeleteRepository[model.Principal](db, repository.PrincipalRoleScope(model.RoleSupplier))

	list, err := suppliers.List(ctx, model.ListAll)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, supplier.ID, list[0].ID)

	_, err = suppliers.FindByID(ctx, dropshipper.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	n, err := suppliers.SoftDelete(ctx, dropshipper.ID, 1, "admin", time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "a scoped repository cannot touch rows outside its scope")
}

func TestOwnerScope(t *testing.T) {
	db := setupTestDB(t)
	owner := &model.Principal{Name: "Owner", Email: "o@example.com", Password: "x", Role: model.RoleSupplier}
	owner.ID = 10

	mine := &model.Staff{Name: "Mine", Email: "mine@example.com", Password: "x", Panel: model.PanelSupplier, AdminID: 10}
	theirs := &model.Staff{Name: "Theirs", Email: "theirs@example.com", Password: "x", Panel: model.PanelSupplier, AdminID: 11}
	require.NoError(t, db.Create(mine).Error)
	require.NoError(t, db.Create(theirs).Error)

	repo := repository.NewSoftDeleteRepository[model.Staff](db,
		repository.StaffPanelScope(model.PanelSupplier),
		repository.OwnerScope("admin_id"),
	)

	t.Run("actor in context", func(t *testing.T) {
		ctx := model.WithActor(context.Background(), model.NewPrincipalActor(owner))
		list, err := repo.List(ctx, model.ListActive)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, mine.ID, list[0].ID)
	})

	t.Run("no actor matches nothing", func(t *testing.T) {
		list, err := repo.List(context.Background(), model.ListActive)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestSoftDeleteRepository_PurgeCleanup(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	owner := &model.Principal{Name: "Owner", Email: "owner@example.com", Password: "hash", Role: model.RoleAdmin}
	require.NoError(t, db.Create(owner).Error)
	role := &model.Role{Name: "Editors", Panel: model.PanelAdmin, OwnerID: owner.ID}
	require.NoError(t, db.Create(role).Error)
	staff := &model.Staff{Name: "Clerk", Email: "clerk@example.com", Password: "hash", Panel: model.PanelAdmin, AdminID: owner.ID, RoleID: &role.ID}
	require.NoError(t, db.Create(staff).Error)
	require.NoError(t, db.Create(&model.RolePermission{RoleID: role.ID, PermissionID: 1, Status: true}).Error)
	require.NoError(t, db.Create(&model.StaffPermissionGrant{StaffID: staff.ID, PermissionID: 1, Status: true}).Error)

	t.Run("role purge drops grants and assignments", func(t *testing.T) {
		roles := repository.NewSoftDeleteRepository[model.Role](db).WithPurgeCleanup(repository.PurgeRoleReferences)
		n, err := roles.Purge(ctx, role.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		var grants int64
		require.NoError(t, db.Model(&model.RolePermission{}).Where("role_id = ?", role.ID).Count(&grants).Error)
		assert.Zero(t, grants)

		var reloaded model.Staff
		require.NoError(t, db.First(&reloaded, staff.ID).Error)
		assert.Nil(t, reloaded.RoleID)
	})

	t.Run("staff purge drops direct grants", func(t *testing.T) {
		members := repository.NewSoftDeleteRepository[model.Staff](db).WithPurgeCleanup(repository.PurgeStaffReferences)
		n, err := members.Purge(ctx, staff.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		var grants int64
		require.NoError(t, db.Model(&model.StaffPermissionGrant{}).Where("staff_id = ?", staff.ID).Count(&grants).Error)
		assert.Zero(t, grants)
	})

	t.Run("missing row runs no cleanup", func(t *testing.T) {
		called := false
		brands := repository.NewSoftDeleteRepository[model.Brand](db).WithPurgeCleanup(func(*gorm.DB, uint) error {
			called = true
			return nil
		})
		n, err := brands.Purge(ctx, 4242)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.False(t, called)
	})
}
