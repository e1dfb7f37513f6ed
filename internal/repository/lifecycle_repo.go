package repository

import (
	"context"
	"time"

	"go-dropship-admin/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope narrows every query of a repository, e.g. principals of one role.
type Scope func(*gorm.DB) *gorm.DB

// OwnerScope limits rows to those owned by the principal acting in the
// statement's context. Without an actor it matches nothing.
func OwnerScope(column string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		actor := model.ActorFromContext(db.Statement.Context)
		if actor == nil {
			return db.Where("1 = 0")
		}
		return db.Where(column+" = ?", actor.PrincipalID())
	}
}

// SoftDeleteRepository is the storage side of the trash lifecycle for one entity type.
// Every state transition is a single conditional statement so concurrent callers
// cannot both win.
type SoftDeleteRepository[T model.Record] struct {
	db      *gorm.DB
	scopes  []func(*gorm.DB) *gorm.DB
	cleanup PurgeCleanup
}

// PurgeCleanup removes rows that reference a purged entity. It runs in the
// purge transaction.
type PurgeCleanup func(tx *gorm.DB, id uint) error

func NewSoftDeleteRepository[T model.Record](db *gorm.DB, scopes ...Scope) *SoftDeleteRepository[T] {
	fns := make([]func(*gorm.DB) *gorm.DB, len(scopes))
	for i, s := range scopes {
		fns[i] = s
	}
	return &SoftDeleteRepository[T]{db: db, scopes: fns}
}

func (r *SoftDeleteRepository[T]) WithTx(tx *gorm.DB) *SoftDeleteRepository[T] {
	return &SoftDeleteRepository[T]{db: tx, scopes: r.scopes, cleanup: r.cleanup}
}

// WithPurgeCleanup returns a copy of the repository that runs fn after every
// successful purge.
func (r *SoftDeleteRepository[T]) WithPurgeCleanup(fn PurgeCleanup) *SoftDeleteRepository[T] {
	return &SoftDeleteRepository[T]{db: r.db, scopes: r.scopes, cleanup: fn}
}

// query starts an unscoped statement: the trash state is always filtered explicitly.
func (r *SoftDeleteRepository[T]) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Unscoped().Model(new(T)).Scopes(r.scopes...)
}

// FindByID returns the row in any state, or gorm.ErrRecordNotFound.
func (r *SoftDeleteRepository[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	var entity T
	if err := r.query(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *SoftDeleteRepository[T]) List(ctx context.Context, status model.ListStatus) ([]T, error) {
	q := r.query(ctx)
	switch status {
	case model.ListActive:
		q = q.Where("deleted_at IS NULL")
	case model.ListTrashed:
		q = q.Where("deleted_at IS NOT NULL")
	}

	entities := []T{}
	if err := q.Order("id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// Create inserts the row only; associations in the payload are never written.
func (r *SoftDeleteRepository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error
}

// Update writes every column except identity and trash fields, only while the row is active.
func (r *SoftDeleteRepository[T]) Update(ctx context.Context, entity *T) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().Model(entity).Scopes(r.scopes...).
		Where("deleted_at IS NULL").
		Select("*").
		Omit("id", "created_at", "created_by", "deleted_at", "deleted_by", "deleted_by_role", clause.Associations).
		Updates(entity)
	return res.RowsAffected, res.Error
}

// SoftDelete moves an active row to the trash. Zero rows affected means the row is
// absent or already trashed.
func (r *SoftDeleteRepository[T]) SoftDelete(ctx context.Context, id uint, actorID uint, actorRole string, at time.Time) (int64, error) {
	res := r.query(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"deleted_at":      at,
			"deleted_by":      actorID,
			"deleted_by_role": actorRole,
		})
	return res.RowsAffected, res.Error
}

// Restore brings a trashed row back, clearing the whole trash trail.
func (r *SoftDeleteRepository[T]) Restore(ctx context.Context, id uint) (int64, error) {
	res := r.query(ctx).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]interface{}{
			"deleted_at":      nil,
			"deleted_by":      nil,
			"deleted_by_role": nil,
		})
	return res.RowsAffected, res.Error
}

// Purge physically removes the row whatever its trash state, together with
// whatever the purge cleanup removes.
func (r *SoftDeleteRepository[T]) Purge(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Scopes(r.scopes...).Where("id = ?", id).Delete(new(T))
		if res.Error != nil {
			return res.Error
		}
		n = res.RowsAffected
		if n == 0 || r.cleanup == nil {
			return nil
		}
		return r.cleanup(tx, id)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
