package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-dropship-admin/internal/audit"
	"go-dropship-admin/internal/metrics"
	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/repository"
	"go-dropship-admin/pkg/logger"
	"go-dropship-admin/pkg/validator"

	"gorm.io/gorm"
)

// EntityConfig describes one entity collection served by a LifecycleManager.
type EntityConfig[T model.Record] struct {
	// EntityType is the audit name, e.g. "brand".
	EntityType string
	Panel      model.Panel
	Module     string
	// Prepare pins server-owned fields (panel, owner, role) before a write.
	// previous is the stored state on update and nil on create.
	Prepare func(actor *model.ActorIdentity, entity, previous *T)
	// OnChange runs after every successful mutation.
	OnChange func(ctx context.Context) error
}

// LifecycleManager owns the active -> trashed -> purged state machine of one
// entity type. Every transition is a conditional write; the manager never reads
// the state first and acts on it later.
type LifecycleManager[T model.Record] interface {
	Config() EntityConfig[T]
	List(ctx context.Context, status model.ListStatus) ([]T, error)
	// Get returns the entity in any state.
	Get(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, actor *model.ActorIdentity, entity *T) (*T, error)
	// Update loads the active entity, lets apply merge the request into it and saves it.
	Update(ctx context.Context, actor *model.ActorIdentity, id uint, apply func(*T) error) (*T, error)
	SoftDelete(ctx context.Context, actor *model.ActorIdentity, id uint) error
	Restore(ctx context.Context, actor *model.ActorIdentity, id uint) error
	Purge(ctx context.Context, actor *model.ActorIdentity, id uint) error
}

type lifecycleManager[T model.Record] struct {
	repo     *repository.SoftDeleteRepository[T]
	cfg      EntityConfig[T]
	recorder audit.Recorder
	log      *logger.Logger
	now      func() time.Time
}

func NewLifecycleManager[T model.Record](repo *repository.SoftDeleteRepository[T], cfg EntityConfig[T], recorder audit.Recorder, log *logger.Logger) LifecycleManager[T] {
	return &lifecycleManager[T]{
		repo:     repo,
		cfg:      cfg,
		recorder: recorder,
		log:      log.Named("lifecycle-" + cfg.EntityType),
		now:      time.Now,
	}
}

func (m *lifecycleManager[T]) Config() EntityConfig[T] {
	return m.cfg
}

func (m *lifecycleManager[T]) List(ctx context.Context, status model.ListStatus) ([]T, error) {
	entities, err := m.repo.List(ctx, status)
	if err != nil {
		return nil, NewInternalError(err)
	}
	return entities, nil
}

func (m *lifecycleManager[T]) Get(ctx context.Context, id uint) (*T, error) {
	entity, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, m.lookupError(err)
	}
	return entity, nil
}

func (m *lifecycleManager[T]) Create(ctx context.Context, actor *model.ActorIdentity, entity *T) (*T, error) {
	rec := m.newRecord(actor, model.ActionCreate, 0)

	stamp(entity).StampCreate(actor.ID)
	if m.cfg.Prepare != nil {
		m.cfg.Prepare(actor, entity, nil)
	}
	if err := validate(entity); err != nil {
		return nil, m.finish(ctx, rec, "create", err)
	}

	if err := m.repo.Create(ctx, entity); err != nil {
		return nil, m.finish(ctx, rec, "create", m.writeError(err))
	}

	rec.EntityID = (*entity).EntityID()
	rec.After = audit.Snapshot(entity)
	return entity, m.finish(ctx, rec, "create", nil)
}

func (m *lifecycleManager[T]) Update(ctx context.Context, actor *model.ActorIdentity, id uint, apply func(*T) error) (*T, error) {
	rec := m.newRecord(actor, model.ActionUpdate, id)

	entity, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, m.finish(ctx, rec, "update", m.lookupError(err))
	}
	if (*entity).IsTrashed() {
		return nil, m.finish(ctx, rec, "update", NewConflictError(MsgAlreadyTrashed))
	}
	rec.Before = audit.Snapshot(entity)
	previous := *entity

	if err := apply(entity); err != nil {
		return nil, m.finish(ctx, rec, "update", NewValidationError("Invalid request body"))
	}
	stamp(entity).StampUpdate(id, actor.ID)
	if m.cfg.Prepare != nil {
		m.cfg.Prepare(actor, entity, &previous)
	}
	if err := validate(entity); err != nil {
		return nil, m.finish(ctx, rec, "update", err)
	}

	n, err := m.repo.Update(ctx, entity)
	if err != nil {
		return nil, m.finish(ctx, rec, "update", m.writeError(err))
	}
	if n == 0 {
		// Trashed or purged between the read and the write.
		return nil, m.finish(ctx, rec, "update", m.classify(ctx, id, MsgAlreadyTrashed))
	}

	rec.After = audit.Snapshot(entity)
	return entity, m.finish(ctx, rec, "update", nil)
}

func (m *lifecycleManager[T]) SoftDelete(ctx context.Context, actor *model.ActorIdentity, id uint) error {
	rec := m.newRecord(actor, model.ActionSoftDelete, id)
	if before, err := m.repo.FindByID(ctx, id); err == nil {
		rec.Before = audit.Snapshot(before)
	}

	n, err := m.repo.SoftDelete(ctx, id, actor.ID, actor.Role, m.now())
	if err != nil {
		return m.finish(ctx, rec, "soft_delete", NewInternalError(err))
	}
	if n == 0 {
		return m.finish(ctx, rec, "soft_delete", m.classify(ctx, id, MsgAlreadyTrashed))
	}

	if after, err := m.repo.FindByID(ctx, id); err == nil {
		rec.After = audit.Snapshot(after)
	}
	return m.finish(ctx, rec, "soft_delete", nil)
}

func (m *lifecycleManager[T]) Restore(ctx context.Context, actor *model.ActorIdentity, id uint) error {
	rec := m.newRecord(actor, model.ActionRestore, id)
	if before, err := m.repo.FindByID(ctx, id); err == nil {
		rec.Before = audit.Snapshot(before)
	}

	n, err := m.repo.Restore(ctx, id)
	if err != nil {
		return m.finish(ctx, rec, "restore", NewInternalError(err))
	}
	if n == 0 {
		return m.finish(ctx, rec, "restore", m.classify(ctx, id, MsgNotInTrash))
	}

	if after, err := m.repo.FindByID(ctx, id); err == nil {
		rec.After = audit.Snapshot(after)
	}
	return m.finish(ctx, rec, "restore", nil)
}

func (m *lifecycleManager[T]) Purge(ctx context.Context, actor *model.ActorIdentity, id uint) error {
	rec := m.newRecord(actor, model.ActionPermanentDelete, id)
	if before, err := m.repo.FindByID(ctx, id); err == nil {
		rec.Before = audit.Snapshot(before)
	}

	n, err := m.repo.Purge(ctx, id)
	if err != nil {
		return m.finish(ctx, rec, "purge", NewInternalError(err))
	}
	if n == 0 {
		return m.finish(ctx, rec, "purge", m.notFound())
	}
	return m.finish(ctx, rec, "purge", nil)
}

// classify explains a conditional write that matched no row: the row is either
// gone or in the wrong state.
func (m *lifecycleManager[T]) classify(ctx context.Context, id uint, conflict string) error {
	if _, err := m.repo.FindByID(ctx, id); err != nil {
		return m.lookupError(err)
	}
	return NewConflictError("%s", conflict)
}

func (m *lifecycleManager[T]) lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m.notFound()
	}
	return NewInternalError(err)
}

func (m *lifecycleManager[T]) writeError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return NewConflictError("%s already exists", m.cfg.Module)
	}
	return NewInternalError(err)
}

func (m *lifecycleManager[T]) notFound() error {
	return NewNotFoundError("%s not found", m.cfg.Module)
}

func (m *lifecycleManager[T]) newRecord(actor *model.ActorIdentity, action string, id uint) *model.AuditRecord {
	rec := audit.NewRecord(actor, m.cfg.Panel, m.cfg.Module, action)
	rec.EntityType = m.cfg.EntityType
	rec.EntityID = id
	return rec
}

// finish closes an operation: it runs the change hook, emits the audit record
// and the metric, and returns err unchanged unless the hook failed.
func (m *lifecycleManager[T]) finish(ctx context.Context, rec *model.AuditRecord, op string, err error) error {
	if err == nil && m.cfg.OnChange != nil {
		if hookErr := m.cfg.OnChange(ctx); hookErr != nil {
			m.log.Errorf(hookErr, "%s %d: change hook failed", op, rec.EntityID)
			err = NewInternalError(hookErr)
		}
	}

	result := "success"
	if err != nil {
		result = KindOf(err).String()
		rec.Outcome = model.OutcomeFailed
		rec.Reason = MessageOf(err)
		if KindOf(err) == KindInternal {
			m.log.Errorf(err, "%s %d failed (correlation_id=%s)", op, rec.EntityID, rec.CorrelationID)
			err = withCorrelation(err, rec.CorrelationID.String())
		}
	}
	metrics.LifecycleOperations.WithLabelValues(m.cfg.EntityType, op, result).Inc()

	if m.recorder != nil {
		if recErr := m.recorder.Record(ctx, rec); recErr != nil {
			m.log.Warnf("audit record for %s %d not stored: %v", op, rec.EntityID, recErr)
		}
	}
	return err
}

func stamp[T model.Record](entity *T) model.Stamper {
	s, ok := any(entity).(model.Stamper)
	if !ok {
		panic(fmt.Sprintf("%T does not embed model.BaseModel", entity))
	}
	return s
}

func validate(v interface{}) error {
	if errs := validator.ValidateStruct(v); len(errs) > 0 {
		return NewValidationError("Validation failed: %s", errs[0].String())
	}
	return nil
}
