package audit

import (
	"context"
	"encoding/json"
	"errors"

	"go-dropship-admin/internal/model"
	"go-dropship-admin/internal/repository"
	"go-dropship-admin/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Recorder receives one structured record per mutating decision.
// The core never depends on a recorder succeeding.
type Recorder interface {
	Record(ctx context.Context, record *model.AuditRecord) error
}

// NewRecord starts a record attributed to actor. A nil actor is recorded as actor 0.
func NewRecord(actor *model.ActorIdentity, panel model.Panel, module, action string) *model.AuditRecord {
	rec := &model.AuditRecord{
		CorrelationID: uuid.New(),
		Panel:         panel,
		Module:        module,
		Action:        action,
		Outcome:       model.OutcomeSuccess,
	}
	if actor != nil {
		rec.ActorID = actor.ID
		rec.ActorRole = actor.Role
		rec.Delegated = actor.IsDelegated()
		rec.PrincipalID = actor.PrincipalID()
	}
	return rec
}

// Snapshot serialises v for the before/after columns; nil values and encoding
// failures produce an empty snapshot.
func Snapshot(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}

// MultiRecorder fans a record out to every sink. Each sink is attempted even
// when an earlier one fails; failures are logged and joined.
type MultiRecorder struct {
	sinks []Recorder
	log   *logger.Logger
}

func NewMultiRecorder(log *logger.Logger, sinks ...Recorder) *MultiRecorder {
	return &MultiRecorder{sinks: sinks, log: log.Named("audit")}
}

func (m *MultiRecorder) Add(sink Recorder) {
	m.sinks = append(m.sinks, sink)
}

func (m *MultiRecorder) Record(ctx context.Context, record *model.AuditRecord) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Record(ctx, record); err != nil {
			m.log.Errorf(err, "audit sink failed (correlation_id=%s)", record.CorrelationID)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DBRecorder persists records in the audit_records table.
type DBRecorder struct {
	repo repository.AuditRepository
}

func NewDBRecorder(repo repository.AuditRepository) *DBRecorder {
	return &DBRecorder{repo: repo}
}

func (r *DBRecorder) Record(ctx context.Context, record *model.AuditRecord) error {
	// The request may already be cancelled; the trail must still be written.
	return r.repo.Create(context.WithoutCancel(ctx), record)
}
