package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditOutcome string

const (
	OutcomeSuccess AuditOutcome = "success"
	OutcomeDenied  AuditOutcome = "denied"
	OutcomeFailed  AuditOutcome = "failed"
)

// AuditRecord is the compliance trail of one mutating decision.
type AuditRecord struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CorrelationID uuid.UUID      `gorm:"type:varchar(36);index" json:"correlation_id"`
	ActorID       uint           `gorm:"index" json:"actor_id"`
	ActorRole     string         `gorm:"type:varchar(50)" json:"actor_role"`
	Delegated     bool           `json:"delegated"`
	PrincipalID   uint           `gorm:"index" json:"principal_id"`
	Panel         Panel          `gorm:"type:varchar(20);index" json:"panel"`
	Module        string         `gorm:"type:varchar(50);index" json:"module"`
	Action        string         `gorm:"type:varchar(50)" json:"action"`
	EntityType    string         `gorm:"type:varchar(50)" json:"entity_type"`
	EntityID      uint           `gorm:"index" json:"entity_id"`
	Before        datatypes.JSON `json:"before,omitempty"`
	After         datatypes.JSON `json:"after,omitempty"`
	Outcome       AuditOutcome   `gorm:"type:varchar(20);index" json:"outcome"`
	Reason        string         `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
}

func (AuditRecord) TableName() string {
	return "audit_records"
}
