package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel handles the numeric ID, timestamps and the soft-delete trail.
// A row is active while DeletedAt is null and trashed once it is set.
type BaseModel struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	DeletedBy     *uint   `json:"deleted_by"`
	DeletedByRole *string `gorm:"type:varchar(50)" json:"deleted_by_role"`

	// Audit User Tracking
	CreatedBy uint `json:"created_by"`
	UpdatedBy uint `json:"updated_by"`
}

func (b BaseModel) EntityID() uint {
	return b.ID
}

func (b BaseModel) IsTrashed() bool {
	return b.DeletedAt.Valid
}

// StampCreate clears client-supplied identity and trash fields before an insert.
func (b *BaseModel) StampCreate(actorID uint) {
	b.ID = 0
	b.DeletedAt = gorm.DeletedAt{}
	b.DeletedBy = nil
	b.DeletedByRole = nil
	b.CreatedBy = actorID
	b.UpdatedBy = actorID
}

func (b *BaseModel) StampUpdate(id, actorID uint) {
	b.ID = id
	b.UpdatedBy = actorID
}

// Stamper is implemented by pointers to every entity embedding BaseModel.
type Stamper interface {
	StampCreate(actorID uint)
	StampUpdate(id, actorID uint)
}

// Record is implemented by every soft-deletable entity.
type Record interface {
	EntityID() uint
	IsTrashed() bool
	Label() string
}

// ListStatus selects which side of the trash a listing returns.
type ListStatus string

const (
	ListActive  ListStatus = "active"
	ListTrashed ListStatus = "trashed"
	ListAll     ListStatus = "all"
)

func ParseListStatus(s string) (ListStatus, bool) {
	switch ListStatus(s) {
	case ListActive, ListTrashed, ListAll:
		return ListStatus(s), true
	case "":
		return ListActive, true
	}
	return "", false
}
