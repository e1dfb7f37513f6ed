package model

// Role is a named bundle of permission grants assignable to staff.
type Role struct {
	BaseModel
	Name        string           `gorm:"type:varchar(100);not null" json:"name" validate:"required,max=100"`
	Panel       Panel            `gorm:"type:varchar(20);not null;index" json:"panel" validate:"required,panel"`
	Description string           `gorm:"type:text" json:"description"`
	// OwnerID is the principal whose staff may hold the role.
	OwnerID     uint             `gorm:"index;not null" json:"owner_id"`
	Permissions []RolePermission `gorm:"foreignKey:RoleID" json:"permissions,omitempty"`
}

func (r Role) Label() string {
	return r.Name
}
