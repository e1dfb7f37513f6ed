package model

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Staff is a delegated account acting inside one principal's panel.
// AdminID is a lookup-only back-reference: staff never owns the principal.
type Staff struct {
	BaseModel
	Name     string     `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	Email    string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password string     `gorm:"type:varchar(255);not null" json:"-"`
	Panel    Panel      `gorm:"type:varchar(20);not null" json:"panel" validate:"required,panel"`
	AdminID  uint       `gorm:"index;not null" json:"admin_id" validate:"required"`
	Admin    *Principal `gorm:"foreignKey:AdminID" json:"admin,omitempty" validate:"-"`
	RoleID   *uint      `gorm:"index" json:"role_id"`
	Role     *Role      `gorm:"foreignKey:RoleID" json:"role,omitempty" validate:"-"`

	PlainPassword string `gorm:"-" json:"password,omitempty" validate:"required_without=Password,max=72"`
}

func (Staff) TableName() string {
	return "staff"
}

func (s Staff) Label() string {
	return s.Name
}

func (s *Staff) SetPassword(password string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	s.Password = hashed
	return nil
}

func (s *Staff) BeforeSave(tx *gorm.DB) error {
	return applyPlainPassword(tx, &s.PlainPassword, &s.Password)
}

func (s *Staff) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(s.Password), []byte(password)) == nil
}
