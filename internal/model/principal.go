package model

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Principal is a top-level account: an admin, a supplier or a dropshipper.
type Principal struct {
	BaseModel
	Name     string        `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	Email    string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password string        `gorm:"type:varchar(255);not null" json:"-"`
	Role     PrincipalRole `gorm:"type:varchar(20);index;not null" json:"role" validate:"required,principal_role"`

	// PlainPassword is write-only input, hashed into Password on save.
	PlainPassword string `gorm:"-" json:"password,omitempty" validate:"required_without=Password,max=72"`
}

func (Principal) TableName() string {
	return "principals"
}

func (p Principal) Label() string {
	return p.Name
}

// SetPassword hashes and sets the principal's password
func (p *Principal) SetPassword(password string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	p.Password = hashed
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (p *Principal) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(p.Password), []byte(password)) == nil
}

func (p *Principal) BeforeSave(tx *gorm.DB) error {
	return applyPlainPassword(tx, &p.PlainPassword, &p.Password)
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func applyPlainPassword(tx *gorm.DB, plain, hash *string) error {
	if *plain == "" {
		return nil
	}
	hashed, err := hashPassword(*plain)
	if err != nil {
		return err
	}
	*hash = hashed
	*plain = ""
	tx.Statement.SetColumn("Password", hashed)
	return nil
}
