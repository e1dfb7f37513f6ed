package model

import "gorm.io/gorm"

// AutoMigrate creates or updates every table owned by the service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Principal{},
		&Staff{},
		&Role{},
		&GlobalPermission{},
		&StaffPermissionGrant{},
		&RolePermission{},
		&Brand{},
		&Category{},
		&Product{},
		&Warehouse{},
		&Pincode{},
		&AuditRecord{},
	)
}
