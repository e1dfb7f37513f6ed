package model

import "time"

// Permission modules.
const (
	ModuleBrand       = "Brand"
	ModuleCategory    = "Category"
	ModuleProduct     = "Product"
	ModuleWarehouse   = "Warehouse"
	ModulePincode     = "Pincode"
	ModuleSupplier    = "Supplier"
	ModuleDropshipper = "Dropshipper"
	ModuleRole        = "Role"
	ModuleStaff       = "Staff"
	ModulePermission  = "Permission"
	ModuleAudit       = "Audit"
)

// Permission actions.
const (
	ActionView            = "View"
	ActionCreate          = "Create"
	ActionUpdate          = "Update"
	ActionSoftDelete      = "Soft Delete"
	ActionRestore         = "Restore"
	ActionPermanentDelete = "Permanent Delete"
	ActionTrashListing    = "Trash Listing"
)

// GlobalPermission is the platform-wide switch for one (panel, module, action).
// While Status is false no staff member can perform the action.
type GlobalPermission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Panel       Panel     `gorm:"type:varchar(20);not null;uniqueIndex:idx_global_permission_key" json:"panel"`
	Module      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_global_permission_key" json:"module"`
	Action      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_global_permission_key" json:"action"`
	Status      bool      `gorm:"not null" json:"status"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StaffPermissionGrant is an explicit per-staff capability.
type StaffPermissionGrant struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	StaffID      uint              `gorm:"not null;uniqueIndex:idx_staff_permission" json:"staff_id"`
	PermissionID uint              `gorm:"not null;uniqueIndex:idx_staff_permission" json:"permission_id"`
	Permission   *GlobalPermission `gorm:"foreignKey:PermissionID" json:"permission,omitempty"`
	Status       bool              `gorm:"not null" json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// RolePermission is a capability granted to everyone holding the role.
type RolePermission struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	RoleID       uint              `gorm:"not null;uniqueIndex:idx_role_permission" json:"role_id"`
	PermissionID uint              `gorm:"not null;uniqueIndex:idx_role_permission" json:"permission_id"`
	Permission   *GlobalPermission `gorm:"foreignKey:PermissionID" json:"permission,omitempty"`
	Status       bool              `gorm:"not null" json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

var lifecycleActions = []string{
	ActionView, ActionCreate, ActionUpdate,
	ActionSoftDelete, ActionRestore, ActionPermanentDelete, ActionTrashListing,
}

// panelModules lists which modules each panel exposes.
var panelModules = map[Panel][]string{
	PanelAdmin: {
		ModuleBrand, ModuleCategory, ModuleProduct, ModuleWarehouse, ModulePincode,
		ModuleSupplier, ModuleDropshipper, ModuleRole, ModuleStaff,
	},
	PanelSupplier:    {ModuleProduct, ModuleWarehouse, ModuleRole, ModuleStaff},
	PanelDropshipper: {ModuleProduct, ModuleRole, ModuleStaff},
}

// PanelModules returns the entity modules served under a panel.
func PanelModules(panel Panel) []string {
	return panelModules[panel]
}

// DefaultGlobalPermissions is the seed catalogue, enabled by default.
func DefaultGlobalPermissions() []GlobalPermission {
	var perms []GlobalPermission
	for _, panel := range Panels {
		for _, module := range panelModules[panel] {
			for _, action := range lifecycleActions {
				perms = append(perms, GlobalPermission{
					Panel:       panel,
					Module:      module,
					Action:      action,
					Status:      true,
					Description: action + " " + module,
				})
			}
		}
		perms = append(perms,
			GlobalPermission{Panel: panel, Module: ModulePermission, Action: ActionView, Status: true, Description: "View Permissions"},
			GlobalPermission{Panel: panel, Module: ModulePermission, Action: ActionUpdate, Status: true, Description: "Update Permissions"},
			GlobalPermission{Panel: panel, Module: ModuleAudit, Action: ActionView, Status: true, Description: "View Audit Logs"},
		)
	}
	return perms
}
