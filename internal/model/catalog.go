package model

type Brand struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	Description string `gorm:"type:text" json:"description"`
	IsFrontend  bool   `json:"is_frontend"`
}

func (b Brand) Label() string {
	return b.Name
}

type Category struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	Slug        string `gorm:"type:varchar(255);index" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
}

func (c Category) Label() string {
	return c.Name
}

type Product struct {
	BaseModel
	SKU        string `gorm:"type:varchar(50);index;not null" json:"sku" validate:"required,max=50"`
	Name       string `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	BrandID    *uint  `gorm:"index" json:"brand_id"`
	CategoryID *uint  `gorm:"index" json:"category_id"`
	SupplierID *uint  `gorm:"index" json:"supplier_id"`
	Stock      int    `json:"stock" validate:"gte=0"`
	Price      int64  `json:"price" validate:"gte=0"`
}

func (p Product) Label() string {
	return p.Name
}

type Warehouse struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	ContactName string `gorm:"type:varchar(255)" json:"contact_name"`
	Phone       string `gorm:"type:varchar(20)" json:"phone" validate:"max=20"`
	Address     string `gorm:"type:text" json:"address"`
	City        string `gorm:"type:varchar(100)" json:"city"`
	State       string `gorm:"type:varchar(100)" json:"state"`
	Postcode    string `gorm:"type:varchar(20)" json:"postcode"`
	SupplierID  *uint  `gorm:"index" json:"supplier_id"`
}

func (w Warehouse) Label() string {
	return w.Name
}

// Pincode is a serviceable delivery area.
type Pincode struct {
	BaseModel
	Code        string `gorm:"type:varchar(20);index;not null" json:"code" validate:"required,max=20"`
	City        string `gorm:"type:varchar(100)" json:"city"`
	State       string `gorm:"type:varchar(100)" json:"state"`
	Serviceable bool   `json:"serviceable"`
}

func (p Pincode) Label() string {
	return p.Code
}
