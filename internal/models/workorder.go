package models

import (
	"time"

	"gorm.io/gorm"
)

// WorkOrder is the top-level production aggregate. Identity is immutable once
// imported; completion is expressed by archiving, never by deletion.
type WorkOrder struct {
	ID         string     `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"not null" json:"name"`
	ImportedAt time.Time  `json:"imported_at"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Products   []Product   `gorm:"foreignKey:WorkOrderID" json:"products,omitempty"`
	Hardware   []Hardware  `gorm:"foreignKey:WorkOrderID" json:"hardware,omitempty"`
	NestSheets []NestSheet `gorm:"foreignKey:WorkOrderID" json:"nest_sheets,omitempty"`
}

// TableName specifies the table name for WorkOrder model
func (WorkOrder) TableName() string {
	return "work_orders"
}

// Archived reports whether the work order has been closed out.
func (wo *WorkOrder) Archived() bool {
	return wo.ArchivedAt != nil
}

// Product is a sellable unit (a cabinet) inside a WorkOrder. It has no stored
// status of its own; its displayed status is always derived from its Parts,
// Hardware and Subassemblies.
type Product struct {
	ID          string `gorm:"primaryKey" json:"id"`
	WorkOrderID string `gorm:"index;not null" json:"work_order_id"`
	Name        string `gorm:"not null" json:"name"`
	ItemNumber  string `json:"item_number"`
	Quantity    int    `gorm:"default:1" json:"quantity"`
	SortOrder   int    `json:"sort_order"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Parts         []Part        `gorm:"foreignKey:ProductID" json:"parts,omitempty"`
	Subassemblies []Subassembly `gorm:"foreignKey:ProductID" json:"subassemblies,omitempty"`
	Hardware      []Hardware    `gorm:"foreignKey:ProductID" json:"hardware,omitempty"`
}

// TableName specifies the table name for Product model
func (Product) TableName() string {
	return "products"
}

// Subassembly is a grouping of Parts below a Product. Subassemblies may nest:
// exactly one of ProductID / ParentID is set.
type Subassembly struct {
	ID        string  `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"not null" json:"name"`
	Quantity  int     `gorm:"default:1" json:"quantity"`
	ProductID *string `gorm:"index" json:"product_id,omitempty"`
	ParentID  *string `gorm:"index" json:"parent_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Parts    []Part        `gorm:"foreignKey:SubassemblyID" json:"parts,omitempty"`
	Children []Subassembly `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// TableName specifies the table name for Subassembly model
func (Subassembly) TableName() string {
	return "subassemblies"
}

// Part is the leaf manufacturing unit. Status is stored here and only ever
// advances forward through the lifecycle sequence.
type Part struct {
	ID            string     `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"not null" json:"name"`
	Quantity      int        `gorm:"default:1" json:"quantity"`
	Category      string     `gorm:"index" json:"category"` // e.g. "carcass", "door"
	Status        PartStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ProductID     *string    `gorm:"index" json:"product_id,omitempty"`
	SubassemblyID *string    `gorm:"index" json:"subassembly_id,omitempty"`
	NestSheetID   *string    `gorm:"index" json:"nest_sheet_id,omitempty"` // stamped once cut
	StatusAt      *time.Time `json:"status_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Part model
func (Part) TableName() string {
	return "parts"
}

// Hardware is a purchased line item (hinges, screws) attached to a Product.
// Its stored status moves through a HardwareSequence, not the full Part
// lifecycle.
type Hardware struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	WorkOrderID string     `gorm:"index;not null" json:"work_order_id"`
	ProductID   *string    `gorm:"index" json:"product_id,omitempty"`
	Name        string     `gorm:"not null" json:"name"`
	Quantity    int        `gorm:"default:1" json:"quantity"`
	Status      PartStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	StatusAt    *time.Time `json:"status_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Hardware model
func (Hardware) TableName() string {
	return "hardware"
}

// NestSheet is a physical cut sheet. The CNC station transitions every
// assigned Part as a unit; Processed is true iff every assigned Part is at
// least Cut.
type NestSheet struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	WorkOrderID string     `gorm:"index;not null" json:"work_order_id"`
	Name        string     `gorm:"not null" json:"name"`
	Material    string     `json:"material"`
	Processed   bool       `gorm:"default:false" json:"processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Parts assigned to this sheet by nesting. Assignment happens at import;
	// Part.NestSheetID is only stamped when the sheet is cut.
	Parts []Part `gorm:"many2many:nest_sheet_parts;" json:"parts,omitempty"`
}

// TableName specifies the table name for NestSheet model
func (NestSheet) TableName() string {
	return "nest_sheets"
}
