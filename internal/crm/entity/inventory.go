package entity

import "time"

// InventoryUnit 房源（单元）
type InventoryUnit struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	ProjectID   string  `json:"projectId" gorm:"size:36;not null;index"`
	ProjectName string  `json:"projectName" gorm:"size:200"`
	UnitNumber  string  `json:"unitNumber" gorm:"size:32;not null"`
	Tower       string  `json:"tower" gorm:"size:32"`
	Floor       int     `json:"floor"`
	UnitType    string  `json:"unitType" gorm:"size:32"` // 1BHK/2BHK/3BHK/Villa/Shop
	Area        float64 `json:"area"`                    // sq.ft
	Price       float64 `json:"price"`
	Facing      string  `json:"facing" gorm:"size:32"`
	Status      string  `json:"status" gorm:"size:32;default:Available;index"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Activities []Activity `json:"activities" gorm:"-"`
}

func (InventoryUnit) TableName() string {
	return "crm_inventory_units"
}

func (u InventoryUnit) GetID() string { return u.ID }

// InventoryUnit 状态
const (
	UnitStatusAvailable = "Available"
	UnitStatusBlocked   = "Blocked"
	UnitStatusBooked    = "Booked"
	UnitStatusSold      = "Sold"
)

var UnitStatuses = []string{
	UnitStatusAvailable,
	UnitStatusBlocked,
	UnitStatusBooked,
	UnitStatusSold,
}
