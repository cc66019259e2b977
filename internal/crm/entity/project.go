package entity

import "time"

// Project 楼盘项目
type Project struct {
	ID             string     `json:"id" gorm:"primaryKey;size:36"`
	Name           string     `json:"name" gorm:"size:200;not null"`
	Developer      string     `json:"developer" gorm:"size:200"`
	Location       string     `json:"location" gorm:"size:300"`
	City           string     `json:"city" gorm:"size:100;index"`
	Category       string     `json:"category" gorm:"size:50"` // Residential/Commercial/Villa/Plot
	Status         string     `json:"status" gorm:"size:32;default:Active;index"`
	TotalUnits     int        `json:"totalUnits" gorm:"default:0"`
	AvailableUnits int        `json:"availableUnits" gorm:"default:0"`
	MinPrice       float64    `json:"minPrice"`
	MaxPrice       float64    `json:"maxPrice"`
	ReraNumber     string     `json:"reraNumber" gorm:"size:64"`
	LaunchDate     *time.Time `json:"launchDate"`
	PossessionDate *time.Time `json:"possessionDate"`
	Amenities      StringList `json:"amenities" gorm:"type:jsonb"`
	Description    string     `json:"description" gorm:"type:text"`
	AssignedTo     string     `json:"assignedTo" gorm:"size:100"`

	CreatedBy string    `json:"createdBy" gorm:"size:100"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Activities []Activity `json:"activities" gorm:"-"`
}

func (Project) TableName() string {
	return "crm_projects"
}

func (p Project) GetID() string { return p.ID }

// Project 状态
const (
	ProjectStatusUpcoming  = "Upcoming"
	ProjectStatusActive    = "Active"
	ProjectStatusSoldOut   = "Sold Out"
	ProjectStatusCompleted = "Completed"
	ProjectStatusOnHold    = "On Hold"
)

var ProjectStatuses = []string{
	ProjectStatusUpcoming,
	ProjectStatusActive,
	ProjectStatusSoldOut,
	ProjectStatusCompleted,
	ProjectStatusOnHold,
}

// ProjectFile 项目附件（户型图、宣传册等），文件内容存对象存储
type ProjectFile struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	ProjectID   string    `json:"projectId" gorm:"size:36;not null;index"`
	Name        string    `json:"name" gorm:"size:256;not null"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType" gorm:"size:128"`
	ObjectKey   string    `json:"-" gorm:"size:512;not null"`
	URL         string    `json:"url" gorm:"size:512"`
	UploadedBy  string    `json:"uploadedBy" gorm:"size:100"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (ProjectFile) TableName() string {
	return "crm_project_files"
}

func (f ProjectFile) GetID() string { return f.ID }
