package entity

import "time"

// Lead 销售线索
type Lead struct {
	ID                 string     `json:"id" gorm:"primaryKey;size:36"`
	Name               string     `json:"name" gorm:"size:200;not null"`
	Email              string     `json:"email" gorm:"size:200"`
	Phone              string     `json:"phone" gorm:"size:32"`
	Source             string     `json:"source" gorm:"size:64"` // Website/Referral/Walk-in/...
	Status             string     `json:"status" gorm:"size:32;default:New;index"`
	AssignedTo         string     `json:"assignedTo" gorm:"size:100;index"`
	ProjectsInterested StringList `json:"projectsInterested" gorm:"type:jsonb"`
	BudgetMin          float64    `json:"budgetMin"`
	BudgetMax          float64    `json:"budgetMax"`
	City               string     `json:"city" gorm:"size:100"`
	Notes              string     `json:"notes" gorm:"type:text"`
	NextFollowUp       *time.Time `json:"nextFollowUp"`

	CreatedBy string    `json:"createdBy" gorm:"size:100"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Activities []Activity `json:"activities" gorm:"-"`
}

func (Lead) TableName() string {
	return "crm_leads"
}

func (l Lead) GetID() string { return l.ID }

// Lead 状态，前端按此顺序展示漏斗，但不强制流转
const (
	LeadStatusNew                = "New"
	LeadStatusContacted          = "Contacted"
	LeadStatusQualified          = "Qualified"
	LeadStatusSiteVisitScheduled = "Site Visit Scheduled"
	LeadStatusNegotiation        = "Negotiation"
	LeadStatusBooked             = "Booked"
	LeadStatusLost               = "Lost"
)

var LeadStatuses = []string{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusSiteVisitScheduled,
	LeadStatusNegotiation,
	LeadStatusBooked,
	LeadStatusLost,
}
