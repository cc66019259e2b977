package entity

import "time"

// SiteVisit 带看
type SiteVisit struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	LeadID      string     `json:"leadId" gorm:"size:36;index"`
	LeadName    string     `json:"leadName" gorm:"size:200"`
	LeadPhone   string     `json:"leadPhone" gorm:"size:32"`
	ProjectID   string     `json:"projectId" gorm:"size:36;index"`
	ProjectName string     `json:"projectName" gorm:"size:200"`
	ScheduledAt *time.Time `json:"scheduledAt"`
	Status      string     `json:"status" gorm:"size:32;default:Scheduled;index"`
	AssignedTo  string     `json:"assignedTo" gorm:"size:100"`
	Feedback    string     `json:"feedback" gorm:"type:text"`
	Rating      int        `json:"rating"`

	CreatedBy string    `json:"createdBy" gorm:"size:100"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Activities []Activity `json:"activities" gorm:"-"`
}

func (SiteVisit) TableName() string {
	return "crm_site_visits"
}

func (v SiteVisit) GetID() string { return v.ID }

// SiteVisit 状态
const (
	VisitStatusScheduled   = "Scheduled"
	VisitStatusCompleted   = "Completed"
	VisitStatusCancelled   = "Cancelled"
	VisitStatusRescheduled = "Rescheduled"
	VisitStatusNoShow      = "No Show"
)

var VisitStatuses = []string{
	VisitStatusScheduled,
	VisitStatusCompleted,
	VisitStatusCancelled,
	VisitStatusRescheduled,
	VisitStatusNoShow,
}
