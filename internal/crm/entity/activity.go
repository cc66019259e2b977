package entity

import "time"

// Activity 实体的操作/时间线记录，只追加，按时间倒序展示
type Activity struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	EntityType  string    `json:"entityType" gorm:"size:32;not null;index:idx_crm_activity_entity"`
	EntityID    string    `json:"entityId" gorm:"size:36;not null;index:idx_crm_activity_entity"`
	Type        string    `json:"type" gorm:"size:32;not null"` // created/updated/status_change/note/call/...
	Description string    `json:"description" gorm:"type:text"`
	FromStatus  string    `json:"fromStatus,omitempty" gorm:"size:32"`
	ToStatus    string    `json:"toStatus,omitempty" gorm:"size:32"`
	CreatedBy   string    `json:"createdBy" gorm:"size:100"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Activity) TableName() string {
	return "crm_activities"
}

// 实体类型
const (
	EntityProject   = "project"
	EntityLead      = "lead"
	EntityBooking   = "booking"
	EntityInventory = "inventory"
	EntityUser      = "user"
	EntitySiteVisit = "site_visit"
)

// Activity 类型
const (
	ActivityCreated      = "created"
	ActivityUpdated      = "updated"
	ActivityStatusChange = "status_change"
	ActivityAssigned     = "assigned"
	ActivityFileUploaded = "file_uploaded"
	ActivityFileDeleted  = "file_deleted"
	ActivityNote         = "note"
	ActivityCall         = "call"
	ActivityEmail        = "email"
	ActivityMeeting      = "meeting"
)

// ActivityTypes 允许手工添加的类型
var ActivityTypes = []string{ActivityNote, ActivityCall, ActivityEmail, ActivityMeeting}
