package entity

import "time"

// User 系统用户（销售、经理、管理员）
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	Name         string     `json:"name" gorm:"size:100;not null"`
	Email        string     `json:"email" gorm:"size:200;uniqueIndex;not null"`
	Phone        string     `json:"phone" gorm:"size:32"`
	Role         string     `json:"role" gorm:"size:32;default:Sales Executive"`
	Status       string     `json:"status" gorm:"size:16;default:Active"`
	PasswordHash string     `json:"-" gorm:"size:100"`
	LastLogin    *time.Time `json:"lastLogin"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Activities []Activity `json:"activities" gorm:"-"`
}

func (User) TableName() string {
	return "crm_users"
}

func (u User) GetID() string { return u.ID }

// 角色
const (
	RoleAdmin          = "Admin"
	RoleManager        = "Manager"
	RoleSalesExecutive = "Sales Executive"
)

var UserRoles = []string{RoleAdmin, RoleManager, RoleSalesExecutive}

// User 状态
const (
	UserStatusActive   = "Active"
	UserStatusInactive = "Inactive"
)

var UserStatuses = []string{UserStatusActive, UserStatusInactive}
