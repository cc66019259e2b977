package entity

import "time"

// Settings 公司级配置，单例
type Settings struct {
	ID                 string     `json:"-" gorm:"primaryKey;size:16"`
	CompanyName        string     `json:"companyName" gorm:"size:200"`
	Email              string     `json:"email" gorm:"size:200"`
	Phone              string     `json:"phone" gorm:"size:32"`
	Address            string     `json:"address" gorm:"type:text"`
	Currency           string     `json:"currency" gorm:"size:8"`
	Timezone           string     `json:"timezone" gorm:"size:64"`
	LeadSources        StringList `json:"leadSources" gorm:"type:jsonb"`
	EmailNotifications bool       `json:"emailNotifications"`
	SMSNotifications   bool       `json:"smsNotifications"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func (Settings) TableName() string {
	return "crm_settings"
}

// SettingsID 单例主键
const SettingsID = "default"

// DefaultSettings 初始配置
func DefaultSettings() Settings {
	return Settings{
		ID:                 SettingsID,
		CompanyName:        "Gajrajah Realty",
		Currency:           "INR",
		Timezone:           "Asia/Kolkata",
		LeadSources:        StringList{"Website", "Referral", "Walk-in", "Social Media", "Property Portal", "Advertisement"},
		EmailNotifications: true,
	}
}
