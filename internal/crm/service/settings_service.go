package service

import (
	"context"
	"fmt"
	"time"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
)

// SettingsService 公司配置
type SettingsService struct {
	store  repository.SettingsStore
	notify *notifier
}

func NewSettingsService(store repository.SettingsStore, n *notifier) *SettingsService {
	return &SettingsService{store: store, notify: n}
}

// UpdateSettingsRequest 只覆盖传入的字段
type UpdateSettingsRequest struct {
	CompanyName        *string   `json:"companyName"`
	Email              *string   `json:"email" binding:"omitempty,email"`
	Phone              *string   `json:"phone"`
	Address            *string   `json:"address"`
	Currency           *string   `json:"currency"`
	Timezone           *string   `json:"timezone"`
	LeadSources        *[]string `json:"leadSources"`
	EmailNotifications *bool     `json:"emailNotifications"`
	SMSNotifications   *bool     `json:"smsNotifications"`
}

func (s *SettingsService) Get(ctx context.Context) (*entity.Settings, error) {
	settings, err := s.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

func (s *SettingsService) Update(ctx context.Context, req *UpdateSettingsRequest) (*entity.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if req.CompanyName != nil {
		settings.CompanyName = *req.CompanyName
	}
	if req.Email != nil {
		settings.Email = *req.Email
	}
	if req.Phone != nil {
		settings.Phone = *req.Phone
	}
	if req.Address != nil {
		settings.Address = *req.Address
	}
	if req.Currency != nil {
		settings.Currency = *req.Currency
	}
	if req.Timezone != nil {
		settings.Timezone = *req.Timezone
	}
	if req.LeadSources != nil {
		settings.LeadSources = stringList(*req.LeadSources)
	}
	if req.EmailNotifications != nil {
		settings.EmailNotifications = *req.EmailNotifications
	}
	if req.SMSNotifications != nil {
		settings.SMSNotifications = *req.SMSNotifications
	}
	settings.UpdatedAt = time.Now()

	if err := s.store.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	s.notify.publish(ctx, "settings", entity.SettingsID, "updated")
	return settings, nil
}
