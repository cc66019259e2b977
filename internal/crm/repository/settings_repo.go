package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemorySettingsStore 内存配置
type MemorySettingsStore struct {
	mu       sync.RWMutex
	settings entity.Settings
}

func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{settings: entity.DefaultSettings()}
}

func (s *MemorySettingsStore) Get(ctx context.Context) (*entity.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.settings
	out.LeadSources = append(entity.StringList(nil), s.settings.LeadSources...)
	return &out, nil
}

func (s *MemorySettingsStore) Save(ctx context.Context, settings *entity.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = *settings
	s.settings.ID = entity.SettingsID
	return nil
}

// GormSettingsStore 数据库配置，单行表
type GormSettingsStore struct {
	db *gorm.DB
}

func NewGormSettingsStore(db *gorm.DB) *GormSettingsStore {
	return &GormSettingsStore{db: db}
}

// Get 不存在时返回默认配置（不落库）
func (s *GormSettingsStore) Get(ctx context.Context) (*entity.Settings, error) {
	var settings entity.Settings
	err := s.db.WithContext(ctx).Where("id = ?", entity.SettingsID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def := entity.DefaultSettings()
		return &def, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Save 单行 upsert
func (s *GormSettingsStore) Save(ctx context.Context, settings *entity.Settings) error {
	settings.ID = entity.SettingsID
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(settingsColumns),
	}).Create(settings).Error
}

var settingsColumns = []string{
	"company_name", "email", "phone", "address", "currency", "timezone",
	"lead_sources", "email_notifications", "sms_notifications", "updated_at",
}
