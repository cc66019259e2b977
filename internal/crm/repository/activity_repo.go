package repository

import (
	"context"
	"sync"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"gorm.io/gorm"
)

// MemoryActivityStore 内存时间线，每个实体一条倒序链
type MemoryActivityStore struct {
	mu    sync.RWMutex
	items map[string][]entity.Activity
}

func NewMemoryActivityStore() *MemoryActivityStore {
	return &MemoryActivityStore{items: make(map[string][]entity.Activity)}
}

func activityKey(entityType, entityID string) string {
	return entityType + ":" + entityID
}

func (s *MemoryActivityStore) Append(ctx context.Context, activity *entity.Activity) error {
	key := activityKey(activity.EntityType, activity.EntityID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]entity.Activity{*activity}, s.items[key]...)
	return nil
}

func (s *MemoryActivityStore) ListByEntity(ctx context.Context, entityType, entityID string) ([]entity.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.items[activityKey(entityType, entityID)]
	out := make([]entity.Activity, len(list))
	copy(out, list)
	return out, nil
}

func (s *MemoryActivityStore) DeleteByEntity(ctx context.Context, entityType, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, activityKey(entityType, entityID))
	return nil
}

// GormActivityStore 数据库时间线
type GormActivityStore struct {
	db *gorm.DB
}

func NewGormActivityStore(db *gorm.DB) *GormActivityStore {
	return &GormActivityStore{db: db}
}

func (s *GormActivityStore) Append(ctx context.Context, activity *entity.Activity) error {
	return s.db.WithContext(ctx).Create(activity).Error
}

func (s *GormActivityStore) ListByEntity(ctx context.Context, entityType, entityID string) ([]entity.Activity, error) {
	var list []entity.Activity
	err := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&list).Error
	if list == nil {
		list = []entity.Activity{}
	}
	return list, err
}

func (s *GormActivityStore) DeleteByEntity(ctx context.Context, entityType, entityID string) error {
	return s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Delete(&entity.Activity{}).Error
}
