package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// GormStore 基于 gorm 的实体存储
type GormStore[T Record] struct {
	db *gorm.DB
}

func NewGormStore[T Record](db *gorm.DB) *GormStore[T] {
	return &GormStore[T]{db: db}
}

func (s *GormStore[T]) Create(ctx context.Context, item *T) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *GormStore[T]) FindByID(ctx context.Context, id string) (*T, error) {
	var item T
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// Update 整行覆盖（含零值字段）
func (s *GormStore[T]) Update(ctx context.Context, item *T) error {
	result := s.db.WithContext(ctx).Model(item).Select("*").Updates(item)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore[T]) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore[T]) FindAll(ctx context.Context) ([]T, error) {
	var items []T
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, err
}
