package repository

import (
	"context"
	"errors"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"gorm.io/gorm"
)

// MemoryFileStore 项目附件（内存）
type MemoryFileStore struct {
	*MemoryStore[entity.ProjectFile]
}

func NewMemoryFileStore() *MemoryFileStore {
	return &MemoryFileStore{MemoryStore: NewMemoryStore[entity.ProjectFile]()}
}

func (s *MemoryFileStore) ListByProject(ctx context.Context, projectID string) ([]entity.ProjectFile, error) {
	all, _ := s.FindAll(ctx)
	out := make([]entity.ProjectFile, 0)
	for _, f := range all {
		if f.ProjectID == projectID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *MemoryFileStore) DeleteByProject(ctx context.Context, projectID string) ([]entity.ProjectFile, error) {
	files, _ := s.ListByProject(ctx, projectID)
	for _, f := range files {
		if err := s.Delete(ctx, f.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return files, nil
}

// GormFileStore 项目附件（数据库）
type GormFileStore struct {
	*GormStore[entity.ProjectFile]
}

func NewGormFileStore(db *gorm.DB) *GormFileStore {
	return &GormFileStore{GormStore: NewGormStore[entity.ProjectFile](db)}
}

func (s *GormFileStore) ListByProject(ctx context.Context, projectID string) ([]entity.ProjectFile, error) {
	var files []entity.ProjectFile
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&files).Error
	if files == nil {
		files = []entity.ProjectFile{}
	}
	return files, err
}

func (s *GormFileStore) DeleteByProject(ctx context.Context, projectID string) ([]entity.ProjectFile, error) {
	files, err := s.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return files, nil
	}
	err = s.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&entity.ProjectFile{}).Error
	return files, err
}
