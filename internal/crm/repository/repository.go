package repository

import (
	"context"
	"errors"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record id")
)

// Record 可存储的实体
type Record interface {
	GetID() string
}

// Store 单个实体集合的存储
type Store[T Record] interface {
	Create(ctx context.Context, item *T) error
	FindByID(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id string) error
	// FindAll 按创建时间倒序返回全部记录
	FindAll(ctx context.Context) ([]T, error)
}

// ActivityStore 实体时间线
type ActivityStore interface {
	Append(ctx context.Context, activity *entity.Activity) error
	// ListByEntity 按时间倒序
	ListByEntity(ctx context.Context, entityType, entityID string) ([]entity.Activity, error)
	DeleteByEntity(ctx context.Context, entityType, entityID string) error
}

// FileStore 项目附件元数据
type FileStore interface {
	Store[entity.ProjectFile]
	ListByProject(ctx context.Context, projectID string) ([]entity.ProjectFile, error)
	// DeleteByProject 删除项目下全部附件记录，返回被删除的记录以便清理对象存储
	DeleteByProject(ctx context.Context, projectID string) ([]entity.ProjectFile, error)
}

// SettingsStore 公司配置
type SettingsStore interface {
	Get(ctx context.Context) (*entity.Settings, error)
	Save(ctx context.Context, settings *entity.Settings) error
}

// Repositories CRM仓库集合
type Repositories struct {
	Projects   Store[entity.Project]
	Leads      Store[entity.Lead]
	Bookings   Store[entity.Booking]
	Inventory  Store[entity.InventoryUnit]
	Users      Store[entity.User]
	SiteVisits Store[entity.SiteVisit]
	Activities ActivityStore
	Files      FileStore
	Settings   SettingsStore
}

// NewMemoryRepositories 创建内存仓库集合（演示 / 测试）
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		Projects:   NewMemoryStore[entity.Project](),
		Leads:      NewMemoryStore[entity.Lead](),
		Bookings:   NewMemoryStore[entity.Booking](),
		Inventory:  NewMemoryStore[entity.InventoryUnit](),
		Users:      NewMemoryStore[entity.User](),
		SiteVisits: NewMemoryStore[entity.SiteVisit](),
		Activities: NewMemoryActivityStore(),
		Files:      NewMemoryFileStore(),
		Settings:   NewMemorySettingsStore(),
	}
}

// NewGormRepositories 创建数据库仓库集合
func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Projects:   NewGormStore[entity.Project](db),
		Leads:      NewGormStore[entity.Lead](db),
		Bookings:   NewGormStore[entity.Booking](db),
		Inventory:  NewGormStore[entity.InventoryUnit](db),
		Users:      NewGormStore[entity.User](db),
		SiteVisits: NewGormStore[entity.SiteVisit](db),
		Activities: NewGormActivityStore(db),
		Files:      NewGormFileStore(db),
		Settings:   NewGormSettingsStore(db),
	}
}

// AutoMigrate 建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Project{},
		&entity.ProjectFile{},
		&entity.Lead{},
		&entity.Booking{},
		&entity.InventoryUnit{},
		&entity.User{},
		&entity.SiteVisit{},
		&entity.Activity{},
		&entity.Settings{},
	)
}
