package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/config"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/sse"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/cache"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/storage"
	"go.uber.org/zap"
)

var (
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidActivityType = errors.New("invalid activity type")
	ErrInvalidDate         = errors.New("invalid date")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserInactive        = errors.New("user is inactive")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrUnitUnavailable     = errors.New("unit is not available")
	ErrStorageDisabled     = errors.New("file storage not configured")
)

// Services 服务集合
type Services struct {
	Project   *ProjectService
	Lead      *LeadService
	Booking   *BookingService
	Inventory *InventoryService
	User      *UserService
	SiteVisit *SiteVisitService
	Settings  *SettingsService
	Dashboard *DashboardService
	Report    *ReportService
}

// NewServices 创建服务集合；cacheStore、blobs、hub、logger 均可为 nil
func NewServices(
	repos *repository.Repositories,
	cacheStore cache.Cache,
	blobs storage.BlobStore,
	hub *sse.Hub,
	authCfg config.AuthConfig,
	logger *zap.Logger,
) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &notifier{hub: hub, cache: cacheStore, logger: logger}

	projectSvc := NewProjectService(repos, blobs, n)
	leadSvc := NewLeadService(repos, n)
	inventorySvc := NewInventoryService(repos, projectSvc, n)

	return &Services{
		Project:   projectSvc,
		Lead:      leadSvc,
		Booking:   NewBookingService(repos, inventorySvc, leadSvc, n),
		Inventory: inventorySvc,
		User:      NewUserService(repos, authCfg, n),
		SiteVisit: NewSiteVisitService(repos, leadSvc, n),
		Settings:  NewSettingsService(repos.Settings, n),
		Dashboard: NewDashboardService(repos, cacheStore, logger),
		Report:    NewReportService(repos, cacheStore, logger),
	}
}

func newID() string {
	return uuid.New().String()
}

// 写操作后广播 SSE 并清除看板缓存
type notifier struct {
	hub    *sse.Hub
	cache  cache.Cache
	logger *zap.Logger
}

func (n *notifier) publish(ctx context.Context, entityType, id, action string) {
	if n.hub != nil {
		n.hub.PublishEntityUpdate(entityType, id, action)
	}
	if n.cache != nil {
		if err := n.cache.Delete(ctx, dashboardCacheKey, summaryCacheKey); err != nil {
			n.logger.Warn("invalidate dashboard cache", zap.Error(err))
		}
	}
}

// parseDate 支持 RFC3339 与 YYYY-MM-DD；空串返回 nil
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("%w: %s=%q", ErrInvalidDate, field, value)
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func statusError(status string) error {
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func stringList(values []string) entity.StringList {
	out := make(entity.StringList, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
