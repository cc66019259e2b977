package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/query"
	"go.uber.org/zap"
)

// InventoryService 房源服务
type InventoryService struct {
	core     *core[entity.InventoryUnit]
	projects *ProjectService
	logger   *zap.Logger
}

func NewInventoryService(repos *repository.Repositories, projects *ProjectService, n *notifier) *InventoryService {
	return &InventoryService{
		core: &core[entity.InventoryUnit]{
			kind:       entity.EntityInventory,
			store:      repos.Inventory,
			activities: repos.Activities,
			spec:       inventorySpec(),
			statuses:   entity.UnitStatuses,
			status:     func(u *entity.InventoryUnit) *string { return &u.Status },
			owner:      func(u *entity.InventoryUnit) string { return "" },
			timeline:   func(u *entity.InventoryUnit) *[]entity.Activity { return &u.Activities },
			touch:      func(u *entity.InventoryUnit, t time.Time) { u.UpdatedAt = t },
			notify:     n,
		},
		projects: projects,
		logger:   n.logger,
	}
}

// CreateUnitRequest 创建房源请求
type CreateUnitRequest struct {
	ProjectID  string  `json:"projectId" binding:"required"`
	UnitNumber string  `json:"unitNumber" binding:"required"`
	Tower      string  `json:"tower"`
	Floor      int     `json:"floor"`
	UnitType   string  `json:"unitType"`
	Area       float64 `json:"area"`
	Price      float64 `json:"price"`
	Facing     string  `json:"facing"`
	Status     string  `json:"status"`
}

// UpdateUnitRequest 更新房源请求
type UpdateUnitRequest struct {
	UnitNumber *string  `json:"unitNumber"`
	Tower      *string  `json:"tower"`
	Floor      *int     `json:"floor"`
	UnitType   *string  `json:"unitType"`
	Area       *float64 `json:"area"`
	Price      *float64 `json:"price"`
	Facing     *string  `json:"facing"`
	Status     *string  `json:"status"`
}

func (s *InventoryService) List(ctx context.Context, p query.Params) (query.Result[entity.InventoryUnit], error) {
	return s.core.list(ctx, p)
}

func (s *InventoryService) Get(ctx context.Context, id string) (*entity.InventoryUnit, error) {
	return s.core.get(ctx, id)
}

func (s *InventoryService) Create(ctx context.Context, actor string, req *CreateUnitRequest) (*entity.InventoryUnit, error) {
	project, err := s.projects.core.store.FindByID(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validationError("project %s does not exist", req.ProjectID)
		}
		return nil, err
	}
	status := firstNonEmpty(req.Status, entity.UnitStatusAvailable)
	if err := s.core.checkStatus(status); err != nil {
		return nil, err
	}

	now := time.Now()
	unit := &entity.InventoryUnit{
		ID:          newID(),
		ProjectID:   project.ID,
		ProjectName: project.Name,
		UnitNumber:  strings.TrimSpace(req.UnitNumber),
		Tower:       req.Tower,
		Floor:       req.Floor,
		UnitType:    req.UnitType,
		Area:        req.Area,
		Price:       req.Price,
		Facing:      req.Facing,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateUnit(unit); err != nil {
		return nil, err
	}

	created, err := s.core.create(ctx, unit, actor, fmt.Sprintf("Unit %s added to %s", unit.UnitNumber, unit.ProjectName))
	if err != nil {
		return nil, err
	}
	s.recount(ctx, created.ProjectID)
	return created, nil
}

func (s *InventoryService) Update(ctx context.Context, actor, id string, req *UpdateUnitRequest) (*entity.InventoryUnit, error) {
	unit, err := s.core.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousStatus := unit.Status

	if req.UnitNumber != nil {
		unit.UnitNumber = strings.TrimSpace(*req.UnitNumber)
	}
	if req.Tower != nil {
		unit.Tower = *req.Tower
	}
	if req.Floor != nil {
		unit.Floor = *req.Floor
	}
	if req.UnitType != nil {
		unit.UnitType = *req.UnitType
	}
	if req.Area != nil {
		unit.Area = *req.Area
	}
	if req.Price != nil {
		unit.Price = *req.Price
	}
	if req.Facing != nil {
		unit.Facing = *req.Facing
	}
	if req.Status != nil {
		unit.Status = *req.Status
	}
	if err := validateUnit(unit); err != nil {
		return nil, err
	}

	updated, err := s.core.save(ctx, unit, previousStatus, actor)
	if err != nil {
		return nil, err
	}
	if updated.Status != previousStatus {
		s.recount(ctx, updated.ProjectID)
	}
	return updated, nil
}

func validateUnit(u *entity.InventoryUnit) error {
	if u.UnitNumber == "" {
		return validationError("unitNumber is required")
	}
	if u.Area < 0 || u.Price < 0 {
		return validationError("area and price must not be negative")
	}
	return nil
}

func (s *InventoryService) UpdateStatus(ctx context.Context, actor, id, status string) (*StatusChange, error) {
	unit, change, err := s.core.updateStatus(ctx, id, status, actor)
	if err != nil {
		return nil, err
	}
	if change.PreviousStatus != change.Status {
		s.recount(ctx, unit.ProjectID)
	}
	return change, nil
}

func (s *InventoryService) Delete(ctx context.Context, id string) error {
	unit, err := s.core.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.core.remove(ctx, id); err != nil {
		return err
	}
	s.recount(ctx, unit.ProjectID)
	return nil
}

func (s *InventoryService) ListActivities(ctx context.Context, id string) ([]entity.Activity, error) {
	return s.core.listActivities(ctx, id)
}

func (s *InventoryService) AddActivity(ctx context.Context, actor, id string, req *AddActivityRequest) (*entity.Activity, error) {
	return s.core.addActivity(ctx, id, actor, req)
}

// reserve 预订时锁定房源，只有 Available 可以被预订
func (s *InventoryService) reserve(ctx context.Context, id, actor string) (*entity.InventoryUnit, error) {
	unit, err := s.core.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validationError("unit %s does not exist", id)
		}
		return nil, err
	}
	if unit.Status != entity.UnitStatusAvailable {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnitUnavailable, unit.UnitNumber, unit.Status)
	}
	unit, _, err = s.core.updateStatus(ctx, id, entity.UnitStatusBooked, actor)
	if err != nil {
		return nil, err
	}
	s.recount(ctx, unit.ProjectID)
	return unit, nil
}

// setStatus 预订联动改房源状态；房源已删除时忽略
func (s *InventoryService) setStatus(ctx context.Context, id, status, actor string) error {
	if id == "" {
		return nil
	}
	unit, change, err := s.core.updateStatus(ctx, id, status, actor)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if change.PreviousStatus != change.Status {
		s.recount(ctx, unit.ProjectID)
	}
	return nil
}

func (s *InventoryService) recount(ctx context.Context, projectID string) {
	if err := s.projects.RecountUnits(ctx, projectID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("recount project units", zap.String("project_id", projectID), zap.Error(err))
	}
}
