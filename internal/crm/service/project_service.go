package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/entity"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/query"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/storage"
	"go.uber.org/zap"
)

// ProjectService 楼盘项目服务
type ProjectService struct {
	core      *core[entity.Project]
	inventory repository.Store[entity.InventoryUnit]
	files     repository.FileStore
	blobs     storage.BlobStore
	logger    *zap.Logger
}

func NewProjectService(repos *repository.Repositories, blobs storage.BlobStore, n *notifier) *ProjectService {
	return &ProjectService{
		core: &core[entity.Project]{
			kind:       entity.EntityProject,
			store:      repos.Projects,
			activities: repos.Activities,
			spec:       projectSpec(),
			statuses:   entity.ProjectStatuses,
			status:     func(p *entity.Project) *string { return &p.Status },
			owner:      func(p *entity.Project) string { return p.AssignedTo },
			timeline:   func(p *entity.Project) *[]entity.Activity { return &p.Activities },
			touch:      func(p *entity.Project, t time.Time) { p.UpdatedAt = t },
			notify:     n,
		},
		inventory: repos.Inventory,
		files:     repos.Files,
		blobs:     blobs,
		logger:    n.logger,
	}
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name           string   `json:"name" binding:"required"`
	Developer      string   `json:"developer"`
	Location       string   `json:"location"`
	City           string   `json:"city"`
	Category       string   `json:"category"`
	Status         string   `json:"status"`
	TotalUnits     int      `json:"totalUnits"`
	AvailableUnits *int     `json:"availableUnits"`
	MinPrice       float64  `json:"minPrice"`
	MaxPrice       float64  `json:"maxPrice"`
	ReraNumber     string   `json:"reraNumber"`
	LaunchDate     string   `json:"launchDate"`
	PossessionDate string   `json:"possessionDate"`
	Amenities      []string `json:"amenities"`
	Description    string   `json:"description"`
	AssignedTo     string   `json:"assignedTo"`
}

// UpdateProjectRequest 更新项目请求，nil 字段保持不变
type UpdateProjectRequest struct {
	Name           *string   `json:"name"`
	Developer      *string   `json:"developer"`
	Location       *string   `json:"location"`
	City           *string   `json:"city"`
	Category       *string   `json:"category"`
	Status         *string   `json:"status"`
	TotalUnits     *int      `json:"totalUnits"`
	AvailableUnits *int      `json:"availableUnits"`
	MinPrice       *float64  `json:"minPrice"`
	MaxPrice       *float64  `json:"maxPrice"`
	ReraNumber     *string   `json:"reraNumber"`
	LaunchDate     *string   `json:"launchDate"`
	PossessionDate *string   `json:"possessionDate"`
	Amenities      *[]string `json:"amenities"`
	Description    *string   `json:"description"`
	AssignedTo     *string   `json:"assignedTo"`
}

func (s *ProjectService) List(ctx context.Context, p query.Params) (query.Result[entity.Project], error) {
	return s.core.list(ctx, p)
}

func (s *ProjectService) Get(ctx context.Context, id string) (*entity.Project, error) {
	return s.core.get(ctx, id)
}

func (s *ProjectService) Create(ctx context.Context, actor string, req *CreateProjectRequest) (*entity.Project, error) {
	launch, err := parseDate("launchDate", req.LaunchDate)
	if err != nil {
		return nil, err
	}
	possession, err := parseDate("possessionDate", req.PossessionDate)
	if err != nil {
		return nil, err
	}

	status := firstNonEmpty(req.Status, entity.ProjectStatusActive)
	if err := s.core.checkStatus(status); err != nil {
		return nil, err
	}

	available := req.TotalUnits
	if req.AvailableUnits != nil {
		available = *req.AvailableUnits
	}

	now := time.Now()
	project := &entity.Project{
		ID:             newID(),
		Name:           req.Name,
		Developer:      req.Developer,
		Location:       req.Location,
		City:           req.City,
		Category:       req.Category,
		Status:         status,
		TotalUnits:     req.TotalUnits,
		AvailableUnits: available,
		MinPrice:       req.MinPrice,
		MaxPrice:       req.MaxPrice,
		ReraNumber:     req.ReraNumber,
		LaunchDate:     launch,
		PossessionDate: possession,
		Amenities:      stringList(req.Amenities),
		Description:    req.Description,
		AssignedTo:     req.AssignedTo,
		CreatedBy:      actor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := validateProject(project); err != nil {
		return nil, err
	}
	return s.core.create(ctx, project, actor, fmt.Sprintf("Project %s created", project.Name))
}

func (s *ProjectService) Update(ctx context.Context, actor, id string, req *UpdateProjectRequest) (*entity.Project, error) {
	project, err := s.core.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousStatus := project.Status

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Developer != nil {
		project.Developer = *req.Developer
	}
	if req.Location != nil {
		project.Location = *req.Location
	}
	if req.City != nil {
		project.City = *req.City
	}
	if req.Category != nil {
		project.Category = *req.Category
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.TotalUnits != nil {
		project.TotalUnits = *req.TotalUnits
	}
	if req.AvailableUnits != nil {
		project.AvailableUnits = *req.AvailableUnits
	}
	if req.MinPrice != nil {
		project.MinPrice = *req.MinPrice
	}
	if req.MaxPrice != nil {
		project.MaxPrice = *req.MaxPrice
	}
	if req.ReraNumber != nil {
		project.ReraNumber = *req.ReraNumber
	}
	if req.LaunchDate != nil {
		if project.LaunchDate, err = parseDate("launchDate", *req.LaunchDate); err != nil {
			return nil, err
		}
	}
	if req.PossessionDate != nil {
		if project.PossessionDate, err = parseDate("possessionDate", *req.PossessionDate); err != nil {
			return nil, err
		}
	}
	if req.Amenities != nil {
		project.Amenities = stringList(*req.Amenities)
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.AssignedTo != nil {
		project.AssignedTo = *req.AssignedTo
	}
	if err := validateProject(project); err != nil {
		return nil, err
	}

	return s.core.save(ctx, project, previousStatus, actor)
}

func validateProject(p *entity.Project) error {
	if p.Name == "" {
		return validationError("name is required")
	}
	if p.TotalUnits < 0 || p.AvailableUnits < 0 {
		return validationError("unit counts must not be negative")
	}
	if p.AvailableUnits > p.TotalUnits {
		return validationError("availableUnits (%d) exceeds totalUnits (%d)", p.AvailableUnits, p.TotalUnits)
	}
	if p.MaxPrice > 0 && p.MinPrice > p.MaxPrice {
		return validationError("minPrice exceeds maxPrice")
	}
	return nil
}

func (s *ProjectService) UpdateStatus(ctx context.Context, actor, id, status string) (*StatusChange, error) {
	_, change, err := s.core.updateStatus(ctx, id, status, actor)
	return change, err
}

// Delete 级联删除房源、附件（含对象存储）与时间线
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if _, err := s.core.store.FindByID(ctx, id); err != nil {
		return err
	}

	units, err := s.inventory.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("list project units: %w", err)
	}
	for _, u := range units {
		if u.ProjectID != id {
			continue
		}
		if err := s.inventory.Delete(ctx, u.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("delete unit %s: %w", u.ID, err)
		}
		if err := s.core.activities.DeleteByEntity(ctx, entity.EntityInventory, u.ID); err != nil {
			return fmt.Errorf("delete unit activities: %w", err)
		}
	}

	files, err := s.files.DeleteByProject(ctx, id)
	if err != nil {
		return fmt.Errorf("delete project files: %w", err)
	}
	for _, f := range files {
		s.removeBlob(ctx, f.ObjectKey)
	}

	return s.core.remove(ctx, id)
}

func (s *ProjectService) ListActivities(ctx context.Context, id string) ([]entity.Activity, error) {
	return s.core.listActivities(ctx, id)
}

func (s *ProjectService) AddActivity(ctx context.Context, actor, id string, req *AddActivityRequest) (*entity.Activity, error) {
	return s.core.addActivity(ctx, id, actor, req)
}

// ListInventory 项目下的房源，支持与 /inventory 相同的查询参数
func (s *ProjectService) ListInventory(ctx context.Context, id string, p query.Params) (query.Result[entity.InventoryUnit], error) {
	if _, err := s.core.store.FindByID(ctx, id); err != nil {
		return query.Result[entity.InventoryUnit]{}, err
	}
	units, err := s.inventory.FindAll(ctx)
	if err != nil {
		return query.Result[entity.InventoryUnit]{}, fmt.Errorf("list units: %w", err)
	}
	if p.Filters == nil {
		p.Filters = map[string]string{}
	}
	p.Filters["projectId"] = id
	res := query.Run(units, inventorySpec(), p)
	for i := range res.Items {
		acts, err := s.core.activities.ListByEntity(ctx, entity.EntityInventory, res.Items[i].ID)
		if err != nil {
			return query.Result[entity.InventoryUnit]{}, fmt.Errorf("load inventory activities: %w", err)
		}
		res.Items[i].Activities = acts
	}
	return res, nil
}

// RecountUnits 按房源状态重算 availableUnits：未录入房源的单元视为可售，
// 非 Available 的房源占用名额；项目下没有房源时不改动
func (s *ProjectService) RecountUnits(ctx context.Context, projectID string) error {
	project, err := s.core.store.FindByID(ctx, projectID)
	if err != nil {
		return err
	}
	units, err := s.inventory.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("list units: %w", err)
	}

	listed, taken := 0, 0
	for _, u := range units {
		if u.ProjectID != projectID {
			continue
		}
		listed++
		if u.Status != entity.UnitStatusAvailable {
			taken++
		}
	}
	if listed == 0 {
		return nil
	}
	total := max(project.TotalUnits, listed)
	available := total - taken
	if project.TotalUnits == total && project.AvailableUnits == available {
		return nil
	}

	project.TotalUnits = total
	project.AvailableUnits = available
	project.UpdatedAt = time.Now()
	if err := s.core.store.Update(ctx, project); err != nil {
		return fmt.Errorf("update project units: %w", err)
	}
	s.core.notify.publish(ctx, entity.EntityProject, projectID, "updated")
	return nil
}

// ListFiles 项目附件
func (s *ProjectService) ListFiles(ctx context.Context, projectID string) ([]entity.ProjectFile, error) {
	if _, err := s.core.store.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.files.ListByProject(ctx, projectID)
}

// UploadFile 保存附件，对象键 projects/{id}/YYYY/MM/{fileID}{ext}
func (s *ProjectService) UploadFile(ctx context.Context, actor, projectID, name, contentType string, size int64, r io.Reader) (*entity.ProjectFile, error) {
	if s.blobs == nil {
		return nil, ErrStorageDisabled
	}
	project, err := s.core.store.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	fileID := newID()
	key := fmt.Sprintf("projects/%s/%s/%s%s", projectID, now.Format("2006/01"), fileID, path.Ext(name))
	if err := s.blobs.Put(ctx, key, r, size, contentType); err != nil {
		return nil, err
	}

	file := &entity.ProjectFile{
		ID:          fileID,
		ProjectID:   projectID,
		Name:        name,
		Size:        size,
		ContentType: contentType,
		ObjectKey:   key,
		URL:         fmt.Sprintf("/api/projects/%s/files/%s", projectID, fileID),
		UploadedBy:  actor,
		CreatedAt:   now,
	}
	if err := s.files.Create(ctx, file); err != nil {
		s.removeBlob(ctx, key)
		return nil, fmt.Errorf("save file record: %w", err)
	}

	if _, err := s.core.record(ctx, projectID, entity.ActivityFileUploaded,
		fmt.Sprintf("File %s uploaded", name), "", "", firstNonEmpty(actor, project.AssignedTo)); err != nil {
		return nil, err
	}
	s.core.notify.publish(ctx, entity.EntityProject, projectID, "file_uploaded")
	return file, nil
}

// OpenFile 读取附件内容，调用方负责关闭
func (s *ProjectService) OpenFile(ctx context.Context, projectID, fileID string) (io.ReadCloser, *entity.ProjectFile, error) {
	if s.blobs == nil {
		return nil, nil, ErrStorageDisabled
	}
	file, err := s.projectFile(ctx, projectID, fileID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Get(ctx, file.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, repository.ErrNotFound
		}
		return nil, nil, err
	}
	return rc, file, nil
}

func (s *ProjectService) DeleteFile(ctx context.Context, actor, projectID, fileID string) error {
	file, err := s.projectFile(ctx, projectID, fileID)
	if err != nil {
		return err
	}
	if err := s.files.Delete(ctx, fileID); err != nil {
		return err
	}
	s.removeBlob(ctx, file.ObjectKey)

	if _, err := s.core.record(ctx, projectID, entity.ActivityFileDeleted,
		fmt.Sprintf("File %s deleted", file.Name), "", "", actor); err != nil {
		return err
	}
	s.core.notify.publish(ctx, entity.EntityProject, projectID, "file_deleted")
	return nil
}

func (s *ProjectService) projectFile(ctx context.Context, projectID, fileID string) (*entity.ProjectFile, error) {
	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.ProjectID != projectID {
		return nil, repository.ErrNotFound
	}
	return file, nil
}

// 对象存储清理失败只记日志
func (s *ProjectService) removeBlob(ctx context.Context, key string) {
	if s.blobs == nil || key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn("delete project file object", zap.String("key", key), zap.Error(err))
	}
}
